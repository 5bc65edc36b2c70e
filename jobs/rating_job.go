package jobs

import (
	"context"
	"math"

	"github.com/google/uuid"
	"github.com/mentorhub/marketplace/database"
	"github.com/mentorhub/marketplace/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type mentorRating struct {
	MentorID uuid.UUID
	Avg      float64
	Total    int
}

// RefreshMentorRatings is the cron entry point.
func RefreshMentorRatings() {
	log := zap.L().Named("jobs.ratings")
	updated, err := RecomputeMentorRatings(context.Background(), database.DB)
	if err != nil {
		log.Error("recomputing mentor ratings failed", zap.Error(err))
		return
	}
	log.Info("mentor ratings refreshed", zap.Int("mentors", updated))
}

// RecomputeMentorRatings rewrites every mentor's rating and total_reviews
// from the reviews table. Mentors without reviews are reset to zero.
func RecomputeMentorRatings(ctx context.Context, db *gorm.DB) (int, error) {
	var rows []mentorRating
	err := db.WithContext(ctx).Model(&models.Review{}).
		Select("mentor_id, COALESCE(AVG(rating), 0) AS avg, COUNT(*) AS total").
		Group("mentor_id").
		Scan(&rows).Error
	if err != nil {
		return 0, err
	}

	reviewed := make([]uuid.UUID, 0, len(rows))
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, r := range rows {
			err := tx.Model(&models.MentorProfile{}).Where("id = ?", r.MentorID).Updates(map[string]interface{}{
				"rating":        math.Round(r.Avg*100) / 100,
				"total_reviews": r.Total,
			}).Error
			if err != nil {
				return err
			}
			reviewed = append(reviewed, r.MentorID)
		}

		reset := tx.Model(&models.MentorProfile{}).Where("total_reviews <> 0 OR rating <> 0")
		if len(reviewed) > 0 {
			reset = reset.Where("id NOT IN ?", reviewed)
		}
		return reset.Updates(map[string]interface{}{"rating": 0, "total_reviews": 0}).Error
	})
	if err != nil {
		return 0, err
	}
	return len(rows), nil
}
