package jobs

import (
	"context"
	"time"

	"github.com/mentorhub/marketplace/database"
	"github.com/mentorhub/marketplace/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// PendingEnrollmentTTL matches the provider's checkout session lifetime.
const PendingEnrollmentTTL = 24 * time.Hour

func ExpirePendingEnrollments() {
	log := zap.L().Named("jobs.enrollments")
	expired, err := CancelStalePendingEnrollments(context.Background(), database.DB, time.Now().Add(-PendingEnrollmentTTL))
	if err != nil {
		log.Error("expiring pending enrollments failed", zap.Error(err))
		return
	}
	if expired > 0 {
		log.Info("cancelled stale pending enrollments", zap.Int64("count", expired))
	}
}

// CancelStalePendingEnrollments cancels unpaid enrollments created before cutoff.
func CancelStalePendingEnrollments(ctx context.Context, db *gorm.DB, cutoff time.Time) (int64, error) {
	res := db.WithContext(ctx).Model(&models.Enrollment{}).
		Where("status = ? AND created_at < ?", models.EnrollmentPendingPayment, cutoff).
		Update("status", models.EnrollmentCancelled)
	return res.RowsAffected, res.Error
}
