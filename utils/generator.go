package utils

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

const slugSuffixLength = 6
const letterBytes = "abcdefghijklmnopqrstuvwxyz0123456789"

const maxSlugAttempts = 10

// GenerateUniqueSlug slugifies title and appends a random suffix until no row
// in table uses it.
func GenerateUniqueSlug(tx *gorm.DB, table, title string) (string, error) {
	base := slug.Make(title)
	if base == "" {
		base = "item"
	}
	seededRand := rand.New(rand.NewSource(time.Now().UnixNano()))

	candidate := base
	for attempt := 0; attempt < maxSlugAttempts; attempt++ {
		var count int64
		if err := tx.Table(table).Where("slug = ?", candidate).Count(&count).Error; err != nil {
			return "", err
		}
		if count == 0 {
			return candidate, nil
		}

		b := make([]byte, slugSuffixLength)
		for i := range b {
			b[i] = letterBytes[seededRand.Intn(len(letterBytes))]
		}
		candidate = fmt.Sprintf("%s-%s", base, b)
	}
	return "", errors.New("could not generate a unique slug")
}
