package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/mentorhub/marketplace/models"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SystemConfigService exposes typed access to platform settings. Reads fall
// back to the injected default whenever the stored value is unusable.
type SystemConfigService struct {
	db          *gorm.DB
	log         *zap.Logger
	audit       *AuditService
	defaultRate float64
}

type SystemConfigParams struct {
	DB          *gorm.DB
	Log         *zap.Logger
	Audit       *AuditService
	DefaultRate float64
}

func NewSystemConfigService(p SystemConfigParams) *SystemConfigService {
	rate := p.DefaultRate
	if ValidateRate(rate) != nil {
		rate = DefaultCommissionRate
	}
	return &SystemConfigService{
		db:          p.DB,
		log:         p.Log.Named("system.config"),
		audit:       p.Audit,
		defaultRate: rate,
	}
}

func (s *SystemConfigService) DefaultCommissionRate() float64 {
	return s.defaultRate
}

// GetCommissionRate never fails. A missing row, a read error or a malformed
// value all yield the default, and the default is never written back.
func (s *SystemConfigService) GetCommissionRate(ctx context.Context) float64 {
	var row models.SystemConfig
	err := s.db.WithContext(ctx).Where(&models.SystemConfig{Key: models.ConfigKeyCommissionRate}).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return s.defaultRate
	}
	if err != nil {
		s.log.Warn("commission rate read failed, using default", zap.Error(err), zap.Float64("default", s.defaultRate))
		return s.defaultRate
	}

	rate, err := parseRate(row.Value)
	if err != nil {
		s.log.Warn("stored commission rate is invalid, using default",
			zap.String("value", row.Value),
			zap.Error(err),
		)
		return s.defaultRate
	}
	return rate
}

// SetCommissionRate validates before touching storage; a rejected rate
// leaves the stored value as it was.
func (s *SystemConfigService) SetCommissionRate(ctx context.Context, actor Actor, rate float64) error {
	if err := ValidateRate(rate); err != nil {
		return err
	}
	value := decimal.NewFromFloat(rate).String()

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var previous models.SystemConfig
		var oldValue *string
		if err := tx.Where(&models.SystemConfig{Key: models.ConfigKeyCommissionRate}).First(&previous).Error; err == nil {
			oldValue = strPtr(previous.Value)
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("read commission rate: %w", err)
		}

		row := models.SystemConfig{Key: models.ConfigKeyCommissionRate, Value: value}
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).Create(&row).Error
		if err != nil {
			return fmt.Errorf("store commission rate: %w", err)
		}

		if s.audit == nil {
			return nil
		}
		return s.audit.Append(ctx, tx, actor, AuditEntry{
			Action:     AuditActionCommissionRateSet,
			TargetType: "system_config",
			TargetID:   models.ConfigKeyCommissionRate,
			OldValue:   oldValue,
			NewValue:   strPtr(value),
		})
	})
}

func parseRate(value string) (float64, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return 0, err
	}
	rate := d.InexactFloat64()
	if err := ValidateRate(rate); err != nil {
		return 0, err
	}
	return rate, nil
}
