package services

import (
	"fmt"

	"github.com/mentorhub/marketplace/payments"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Process-wide service instances used by the HTTP handlers.
var (
	Authz        *Policy
	Audit        *AuditService
	SystemConfig *SystemConfigService
	Listings     *ListingService
	Payouts      *PayoutService
	Checkout     *CheckoutService
)

type Deps struct {
	DB                    *gorm.DB
	Log                   *zap.Logger
	Gateway               payments.Gateway
	Mailer                Mailer
	DefaultCommissionRate float64
	PublishMode           string
	BaseURL               string
}

// Init wires every service from deps and publishes them on the package vars.
func Init(d Deps) error {
	policy, err := NewPolicy()
	if err != nil {
		return fmt.Errorf("authorization policy: %w", err)
	}
	audit := NewAuditService(d.DB, d.Log)
	cfg := NewSystemConfigService(SystemConfigParams{
		DB:          d.DB,
		Log:         d.Log,
		Audit:       audit,
		DefaultRate: d.DefaultCommissionRate,
	})
	listings := NewListingService(ListingParams{
		DB:          d.DB,
		Log:         d.Log,
		Policy:      policy,
		Audit:       audit,
		Mailer:      d.Mailer,
		PublishMode: d.PublishMode,
	})
	payouts := NewPayoutService(PayoutParams{
		DB:      d.DB,
		Log:     d.Log,
		Gateway: d.Gateway,
		Policy:  policy,
		BaseURL: d.BaseURL,
	})
	checkout := NewCheckoutService(CheckoutParams{
		DB:      d.DB,
		Log:     d.Log,
		Gateway: d.Gateway,
		Config:  cfg,
		Payouts: payouts,
		Policy:  policy,
		Audit:   audit,
		Mailer:  d.Mailer,
		BaseURL: d.BaseURL,
	})

	Authz = policy
	Audit = audit
	SystemConfig = cfg
	Listings = listings
	Payouts = payouts
	Checkout = checkout
	return nil
}
