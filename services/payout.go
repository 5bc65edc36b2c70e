package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/mentorhub/marketplace/models"
	"github.com/mentorhub/marketplace/payments"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type OnboardingStatus string

const (
	OnboardingIncomplete       OnboardingStatus = "incomplete"
	OnboardingDetailsSubmitted OnboardingStatus = "details_submitted"
	OnboardingChargesEnabled   OnboardingStatus = "charges_enabled"
	OnboardingFullyOnboarded   OnboardingStatus = "fully_onboarded"
)

// Classify maps account flags to an onboarding stage. The checks run in a
// fixed order so an account that has not submitted details is incomplete
// whatever the other flags claim.
func Classify(status payments.AccountStatus) OnboardingStatus {
	switch {
	case !status.DetailsSubmitted:
		return OnboardingIncomplete
	case !status.ChargesEnabled:
		return OnboardingDetailsSubmitted
	case !status.PayoutsEnabled:
		return OnboardingChargesEnabled
	default:
		return OnboardingFullyOnboarded
	}
}

// CanAcceptCheckout depends on charges alone; payouts may lag behind.
func CanAcceptCheckout(status payments.AccountStatus) bool {
	return status.ChargesEnabled
}

// Eligibility is a fresh, never cached, reading of a seller account.
type Eligibility struct {
	AccountID         string                  `json:"account_id"`
	Status            OnboardingStatus        `json:"onboarding_status"`
	CanAcceptCheckout bool                    `json:"can_accept_checkout"`
	CanReceivePayouts bool                    `json:"can_receive_payouts"`
	Account           *payments.AccountStatus `json:"account,omitempty"`
	Reason            string                  `json:"reason,omitempty"`
}

func evaluate(status *payments.AccountStatus) Eligibility {
	return Eligibility{
		AccountID:         status.AccountID,
		Status:            Classify(*status),
		CanAcceptCheckout: CanAcceptCheckout(*status),
		CanReceivePayouts: status.PayoutsEnabled,
		Account:           status,
	}
}

type PayoutService struct {
	db      *gorm.DB
	log     *zap.Logger
	gateway payments.Gateway
	policy  *Policy
	baseURL string
}

type PayoutParams struct {
	DB      *gorm.DB
	Log     *zap.Logger
	Gateway payments.Gateway
	Policy  *Policy
	BaseURL string
}

func NewPayoutService(p PayoutParams) *PayoutService {
	return &PayoutService{
		db:      p.DB,
		log:     p.Log.Named("payout.eligibility"),
		gateway: p.Gateway,
		policy:  p.Policy,
		baseURL: p.BaseURL,
	}
}

// AccountStatus fetches the account and surfaces gateway errors.
func (s *PayoutService) AccountStatus(ctx context.Context, accountID string) (*Eligibility, error) {
	if !payments.ValidAccountID(accountID) {
		return nil, payments.ErrInvalidAccountID
	}
	status, err := s.gateway.RetrieveAccountStatus(ctx, accountID)
	if err != nil {
		return nil, err
	}
	e := evaluate(status)
	return &e, nil
}

// EligibilityFor never returns an error. Any failure to read the account
// yields an ineligible result.
func (s *PayoutService) EligibilityFor(ctx context.Context, accountID string) Eligibility {
	e, err := s.AccountStatus(ctx, accountID)
	if err != nil {
		reason := "account_unavailable"
		if errors.Is(err, payments.ErrAccountNotFound) {
			reason = "account_not_found"
		} else if errors.Is(err, payments.ErrInvalidAccountID) {
			reason = "invalid_account"
		}
		s.log.Warn("eligibility check failed closed",
			zap.String("account_id", accountID),
			zap.String("reason", reason),
			zap.Error(err),
		)
		return Eligibility{AccountID: accountID, Status: OnboardingIncomplete, Reason: reason}
	}
	return *e
}

// CreateAccount returns the mentor's existing connected account or creates one.
func (s *PayoutService) CreateAccount(ctx context.Context, actor Actor, email string) (string, bool, error) {
	if !s.policy.CanManagePayoutAccount(actor) || actor.MentorID == nil {
		return "", false, ErrForbidden
	}

	var mentor models.MentorProfile
	if err := s.db.WithContext(ctx).First(&mentor, "id = ?", *actor.MentorID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", false, ErrMentorNotFound
		}
		return "", false, fmt.Errorf("load mentor: %w", err)
	}
	if mentor.StripeAccountID != nil && *mentor.StripeAccountID != "" {
		return *mentor.StripeAccountID, false, nil
	}

	accountID, err := s.gateway.CreateConnectedAccount(ctx, payments.CreateAccountInput{
		Email:          email,
		IdempotencyKey: "connect-account-" + mentor.ID.String(),
	})
	if err != nil {
		return "", false, err
	}

	if err := s.db.WithContext(ctx).Model(&mentor).Update("stripe_account_id", accountID).Error; err != nil {
		return "", false, fmt.Errorf("store account id: %w", err)
	}
	s.log.Info("connected account linked",
		zap.String("mentor_id", mentor.ID.String()),
		zap.String("account_id", accountID),
	)
	return accountID, true, nil
}

func (s *PayoutService) OnboardingLink(ctx context.Context, actor Actor, accountID string) (*payments.Link, error) {
	if err := s.authorizeAccount(ctx, actor, accountID); err != nil {
		return nil, err
	}
	refreshURL := fmt.Sprintf("%s/stripe/onboard/refresh?account_id=%s", s.baseURL, accountID)
	returnURL := fmt.Sprintf("%s/stripe/onboard/success?account_id=%s", s.baseURL, accountID)
	return s.gateway.CreateOnboardingLink(ctx, accountID, refreshURL, returnURL)
}

func (s *PayoutService) DashboardLink(ctx context.Context, actor Actor, accountID string) (*payments.Link, error) {
	if err := s.authorizeAccount(ctx, actor, accountID); err != nil {
		return nil, err
	}
	return s.gateway.CreateDashboardLink(ctx, accountID)
}

// CanViewAccount allows the owning mentor and moderators.
func (s *PayoutService) CanViewAccount(ctx context.Context, actor Actor, accountID string) bool {
	if s.policy.CanModerateListings(actor) {
		return true
	}
	return s.authorizeAccount(ctx, actor, accountID) == nil
}

func (s *PayoutService) authorizeAccount(ctx context.Context, actor Actor, accountID string) error {
	if !payments.ValidAccountID(accountID) {
		return payments.ErrInvalidAccountID
	}
	if !s.policy.CanManagePayoutAccount(actor) || actor.MentorID == nil {
		return ErrForbidden
	}
	var count int64
	err := s.db.WithContext(ctx).Model(&models.MentorProfile{}).
		Where("id = ? AND stripe_account_id = ?", *actor.MentorID, accountID).
		Count(&count).Error
	if err != nil {
		return fmt.Errorf("check account owner: %w", err)
	}
	if count == 0 {
		return ErrForbidden
	}
	return nil
}

// MentorAccountID returns the connected account on a mentor profile, if any.
func (s *PayoutService) MentorAccountID(ctx context.Context, mentorID uuid.UUID) (string, error) {
	var mentor models.MentorProfile
	if err := s.db.WithContext(ctx).Select("id", "stripe_account_id").First(&mentor, "id = ?", mentorID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrMentorNotFound
		}
		return "", err
	}
	if mentor.StripeAccountID == nil || *mentor.StripeAccountID == "" {
		return "", ErrMissingAccount
	}
	return *mentor.StripeAccountID, nil
}

// CreateProduct registers a catalogue product sold on behalf of the caller's account.
func (s *PayoutService) CreateProduct(ctx context.Context, actor Actor, in payments.ProductInput) (*payments.Product, error) {
	if in.UnitAmount < 0 {
		return nil, fmt.Errorf("%w: price must not be negative", ErrInvalidAmount)
	}
	if err := s.authorizeAccount(ctx, actor, in.ConnectedAccountID); err != nil {
		return nil, err
	}
	in.Currency = strings.ToLower(in.Currency)
	if in.Currency == "" {
		in.Currency = "usd"
	}
	product, err := s.gateway.CreateProduct(ctx, in)
	if err != nil {
		return nil, err
	}
	s.log.Info("product created",
		zap.String("product_id", product.ID),
		zap.String("account_id", in.ConnectedAccountID),
	)
	return product, nil
}

func (s *PayoutService) ListProducts(ctx context.Context, limit int) ([]payments.Product, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.gateway.ListProducts(ctx, limit)
}

func (s *PayoutService) ParseWebhook(payload []byte, signature string) (*payments.WebhookEvent, error) {
	return s.gateway.ParseWebhook(payload, signature)
}
