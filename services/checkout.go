package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/mentorhub/marketplace/metrics"
	"github.com/mentorhub/marketplace/models"
	"github.com/mentorhub/marketplace/payments"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var ErrAlreadyEnrolled = errors.New("student is already enrolled in this project")

// CheckoutFeeParams is the fee-bearing part of a checkout request.
type CheckoutFeeParams struct {
	ApplicationFeeAmount int64  `json:"application_fee_amount"`
	TransferDestination  string `json:"transfer_destination"`
}

// BuildCheckoutFeeParams is deterministic in its inputs, so a retried
// checkout carries the same fee. The destination is passed through as is;
// callers gate on CanAcceptCheckout first.
func BuildCheckoutFeeParams(grossMinor int64, rate float64, destinationAccountID string) (CheckoutFeeParams, error) {
	fee, err := ComputeFee(grossMinor, rate)
	if err != nil {
		return CheckoutFeeParams{}, err
	}
	return CheckoutFeeParams{
		ApplicationFeeAmount: fee,
		TransferDestination:  destinationAccountID,
	}, nil
}

type CheckoutResult struct {
	SessionID      string     `json:"session_id"`
	CheckoutURL    string     `json:"checkout_url"`
	Amount         int64      `json:"amount"`
	ApplicationFee int64      `json:"application_fee"`
	NetAmount      int64      `json:"net_amount"`
	Currency       string     `json:"currency"`
	EnrollmentID   *uuid.UUID `json:"enrollment_id,omitempty"`
}

type ProductCheckoutInput struct {
	ProductID          string
	Quantity           int64
	ConnectedAccountID string
}

type CheckoutService struct {
	db      *gorm.DB
	log     *zap.Logger
	gateway payments.Gateway
	config  *SystemConfigService
	payouts *PayoutService
	policy  *Policy
	audit   *AuditService
	mailer  Mailer
	baseURL string
}

type CheckoutParams struct {
	DB      *gorm.DB
	Log     *zap.Logger
	Gateway payments.Gateway
	Config  *SystemConfigService
	Payouts *PayoutService
	Policy  *Policy
	Audit   *AuditService
	Mailer  Mailer
	BaseURL string
}

func NewCheckoutService(p CheckoutParams) *CheckoutService {
	return &CheckoutService{
		db:      p.DB,
		log:     p.Log.Named("checkout"),
		gateway: p.Gateway,
		config:  p.Config,
		payouts: p.Payouts,
		policy:  p.Policy,
		audit:   p.Audit,
		mailer:  p.Mailer,
		baseURL: p.BaseURL,
	}
}

// feeFor gates on the seller account before any fee is computed.
func (s *CheckoutService) feeFor(ctx context.Context, grossMinor int64, accountID string) (CheckoutFeeParams, error) {
	eligibility := s.payouts.EligibilityFor(ctx, accountID)
	if !eligibility.CanAcceptCheckout {
		reason := eligibility.Reason
		if reason == "" {
			reason = string(eligibility.Status)
		}
		metrics.CheckoutRefusals.WithLabelValues(reason).Inc()
		return CheckoutFeeParams{}, ErrNotEligible
	}
	rate := s.config.GetCommissionRate(ctx)
	return BuildCheckoutFeeParams(grossMinor, rate, accountID)
}

// CheckoutProject opens a hosted checkout for a seat on a discoverable project.
func (s *CheckoutService) CheckoutProject(ctx context.Context, actor Actor, projectID uuid.UUID, email string) (*CheckoutResult, error) {
	if !s.policy.CanCheckout(actor) {
		return nil, ErrForbidden
	}

	var project models.Project
	err := s.db.WithContext(ctx).Scopes(Discoverable).First(&project, "projects.id = ?", projectID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrListingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load project: %w", err)
	}
	if project.CurrentStudents >= project.MaxStudents {
		return nil, ErrCapacityReached
	}

	var confirmed int64
	err = s.db.WithContext(ctx).Model(&models.Enrollment{}).
		Where("project_id = ? AND student_id = ? AND status = ?", project.ID, actor.UserID, models.EnrollmentConfirmed).
		Count(&confirmed).Error
	if err != nil {
		return nil, fmt.Errorf("check enrollment: %w", err)
	}
	if confirmed > 0 {
		return nil, ErrAlreadyEnrolled
	}

	accountID, err := s.payouts.MentorAccountID(ctx, project.MentorID)
	if err != nil {
		if errors.Is(err, ErrMissingAccount) {
			metrics.CheckoutRefusals.WithLabelValues("no_account").Inc()
			return nil, ErrNotEligible
		}
		return nil, err
	}

	fee, err := s.feeFor(ctx, project.PriceCents, accountID)
	if err != nil {
		return nil, err
	}

	enrollment, err := s.pendingEnrollment(ctx, &project, actor.UserID, fee)
	if err != nil {
		return nil, err
	}

	sess, err := s.gateway.CreateCheckoutSession(ctx, payments.CheckoutSessionInput{
		ProductName:          project.Title,
		ProductDescription:   derefOr(project.ShortDescription, ""),
		UnitAmount:           project.PriceCents,
		Quantity:             1,
		Currency:             project.Currency,
		ApplicationFeeAmount: fee.ApplicationFeeAmount,
		TransferDestination:  fee.TransferDestination,
		SuccessURL:           s.baseURL + "/projects/" + project.ID.String() + "?checkout=success&session_id={CHECKOUT_SESSION_ID}",
		CancelURL:            s.baseURL + "/projects/" + project.ID.String() + "?checkout=cancelled",
		CustomerEmail:        email,
		Metadata: map[string]string{
			payments.MetadataEnrollmentID:         enrollment.ID.String(),
			payments.MetadataProjectID:            project.ID.String(),
			payments.MetadataConnectedAccountID:   accountID,
			payments.MetadataApplicationFeeAmount: strconv.FormatInt(fee.ApplicationFeeAmount, 10),
		},
		IdempotencyKey: fmt.Sprintf("enrollment-%s-%d", enrollment.ID, fee.ApplicationFeeAmount),
	})
	if err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Model(enrollment).Update("checkout_session_id", sess.ID).Error; err != nil {
		return nil, fmt.Errorf("store checkout session: %w", err)
	}
	s.recordSession("project", project.Currency, fee.ApplicationFeeAmount)

	return &CheckoutResult{
		SessionID:      sess.ID,
		CheckoutURL:    sess.URL,
		Amount:         project.PriceCents,
		ApplicationFee: fee.ApplicationFeeAmount,
		NetAmount:      NetAmount(project.PriceCents, fee.ApplicationFeeAmount),
		Currency:       project.Currency,
		EnrollmentID:   &enrollment.ID,
	}, nil
}

// pendingEnrollment reuses an open enrollment so retries keep one row and one idempotency key.
func (s *CheckoutService) pendingEnrollment(ctx context.Context, project *models.Project, studentID uuid.UUID, fee CheckoutFeeParams) (*models.Enrollment, error) {
	var enrollment models.Enrollment
	err := s.db.WithContext(ctx).
		Where("project_id = ? AND student_id = ? AND status = ?", project.ID, studentID, models.EnrollmentPendingPayment).
		First(&enrollment).Error
	switch {
	case err == nil:
		updates := map[string]interface{}{
			"amount_cents":          project.PriceCents,
			"application_fee_cents": fee.ApplicationFeeAmount,
			"currency":              project.Currency,
		}
		if err := s.db.WithContext(ctx).Model(&enrollment).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("refresh enrollment: %w", err)
		}
		return &enrollment, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		enrollment = models.Enrollment{
			ProjectID:           project.ID,
			StudentID:           studentID,
			Status:              models.EnrollmentPendingPayment,
			AmountCents:         project.PriceCents,
			ApplicationFeeCents: fee.ApplicationFeeAmount,
			Currency:            project.Currency,
		}
		if err := s.db.WithContext(ctx).Create(&enrollment).Error; err != nil {
			return nil, fmt.Errorf("create enrollment: %w", err)
		}
		return &enrollment, nil
	default:
		return nil, fmt.Errorf("load enrollment: %w", err)
	}
}

// CheckoutProduct sells a catalogue product on behalf of a connected account.
func (s *CheckoutService) CheckoutProduct(ctx context.Context, in ProductCheckoutInput) (*CheckoutResult, error) {
	if in.Quantity < 1 {
		return nil, fmt.Errorf("%w: quantity must be at least 1", ErrInvalidAmount)
	}
	if !payments.ValidAccountID(in.ConnectedAccountID) {
		return nil, payments.ErrInvalidAccountID
	}

	product, err := s.gateway.GetProduct(ctx, in.ProductID)
	if err != nil {
		return nil, err
	}
	if product.PriceID == "" {
		return nil, fmt.Errorf("%w: product has no default price", ErrInvalidAmount)
	}
	if product.ConnectedAccountID != "" && product.ConnectedAccountID != in.ConnectedAccountID {
		return nil, ErrForbidden
	}

	gross := product.UnitAmount * in.Quantity
	fee, err := s.feeFor(ctx, gross, in.ConnectedAccountID)
	if err != nil {
		return nil, err
	}

	sess, err := s.gateway.CreateCheckoutSession(ctx, payments.CheckoutSessionInput{
		ProductName:          product.Name,
		ProductDescription:   product.Description,
		UnitAmount:           product.UnitAmount,
		Quantity:             in.Quantity,
		Currency:             product.Currency,
		ApplicationFeeAmount: fee.ApplicationFeeAmount,
		TransferDestination:  fee.TransferDestination,
		SuccessURL:           s.baseURL + "/stripe/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:            s.baseURL + "/stripe/cancel",
		Metadata: map[string]string{
			payments.MetadataProductID:            product.ID,
			payments.MetadataConnectedAccountID:   in.ConnectedAccountID,
			payments.MetadataQuantity:             strconv.FormatInt(in.Quantity, 10),
			payments.MetadataApplicationFeeAmount: strconv.FormatInt(fee.ApplicationFeeAmount, 10),
		},
	})
	if err != nil {
		return nil, err
	}
	s.recordSession("product", product.Currency, fee.ApplicationFeeAmount)

	return &CheckoutResult{
		SessionID:      sess.ID,
		CheckoutURL:    sess.URL,
		Amount:         gross,
		ApplicationFee: fee.ApplicationFeeAmount,
		NetAmount:      NetAmount(gross, fee.ApplicationFeeAmount),
		Currency:       product.Currency,
	}, nil
}

// ConfirmCheckout settles the enrollment behind a completed session. It is
// safe to call again for the same session.
func (s *CheckoutService) ConfirmCheckout(ctx context.Context, completed payments.CompletedCheckout) error {
	if completed.PaymentStatus != "paid" && completed.PaymentStatus != "no_payment_required" {
		s.log.Info("checkout completed without payment, skipping", zap.String("session_id", completed.SessionID))
		return nil
	}

	query := s.db.WithContext(ctx).Preload("Student").Preload("Project.Mentor.User")
	var enrollment models.Enrollment
	var err error
	if id, parseErr := uuid.Parse(completed.Metadata[payments.MetadataEnrollmentID]); parseErr == nil {
		err = query.First(&enrollment, "id = ?", id).Error
	} else {
		err = query.First(&enrollment, "checkout_session_id = ?", completed.SessionID).Error
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// Product checkouts have no enrollment.
		return nil
	}
	if err != nil {
		return fmt.Errorf("load enrollment: %w", err)
	}
	if enrollment.Status == models.EnrollmentConfirmed {
		s.warnIfPaidTwice(&enrollment, completed.SessionID)
		return nil
	}

	previousStatus := enrollment.Status
	var claimed, seated bool
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Only the delivery that moves the row out of its loaded status settles it.
		now := time.Now().UTC()
		claim := tx.Model(&models.Enrollment{}).
			Where("id = ? AND status = ?", enrollment.ID, previousStatus).
			Updates(map[string]interface{}{
				"status":              models.EnrollmentConfirmed,
				"enrolled_at":         now,
				"checkout_session_id": completed.SessionID,
			})
		if claim.Error != nil {
			return claim.Error
		}
		if claim.RowsAffected == 0 {
			return nil
		}
		claimed = true

		result := tx.Model(&models.Project{}).
			Where("id = ? AND current_students < max_students", enrollment.ProjectID).
			Update("current_students", gorm.Expr("current_students + 1"))
		if result.Error != nil {
			return result.Error
		}
		seated = result.RowsAffected == 1

		newStatus := models.EnrollmentConfirmed
		if !seated {
			newStatus = models.EnrollmentCancelled
			err := tx.Model(&models.Enrollment{}).Where("id = ?", enrollment.ID).
				Updates(map[string]interface{}{"status": newStatus, "enrolled_at": nil}).Error
			if err != nil {
				return err
			}
		}

		if s.audit == nil {
			return nil
		}
		return s.audit.Append(ctx, tx, SystemActor, AuditEntry{
			Action:     AuditActionEnrollmentConfirm,
			TargetType: "enrollment",
			TargetID:   enrollment.ID.String(),
			OldValue:   strPtr(previousStatus),
			NewValue:   strPtr(newStatus),
			Metadata:   map[string]interface{}{"session_id": completed.SessionID, "amount_total": completed.AmountTotal},
		})
	})
	if err != nil {
		return fmt.Errorf("confirm enrollment: %w", err)
	}

	if !claimed {
		var settled models.Enrollment
		if err := s.db.WithContext(ctx).First(&settled, "id = ?", enrollment.ID).Error; err != nil {
			return fmt.Errorf("reload enrollment: %w", err)
		}
		s.log.Info("enrollment already settled by another delivery",
			zap.String("enrollment_id", enrollment.ID.String()),
			zap.String("session_id", completed.SessionID),
		)
		s.warnIfPaidTwice(&settled, completed.SessionID)
		return nil
	}

	if !seated {
		s.log.Warn("paid checkout arrived for a full project, enrollment cancelled for refund",
			zap.String("enrollment_id", enrollment.ID.String()),
			zap.String("session_id", completed.SessionID),
		)
		return ErrCapacityReached
	}

	s.log.Info("enrollment confirmed",
		zap.String("enrollment_id", enrollment.ID.String()),
		zap.String("project_id", enrollment.ProjectID.String()),
	)
	s.notifyEnrollment(&enrollment)
	return nil
}

// warnIfPaidTwice flags a paid session that differs from the one that settled
// the enrollment. The student was charged twice and needs a refund.
func (s *CheckoutService) warnIfPaidTwice(e *models.Enrollment, sessionID string) {
	if e.CheckoutSessionID == nil || *e.CheckoutSessionID == sessionID {
		return
	}
	metrics.DuplicatePayments.Inc()
	s.log.Warn("second paid checkout for a settled enrollment, refund required",
		zap.String("enrollment_id", e.ID.String()),
		zap.String("settled_session_id", *e.CheckoutSessionID),
		zap.String("session_id", sessionID),
	)
}

func (s *CheckoutService) notifyEnrollment(e *models.Enrollment) {
	if s.mailer == nil {
		return
	}
	go func() {
		ctx := context.Background()
		title := e.Project.Title
		if err := s.mailer.Send(ctx, e.Student.Email, e.Student.Name,
			"You're enrolled in "+title,
			fmt.Sprintf("<p>Hi %s,</p><p>Your payment went through and your seat in <strong>%s</strong> is confirmed.</p>", e.Student.Name, title),
		); err != nil {
			s.log.Warn("student enrollment email failed", zap.Error(err))
		}
		mentor := e.Project.Mentor.User
		if mentor.Email == "" {
			return
		}
		if err := s.mailer.Send(ctx, mentor.Email, mentor.Name,
			"New student in "+title,
			fmt.Sprintf("<p>Hi %s,</p><p>%s just enrolled in <strong>%s</strong>.</p>", mentor.Name, e.Student.Name, title),
		); err != nil {
			s.log.Warn("mentor enrollment email failed", zap.Error(err))
		}
	}()
}

func (s *CheckoutService) recordSession(kind, currency string, fee int64) {
	metrics.CheckoutSessionsCreated.WithLabelValues(kind, currency).Inc()
	metrics.ApplicationFeesAssessed.WithLabelValues(currency).Add(float64(fee))
}

func derefOr(s *string, fallback string) string {
	if s == nil {
		return fallback
	}
	return *s
}
