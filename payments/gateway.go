package payments

import (
	"context"
	"errors"
	"strings"
	"time"
)

const (
	MetadataConnectedAccountID   = "connected_account_id"
	MetadataEnrollmentID         = "enrollment_id"
	MetadataProjectID            = "project_id"
	MetadataProductID            = "product_id"
	MetadataQuantity             = "quantity"
	MetadataApplicationFeeAmount = "application_fee_amount"

	EventCheckoutSessionCompleted = "checkout.session.completed"
)

var (
	ErrAccountNotFound  = errors.New("connected account not found")
	ErrProductNotFound  = errors.New("product not found")
	ErrInvalidAccountID = errors.New("invalid connected account id")
	ErrInvalidSignature = errors.New("webhook signature verification failed")
)

// ValidAccountID reports whether id has the provider's connected account shape.
func ValidAccountID(id string) bool {
	return strings.HasPrefix(id, "acct_") && len(id) > len("acct_")
}

// AccountStatus is the provider's live view of a connected account.
type AccountStatus struct {
	AccountID                 string   `json:"account_id"`
	DetailsSubmitted          bool     `json:"details_submitted"`
	ChargesEnabled            bool     `json:"charges_enabled"`
	PayoutsEnabled            bool     `json:"payouts_enabled"`
	RequirementsCurrentlyDue  []string `json:"requirements_currently_due"`
	RequirementsEventuallyDue []string `json:"requirements_eventually_due"`
	RequirementsPastDue       []string `json:"requirements_past_due"`
	DisabledReason            string   `json:"disabled_reason,omitempty"`
	Country                   string   `json:"country,omitempty"`
	DefaultCurrency           string   `json:"default_currency,omitempty"`
}

type Link struct {
	URL       string     `json:"url"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

type CreateAccountInput struct {
	Email          string
	Country        string
	IdempotencyKey string
}

// CheckoutSessionInput carries one line item plus the platform fee split.
type CheckoutSessionInput struct {
	ProductName          string
	ProductDescription   string
	UnitAmount           int64
	Quantity             int64
	Currency             string
	ApplicationFeeAmount int64
	TransferDestination  string
	SuccessURL           string
	CancelURL            string
	CustomerEmail        string
	Metadata             map[string]string
	IdempotencyKey       string
}

type CheckoutSession struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

type ProductInput struct {
	Name               string
	Description        string
	UnitAmount         int64
	Currency           string
	ConnectedAccountID string
}

type Product struct {
	ID                 string `json:"id"`
	Name               string `json:"name"`
	Description        string `json:"description"`
	Active             bool   `json:"active"`
	PriceID            string `json:"price_id,omitempty"`
	UnitAmount         int64  `json:"unit_amount"`
	Currency           string `json:"currency"`
	ConnectedAccountID string `json:"connected_account_id,omitempty"`
}

// CompletedCheckout is the subset of a finished checkout session the platform acts on.
type CompletedCheckout struct {
	SessionID     string
	PaymentStatus string
	AmountTotal   int64
	Currency      string
	Metadata      map[string]string
}

type WebhookEvent struct {
	ID       string
	Type     string
	Checkout *CompletedCheckout
}

// Gateway is the external payment collaborator. Implementations never retry.
type Gateway interface {
	CreateConnectedAccount(ctx context.Context, in CreateAccountInput) (string, error)
	CreateOnboardingLink(ctx context.Context, accountID, refreshURL, returnURL string) (*Link, error)
	CreateDashboardLink(ctx context.Context, accountID string) (*Link, error)
	RetrieveAccountStatus(ctx context.Context, accountID string) (*AccountStatus, error)
	CreateCheckoutSession(ctx context.Context, in CheckoutSessionInput) (*CheckoutSession, error)
	CreateProduct(ctx context.Context, in ProductInput) (*Product, error)
	GetProduct(ctx context.Context, productID string) (*Product, error)
	ListProducts(ctx context.Context, limit int) ([]Product, error)
	ParseWebhook(payload []byte, signature string) (*WebhookEvent, error)
}
