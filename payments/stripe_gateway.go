package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/account"
	"github.com/stripe/stripe-go/v82/accountlink"
	"github.com/stripe/stripe-go/v82/checkout/session"
	"github.com/stripe/stripe-go/v82/loginlink"
	"github.com/stripe/stripe-go/v82/product"
	"github.com/stripe/stripe-go/v82/webhook"
	"go.uber.org/zap"
)

type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
}

// StripeGateway talks to Stripe Connect. Accounts are controller-managed:
// the platform pays fees, absorbs losses and gives sellers the Express dashboard.
type StripeGateway struct {
	webhookSecret string
	log           *zap.Logger
}

func NewStripeGateway(cfg StripeConfig, log *zap.Logger) *StripeGateway {
	stripe.Key = cfg.SecretKey
	return &StripeGateway{
		webhookSecret: cfg.WebhookSecret,
		log:           log.Named("payments.stripe"),
	}
}

func (g *StripeGateway) CreateConnectedAccount(ctx context.Context, in CreateAccountInput) (string, error) {
	params := &stripe.AccountParams{
		Controller: &stripe.AccountControllerParams{
			Fees: &stripe.AccountControllerFeesParams{
				Payer: stripe.String("application"),
			},
			Losses: &stripe.AccountControllerLossesParams{
				Payments: stripe.String("application"),
			},
			StripeDashboard: &stripe.AccountControllerStripeDashboardParams{
				Type: stripe.String("express"),
			},
		},
	}
	if in.Email != "" {
		params.Email = stripe.String(in.Email)
	}
	if in.Country != "" {
		params.Country = stripe.String(in.Country)
	}
	if in.IdempotencyKey != "" {
		params.SetIdempotencyKey(in.IdempotencyKey)
	}
	params.Context = ctx

	acct, err := account.New(params)
	if err != nil {
		return "", fmt.Errorf("create connected account: %w", err)
	}
	g.log.Info("connected account created", zap.String("account_id", acct.ID))
	return acct.ID, nil
}

func (g *StripeGateway) CreateOnboardingLink(ctx context.Context, accountID, refreshURL, returnURL string) (*Link, error) {
	params := &stripe.AccountLinkParams{
		Account:    stripe.String(accountID),
		RefreshURL: stripe.String(refreshURL),
		ReturnURL:  stripe.String(returnURL),
		Type:       stripe.String("account_onboarding"),
	}
	params.Context = ctx

	link, err := accountlink.New(params)
	if err != nil {
		return nil, wrapAccountErr("create onboarding link", err)
	}
	expires := time.Unix(link.ExpiresAt, 0).UTC()
	return &Link{URL: link.URL, ExpiresAt: &expires}, nil
}

func (g *StripeGateway) CreateDashboardLink(ctx context.Context, accountID string) (*Link, error) {
	params := &stripe.LoginLinkParams{Account: stripe.String(accountID)}
	params.Context = ctx

	link, err := loginlink.New(params)
	if err != nil {
		return nil, wrapAccountErr("create dashboard link", err)
	}
	return &Link{URL: link.URL}, nil
}

func (g *StripeGateway) RetrieveAccountStatus(ctx context.Context, accountID string) (*AccountStatus, error) {
	params := &stripe.AccountParams{}
	params.Context = ctx

	acct, err := account.GetByID(accountID, params)
	if err != nil {
		return nil, wrapAccountErr("retrieve account", err)
	}

	status := &AccountStatus{
		AccountID:        acct.ID,
		DetailsSubmitted: acct.DetailsSubmitted,
		ChargesEnabled:   acct.ChargesEnabled,
		PayoutsEnabled:   acct.PayoutsEnabled,
		Country:          acct.Country,
		DefaultCurrency:  string(acct.DefaultCurrency),
	}
	if req := acct.Requirements; req != nil {
		status.RequirementsCurrentlyDue = req.CurrentlyDue
		status.RequirementsEventuallyDue = req.EventuallyDue
		status.RequirementsPastDue = req.PastDue
		status.DisabledReason = string(req.DisabledReason)
	}
	return status, nil
}

func (g *StripeGateway) CreateCheckoutSession(ctx context.Context, in CheckoutSessionInput) (*CheckoutSession, error) {
	quantity := in.Quantity
	if quantity < 1 {
		quantity = 1
	}

	productData := &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
		Name: stripe.String(in.ProductName),
	}
	if in.ProductDescription != "" {
		productData.Description = stripe.String(in.ProductDescription)
	}

	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:    stripe.String(strings.ToLower(in.Currency)),
					ProductData: productData,
					UnitAmount:  stripe.Int64(in.UnitAmount),
				},
				Quantity: stripe.Int64(quantity),
			},
		},
		PaymentIntentData: &stripe.CheckoutSessionPaymentIntentDataParams{
			ApplicationFeeAmount: stripe.Int64(in.ApplicationFeeAmount),
			TransferData: &stripe.CheckoutSessionPaymentIntentDataTransferDataParams{
				Destination: stripe.String(in.TransferDestination),
			},
			Metadata: in.Metadata,
		},
		SuccessURL: stripe.String(in.SuccessURL),
		CancelURL:  stripe.String(in.CancelURL),
	}
	if in.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(in.CustomerEmail)
	}
	for k, v := range in.Metadata {
		params.AddMetadata(k, v)
	}
	if in.IdempotencyKey != "" {
		params.SetIdempotencyKey(in.IdempotencyKey)
	}
	params.Context = ctx

	sess, err := session.New(params)
	if err != nil {
		return nil, fmt.Errorf("create checkout session: %w", err)
	}
	g.log.Info("checkout session created",
		zap.String("session_id", sess.ID),
		zap.String("destination", in.TransferDestination),
		zap.Int64("application_fee", in.ApplicationFeeAmount),
	)
	return &CheckoutSession{ID: sess.ID, URL: sess.URL}, nil
}

func (g *StripeGateway) CreateProduct(ctx context.Context, in ProductInput) (*Product, error) {
	params := &stripe.ProductParams{
		Name:        stripe.String(in.Name),
		Description: stripe.String(in.Description),
		DefaultPriceData: &stripe.ProductDefaultPriceDataParams{
			Currency:   stripe.String(strings.ToLower(in.Currency)),
			UnitAmount: stripe.Int64(in.UnitAmount),
		},
	}
	params.AddMetadata(MetadataConnectedAccountID, in.ConnectedAccountID)
	params.AddExpand("default_price")
	params.Context = ctx

	p, err := product.New(params)
	if err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	return toProduct(p), nil
}

func (g *StripeGateway) GetProduct(ctx context.Context, productID string) (*Product, error) {
	params := &stripe.ProductParams{}
	params.AddExpand("default_price")
	params.Context = ctx

	p, err := product.Get(productID, params)
	if err != nil {
		if isResourceMissing(err) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return toProduct(p), nil
}

func (g *StripeGateway) ListProducts(ctx context.Context, limit int) ([]Product, error) {
	if limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}

	params := &stripe.ProductListParams{Active: stripe.Bool(true)}
	params.Limit = stripe.Int64(int64(limit))
	params.AddExpand("data.default_price")
	params.Context = ctx

	products := make([]Product, 0, limit)
	iter := product.List(params)
	for len(products) < limit && iter.Next() {
		products = append(products, *toProduct(iter.Product()))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

func (g *StripeGateway) ParseWebhook(payload []byte, signature string) (*WebhookEvent, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, g.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	out := &WebhookEvent{ID: event.ID, Type: string(event.Type)}
	if out.Type != EventCheckoutSessionCompleted || event.Data == nil {
		return out, nil
	}

	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		return nil, fmt.Errorf("decode checkout session: %w", err)
	}
	out.Checkout = &CompletedCheckout{
		SessionID:     sess.ID,
		PaymentStatus: string(sess.PaymentStatus),
		AmountTotal:   sess.AmountTotal,
		Currency:      string(sess.Currency),
		Metadata:      sess.Metadata,
	}
	return out, nil
}

func toProduct(p *stripe.Product) *Product {
	out := &Product{
		ID:                 p.ID,
		Name:               p.Name,
		Description:        p.Description,
		Active:             p.Active,
		ConnectedAccountID: p.Metadata[MetadataConnectedAccountID],
	}
	if price := p.DefaultPrice; price != nil {
		out.PriceID = price.ID
		out.UnitAmount = price.UnitAmount
		out.Currency = string(price.Currency)
	}
	return out
}

func isResourceMissing(err error) bool {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		return stripeErr.Code == stripe.ErrorCodeResourceMissing || stripeErr.HTTPStatusCode == 404
	}
	return false
}

func wrapAccountErr(op string, err error) error {
	if isResourceMissing(err) {
		return fmt.Errorf("%s: %w", op, ErrAccountNotFound)
	}
	return fmt.Errorf("%s: %w", op, err)
}
