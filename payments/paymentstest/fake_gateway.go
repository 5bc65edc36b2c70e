// Package paymentstest provides an in-memory payments.Gateway for tests.
package paymentstest

import (
	"context"
	"fmt"
	"sync"

	"github.com/mentorhub/marketplace/payments"
)

// FakeGateway records every call and answers from its maps.
type FakeGateway struct {
	mu sync.Mutex

	Accounts map[string]*payments.AccountStatus
	Products map[string]*payments.Product
	// Err, when set, is returned by every network call.
	Err error
	// Event is returned by ParseWebhook when the signature matches ValidSignature.
	Event          *payments.WebhookEvent
	ValidSignature string

	CreatedAccounts  []payments.CreateAccountInput
	CheckoutRequests []payments.CheckoutSessionInput
	StatusLookups    int
	nextID           int
}

func NewFakeGateway() *FakeGateway {
	return &FakeGateway{
		Accounts:       map[string]*payments.AccountStatus{},
		Products:       map[string]*payments.Product{},
		ValidSignature: "valid",
	}
}

// SetAccount registers an account with the given flags.
func (f *FakeGateway) SetAccount(id string, detailsSubmitted, chargesEnabled, payoutsEnabled bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Accounts[id] = &payments.AccountStatus{
		AccountID:        id,
		DetailsSubmitted: detailsSubmitted,
		ChargesEnabled:   chargesEnabled,
		PayoutsEnabled:   payoutsEnabled,
	}
}

func (f *FakeGateway) CheckoutCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.CheckoutRequests)
}

func (f *FakeGateway) id(prefix string) string {
	f.nextID++
	return fmt.Sprintf("%s_test_%d", prefix, f.nextID)
}

func (f *FakeGateway) CreateConnectedAccount(ctx context.Context, in payments.CreateAccountInput) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return "", f.Err
	}
	f.CreatedAccounts = append(f.CreatedAccounts, in)
	id := f.id("acct")
	f.Accounts[id] = &payments.AccountStatus{AccountID: id}
	return id, nil
}

func (f *FakeGateway) CreateOnboardingLink(ctx context.Context, accountID, refreshURL, returnURL string) (*payments.Link, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	if _, ok := f.Accounts[accountID]; !ok {
		return nil, payments.ErrAccountNotFound
	}
	return &payments.Link{URL: "https://connect.example.test/onboard/" + accountID}, nil
}

func (f *FakeGateway) CreateDashboardLink(ctx context.Context, accountID string) (*payments.Link, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	if _, ok := f.Accounts[accountID]; !ok {
		return nil, payments.ErrAccountNotFound
	}
	return &payments.Link{URL: "https://connect.example.test/dashboard/" + accountID}, nil
}

func (f *FakeGateway) RetrieveAccountStatus(ctx context.Context, accountID string) (*payments.AccountStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.StatusLookups++
	if f.Err != nil {
		return nil, f.Err
	}
	status, ok := f.Accounts[accountID]
	if !ok {
		return nil, payments.ErrAccountNotFound
	}
	copied := *status
	return &copied, nil
}

func (f *FakeGateway) CreateCheckoutSession(ctx context.Context, in payments.CheckoutSessionInput) (*payments.CheckoutSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	f.CheckoutRequests = append(f.CheckoutRequests, in)
	id := f.id("cs")
	return &payments.CheckoutSession{ID: id, URL: "https://checkout.example.test/" + id}, nil
}

func (f *FakeGateway) CreateProduct(ctx context.Context, in payments.ProductInput) (*payments.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	p := &payments.Product{
		ID:                 f.id("prod"),
		Name:               in.Name,
		Description:        in.Description,
		Active:             true,
		UnitAmount:         in.UnitAmount,
		Currency:           in.Currency,
		ConnectedAccountID: in.ConnectedAccountID,
	}
	p.PriceID = "price_" + p.ID
	f.Products[p.ID] = p
	return p, nil
}

func (f *FakeGateway) GetProduct(ctx context.Context, productID string) (*payments.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	p, ok := f.Products[productID]
	if !ok {
		return nil, payments.ErrProductNotFound
	}
	copied := *p
	return &copied, nil
}

func (f *FakeGateway) ListProducts(ctx context.Context, limit int) ([]payments.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	out := make([]payments.Product, 0, len(f.Products))
	for _, p := range f.Products {
		if limit > 0 && len(out) >= limit {
			break
		}
		out = append(out, *p)
	}
	return out, nil
}

func (f *FakeGateway) ParseWebhook(payload []byte, signature string) (*payments.WebhookEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if signature != f.ValidSignature {
		return nil, payments.ErrInvalidSignature
	}
	if f.Event == nil {
		return &payments.WebhookEvent{ID: "evt_test", Type: "ping"}, nil
	}
	return f.Event, nil
}

var _ payments.Gateway = (*FakeGateway)(nil)
