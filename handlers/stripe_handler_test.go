package handlers_test

import (
	"errors"
	"net/http"
	"testing"

	"github.com/mentorhub/marketplace/models"
	"github.com/mentorhub/marketplace/payments"
	"github.com/mentorhub/marketplace/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectedAccountLifecycle(t *testing.T) {
	a := newTestApp(t)
	mentor, mentorToken := a.seedMentor(t, "")
	_, studentToken := a.seedUser(t, models.RoleStudent)

	assert.Equal(t, http.StatusForbidden, a.do(t, http.MethodPost, "/api/v1/stripe/accounts", nil, studentToken, nil))

	var created struct {
		AccountID string `json:"account_id"`
		Created   bool   `json:"created"`
	}
	require.Equal(t, http.StatusCreated, a.do(t, http.MethodPost, "/api/v1/stripe/accounts", nil, mentorToken, &created))
	assert.True(t, created.Created)
	require.True(t, payments.ValidAccountID(created.AccountID))

	require.Equal(t, http.StatusOK, a.do(t, http.MethodPost, "/api/v1/stripe/accounts", nil, mentorToken, &created))
	assert.False(t, created.Created)

	var stored models.MentorProfile
	require.NoError(t, a.db.First(&stored, "id = ?", mentor.ID).Error)
	require.NotNil(t, stored.StripeAccountID)
	assert.Equal(t, created.AccountID, *stored.StripeAccountID)

	var link payments.Link
	require.Equal(t, http.StatusOK,
		a.do(t, http.MethodPost, "/api/v1/stripe/accounts/"+created.AccountID+"/onboard", nil, mentorToken, &link))
	assert.Contains(t, link.URL, created.AccountID)

	var status services.Eligibility
	require.Equal(t, http.StatusOK,
		a.do(t, http.MethodGet, "/api/v1/stripe/accounts/"+created.AccountID+"/status", nil, mentorToken, &status))
	assert.Equal(t, services.OnboardingIncomplete, status.Status)
	assert.False(t, status.CanAcceptCheckout)

	a.gateway.SetAccount(created.AccountID, true, true, false)
	require.Equal(t, http.StatusOK,
		a.do(t, http.MethodGet, "/api/v1/stripe/accounts/"+created.AccountID+"/status", nil, mentorToken, &status))
	assert.Equal(t, services.OnboardingChargesEnabled, status.Status)
	assert.True(t, status.CanAcceptCheckout)
}

func TestAccountStatus_Errors(t *testing.T) {
	a := newTestApp(t)
	_, adminToken := a.seedUser(t, models.RoleAdmin)
	_, otherToken := a.seedMentor(t, "acct_other")
	a.seedMentor(t, "acct_owned")
	a.gateway.SetAccount("acct_owned", true, true, true)

	assert.Equal(t, http.StatusBadRequest, a.do(t, http.MethodGet, "/api/v1/stripe/accounts/bogus/status", nil, adminToken, nil))
	assert.Equal(t, http.StatusNotFound, a.do(t, http.MethodGet, "/api/v1/stripe/accounts/acct_missing/status", nil, adminToken, nil))
	assert.Equal(t, http.StatusForbidden, a.do(t, http.MethodGet, "/api/v1/stripe/accounts/acct_owned/status", nil, otherToken, nil))

	a.gateway.Err = errors.New("provider unreachable")
	assert.Equal(t, http.StatusBadGateway, a.do(t, http.MethodGet, "/api/v1/stripe/accounts/acct_owned/status", nil, adminToken, nil))
}

func TestProductCheckout(t *testing.T) {
	a := newTestApp(t)
	_, mentorToken := a.seedMentor(t, "acct_seller")
	a.gateway.SetAccount("acct_seller", true, true, true)

	var product payments.Product
	require.Equal(t, http.StatusCreated, a.do(t, http.MethodPost, "/api/v1/stripe/products", map[string]interface{}{
		"name":                 "Portfolio review",
		"price_cents":          7500,
		"connected_account_id": "acct_seller",
	}, mentorToken, &product))

	var listed struct {
		Products []payments.Product `json:"products"`
	}
	require.Equal(t, http.StatusOK, a.do(t, http.MethodGet, "/api/v1/stripe/products", nil, "", &listed))
	assert.Len(t, listed.Products, 1)

	body := map[string]interface{}{"product_id": product.ID, "quantity": 2, "connected_account_id": "acct_seller"}
	var result services.CheckoutResult
	require.Equal(t, http.StatusCreated, a.do(t, http.MethodPost, "/api/v1/stripe/checkout/create-session", body, "", &result))
	assert.EqualValues(t, 15000, result.Amount)
	assert.EqualValues(t, 1275, result.ApplicationFee)
	assert.EqualValues(t, 13725, result.NetAmount)

	body["quantity"] = 0
	assert.Equal(t, http.StatusBadRequest, a.do(t, http.MethodPost, "/api/v1/stripe/checkout/create-session", body, "", nil))
	assert.Equal(t, 1, a.gateway.CheckoutCalls())
}

func TestStripeWebhook_IgnoresOtherEvents(t *testing.T) {
	a := newTestApp(t)
	req := newRawRequest(http.MethodPost, "/api/v1/stripe/webhook", `{}`)
	req.Header.Set("Stripe-Signature", a.gateway.ValidSignature)

	var out struct {
		Received bool `json:"received"`
	}
	require.Equal(t, http.StatusOK, a.send(t, req, &out))
	assert.True(t, out.Received)
}
