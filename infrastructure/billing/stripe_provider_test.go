package billing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"
	"go.uber.org/zap"

	"prepcoach/application/ports"
	pkgerrors "prepcoach/pkg/errors"
)

const testSecret = "whsec_test"

type fakeGateway struct {
	err      error
	calls    int
	checkout *stripe.CheckoutSessionParams
}

func (g *fakeGateway) NewCustomer(params *stripe.CustomerParams) (*stripe.Customer, error) {
	g.calls++
	if g.err != nil {
		return nil, g.err
	}
	return &stripe.Customer{ID: "cus_123"}, nil
}

func (g *fakeGateway) NewCheckoutSession(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	g.calls++
	g.checkout = params
	if g.err != nil {
		return nil, g.err
	}
	return &stripe.CheckoutSession{URL: "https://checkout.example/cs_1"}, nil
}

func (g *fakeGateway) NewPortalSession(params *stripe.BillingPortalSessionParams) (*stripe.BillingPortalSession, error) {
	g.calls++
	if g.err != nil {
		return nil, g.err
	}
	return &stripe.BillingPortalSession{URL: "https://portal.example/s_1"}, nil
}

func sign(t *testing.T, payload string) string {
	t.Helper()
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   []byte(payload),
		Secret:    testSecret,
		Timestamp: time.Now(),
	})
	return signed.Header
}

func TestCheckoutCarriesPlanMetadata(t *testing.T) {
	gw := &fakeGateway{}
	p := NewStripeProvider(gw, testSecret, DefaultBreakerConfig(), zap.NewNop())

	url, err := p.CreateCheckoutSession(context.Background(), ports.CheckoutRequest{
		CustomerID: "cus_123", PriceID: "price_pro", UserID: "u1", Plan: "pro",
		SuccessURL: "https://app/success", CancelURL: "https://app/cancel",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://checkout.example/cs_1", url)
	assert.Equal(t, "u1", stripe.StringValue(gw.checkout.ClientReferenceID))
	assert.Equal(t, "pro", gw.checkout.Metadata["plan"])
	assert.Equal(t, "u1", gw.checkout.SubscriptionData.Metadata["user_id"])
}

func TestBreakerOpensAfterRepeatedFailures(t *testing.T) {
	gw := &fakeGateway{err: errors.New("stripe down")}
	p := NewStripeProvider(gw, testSecret, DefaultBreakerConfig(), zap.NewNop())

	for i := 0; i < 5; i++ {
		_, err := p.CreateCustomer(context.Background(), "a@example.com", "u1")
		assert.True(t, pkgerrors.IsType(err, pkgerrors.ErrorTypeExternal))
	}
	_, err := p.CreatePortalSession(context.Background(), "cus_123", "https://app")
	assert.True(t, pkgerrors.IsType(err, pkgerrors.ErrorTypeExternal))
	assert.Equal(t, 5, gw.calls, "open breaker must not reach the gateway")
}

func TestParseSubscriptionWebhook(t *testing.T) {
	p := NewStripeProvider(&fakeGateway{}, testSecret, DefaultBreakerConfig(), zap.NewNop())
	payload := `{"id":"evt_1","object":"event","type":"customer.subscription.updated","data":{"object":{` +
		`"id":"sub_1","object":"subscription","customer":"cus_123","status":"past_due",` +
		`"items":{"object":"list","data":[{"id":"si_1","object":"subscription_item","price":{"id":"price_pro","object":"price"}}]},` +
		`"metadata":{"user_id":"u1","plan":"pro"}}}}`

	evt, err := p.ParseWebhook([]byte(payload), sign(t, payload))
	require.NoError(t, err)
	assert.Equal(t, ports.BillingEventSubscriptionUpdated, evt.Type)
	assert.Equal(t, "cus_123", evt.CustomerID)
	assert.Equal(t, "sub_1", evt.SubscriptionID)
	assert.Equal(t, "past_due", evt.SubscriptionStatus)
	assert.Equal(t, "price_pro", evt.PriceID)
	assert.Equal(t, "u1", evt.UserID)
}

func TestParseCheckoutWebhook(t *testing.T) {
	p := NewStripeProvider(&fakeGateway{}, testSecret, DefaultBreakerConfig(), zap.NewNop())
	payload := `{"id":"evt_2","object":"event","type":"checkout.session.completed","data":{"object":{` +
		`"id":"cs_1","object":"checkout.session","customer":"cus_123","subscription":"sub_9",` +
		`"client_reference_id":"u1","metadata":{"plan":"premium"}}}}`

	evt, err := p.ParseWebhook([]byte(payload), sign(t, payload))
	require.NoError(t, err)
	assert.Equal(t, "u1", evt.UserID)
	assert.Equal(t, "sub_9", evt.SubscriptionID)
	assert.Equal(t, "premium", evt.Plan)
	assert.Equal(t, "active", evt.SubscriptionStatus)
}

func TestParseWebhookRejectsBadSignature(t *testing.T) {
	p := NewStripeProvider(&fakeGateway{}, testSecret, DefaultBreakerConfig(), zap.NewNop())
	_, err := p.ParseWebhook([]byte(`{"id":"evt_3"}`), "t=1,v1=deadbeef")
	assert.True(t, pkgerrors.IsValidation(err))
}

func TestUnknownEventTypeOnlyCarriesType(t *testing.T) {
	p := NewStripeProvider(&fakeGateway{}, testSecret, DefaultBreakerConfig(), zap.NewNop())
	payload := `{"id":"evt_4","object":"event","type":"invoice.paid","data":{"object":{"id":"in_1"}}}`

	evt, err := p.ParseWebhook([]byte(payload), sign(t, payload))
	require.NoError(t, err)
	assert.Equal(t, ports.BillingEvent{Type: "invoice.paid"}, evt)
}
