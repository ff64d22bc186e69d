package handlers

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"prepcoach/application/commands"
	"prepcoach/application/ports"
	"prepcoach/application/services"
	"prepcoach/domain/core/validators"
	"prepcoach/domain/core/valueobjects"
	"prepcoach/infrastructure/persistence/memory"
	pkgerrors "prepcoach/pkg/errors"
)

type reverseSealer struct{}

func (reverseSealer) Seal(s string) (string, error) {
	r := []rune(s)
	for i, j := 0, len(r)-1; i < j; i, j = i+1, j-1 {
		r[i], r[j] = r[j], r[i]
	}
	return "sealed:" + string(r), nil
}

func (reverseSealer) Open(s string) (string, error) { return "", errors.New("not used") }

type fakeBillingProvider struct {
	customers int
	event     ports.BillingEvent
	parseErr  error
	checkout  ports.CheckoutRequest
}

func (f *fakeBillingProvider) CreateCustomer(ctx context.Context, email, userID string) (string, error) {
	f.customers++
	return "cus_" + userID, nil
}

func (f *fakeBillingProvider) CreateCheckoutSession(ctx context.Context, req ports.CheckoutRequest) (string, error) {
	f.checkout = req
	return "https://checkout.example/" + req.PriceID, nil
}

func (f *fakeBillingProvider) CreatePortalSession(ctx context.Context, customerID, returnURL string) (string, error) {
	return "https://portal.example/" + customerID, nil
}

func (f *fakeBillingProvider) ParseWebhook(payload []byte, signature string) (ports.BillingEvent, error) {
	return f.event, f.parseErr
}

type accountFixture struct {
	users      *memory.UserRepository
	interviews *memory.InterviewRepository
	provider   *fakeBillingProvider
	usage      *UsageHandler
	billing    *BillingHandler
	interview  *InterviewHandler
}

func newAccountFixture() *accountFixture {
	logger := zap.NewNop()
	f := &accountFixture{
		users:      memory.NewUserRepository(),
		interviews: memory.NewInterviewRepository(),
		provider:   &fakeBillingProvider{},
	}
	dispatcher := services.NewEventDispatcher(nil, nil, logger)
	userService := services.NewUserService(f.users, dispatcher, logger)
	validator := validators.NewInputValidator(nil)

	f.usage = NewUsageHandler(userService, reverseSealer{}, validator, logger)
	f.billing = NewBillingHandler(userService, f.users, f.provider, map[valueobjects.PlanTier]string{
		valueobjects.PlanPro:     "price_pro",
		valueobjects.PlanPremium: "price_premium",
	}, BillingURLs{CheckoutSuccess: "https://app/success", CheckoutCancel: "https://app/cancel", PortalReturn: "https://app"}, logger)
	f.interview = NewInterviewHandler(f.interviews, userService, services.NewPrepPlanGenerator(), validator, dispatcher, logger)
	return f
}

var alice = ports.Actor{UserID: "alice", Email: "alice@example.com"}

func TestConsumeIterationUntilQuota(t *testing.T) {
	f := newAccountFixture()
	ctx := context.Background()

	usage, err := f.usage.HandleConsumeIteration(ctx, commands.ConsumeIterationCommand{Actor: alice, Count: 10})
	require.NoError(t, err)
	assert.Equal(t, 0, usage.Remaining)

	_, err = f.usage.HandleConsumeIteration(ctx, commands.ConsumeIterationCommand{Actor: alice, Count: 1})
	assert.True(t, pkgerrors.IsRateLimit(err))

	stored, err := f.users.GetByID(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 10, stored.IterationsUsed)
}

func TestBYOKIsSealedAndMasked(t *testing.T) {
	f := newAccountFixture()
	ctx := context.Background()
	key := "sk-test-0123456789abcdefWXYZ"

	cred, err := f.usage.HandleSetBYOK(ctx, commands.SetBYOKCommand{Actor: alice, Provider: "openai", APIKey: key})
	require.NoError(t, err)
	assert.Equal(t, "********WXYZ", cred.KeyHint)

	stored, err := f.users.GetByID(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, stored.BYOK)
	assert.NotContains(t, stored.BYOK.SealedKey, key)

	// BYOK bypasses the plan limit
	_, err = f.usage.HandleConsumeIteration(ctx, commands.ConsumeIterationCommand{Actor: alice, Count: 50})
	require.NoError(t, err)

	usage, err := f.usage.HandleRemoveBYOK(ctx, commands.RemoveBYOKCommand{Actor: alice})
	require.NoError(t, err)
	assert.False(t, usage.BYOK)

	_, err = f.usage.HandleSetBYOK(ctx, commands.SetBYOKCommand{Actor: alice, Provider: "acme", APIKey: key})
	assert.True(t, pkgerrors.IsValidation(err))
}

func TestCheckoutCreatesCustomerOnce(t *testing.T) {
	f := newAccountFixture()
	ctx := context.Background()

	res, err := f.billing.HandleCreateCheckout(ctx, commands.CreateCheckoutCommand{Actor: alice, Plan: valueobjects.PlanPro})
	require.NoError(t, err)
	assert.Equal(t, "https://checkout.example/price_pro", res.URL)
	assert.Equal(t, "cus_alice", f.provider.checkout.CustomerID)

	_, err = f.billing.HandleCreateCheckout(ctx, commands.CreateCheckoutCommand{Actor: alice, Plan: valueobjects.PlanPremium})
	require.NoError(t, err)
	assert.Equal(t, 1, f.provider.customers)

	portal, err := f.billing.HandleCreatePortal(ctx, commands.CreatePortalCommand{Actor: alice})
	require.NoError(t, err)
	assert.Equal(t, "https://portal.example/cus_alice", portal.URL)
}

func TestPortalWithoutCustomerIsNotFound(t *testing.T) {
	f := newAccountFixture()
	_, err := f.billing.HandleCreatePortal(context.Background(), commands.CreatePortalCommand{Actor: alice})
	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestWebhookLifecycle(t *testing.T) {
	f := newAccountFixture()
	ctx := context.Background()
	webhook := commands.HandleWebhookCommand{Payload: []byte("{}"), Signature: "sig"}

	_, err := f.billing.HandleCreateCheckout(ctx, commands.CreateCheckoutCommand{Actor: alice, Plan: valueobjects.PlanPro})
	require.NoError(t, err)

	f.provider.event = ports.BillingEvent{
		Type:           ports.BillingEventCheckoutCompleted,
		CustomerID:     "cus_alice",
		SubscriptionID: "sub_1",
		UserID:         "alice",
		Plan:           "pro",
	}
	res, err := f.billing.HandleWebhook(ctx, webhook)
	require.NoError(t, err)
	assert.True(t, res.Handled)

	user, err := f.users.GetByID(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, valueobjects.PlanPro, user.Plan)
	assert.Equal(t, 100, user.IterationLimit)

	f.provider.event = ports.BillingEvent{
		Type:               ports.BillingEventSubscriptionUpdated,
		CustomerID:         "cus_alice",
		SubscriptionID:     "sub_1",
		SubscriptionStatus: "active",
		PriceID:            "price_premium",
	}
	_, err = f.billing.HandleWebhook(ctx, webhook)
	require.NoError(t, err)
	user, _ = f.users.GetByID(ctx, "alice")
	assert.Equal(t, valueobjects.PlanPremium, user.Plan)

	f.provider.event = ports.BillingEvent{Type: ports.BillingEventSubscriptionDeleted, CustomerID: "cus_alice"}
	_, err = f.billing.HandleWebhook(ctx, webhook)
	require.NoError(t, err)
	user, _ = f.users.GetByID(ctx, "alice")
	assert.Equal(t, valueobjects.PlanFree, user.Plan)
	assert.Equal(t, "canceled", user.SubscriptionStatus)

	f.provider.event = ports.BillingEvent{Type: "invoice.paid"}
	res, err = f.billing.HandleWebhook(ctx, webhook)
	require.NoError(t, err)
	assert.False(t, res.Handled)

	f.provider.parseErr = pkgerrors.NewValidationError("bad signature")
	_, err = f.billing.HandleWebhook(ctx, webhook)
	assert.True(t, pkgerrors.IsValidation(err))
}

func TestWebhookIgnoresCancellationOfReplacedSubscription(t *testing.T) {
	f := newAccountFixture()
	ctx := context.Background()
	webhook := commands.HandleWebhookCommand{Payload: []byte("{}"), Signature: "sig"}

	_, err := f.billing.HandleCreateCheckout(ctx, commands.CreateCheckoutCommand{Actor: alice, Plan: valueobjects.PlanPremium})
	require.NoError(t, err)

	f.provider.event = ports.BillingEvent{
		Type:           ports.BillingEventCheckoutCompleted,
		CustomerID:     "cus_alice",
		SubscriptionID: "sub_new",
		UserID:         "alice",
		Plan:           "premium",
	}
	_, err = f.billing.HandleWebhook(ctx, webhook)
	require.NoError(t, err)

	for _, evt := range []ports.BillingEvent{
		{Type: ports.BillingEventSubscriptionDeleted, CustomerID: "cus_alice", SubscriptionID: "sub_old"},
		{Type: ports.BillingEventSubscriptionUpdated, CustomerID: "cus_alice", SubscriptionID: "sub_old", SubscriptionStatus: "canceled"},
	} {
		f.provider.event = evt
		res, err := f.billing.HandleWebhook(ctx, webhook)
		require.NoError(t, err)
		assert.False(t, res.Handled, evt.Type)
	}

	user, err := f.users.GetByID(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, valueobjects.PlanPremium, user.Plan)
	assert.Equal(t, "sub_new", user.SubscriptionID)

	f.provider.event = ports.BillingEvent{Type: ports.BillingEventSubscriptionDeleted, CustomerID: "cus_alice", SubscriptionID: "sub_new"}
	_, err = f.billing.HandleWebhook(ctx, webhook)
	require.NoError(t, err)
	user, _ = f.users.GetByID(ctx, "alice")
	assert.Equal(t, valueobjects.PlanFree, user.Plan)
}

func TestCreateInterviewConsumesIteration(t *testing.T) {
	f := newAccountFixture()
	ctx := context.Background()

	iv, err := f.interview.HandleCreateInterview(ctx, commands.CreateInterviewCommand{
		Actor:          alice,
		JobTitle:       "Backend Engineer",
		Company:        "Acme",
		JobDescription: "Go, AWS and distributed systems",
	})
	require.NoError(t, err)
	assert.Equal(t, valueobjects.InterviewStatusUpcoming, iv.Status)
	assert.NotEmpty(t, iv.Content)

	user, err := f.users.GetByID(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 1, user.IterationsUsed)

	_, err = f.interview.HandleUpdateProgress(ctx, commands.UpdateInterviewProgressCommand{
		Actor:       ports.Actor{UserID: "mallory"},
		InterviewID: iv.ID,
		Progress:    50,
	})
	assert.True(t, pkgerrors.IsNotFound(err), "other users' interviews are hidden")

	updated, err := f.interview.HandleUpdateProgress(ctx, commands.UpdateInterviewProgressCommand{Actor: alice, InterviewID: iv.ID, Progress: 150})
	require.NoError(t, err)
	assert.Equal(t, 100, updated.Progress)
	assert.Equal(t, valueobjects.InterviewStatusCompleted, updated.Status)

	updated, err = f.interview.HandleUpdateStatus(ctx, commands.UpdateInterviewStatusCommand{Actor: alice, InterviewID: iv.ID, Status: valueobjects.InterviewStatusUpcoming})
	require.NoError(t, err)
	assert.Equal(t, 0, updated.Progress)
}

func TestCreateInterviewBlockedByQuota(t *testing.T) {
	f := newAccountFixture()
	ctx := context.Background()

	_, err := f.usage.HandleConsumeIteration(ctx, commands.ConsumeIterationCommand{Actor: alice, Count: 10})
	require.NoError(t, err)

	_, err = f.interview.HandleCreateInterview(ctx, commands.CreateInterviewCommand{Actor: alice, JobTitle: "SRE"})
	assert.True(t, pkgerrors.IsRateLimit(err))

	list, err := f.interviews.ListByUser(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, list)
}
