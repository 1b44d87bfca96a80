package payment

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chris-diam/diamantakis-server/internal/orders"
)

// --- fakes ---

type fakeGateway struct {
	mu          sync.Mutex
	createCalls int
	lastReq     CreateIntentRequest
	intent      *PaymentIntent
	retrieveErr error
}

func (g *fakeGateway) CreateIntent(ctx context.Context, req CreateIntentRequest) (*PaymentIntent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.createCalls++
	g.lastReq = req
	out := *g.intent
	out.AmountCents = req.AmountCents
	out.Currency = req.Currency
	out.Metadata = req.Metadata
	return &out, nil
}

func (g *fakeGateway) RetrieveIntent(ctx context.Context, id string) (*PaymentIntent, error) {
	if g.retrieveErr != nil {
		return nil, g.retrieveErr
	}
	out := *g.intent
	out.ID = id
	return &out, nil
}

type fakeRecordStore struct {
	mu      sync.Mutex
	records map[string]*Record
	failAll bool
}

func newFakeRecordStore() *fakeRecordStore {
	return &fakeRecordStore{records: make(map[string]*Record)}
}

func (s *fakeRecordStore) CreateRecord(ctx context.Context, rec *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAll {
		return errors.New("store down")
	}
	cp := *rec
	cp.CreatedAt = time.Now()
	s.records[rec.IntentID] = &cp
	return nil
}

func (s *fakeRecordStore) GetByIntentID(ctx context.Context, intentID string) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAll {
		return nil, errors.New("store down")
	}
	rec, ok := s.records[intentID]
	if !ok {
		return nil, nil
	}
	cp := *rec
	return &cp, nil
}

func (s *fakeRecordStore) UpdateStatus(ctx context.Context, intentID string, status RecordStatus, errCode, errMsg *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAll {
		return errors.New("store down")
	}
	rec, ok := s.records[intentID]
	if !ok {
		return nil
	}
	if rec.Status == RecordSucceeded {
		return nil
	}
	rec.Status = status
	rec.ErrorCode = errCode
	rec.ErrorMessage = errMsg
	return nil
}

func (s *fakeRecordStore) ListStalePending(ctx context.Context, limit int, olderThan time.Duration) ([]*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*Record
	for _, rec := range s.records {
		if rec.Status == RecordPending {
			cp := *rec
			out = append(out, &cp)
		}
	}
	return out, nil
}

type fakeOrderStore struct {
	mu       sync.Mutex
	orders   map[string]*orders.Order
	failNext int // CreateFromIntent fails this many times before recovering
}

func newFakeOrderStore() *fakeOrderStore {
	return &fakeOrderStore{orders: make(map[string]*orders.Order)}
}

func (s *fakeOrderStore) CreateFromIntent(ctx context.Context, o *orders.Order) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failNext > 0 {
		s.failNext--
		return false, errors.New("connection reset")
	}
	if _, exists := s.orders[o.PaymentIntentID]; exists {
		return false, nil
	}
	s.orders[o.PaymentIntentID] = o
	return true, nil
}

func (s *fakeOrderStore) GetByIntentID(ctx context.Context, intentID string) (*orders.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.orders[intentID], nil
}

type fakeNotifier struct {
	mu    sync.Mutex
	calls int
}

func (n *fakeNotifier) OrderCreated(ctx context.Context, o *orders.Order) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls++
	return nil
}

func newTestService() (*Service, *fakeGateway, *fakeRecordStore, *fakeOrderStore, *fakeNotifier) {
	gw := &fakeGateway{intent: &PaymentIntent{ID: "pi_test_1", ClientSecret: "pi_test_1_secret", Status: "requires_payment_method"}}
	recs := newFakeRecordStore()
	ords := newFakeOrderStore()
	notif := &fakeNotifier{}
	return NewService(gw, recs, ords, notif), gw, recs, ords, notif
}

// --- tests ---

func TestCreateIntentRejectsNonPositiveAmount(t *testing.T) {
	svc, gw, _, _, _ := newTestService()

	for _, amount := range []float64{0, -1, -19.99} {
		_, err := svc.CreateIntent(context.Background(), "", amount, "eur", nil)
		require.ErrorIs(t, err, ErrValidation)
	}
	assert.Zero(t, gw.createCalls, "no remote call on validation failure")
}

func TestCreateIntentConvertsAndRecords(t *testing.T) {
	svc, gw, recs, _, _ := newTestService()

	intent, err := svc.CreateIntent(context.Background(), "user-42", 19.99, "", map[string]string{"order_items": `[{"artwork_id":"a1","quantity":1}]`})
	require.NoError(t, err)

	assert.Equal(t, int64(1999), gw.lastReq.AmountCents)
	assert.Equal(t, "eur", gw.lastReq.Currency, "currency defaults to eur")
	assert.Equal(t, "user-42", gw.lastReq.Metadata["user_id"])
	assert.Equal(t, "pi_test_1_secret", intent.ClientSecret)

	rec, err := recs.GetByIntentID(context.Background(), "pi_test_1")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, RecordPending, rec.Status)
	assert.Equal(t, "user-42", rec.UserID)
}

func TestCreateIntentGuestDefault(t *testing.T) {
	svc, gw, _, _, _ := newTestService()

	_, err := svc.CreateIntent(context.Background(), "", 10, "usd", nil)
	require.NoError(t, err)
	assert.Equal(t, GuestUserID, gw.lastReq.Metadata["user_id"])
}

func TestCreateIntentSurvivesRecordFailure(t *testing.T) {
	gw := &fakeGateway{intent: &PaymentIntent{ID: "pi_x", ClientSecret: "cs"}}
	recs := newFakeRecordStore()
	recs.failAll = true
	svc := NewService(gw, recs, newFakeOrderStore(), nil)

	intent, err := svc.CreateIntent(context.Background(), "", 10, "eur", nil)
	require.NoError(t, err, "a lost local record must not block checkout")
	assert.Equal(t, "cs", intent.ClientSecret)
}

func succeededIntent(id string) *PaymentIntent {
	return &PaymentIntent{
		ID:          id,
		AmountCents: 2550,
		Currency:    "eur",
		Status:      "succeeded",
		Metadata: map[string]string{
			"user_id":     "user-42",
			"order_items": `[{"artwork_id":"a1","quantity":2}]`,
		},
	}
}

func TestHandleSucceededCreatesOrderOnce(t *testing.T) {
	svc, _, recs, ords, notif := newTestService()
	ctx := context.Background()

	require.NoError(t, recs.CreateRecord(ctx, &Record{IntentID: "pi_1", UserID: "user-42", AmountCents: 2550, Currency: "eur", Status: RecordPending}))

	intent := succeededIntent("pi_1")
	require.NoError(t, svc.HandleSucceeded(ctx, intent))
	// At-least-once delivery: the provider redelivers the same event.
	require.NoError(t, svc.HandleSucceeded(ctx, intent))

	order, err := ords.GetByIntentID(ctx, "pi_1")
	require.NoError(t, err)
	require.NotNil(t, order)
	assert.Equal(t, "user-42", order.UserID)
	assert.Equal(t, int64(2550), order.AmountCents)
	require.Len(t, order.Items, 1)
	assert.Equal(t, "a1", order.Items[0].ArtworkID)
	assert.Equal(t, 2, order.Items[0].Quantity)

	assert.Equal(t, 1, notif.calls, "exactly one confirmation per intent")

	rec, err := recs.GetByIntentID(ctx, "pi_1")
	require.NoError(t, err)
	assert.Equal(t, RecordSucceeded, rec.Status)
}

func TestHandleSucceededRedeliveryAfterOrderFailure(t *testing.T) {
	svc, _, recs, ords, notif := newTestService()
	ctx := context.Background()

	require.NoError(t, recs.CreateRecord(ctx, &Record{IntentID: "pi_flaky", UserID: "user-42", AmountCents: 2550, Currency: "eur", Status: RecordPending}))
	ords.failNext = 1

	intent := succeededIntent("pi_flaky")
	err := svc.HandleSucceeded(ctx, intent)
	require.ErrorIs(t, err, ErrProcessing, "a transient order insert failure must surface so the provider redelivers")

	rec, err := recs.GetByIntentID(ctx, "pi_flaky")
	require.NoError(t, err)
	assert.Equal(t, RecordPending, rec.Status, "the record must not settle before the order exists")
	assert.Zero(t, notif.calls)

	// The store recovered; redelivery converges.
	require.NoError(t, svc.HandleSucceeded(ctx, intent))

	order, err := ords.GetByIntentID(ctx, "pi_flaky")
	require.NoError(t, err)
	require.NotNil(t, order, "redelivery after a transient failure must create the order")
	assert.Equal(t, "user-42", order.UserID)
	assert.Equal(t, 1, notif.calls)

	rec, err = recs.GetByIntentID(ctx, "pi_flaky")
	require.NoError(t, err)
	assert.Equal(t, RecordSucceeded, rec.Status)
}

func TestHandleSucceededSettlesRecordOnRedelivery(t *testing.T) {
	svc, _, recs, ords, _ := newTestService()
	ctx := context.Background()

	// An earlier delivery created the order but crashed before updating the
	// record. Redelivery must settle the record instead of acking blindly.
	require.NoError(t, recs.CreateRecord(ctx, &Record{IntentID: "pi_crash", Status: RecordPending}))
	_, err := ords.CreateFromIntent(ctx, &orders.Order{PaymentIntentID: "pi_crash", UserID: "user-42"})
	require.NoError(t, err)

	require.NoError(t, svc.HandleSucceeded(ctx, succeededIntent("pi_crash")))

	rec, err := recs.GetByIntentID(ctx, "pi_crash")
	require.NoError(t, err)
	assert.Equal(t, RecordSucceeded, rec.Status)
	assert.Len(t, ords.orders, 1, "no duplicate order on redelivery")
}

func TestHandleSucceededWithoutLocalRecord(t *testing.T) {
	svc, _, _, ords, _ := newTestService()
	ctx := context.Background()

	require.NoError(t, svc.HandleSucceeded(ctx, succeededIntent("pi_untracked")))

	order, err := ords.GetByIntentID(ctx, "pi_untracked")
	require.NoError(t, err)
	require.NotNil(t, order, "payment is honored even when the intent was not created through us")
}

func TestHandleSucceededMalformedItems(t *testing.T) {
	svc, _, recs, ords, notif := newTestService()
	ctx := context.Background()

	require.NoError(t, recs.CreateRecord(ctx, &Record{IntentID: "pi_bad", Status: RecordPending}))

	intent := succeededIntent("pi_bad")
	intent.Metadata["order_items"] = `{"not":"a list"`

	err := svc.HandleSucceeded(ctx, intent)
	require.ErrorIs(t, err, ErrMetadataParse)

	order, getErr := ords.GetByIntentID(ctx, "pi_bad")
	require.NoError(t, getErr)
	assert.Nil(t, order)
	assert.Zero(t, notif.calls)

	// The payment itself succeeded; the record settles so the reconciler does
	// not keep replaying metadata that can never parse.
	rec, err := recs.GetByIntentID(ctx, "pi_bad")
	require.NoError(t, err)
	assert.Equal(t, RecordSucceeded, rec.Status)
}

func TestHandleSucceededNoItemsMetadata(t *testing.T) {
	svc, _, _, ords, _ := newTestService()
	ctx := context.Background()

	intent := succeededIntent("pi_no_items")
	delete(intent.Metadata, "order_items")

	require.NoError(t, svc.HandleSucceeded(ctx, intent))
	order, err := ords.GetByIntentID(ctx, "pi_no_items")
	require.NoError(t, err)
	require.NotNil(t, order)
	assert.Empty(t, order.Items)
}

func TestHandleFailedNeverErrors(t *testing.T) {
	svc, _, recs, _, _ := newTestService()
	ctx := context.Background()

	require.NoError(t, recs.CreateRecord(ctx, &Record{IntentID: "pi_f", Status: RecordPending}))

	code := "card_declined"
	msg := "insufficient funds"
	intent := &PaymentIntent{ID: "pi_f", Metadata: map[string]string{"user_id": "u"}, ErrorCode: &code, ErrorMessage: &msg}
	require.NoError(t, svc.HandleFailed(ctx, intent))

	rec, err := recs.GetByIntentID(ctx, "pi_f")
	require.NoError(t, err)
	assert.Equal(t, RecordFailed, rec.Status)
	require.NotNil(t, rec.ErrorCode)
	assert.Equal(t, "card_declined", *rec.ErrorCode)

	// Even with the store down, the handler swallows the failure.
	recs.failAll = true
	require.NoError(t, svc.HandleFailed(ctx, intent))
}

func TestFailedNeverOverwritesSucceeded(t *testing.T) {
	svc, _, recs, _, _ := newTestService()
	ctx := context.Background()

	require.NoError(t, recs.CreateRecord(ctx, &Record{IntentID: "pi_s", Status: RecordPending}))
	require.NoError(t, svc.HandleSucceeded(ctx, succeededIntent("pi_s")))
	require.NoError(t, svc.HandleFailed(ctx, &PaymentIntent{ID: "pi_s", Metadata: map[string]string{}}))

	rec, err := recs.GetByIntentID(ctx, "pi_s")
	require.NoError(t, err)
	assert.Equal(t, RecordSucceeded, rec.Status, "terminal success is absorbing")
}

func TestGetIntentStatusConvertsUnits(t *testing.T) {
	gw := &fakeGateway{intent: &PaymentIntent{AmountCents: 1999, Currency: "eur", Status: "processing", Metadata: map[string]string{"user_id": "u"}}}
	svc := NewService(gw, newFakeRecordStore(), newFakeOrderStore(), nil)

	status, err := svc.GetIntentStatus(context.Background(), "pi_1")
	require.NoError(t, err)
	assert.Equal(t, "processing", status.Status)
	assert.Equal(t, 19.99, status.Amount)
	assert.Equal(t, "eur", status.Currency)
	assert.Equal(t, "u", status.Metadata["user_id"])
}

func TestGetIntentStatusNotFound(t *testing.T) {
	gw := &fakeGateway{retrieveErr: ErrNotFound}
	svc := NewService(gw, newFakeRecordStore(), newFakeOrderStore(), nil)

	_, err := svc.GetIntentStatus(context.Background(), "pi_unknown")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestOrderFromIntentItems(t *testing.T) {
	items := []orders.Item{{ArtworkID: "a1", Title: "Bronze ring", Quantity: 1}}
	raw, err := json.Marshal(items)
	require.NoError(t, err)

	svc, _, _, _, _ := newTestService()
	intent := succeededIntent("pi_items")
	intent.Metadata["order_items"] = string(raw)

	order, err := svc.orderFromIntent(intent)
	require.NoError(t, err)
	assert.Equal(t, items, order.Items)
	assert.Equal(t, "pi_items", order.PaymentIntentID)
}
