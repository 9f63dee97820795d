package orders

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"haat/internal/apperr"
	"haat/internal/models"
	"haat/internal/notify"
	"haat/internal/store"
	"haat/internal/store/storetest"
)

type fakeDispatcher struct {
	mu           sync.Mutex
	events       []notify.Event
	DispatchFunc func(ev notify.Event) error
}

func (f *fakeDispatcher) Dispatch(_ context.Context, ev notify.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, ev)
	if f.DispatchFunc != nil {
		return f.DispatchFunc(ev)
	}
	return nil
}

func (f *fakeDispatcher) kinds() []models.NotificationKind {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.NotificationKind
	for _, ev := range f.events {
		out = append(out, ev.Kind)
	}
	return out
}

type fixture struct {
	s        *store.Store
	m        *Manager
	dispatch *fakeDispatcher
	customer *models.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureOn(t, storetest.New(t))
}

func newFixtureOn(t *testing.T, s *store.Store) *fixture {
	t.Helper()
	d := &fakeDispatcher{}
	m, err := NewManager(s.DB, d, 1, zap.NewNop().Sugar())
	require.NoError(t, err)
	return &fixture{s: s, m: m, dispatch: d, customer: storetest.User(t, s, "buyer@example.com", models.RoleCustomer)}
}

func shipping() Shipping {
	return Shipping{Name: "Meera Iyer", Phone: "9800000000", Address: "12 MG Road", City: "Jaipur", PostalCode: "302001"}
}

func (f *fixture) create(t *testing.T, lines ...LineInput) *models.Order {
	t.Helper()
	o, err := f.m.Create(context.Background(), CreateInput{UserID: f.customer.ID, Items: lines, Shipping: shipping()})
	require.NoError(t, err)
	return o
}

func (f *fixture) stock(t *testing.T, productID string) int {
	t.Helper()
	p, err := f.s.Catalog.Product(context.Background(), productID)
	require.NoError(t, err)
	return p.Stock
}

func TestCreateComputesTotalFromCatalogPrices(t *testing.T) {
	f := newFixture(t)
	scarf := storetest.Product(t, f.s, "silk-scarf", 100, 10)
	diya := storetest.Product(t, f.s, "clay-diya", 50, 10)

	o := f.create(t, LineInput{ProductID: scarf.ID, Quantity: 2}, LineInput{ProductID: diya.ID, Quantity: 1})

	assert.True(t, o.Total.Equal(decimal.NewFromInt(250)), "total %s", o.Total)
	assert.Equal(t, models.OrderCreated, o.Status)
	assert.Equal(t, models.PaymentPending, o.PaymentStatus)
	assert.Equal(t, models.PaymentCOD, o.PaymentMethod)
	assert.Regexp(t, `^HT\d+$`, o.OrderNumber)
	require.Len(t, o.Items, 2)
	assert.True(t, o.Items[0].UnitPrice.Equal(decimal.NewFromInt(100)))
	assert.True(t, o.Items[0].Subtotal.Equal(decimal.NewFromInt(200)))
	assert.Equal(t, "Silk-scarf", o.Items[0].ProductNameEn)
	assert.Equal(t, 8, f.stock(t, scarf.ID))
	assert.Equal(t, 9, f.stock(t, diya.ID))
	assert.Equal(t, []models.NotificationKind{models.NotifyOrderPlaced}, f.dispatch.kinds())

	stored, err := f.m.Get(context.Background(), o.ID)
	require.NoError(t, err)
	assert.True(t, stored.Total.Equal(decimal.NewFromInt(250)))
	assert.Len(t, stored.Items, 2)
}

func TestCreatePriceSnapshotSurvivesPriceChange(t *testing.T) {
	f := newFixture(t)
	p := storetest.Product(t, f.s, "brass-bell", 400, 5)
	o := f.create(t, LineInput{ProductID: p.ID, Quantity: 1})

	newPrice := decimal.NewFromInt(999)
	_, err := f.s.Catalog.UpdateProduct(context.Background(), p.ID, store.ProductUpdate{Price: &newPrice})
	require.NoError(t, err)

	stored, err := f.m.Get(context.Background(), o.ID)
	require.NoError(t, err)
	assert.True(t, stored.Total.Equal(decimal.NewFromInt(400)))
	assert.True(t, stored.Items[0].UnitPrice.Equal(decimal.NewFromInt(400)))
}

func TestCreateMergesDuplicateLines(t *testing.T) {
	f := newFixture(t)
	p := storetest.Product(t, f.s, "jute-bag", 150, 5)
	o := f.create(t, LineInput{ProductID: p.ID, Quantity: 1}, LineInput{ProductID: p.ID, Quantity: 2})

	require.Len(t, o.Items, 1)
	assert.Equal(t, 3, o.Items[0].Quantity)
	assert.Equal(t, 2, f.stock(t, p.ID))
}

func TestCreateIsAllOrNothing(t *testing.T) {
	f := newFixture(t)
	plenty := storetest.Product(t, f.s, "wooden-toy", 300, 5)
	scarce := storetest.Product(t, f.s, "rare-painting", 5000, 1)

	_, err := f.m.Create(context.Background(), CreateInput{
		UserID:   f.customer.ID,
		Shipping: shipping(),
		Items: []LineInput{
			{ProductID: plenty.ID, Quantity: 3},
			{ProductID: scarce.ID, Quantity: 2},
		},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrInsufficientStock)
	assert.Contains(t, apperr.MessageOf(err), scarce.ID)

	assert.Equal(t, 5, f.stock(t, plenty.ID))
	assert.Equal(t, 1, f.stock(t, scarce.ID))
	var n int64
	require.NoError(t, f.s.DB.Model(&models.Order{}).Count(&n).Error)
	assert.Zero(t, n)
	assert.Empty(t, f.dispatch.kinds())
}

func TestCreateRejectsUnknownAndDisabledProducts(t *testing.T) {
	f := newFixture(t)
	p := storetest.Product(t, f.s, "old-stock", 100, 5)
	require.NoError(t, f.s.Catalog.DisableProduct(context.Background(), p.ID))

	for _, id := range []string{p.ID, "does-not-exist"} {
		_, err := f.m.Create(context.Background(), CreateInput{
			UserID: f.customer.ID, Shipping: shipping(), Items: []LineInput{{ProductID: id, Quantity: 1}},
		})
		assert.ErrorIs(t, err, apperr.ErrNotFound, id)
	}
	assert.Equal(t, 5, f.stock(t, p.ID))
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t)
	p := storetest.Product(t, f.s, "tea-set", 800, 5)
	good := []LineInput{{ProductID: p.ID, Quantity: 1}}

	tests := []struct {
		name string
		in   CreateInput
	}{
		{"no user", CreateInput{Items: good, Shipping: shipping()}},
		{"no items", CreateInput{UserID: f.customer.ID, Shipping: shipping()}},
		{"zero quantity", CreateInput{UserID: f.customer.ID, Shipping: shipping(), Items: []LineInput{{ProductID: p.ID}}}},
		{"missing product id", CreateInput{UserID: f.customer.ID, Shipping: shipping(), Items: []LineInput{{Quantity: 1}}}},
		{"no address", CreateInput{UserID: f.customer.ID, Items: good}},
		{"bad payment method", CreateInput{UserID: f.customer.ID, Items: good, Shipping: shipping(), PaymentMethod: "barter"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.m.Create(context.Background(), tt.in)
			assert.ErrorIs(t, err, apperr.ErrValidation)
		})
	}
	assert.Equal(t, 5, f.stock(t, p.ID))
}

func TestCreateRejectsDisabledOrUnknownCustomer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := storetest.Product(t, f.s, "clay-lamp", 150, 3)
	line := []LineInput{{ProductID: p.ID, Quantity: 1}}

	_, err := f.m.Create(ctx, CreateInput{UserID: "ghost", Shipping: shipping(), Items: line})
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	require.NoError(t, f.s.Users.SetActive(ctx, f.customer.ID, false))
	_, err = f.m.Create(ctx, CreateInput{UserID: f.customer.ID, Shipping: shipping(), Items: line})
	assert.ErrorIs(t, err, apperr.ErrValidation)
	assert.Equal(t, 3, f.stock(t, p.ID))
}

// On SQLite the single test connection makes the buyers take turns; the
// Postgres variant races them against each other.
func TestConcurrentCheckoutNeverOversells(t *testing.T) {
	assertNoOversell(t, newFixture(t), 2, 1)
}

func TestConcurrentCheckoutNeverOversellsOnPostgres(t *testing.T) {
	assertNoOversell(t, newFixtureOn(t, storetest.Postgres(t)), 8, 3)
}

func assertNoOversell(t *testing.T, f *fixture, buyers, stock int) {
	t.Helper()
	p := storetest.Product(t, f.s, "last-one", 1000, stock)

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	start := make(chan struct{})
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := f.m.Create(context.Background(), CreateInput{
				UserID: f.customer.ID, Shipping: shipping(), Items: []LineInput{{ProductID: p.ID, Quantity: 1}},
			})
			mu.Lock()
			errs = append(errs, err)
			mu.Unlock()
		}()
	}
	close(start)
	wg.Wait()

	var ok, short int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, apperr.ErrInsufficientStock):
			short++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, stock, ok)
	assert.Equal(t, buyers-stock, short)
	assert.Equal(t, 0, f.stock(t, p.ID))
}

func TestTransitionsFollowTheGraph(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := storetest.Product(t, f.s, "carpet", 9000, 3)
	o := f.create(t, LineInput{ProductID: p.ID, Quantity: 1})

	_, err := f.m.Transition(ctx, o.ID, models.OrderDelivered, "admin")
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)

	for _, next := range []models.OrderStatus{
		models.OrderConfirmed, models.OrderShipped, models.OrderOutForDelivery, models.OrderDelivered,
	} {
		got, err := f.m.Transition(ctx, o.ID, next, "admin")
		require.NoError(t, err, "to %s", next)
		assert.Equal(t, next, got.Status)
	}

	for _, bad := range []models.OrderStatus{models.OrderCreated, models.OrderConfirmed, models.OrderShipped, models.OrderCancelled} {
		_, err := f.m.Transition(ctx, o.ID, bad, "admin")
		assert.ErrorIs(t, err, apperr.ErrInvalidTransition, "delivered -> %s", bad)
	}

	got, err := f.m.Transition(ctx, o.ID, models.OrderReturned, "admin")
	require.NoError(t, err)
	assert.Equal(t, models.OrderReturned, got.Status)

	assert.Equal(t, []models.NotificationKind{
		models.NotifyOrderPlaced, models.NotifyConfirmed, models.NotifyShipped,
		models.NotifyOutForDelivery, models.NotifyDelivered,
	}, f.dispatch.kinds())

	var audits int64
	require.NoError(t, f.s.DB.Model(&models.AuditLog{}).Where("action = ?", "ORDER_STATUS").Count(&audits).Error)
	assert.Equal(t, int64(5), audits)
}

func TestTransitionUnknownOrder(t *testing.T) {
	f := newFixture(t)
	_, err := f.m.Transition(context.Background(), "missing", models.OrderConfirmed, "admin")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestCancelRestocksAndIsTerminal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := storetest.Product(t, f.s, "pottery-vase", 700, 4)
	o := f.create(t, LineInput{ProductID: p.ID, Quantity: 3})
	assert.Equal(t, 1, f.stock(t, p.ID))

	_, err := f.m.Transition(ctx, o.ID, models.OrderConfirmed, "admin")
	require.NoError(t, err)
	got, err := f.m.Transition(ctx, o.ID, models.OrderCancelled, "admin")
	require.NoError(t, err)
	assert.Equal(t, models.OrderCancelled, got.Status)
	assert.Equal(t, 4, f.stock(t, p.ID))

	_, err = f.m.Transition(ctx, o.ID, models.OrderConfirmed, "admin")
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)
	_, err = f.m.Override(ctx, o.ID, models.OrderDelivered, "super")
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)
}

func TestOverrideCannotRewindDeliveredOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := storetest.Product(t, f.s, "kantha-quilt", 3100, 2)
	o := f.create(t, LineInput{ProductID: p.ID, Quantity: 2})
	_, err := f.m.Override(ctx, o.ID, models.OrderDelivered, "super")
	require.NoError(t, err)
	assert.Equal(t, 0, f.stock(t, p.ID))

	for _, to := range []models.OrderStatus{models.OrderCreated, models.OrderCancelled, models.OrderShipped} {
		_, err := f.m.Override(ctx, o.ID, to, "super")
		assert.ErrorIs(t, err, apperr.ErrInvalidTransition, "delivered -> %s", to)
	}
	stored, err := f.m.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderDelivered, stored.Status)
	assert.Equal(t, 0, f.stock(t, p.ID))

	other := f.create(t, LineInput{ProductID: storetest.Product(t, f.s, "jute-bag", 250, 1).ID, Quantity: 1})
	_, err = f.m.Override(ctx, other.ID, models.OrderOutForDelivery, "super")
	require.NoError(t, err)
	_, err = f.m.Override(ctx, other.ID, models.OrderCancelled, "super")
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)
}

func TestRefundMarksPaidPaymentRefunded(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := storetest.Product(t, f.s, "silver-anklet", 2200, 2)
	o := f.create(t, LineInput{ProductID: p.ID, Quantity: 1})

	_, err := f.m.SetPaymentStatus(ctx, o.ID, models.PaymentPaid, "admin")
	require.NoError(t, err)
	_, err = f.m.Override(ctx, o.ID, models.OrderDelivered, "super")
	require.NoError(t, err)

	got, err := f.m.Transition(ctx, o.ID, models.OrderRefunded, "admin")
	require.NoError(t, err)
	assert.Equal(t, models.OrderRefunded, got.Status)
	assert.Equal(t, models.PaymentRefunded, got.PaymentStatus)

	stored, err := f.m.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentRefunded, stored.PaymentStatus)

	var overrides int64
	require.NoError(t, f.s.DB.Model(&models.AuditLog{}).Where("action = ?", "ORDER_STATUS_OVERRIDE").Count(&overrides).Error)
	assert.Equal(t, int64(1), overrides)
}

func TestPaymentStatusTransitions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := storetest.Product(t, f.s, "block-print", 600, 2)
	o := f.create(t, LineInput{ProductID: p.ID, Quantity: 1})

	_, err := f.m.SetPaymentStatus(ctx, o.ID, models.PaymentRefunded, "admin")
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)
	_, err = f.m.SetPaymentStatus(ctx, o.ID, "bartered", "admin")
	assert.ErrorIs(t, err, apperr.ErrValidation)

	got, err := f.m.SetPaymentStatus(ctx, o.ID, models.PaymentFailed, "admin")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentFailed, got.PaymentStatus)
	assert.Equal(t, models.OrderCreated, got.Status)

	_, err = f.m.SetPaymentStatus(ctx, o.ID, models.PaymentPaid, "admin")
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)
}

func TestDispatchFailureDoesNotRollBack(t *testing.T) {
	f := newFixture(t)
	f.dispatch.DispatchFunc = func(notify.Event) error {
		return apperr.Wrap(apperr.KindDeliveryFailed, errors.New("push gateway down"), "not delivered")
	}
	ctx := context.Background()
	p := storetest.Product(t, f.s, "cane-chair", 3500, 1)
	o := f.create(t, LineInput{ProductID: p.ID, Quantity: 1})

	_, err := f.m.Transition(ctx, o.ID, models.OrderConfirmed, "admin")
	require.NoError(t, err)
	got, err := f.m.Transition(ctx, o.ID, models.OrderShipped, "admin")
	require.NoError(t, err)
	assert.Equal(t, models.OrderShipped, got.Status)

	stored, err := f.m.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderShipped, stored.Status)
}

func TestShippedOrderRecordsOneShippedEvent(t *testing.T) {
	s := storetest.New(t)
	ctx := context.Background()
	var sent []notify.Message
	email := notify.SenderFunc(func(_ context.Context, msg notify.Message) error {
		sent = append(sent, msg)
		return nil
	})
	svc := notify.NewService(s.DB, email, notify.SenderFunc(func(context.Context, notify.Message) error { return nil }), zap.NewNop().Sugar())
	m, err := NewManager(s.DB, svc, 7, zap.NewNop().Sugar())
	require.NoError(t, err)

	buyer := storetest.User(t, s, "kiran@example.com", models.RoleCustomer)
	a := storetest.Product(t, s, "kantha-quilt", 100, 5)
	b := storetest.Product(t, s, "terracotta-cup", 50, 5)

	o, err := m.Create(ctx, CreateInput{
		UserID:   buyer.ID,
		Shipping: shipping(),
		Items:    []LineInput{{ProductID: a.ID, Quantity: 2}, {ProductID: b.ID, Quantity: 1}},
	})
	require.NoError(t, err)
	assert.Equal(t, "250.00", o.Total.StringFixed(2))

	_, err = m.Transition(ctx, o.ID, models.OrderConfirmed, "admin")
	require.NoError(t, err)
	_, err = m.Transition(ctx, o.ID, models.OrderShipped, "admin")
	require.NoError(t, err)

	var shipped []models.NotificationEvent
	require.NoError(t, s.DB.Where("order_id = ? AND kind = ?", o.ID, models.NotifyShipped).Find(&shipped).Error)
	require.Len(t, shipped, 1)
	assert.Equal(t, models.ChannelEmail, shipped[0].Channel)
	assert.Equal(t, models.OrderShipped, shipped[0].Status)
	assert.Equal(t, buyer.ID, shipped[0].UserID)
	assert.Len(t, sent, 3)
}

func TestCheckoutCartClearsCart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := storetest.Product(t, f.s, "incense", 80, 10)
	b := storetest.Product(t, f.s, "mat", 420, 10)
	_, err := f.s.Carts.Add(ctx, f.customer.ID, a.ID, 3)
	require.NoError(t, err)
	_, err = f.s.Carts.Add(ctx, f.customer.ID, b.ID, 1)
	require.NoError(t, err)

	o, err := f.m.CheckoutCart(ctx, CreateInput{UserID: f.customer.ID, Shipping: shipping(), PaymentMethod: models.PaymentOnline})
	require.NoError(t, err)
	assert.True(t, o.Total.Equal(decimal.NewFromInt(660)))
	assert.Equal(t, models.PaymentOnline, o.PaymentMethod)

	cart, err := f.s.Carts.List(ctx, f.customer.ID)
	require.NoError(t, err)
	assert.Empty(t, cart)

	_, err = f.m.CheckoutCart(ctx, CreateInput{UserID: f.customer.ID, Shipping: shipping()})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestCheckoutCartKeepsCartWhenStockIsShort(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := storetest.Product(t, f.s, "limited-print", 1500, 1)
	_, err := f.s.Carts.Add(ctx, f.customer.ID, p.ID, 2)
	require.NoError(t, err)

	_, err = f.m.CheckoutCart(ctx, CreateInput{UserID: f.customer.ID, Shipping: shipping()})
	assert.ErrorIs(t, err, apperr.ErrInsufficientStock)

	cart, err := f.s.Carts.List(ctx, f.customer.ID)
	require.NoError(t, err)
	assert.Len(t, cart, 1)
	assert.Equal(t, 1, f.stock(t, p.ID))
}

func TestOrderQueriesAreScoped(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	other := storetest.User(t, f.s, "other@example.com", models.RoleCustomer)
	p := storetest.Product(t, f.s, "shawl", 100, 10)

	first := f.create(t, LineInput{ProductID: p.ID, Quantity: 1})
	second := f.create(t, LineInput{ProductID: p.ID, Quantity: 1})
	assert.Less(t, first.OrderNumber, second.OrderNumber)

	_, err := f.m.GetForUser(ctx, first.OrderNumber, f.customer.ID)
	require.NoError(t, err)
	_, err = f.m.GetForUser(ctx, first.OrderNumber, other.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	mine, err := f.m.ListForUser(ctx, f.customer.ID, 0, 0)
	require.NoError(t, err)
	assert.Len(t, mine, 2)
	theirs, err := f.m.ListForUser(ctx, other.ID, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, theirs)

	_, err = f.m.Transition(ctx, second.ID, models.OrderConfirmed, "admin")
	require.NoError(t, err)
	confirmed, total, err := f.m.List(ctx, Filter{Status: models.OrderConfirmed})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, confirmed, 1)
	assert.Equal(t, second.ID, confirmed[0].ID)

	_, _, err = f.m.List(ctx, Filter{Status: "lost"})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}
