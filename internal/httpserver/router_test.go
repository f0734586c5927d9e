package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"thriftshop/internal/cart"
	"thriftshop/internal/checkout"
	"thriftshop/internal/domain"
	"thriftshop/internal/payment"
	productrepo "thriftshop/internal/repository/product"
	adminsvc "thriftshop/internal/service/admin"
	ordersvc "thriftshop/internal/service/order"
	productsvc "thriftshop/internal/service/product"
	"thriftshop/internal/session"
)

type stubAuth struct {
	idents    map[string]*domain.Identity
	signedOut []string
}

func (s *stubAuth) VerifyToken(_ context.Context, token string) (*domain.Identity, error) {
	if ident, ok := s.idents[token]; ok {
		return ident, nil
	}
	return nil, errors.New("unknown token")
}

func (s *stubAuth) Bind(token string) session.AuthProvider {
	return &stubBound{auth: s, token: token}
}

type stubBound struct {
	auth  *stubAuth
	token string
}

func (b *stubBound) CurrentIdentity(_ context.Context) (*domain.Identity, error) {
	return b.auth.idents[b.token], nil
}

func (b *stubBound) Subscribe(_ func(*domain.Identity)) func() { return func() {} }

func (b *stubBound) SignOut(_ context.Context) error {
	ident := b.auth.idents[b.token]
	if ident == nil {
		return nil
	}
	b.auth.signedOut = append(b.auth.signedOut, ident.ID)
	return nil
}

type stubRoles struct {
	admins map[string]bool
}

func (s *stubRoles) IsAdmin(_ context.Context, identityID string) bool { return s.admins[identityID] }

func (s *stubRoles) Claim(_ context.Context, ident domain.Identity) bool {
	return s.admins[ident.ID]
}

type memStorage struct {
	data map[string][]byte
}

func newMemStorage() *memStorage { return &memStorage{data: map[string][]byte{}} }

func (m *memStorage) Save(_ context.Context, owner string, snap cart.Snapshot) error {
	raw, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	m.data[owner] = raw
	return nil
}

func (m *memStorage) Load(_ context.Context, owner string) ([]byte, error) {
	return m.data[owner], nil
}

func (m *memStorage) Delete(_ context.Context, owner string) error {
	delete(m.data, owner)
	return nil
}

type memProducts struct {
	products []domain.Product
}

func (m *memProducts) List(_ context.Context) ([]domain.Product, error) { return m.products, nil }

func (m *memProducts) GetByID(_ context.Context, id string) (*domain.Product, error) {
	for i := range m.products {
		if m.products[i].ID == id {
			return &m.products[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memProducts) Create(_ context.Context, in productrepo.CreateInput) (*domain.Product, error) {
	p := domain.Product{ID: "p-new", Name: in.Name, PriceCents: in.PriceCents, Sizes: in.Sizes, Colors: in.Colors}
	m.products = append(m.products, p)
	return &p, nil
}

func (m *memProducts) Update(_ context.Context, id string, in productrepo.CreateInput) (*domain.Product, error) {
	for i := range m.products {
		if m.products[i].ID == id {
			m.products[i].Name = in.Name
			m.products[i].PriceCents = in.PriceCents
			return &m.products[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memProducts) Delete(_ context.Context, id string) error {
	for i := range m.products {
		if m.products[i].ID == id {
			m.products = append(m.products[:i], m.products[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

type memOrders struct {
	orders []domain.Order
}

func (m *memOrders) Create(_ context.Context, draft domain.OrderDraft) (*domain.Order, error) {
	o := domain.Order{
		ID:            "o-new",
		Items:         draft.Items,
		TotalCents:    draft.TotalCents,
		CustomerEmail: draft.CustomerEmail,
		Status:        domain.StatusPending,
		PaymentID:     draft.PaymentID,
	}
	m.orders = append(m.orders, o)
	return &o, nil
}

func (m *memOrders) ListAll(_ context.Context) ([]domain.Order, error) { return m.orders, nil }

func (m *memOrders) ListByEmail(_ context.Context, email string) ([]domain.Order, error) {
	var out []domain.Order
	for _, o := range m.orders {
		if o.CustomerEmail == email {
			out = append(out, o)
		}
	}
	return out, nil
}

func (m *memOrders) GetByID(_ context.Context, id string) (*domain.Order, error) {
	for i := range m.orders {
		if m.orders[i].ID == id {
			return &m.orders[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memOrders) UpdateStatus(_ context.Context, id string, status domain.OrderStatus) (*domain.Order, error) {
	for i := range m.orders {
		if m.orders[i].ID == id {
			m.orders[i].Status = status
			return &m.orders[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memOrders) CustomerEmails(_ context.Context) ([]string, error) {
	seen := map[string]bool{}
	var out []string
	for _, o := range m.orders {
		if !seen[o.CustomerEmail] {
			seen[o.CustomerEmail] = true
			out = append(out, o.CustomerEmail)
		}
	}
	return out, nil
}

type memAdmins struct {
	admins []domain.Admin
}

func (m *memAdmins) IsAdmin(_ context.Context, identityID string) bool {
	for _, a := range m.admins {
		if a.UserID == identityID {
			return true
		}
	}
	return false
}

func (m *memAdmins) Claim(_ context.Context, ident domain.Identity) bool {
	return m.IsAdmin(context.Background(), ident.ID)
}

func (m *memAdmins) List(_ context.Context) ([]domain.Admin, error) { return m.admins, nil }

func (m *memAdmins) Add(_ context.Context, email string) (*domain.Admin, error) {
	for _, a := range m.admins {
		if a.Email == email {
			return nil, domain.ErrAlreadyExists
		}
	}
	a := domain.Admin{ID: "a-new", Email: email}
	m.admins = append(m.admins, a)
	return &a, nil
}

func (m *memAdmins) Remove(_ context.Context, userID string) error {
	for i, a := range m.admins {
		if a.UserID == userID {
			m.admins = append(m.admins[:i], m.admins[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

type testEnv struct {
	router   *gin.Engine
	auth     *stubAuth
	orders   *memOrders
	products *memProducts
	storage  *memStorage
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := log.New(io.Discard, "", 0)

	auth := &stubAuth{idents: map[string]*domain.Identity{
		"alice-token": {ID: "u-alice", Email: "alice@example.com", DisplayName: "alice"},
		"carol-token": {ID: "u-carol", Email: "Carol@Example.com", DisplayName: "Carol"},
		"root-token":  {ID: "u-root", Email: "root@example.com", DisplayName: "root"},
	}}
	roles := &stubRoles{admins: map[string]bool{"u-root": true}}

	storage := newMemStorage()
	carts := cart.NewManager(storage, logger)

	gateway := payment.NewWidgetGateway(nil, "Thrift Shop", logger)
	orders := &memOrders{orders: []domain.Order{
		{ID: "o-1", CustomerEmail: "alice@example.com", Status: domain.StatusPending, TotalCents: 4500},
	}}
	orch := checkout.New(gateway, orders, nil, "INR", logger)

	products := &memProducts{products: []domain.Product{
		{ID: "p-1", Name: "Vintage Denim Jacket", PriceCents: 4500},
	}}
	admins := &memAdmins{admins: []domain.Admin{
		{ID: "a-1", UserID: "u-root", Email: "root@example.com"},
	}}

	router, err := buildRouter(logger, nil, Deps{
		Auth:     auth,
		Roles:    roles,
		Carts:    carts,
		Checkout: orch,
		Gateway:  gateway,
		Products: productsvc.New(products, nil),
		Orders:   ordersvc.New(orders),
		Admins:   adminsvc.New(admins, orders),
	})
	if err != nil {
		t.Fatalf("build router: %v", err)
	}
	return &testEnv{router: router, auth: auth, orders: orders, products: products, storage: storage}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		buf = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestPublicProductList(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/products", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := decode[struct {
		Products []domain.Product `json:"products"`
	}](t, rec)
	if len(body.Products) != 1 || body.Products[0].Name != "Vintage Denim Jacket" {
		t.Fatalf("unexpected products %+v", body.Products)
	}
}

func TestAuthRequired(t *testing.T) {
	env := newTestEnv(t)

	if rec := env.do(t, http.MethodGet, "/api/cart", "", nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("missing token: expected 401, got %d", rec.Code)
	}
	if rec := env.do(t, http.MethodGet, "/api/cart", "bogus", nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad token: expected 401, got %d", rec.Code)
	}
}

func TestCartAddAndMerge(t *testing.T) {
	env := newTestEnv(t)
	item := domain.CartItem{ProductID: "p-1", Name: "Vintage Denim Jacket", UnitPriceCents: 4500, SelectedSize: "M"}

	env.do(t, http.MethodPost, "/api/cart/items", "alice-token", item)
	rec := env.do(t, http.MethodPost, "/api/cart/items", "alice-token", item)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	snap := decode[cart.Snapshot](t, rec)
	if len(snap.Lines) != 1 || snap.Lines[0].Quantity != 2 {
		t.Fatalf("expected one merged line with quantity 2, got %+v", snap.Lines)
	}
	if snap.TotalCents != 9000 {
		t.Fatalf("expected total 9000, got %d", snap.TotalCents)
	}
}

func TestCartQuantityZeroClampsToOne(t *testing.T) {
	env := newTestEnv(t)
	item := domain.CartItem{ProductID: "p-1", Name: "Vintage Denim Jacket", UnitPriceCents: 4500}
	snap := decode[cart.Snapshot](t, env.do(t, http.MethodPost, "/api/cart/items", "alice-token", item))
	lineID := snap.Lines[0].LineID

	for _, quantity := range []int{0, -5} {
		rec := env.do(t, http.MethodPatch, "/api/cart/items/"+lineID, "alice-token", updateQuantityRequest{Quantity: quantity})
		if rec.Code != http.StatusOK {
			t.Fatalf("quantity %d: expected 200, got %d: %s", quantity, rec.Code, rec.Body.String())
		}
		if got := decode[cart.Snapshot](t, rec); got.Lines[0].Quantity != 1 {
			t.Fatalf("quantity %d: expected clamp to 1, got %d", quantity, got.Lines[0].Quantity)
		}
	}

	rec := env.do(t, http.MethodPatch, "/api/cart/items/"+lineID, "alice-token", updateQuantityRequest{Quantity: 3})
	if got := decode[cart.Snapshot](t, rec); got.Lines[0].Quantity != 3 {
		t.Fatalf("expected quantity 3, got %d", got.Lines[0].Quantity)
	}
}

func TestCartRejectsItemWithoutProduct(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodPost, "/api/cart/items", "alice-token", domain.CartItem{Name: "nameless"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestCheckoutHappyPath(t *testing.T) {
	env := newTestEnv(t)
	item := domain.CartItem{ProductID: "p-1", Name: "Vintage Denim Jacket", UnitPriceCents: 4500}
	env.do(t, http.MethodPost, "/api/cart/items", "alice-token", item)

	rec := env.do(t, http.MethodPost, "/api/checkout", "alice-token", nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("start: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	started := decode[startCheckoutResponse](t, rec)
	if started.State != checkout.StateAwaitingPayment {
		t.Fatalf("expected awaiting_payment, got %s", started.State)
	}
	if started.Params.AmountCents != 4500 || started.Params.Currency != "INR" {
		t.Fatalf("unexpected widget params %+v", started.Params)
	}

	rec = env.do(t, http.MethodPost, "/api/checkout/"+started.AttemptID+"/payment", "alice-token", payment.Completion{
		Status:    payment.CompletionSuccess,
		PaymentID: "pay_123",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("complete: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	status := decode[checkout.Status](t, rec)
	if status.State != checkout.StateOrderCommitted {
		t.Fatalf("expected order_committed, got %s (%s)", status.State, status.FailureReason)
	}
	if status.Order == nil || status.Order.PaymentID != "pay_123" {
		t.Fatalf("expected committed order with payment reference, got %+v", status.Order)
	}

	rec = env.do(t, http.MethodGet, "/api/cart", "alice-token", nil)
	if snap := decode[cart.Snapshot](t, rec); !snap.Empty() {
		t.Fatalf("cart should be empty after commit, got %+v", snap.Lines)
	}
}

func TestCheckoutEmptyCart(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodPost, "/api/checkout", "alice-token", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestCheckoutCancelledKeepsCart(t *testing.T) {
	env := newTestEnv(t)
	item := domain.CartItem{ProductID: "p-1", Name: "Vintage Denim Jacket", UnitPriceCents: 4500}
	env.do(t, http.MethodPost, "/api/cart/items", "alice-token", item)

	started := decode[startCheckoutResponse](t, env.do(t, http.MethodPost, "/api/checkout", "alice-token", nil))
	rec := env.do(t, http.MethodPost, "/api/checkout/"+started.AttemptID+"/payment", "alice-token", payment.Completion{
		Status: payment.CompletionCancelled,
	})
	status := decode[checkout.Status](t, rec)
	if status.State != checkout.StatePaymentCancelled {
		t.Fatalf("expected payment_cancelled, got %s", status.State)
	}
	if !strings.Contains(status.FailureReason, "cancelled by user") {
		t.Fatalf("unexpected failure reason %q", status.FailureReason)
	}

	rec = env.do(t, http.MethodGet, "/api/cart", "alice-token", nil)
	if snap := decode[cart.Snapshot](t, rec); snap.Empty() {
		t.Fatal("cart must survive a cancelled payment")
	}
}

func TestCheckoutAttemptIsOwnerScoped(t *testing.T) {
	env := newTestEnv(t)
	item := domain.CartItem{ProductID: "p-1", Name: "Vintage Denim Jacket", UnitPriceCents: 4500}
	env.do(t, http.MethodPost, "/api/cart/items", "alice-token", item)
	started := decode[startCheckoutResponse](t, env.do(t, http.MethodPost, "/api/checkout", "alice-token", nil))

	rec := env.do(t, http.MethodGet, "/api/checkout/"+started.AttemptID, "root-token", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("foreign attempt: expected 404, got %d", rec.Code)
	}
}

func TestSecondPaymentCompletionConflicts(t *testing.T) {
	env := newTestEnv(t)
	item := domain.CartItem{ProductID: "p-1", Name: "Vintage Denim Jacket", UnitPriceCents: 4500}
	env.do(t, http.MethodPost, "/api/cart/items", "alice-token", item)
	started := decode[startCheckoutResponse](t, env.do(t, http.MethodPost, "/api/checkout", "alice-token", nil))

	done := payment.Completion{Status: payment.CompletionSuccess, PaymentID: "pay_1"}
	env.do(t, http.MethodPost, "/api/checkout/"+started.AttemptID+"/payment", "alice-token", done)
	rec := env.do(t, http.MethodPost, "/api/checkout/"+started.AttemptID+"/payment", "alice-token", done)
	if rec.Code != http.StatusConflict {
		t.Fatalf("second completion: expected 409, got %d", rec.Code)
	}
}

func TestOwnOrderHistory(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/orders", "alice-token", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := decode[struct {
		Orders []domain.Order `json:"orders"`
	}](t, rec)
	if len(body.Orders) != 1 || body.Orders[0].ID != "o-1" {
		t.Fatalf("unexpected orders %+v", body.Orders)
	}
}

func TestMixedCaseEmailSeesOwnOrders(t *testing.T) {
	env := newTestEnv(t)
	item := domain.CartItem{ProductID: "p-1", Name: "Vintage Denim Jacket", UnitPriceCents: 4500}
	env.do(t, http.MethodPost, "/api/cart/items", "carol-token", item)

	started := decode[startCheckoutResponse](t, env.do(t, http.MethodPost, "/api/checkout", "carol-token", nil))
	rec := env.do(t, http.MethodPost, "/api/checkout/"+started.AttemptID+"/payment", "carol-token", payment.Completion{
		Status:    payment.CompletionSuccess,
		PaymentID: "pay_carol",
	})
	if status := decode[checkout.Status](t, rec); status.State != checkout.StateOrderCommitted {
		t.Fatalf("expected committed order, got %s", status.State)
	}

	rec = env.do(t, http.MethodGet, "/api/orders", "carol-token", nil)
	body := decode[struct {
		Orders []domain.Order `json:"orders"`
	}](t, rec)
	if len(body.Orders) != 1 {
		t.Fatalf("mixed-case token email must still see own orders, got %+v", body.Orders)
	}
	if body.Orders[0].CustomerEmail != "carol@example.com" {
		t.Fatalf("order email not canonicalized: %q", body.Orders[0].CustomerEmail)
	}
}

func TestSignOutRevokesOwnSession(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/session/signout", "alice-token", nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if len(env.auth.signedOut) != 1 || env.auth.signedOut[0] != "u-alice" {
		t.Fatalf("expected sign-out for u-alice, got %v", env.auth.signedOut)
	}
}

func TestAdminGuard(t *testing.T) {
	env := newTestEnv(t)

	if rec := env.do(t, http.MethodGet, "/api/admin/orders", "alice-token", nil); rec.Code != http.StatusForbidden {
		t.Fatalf("non-admin: expected 403, got %d", rec.Code)
	}
	if rec := env.do(t, http.MethodGet, "/api/admin/orders", "root-token", nil); rec.Code != http.StatusOK {
		t.Fatalf("admin: expected 200, got %d", rec.Code)
	}
}

func TestAdminOrderStatusTransition(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPatch, "/api/admin/orders/o-1/status", "root-token", updateStatusRequest{Status: "shipped"})
	if rec.Code != http.StatusConflict {
		t.Fatalf("pending to shipped: expected 409, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = env.do(t, http.MethodPatch, "/api/admin/orders/o-1/status", "root-token", updateStatusRequest{Status: "processing"})
	if rec.Code != http.StatusOK {
		t.Fatalf("pending to processing: expected 200, got %d", rec.Code)
	}
	if order := decode[domain.Order](t, rec); order.Status != domain.StatusProcessing {
		t.Fatalf("expected processing, got %s", order.Status)
	}
}

func TestAdminCreateProductWithMixedColors(t *testing.T) {
	env := newTestEnv(t)

	payload := map[string]any{
		"name":       "Silk Scarf",
		"priceCents": 2500,
		"colors":     []any{"Red", map[string]string{"name": "Gold", "value": "#d4af37"}},
	}
	rec := env.do(t, http.MethodPost, "/api/admin/products", "root-token", payload)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	p := decode[domain.Product](t, rec)
	if len(p.Colors) != 2 || p.Colors[0].Name != "Red" || p.Colors[1].Value != "#d4af37" {
		t.Fatalf("unexpected colors %+v", p.Colors)
	}
}

func TestSessionResolution(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/session", "root-token", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	sess := decode[domain.Session](t, rec)
	if !sess.SignedIn() || !sess.IsAdmin || sess.Loading {
		t.Fatalf("unexpected session %+v", sess)
	}

	sess = decode[domain.Session](t, env.do(t, http.MethodGet, "/api/session", "alice-token", nil))
	if !sess.SignedIn() || sess.IsAdmin {
		t.Fatalf("unexpected session %+v", sess)
	}
	if sess.Identity.DisplayName != "alice" {
		t.Fatalf("expected display name from email local part, got %q", sess.Identity.DisplayName)
	}
}

func TestAddAdminValidation(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/admin/admins", "root-token", addAdminRequest{Email: "not-an-email"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}

	rec = env.do(t, http.MethodPost, "/api/admin/admins", "root-token", addAdminRequest{Email: "new@example.com"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = env.do(t, http.MethodPost, "/api/admin/admins", "root-token", addAdminRequest{Email: "root@example.com"})
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate: expected 409, got %d", rec.Code)
	}
}

func TestHealthEndpoints(t *testing.T) {
	env := newTestEnv(t)

	if rec := env.do(t, http.MethodGet, "/healthz", "", nil); rec.Code != http.StatusOK {
		t.Fatalf("healthz: expected 200, got %d", rec.Code)
	}
	// no pool is wired in tests
	if rec := env.do(t, http.MethodGet, "/readyz", "", nil); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("readyz: expected 503, got %d", rec.Code)
	}
}
