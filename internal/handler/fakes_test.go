package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/walletshop/walletshop/internal/auth"
	"github.com/walletshop/walletshop/internal/cache"
	"github.com/walletshop/walletshop/internal/middleware"
	"github.com/walletshop/walletshop/internal/model"
	"github.com/walletshop/walletshop/internal/pricing"
	"github.com/walletshop/walletshop/internal/service"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeNotifier struct {
	mu       sync.Mutex
	result   model.DispatchResult
	sent     []model.Notification
	admins   []model.AdminNotification
	bindings []model.IdentityBinding
}

func (f *fakeNotifier) Send(_ context.Context, n model.Notification) model.DispatchResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, n)
	return f.result
}

func (f *fakeNotifier) SendToAdmins(_ context.Context, n model.AdminNotification) model.DispatchResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.admins = append(f.admins, n)
	return f.result
}

func (f *fakeNotifier) BindIdentity(b model.IdentityBinding) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bindings = append(f.bindings, b)
}

type fakeEmailSender struct {
	result model.EmailResult
	sent   []model.EmailMessage
}

func (f *fakeEmailSender) Send(_ context.Context, msg model.EmailMessage) model.EmailResult {
	f.sent = append(f.sent, msg)
	return f.result
}

// fakeDiscountService evaluates quotes with the real pricing rules over an
// in-memory discount list.
type fakeDiscountService struct {
	discounts []model.Discount
	err       error
	created   []service.CreateDiscountInput
}

func (f *fakeDiscountService) CreateDiscount(_ context.Context, input service.CreateDiscountInput) (*model.Discount, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.created = append(f.created, input)
	d := model.Discount{
		ID:                 "01J00000000000000000000000",
		ProductID:          input.ProductID,
		DiscountPercentage: input.Percentage,
		StartDate:          input.StartDate,
		EndDate:            input.EndDate,
		CreatedAt:          time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	f.discounts = append(f.discounts, d)
	return &d, nil
}

func (f *fakeDiscountService) ListDiscounts(_ context.Context, productID string) ([]model.Discount, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []model.Discount
	for _, d := range f.discounts {
		if d.ProductID == productID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (f *fakeDiscountService) ActiveDiscount(_ context.Context, productID string, at time.Time) (*model.Discount, error) {
	if f.err != nil {
		return nil, f.err
	}
	d, ok := pricing.ActiveDiscount(productID, f.discounts, at)
	if !ok {
		return nil, nil
	}
	return d, nil
}

func (f *fakeDiscountService) Quote(_ context.Context, productID string, basePrice decimal.Decimal, at time.Time) (*pricing.Quote, error) {
	if f.err != nil {
		return nil, f.err
	}
	q := pricing.Evaluate(productID, basePrice, f.discounts, at)
	return &q, nil
}

type fakeUserService struct {
	users map[string]*model.User
	err   error
}

func newFakeUserService(users ...*model.User) *fakeUserService {
	f := &fakeUserService{users: make(map[string]*model.User)}
	for _, u := range users {
		f.users[u.FirebaseUID] = u
	}
	return f
}

func (f *fakeUserService) SyncUser(_ context.Context, input service.SyncUserInput) (*model.User, bool, error) {
	if f.err != nil {
		return nil, false, f.err
	}
	if u, ok := f.users[input.FirebaseUID]; ok {
		return u, false, nil
	}
	u := &model.User{
		ID:          "user-" + input.FirebaseUID,
		FirebaseUID: input.FirebaseUID,
		Email:       input.Email,
		Username:    input.Username,
		Role:        model.RoleUser,
		CreatedAt:   time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	f.users[input.FirebaseUID] = u
	return u, true, nil
}

func (f *fakeUserService) GetUser(_ context.Context, firebaseUID string) (*model.User, error) {
	if u, ok := f.users[firebaseUID]; ok {
		return u, nil
	}
	return nil, service.ErrUserNotFound
}

func (f *fakeUserService) SetRole(_ context.Context, id, role string) (*model.User, error) {
	if !model.IsValidRole(role) {
		return nil, service.ErrInvalidRole
	}
	for _, u := range f.users {
		if u.ID == id {
			u.Role = role
			return u, nil
		}
	}
	return nil, service.ErrUserNotFound
}

func (f *fakeUserService) ListUsersByRole(_ context.Context, role string) ([]*model.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []*model.User
	for _, u := range f.users {
		if u.EffectiveRole() == role {
			out = append(out, u)
		}
	}
	return out, nil
}

type fakeAdminCache struct {
	mu      sync.Mutex
	entries map[string]*model.AdminContext
}

func (f *fakeAdminCache) GetAdminAuth(_ context.Context, key string) (*model.AdminContext, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.entries[key], nil
}

func (f *fakeAdminCache) SetAdminAuth(_ context.Context, key string, admin *model.AdminContext) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.entries == nil {
		f.entries = make(map[string]*model.AdminContext)
	}
	f.entries[key] = admin
	return nil
}

// fakeLimiter allows the first allow requests of each kind, then denies.
type fakeLimiter struct {
	mu    sync.Mutex
	allow int
	seen  int
}

func (f *fakeLimiter) check() *cache.RateLimitResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seen++
	return &cache.RateLimitResult{
		Allowed:    f.seen <= f.allow,
		Remaining:  int64(max(f.allow-f.seen, 0)),
		ResetAt:    time.Now().Add(time.Second),
		RetryAfter: time.Second,
	}
}

func (f *fakeLimiter) CheckIPRateLimit(context.Context, string, int, int) (*cache.RateLimitResult, error) {
	return f.check(), nil
}

func (f *fakeLimiter) CheckAdminRateLimit(context.Context, string, int, int) (*cache.RateLimitResult, error) {
	return f.check(), nil
}

type testDeps struct {
	notifier  *fakeNotifier
	sender    *fakeEmailSender
	discounts *fakeDiscountService
	users     *fakeUserService
	limiter   *fakeLimiter
	adminKey  *auth.GeneratedKey
}

func newTestDeps(t *testing.T) *testDeps {
	t.Helper()
	key, err := auth.GenerateAdminKey()
	if err != nil {
		t.Fatalf("GenerateAdminKey: %v", err)
	}
	return &testDeps{
		notifier:  &fakeNotifier{result: model.DispatchResult{Success: true, ID: "notif-1", Recipients: 1}},
		sender:    &fakeEmailSender{result: model.EmailResult{Success: true, MessageID: "<msg-1@walletshop>"}},
		discounts: &fakeDiscountService{},
		users:     newFakeUserService(),
		limiter:   &fakeLimiter{allow: 1000},
		adminKey:  key,
	}
}

func (d *testDeps) router() http.Handler {
	logger := discardLogger()
	return NewRouter(RouterConfig{
		Logger:        logger,
		Health:        NewHealthHandler(&mockHealthChecker{}, &mockHealthChecker{}),
		Notifications: NewNotificationHandler(d.notifier, logger),
		Email:         NewEmailHandler(d.sender),
		Discounts:     NewDiscountHandler(d.discounts, logger),
		Users:         NewUserHandler(d.users, logger),
		Admin:         NewAdminHandler(d.discounts, d.users, d.users, "test", logger),
		AdminAuth: middleware.AdminAuthConfig{
			Logger:      logger,
			Cache:       &fakeAdminCache{},
			KeyHash:     d.adminKey.Hash,
			MinDuration: time.Millisecond,
		},
		RateLimit: middleware.RateLimitConfig{
			Logger:  logger,
			Limiter: d.limiter,
			Enabled: true,
			IPRPS:   5,
			IPBurst: 10,
		},
		CORS:         middleware.DefaultCORSConfig([]string{"https://shop.example.com"}),
		Security:     middleware.SecurityConfig{IsDevelopment: true},
		MaxBodyBytes: 1 << 20,
	})
}

// do sends a request through h and returns the recorder.
func do(h http.Handler, method, target, body string, headers ...string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), dst); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}
