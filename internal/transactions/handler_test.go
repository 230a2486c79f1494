package transactions

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/sigitwie/mysql-w9/internal/cache"
	"github.com/sigitwie/mysql-w9/internal/cache/cachetest"
	"github.com/sigitwie/mysql-w9/internal/respond"
)

type fakeStore struct {
	txns   map[int64]Transaction
	users  map[int64]bool
	nextID int64

	inserts int
	err     error
}

var _ Store = (*fakeStore)(nil)

func newFakeStore() *fakeStore {
	return &fakeStore{txns: make(map[int64]Transaction), users: make(map[int64]bool), nextID: 1}
}

func (s *fakeStore) Create(_ context.Context, userID int64, typ Type, amount int64) (int64, error) {
	if s.err != nil {
		return 0, s.err
	}
	s.inserts++
	id := s.nextID
	s.nextID++
	s.txns[id] = Transaction{ID: id, UserID: userID, Type: typ, Amount: amount}
	return id, nil
}

func (s *fakeStore) List(context.Context) ([]Transaction, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := make([]Transaction, 0, len(s.txns))
	for _, t := range s.txns {
		out = append(out, t)
	}
	return out, nil
}

func (s *fakeStore) Get(_ context.Context, id int64) (Transaction, error) {
	if s.err != nil {
		return Transaction{}, s.err
	}
	t, ok := s.txns[id]
	if !ok {
		return Transaction{}, ErrNotFound
	}
	return t, nil
}

func (s *fakeStore) Owner(_ context.Context, id int64) (int64, error) {
	if s.err != nil {
		return 0, s.err
	}
	t, ok := s.txns[id]
	if !ok {
		return 0, ErrNotFound
	}
	return t.UserID, nil
}

func (s *fakeStore) Update(_ context.Context, id, userID int64, typ Type, amount int64) error {
	if s.err != nil {
		return s.err
	}
	t, ok := s.txns[id]
	if !ok {
		return ErrNotFound
	}
	t.UserID, t.Type, t.Amount = userID, typ, amount
	s.txns[id] = t
	return nil
}

func (s *fakeStore) Delete(_ context.Context, id int64) error {
	if s.err != nil {
		return s.err
	}
	if _, ok := s.txns[id]; !ok {
		return ErrNotFound
	}
	delete(s.txns, id)
	return nil
}

func (s *fakeStore) UserExists(_ context.Context, userID int64) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	return s.users[userID], nil
}

func newTestApp(store Store, provider cache.Provider) *fiber.App {
	h := NewHandler(store, provider, zap.NewNop())
	app := fiber.New()
	app.Post("/transaction", h.Create)
	app.Get("/transaction", h.List)
	app.Get("/transaction/:id", h.Get)
	app.Put("/transaction/:id", h.Update)
	app.Delete("/transaction/:id", h.Delete)
	return app
}

func doReq(t *testing.T, app *fiber.App, method, target string, body any) (*http.Response, []byte) {
	t.Helper()
	var buf io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		buf = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	resp.Body.Close()
	return resp, raw
}

func seedCache(provider *cachetest.Provider, userID int64) {
	provider.Put(cache.UserKey(userID), []byte("payload"), 25*time.Second)
}

func TestCreateRejectsInvalidType(t *testing.T) {
	store := newFakeStore()
	store.users[1] = true
	provider := cachetest.New()
	app := newTestApp(store, provider)

	resp, _ := doReq(t, app, http.MethodPost, "/transaction",
		UpsertRequest{Type: "transfer", Amount: 100, UserID: 1})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	if store.inserts != 0 {
		t.Fatalf("inserts = %d, want 0", store.inserts)
	}
	if provider.Gets+provider.Sets+provider.Dels != 0 {
		t.Fatal("cache must not be touched on a validation failure")
	}
}

func TestCreateRejectsNegativeAmount(t *testing.T) {
	store := newFakeStore()
	store.users[1] = true
	app := newTestApp(store, cachetest.New())

	resp, _ := doReq(t, app, http.MethodPost, "/transaction",
		UpsertRequest{Type: "income", Amount: -5, UserID: 1})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	if store.inserts != 0 {
		t.Fatalf("inserts = %d, want 0", store.inserts)
	}
}

func TestCreateRejectsUnknownUser(t *testing.T) {
	store := newFakeStore()
	app := newTestApp(store, cachetest.New())

	resp, raw := doReq(t, app, http.MethodPost, "/transaction",
		UpsertRequest{Type: "income", Amount: 100, UserID: 999999})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	if store.inserts != 0 {
		t.Fatalf("inserts = %d, want 0", store.inserts)
	}
	var env respond.Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if env.Success || env.Message != "invalid user_id" {
		t.Fatalf("unexpected envelope: %s", raw)
	}
}

func TestCreateInvalidatesOwnerAggregate(t *testing.T) {
	store := newFakeStore()
	store.users[1] = true
	provider := cachetest.New()
	seedCache(provider, 1)
	app := newTestApp(store, provider)

	resp, raw := doReq(t, app, http.MethodPost, "/transaction",
		UpsertRequest{Type: "income", Amount: 100, UserID: 1})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", resp.StatusCode, raw)
	}
	if provider.Has(cache.UserKey(1)) {
		t.Fatal("owner's cached aggregate must be invalidated on create")
	}

	var env respond.Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	data, ok := env.Data.(map[string]any)
	if !ok || data["id"] != float64(1) {
		t.Fatalf("unexpected data: %s", raw)
	}
}

func TestCreateSucceedsWhenInvalidationFails(t *testing.T) {
	store := newFakeStore()
	store.users[1] = true
	provider := cachetest.New()
	provider.DelErr = context.DeadlineExceeded
	app := newTestApp(store, provider)

	resp, _ := doReq(t, app, http.MethodPost, "/transaction",
		UpsertRequest{Type: "expense", Amount: 30, UserID: 1})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if store.inserts != 1 {
		t.Fatalf("inserts = %d, want 1", store.inserts)
	}
}

func TestListReturnsRawArray(t *testing.T) {
	store := newFakeStore()
	app := newTestApp(store, cachetest.New())

	resp, raw := doReq(t, app, http.MethodGet, "/transaction", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if len(raw) == 0 || raw[0] != '[' {
		t.Fatalf("expected a raw JSON array, got: %s", raw)
	}
}

func TestGetNotFound(t *testing.T) {
	app := newTestApp(newFakeStore(), cachetest.New())
	resp, _ := doReq(t, app, http.MethodGet, "/transaction/9", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
}

func TestUpdateRevalidatesAndInvalidates(t *testing.T) {
	store := newFakeStore()
	store.users[1] = true
	store.txns[3] = Transaction{ID: 3, UserID: 1, Type: TypeIncome, Amount: 100}
	store.nextID = 4
	provider := cachetest.New()
	seedCache(provider, 1)
	app := newTestApp(store, provider)

	resp, _ := doReq(t, app, http.MethodPut, "/transaction/3",
		UpsertRequest{Type: "expense", Amount: 50, UserID: 1})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if provider.Has(cache.UserKey(1)) {
		t.Fatal("owner's cached aggregate must be invalidated on update")
	}
	if got := store.txns[3]; got.Type != TypeExpense || got.Amount != 50 {
		t.Fatalf("row not updated: %+v", got)
	}
}

// Moving a transaction to another user changes both aggregates, so both
// cache entries have to go.
func TestUpdateReassignInvalidatesBothOwners(t *testing.T) {
	store := newFakeStore()
	store.users[1] = true
	store.users[2] = true
	store.txns[3] = Transaction{ID: 3, UserID: 1, Type: TypeIncome, Amount: 100}
	provider := cachetest.New()
	seedCache(provider, 1)
	seedCache(provider, 2)
	app := newTestApp(store, provider)

	resp, _ := doReq(t, app, http.MethodPut, "/transaction/3",
		UpsertRequest{Type: "income", Amount: 100, UserID: 2})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if provider.Has(cache.UserKey(1)) {
		t.Fatal("previous owner's cached aggregate must be invalidated")
	}
	if provider.Has(cache.UserKey(2)) {
		t.Fatal("new owner's cached aggregate must be invalidated")
	}
}

func TestUpdateRejectsInvalidType(t *testing.T) {
	store := newFakeStore()
	store.users[1] = true
	store.txns[3] = Transaction{ID: 3, UserID: 1, Type: TypeIncome, Amount: 100}
	app := newTestApp(store, cachetest.New())

	resp, _ := doReq(t, app, http.MethodPut, "/transaction/3",
		UpsertRequest{Type: "transfer", Amount: 100, UserID: 1})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	if got := store.txns[3]; got.Type != TypeIncome {
		t.Fatalf("row must not change on validation failure: %+v", got)
	}
}

func TestUpdateNotFound(t *testing.T) {
	store := newFakeStore()
	store.users[1] = true
	app := newTestApp(store, cachetest.New())

	resp, _ := doReq(t, app, http.MethodPut, "/transaction/9",
		UpsertRequest{Type: "income", Amount: 10, UserID: 1})
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
}

// Delete must clear the owning user's key, not a key derived from the
// transaction id.
func TestDeleteInvalidatesOwnerAggregate(t *testing.T) {
	store := newFakeStore()
	store.users[7] = true
	store.txns[3] = Transaction{ID: 3, UserID: 7, Type: TypeExpense, Amount: 30}
	provider := cachetest.New()
	seedCache(provider, 7)
	seedCache(provider, 3) // unrelated user sharing the transaction's id
	app := newTestApp(store, provider)

	resp, _ := doReq(t, app, http.MethodDelete, "/transaction/3", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if provider.Has(cache.UserKey(7)) {
		t.Fatal("owner's cached aggregate must be invalidated on delete")
	}
	if !provider.Has(cache.UserKey(3)) {
		t.Fatal("unrelated user's cached aggregate must not be touched")
	}
	if _, ok := store.txns[3]; ok {
		t.Fatal("row not deleted")
	}
}

func TestDeleteNotFound(t *testing.T) {
	app := newTestApp(newFakeStore(), cachetest.New())
	resp, _ := doReq(t, app, http.MethodDelete, "/transaction/9", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
}

func TestParseType(t *testing.T) {
	if _, err := ParseType("income"); err != nil {
		t.Fatalf("income: %v", err)
	}
	if _, err := ParseType("expense"); err != nil {
		t.Fatalf("expense: %v", err)
	}
	for _, bad := range []string{"", "transfer", "Income", "EXPENSE"} {
		if _, err := ParseType(bad); err == nil {
			t.Fatalf("ParseType(%q) accepted an invalid type", bad)
		}
	}
}
