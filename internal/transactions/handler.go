package transactions

import (
	"context"
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/sigitwie/mysql-w9/internal/cache"
	"github.com/sigitwie/mysql-w9/internal/respond"
)

// Store is the relational surface the transaction endpoints need.
type Store interface {
	Create(ctx context.Context, userID int64, typ Type, amount int64) (int64, error)
	List(ctx context.Context) ([]Transaction, error)
	Get(ctx context.Context, id int64) (Transaction, error)
	Owner(ctx context.Context, id int64) (int64, error)
	Update(ctx context.Context, id, userID int64, typ Type, amount int64) error
	Delete(ctx context.Context, id int64) error
	UserExists(ctx context.Context, userID int64) (bool, error)
}

type Handler struct {
	Store Store
	Cache cache.Provider
	Log   *zap.Logger
}

func NewHandler(store Store, provider cache.Provider, log *zap.Logger) *Handler {
	return &Handler{Store: store, Cache: provider, Log: log}
}

// Create validates the request, inserts the transaction, then drops the
// owner's cached aggregate so the next read recomputes with this
// transaction included. The store write is acknowledged before the
// invalidation is issued.
func (h *Handler) Create(c *fiber.Ctx) error {
	var req UpsertRequest
	if err := c.BodyParser(&req); err != nil {
		return respond.Validation(c, "invalid body")
	}

	typ, err := ParseType(req.Type)
	if err != nil {
		return respond.Validation(c, "invalid transaction type")
	}
	if req.Amount < 0 {
		return respond.Validation(c, "amount must not be negative")
	}

	ctx := userContext(c)
	ok, serr := h.Store.UserExists(ctx, req.UserID)
	if serr != nil {
		return respond.StoreError(c, "failed to fetch user data", serr)
	}
	if !ok {
		return respond.Validation(c, "invalid user_id")
	}

	id, serr := h.Store.Create(ctx, req.UserID, typ, req.Amount)
	if serr != nil {
		return respond.StoreError(c, "failed to add transaction data", serr)
	}

	h.invalidate(ctx, req.UserID)
	return respond.OK(c, "transaction added successfully", fiber.Map{"id": id})
}

// List returns all transactions as a raw JSON array, not enveloped.
func (h *Handler) List(c *fiber.Ctx) error {
	list, err := h.Store.List(userContext(c))
	if err != nil {
		return respond.StoreError(c, "failed to fetch transaction data", err)
	}
	return c.JSON(list)
}

func (h *Handler) Get(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return respond.Validation(c, "invalid transaction id")
	}

	t, err := h.Store.Get(userContext(c), id)
	if errors.Is(err, ErrNotFound) {
		return respond.NotFound(c, "transaction not found")
	}
	if err != nil {
		return respond.StoreError(c, "failed to fetch transaction data", err)
	}
	return respond.OK(c, "transaction data fetched successfully", t)
}

// Update re-validates type and owner against the request body, updates the
// row, then invalidates the new owner's aggregate. When the update moves
// the transaction between users the previous owner's aggregate changed
// too, so both keys are dropped.
func (h *Handler) Update(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return respond.Validation(c, "invalid transaction id")
	}

	var req UpsertRequest
	if err := c.BodyParser(&req); err != nil {
		return respond.Validation(c, "invalid body")
	}

	typ, err := ParseType(req.Type)
	if err != nil {
		return respond.Validation(c, "invalid transaction type")
	}
	if req.Amount < 0 {
		return respond.Validation(c, "amount must not be negative")
	}

	ctx := userContext(c)
	ok, serr := h.Store.UserExists(ctx, req.UserID)
	if serr != nil {
		return respond.StoreError(c, "failed to fetch user data", serr)
	}
	if !ok {
		return respond.Validation(c, "invalid user_id")
	}

	prevOwner, serr := h.Store.Owner(ctx, id)
	if errors.Is(serr, ErrNotFound) {
		return respond.NotFound(c, "transaction not found")
	}
	if serr != nil {
		return respond.StoreError(c, "failed to fetch transaction data", serr)
	}

	if serr := h.Store.Update(ctx, id, req.UserID, typ, req.Amount); serr != nil {
		if errors.Is(serr, ErrNotFound) {
			return respond.NotFound(c, "transaction not found")
		}
		return respond.StoreError(c, "failed to update transaction data", serr)
	}

	h.invalidate(ctx, req.UserID)
	if prevOwner != req.UserID {
		h.invalidate(ctx, prevOwner)
	}
	return respond.OK(c, "transaction updated successfully", fiber.Map{"id": id})
}

// Delete removes the transaction and drops the owning user's aggregate.
func (h *Handler) Delete(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return respond.Validation(c, "invalid transaction id")
	}

	ctx := userContext(c)
	owner, serr := h.Store.Owner(ctx, id)
	if errors.Is(serr, ErrNotFound) {
		return respond.NotFound(c, "transaction not found")
	}
	if serr != nil {
		return respond.StoreError(c, "failed to check transaction data", serr)
	}

	if serr := h.Store.Delete(ctx, id); serr != nil {
		if errors.Is(serr, ErrNotFound) {
			return respond.NotFound(c, "transaction not found")
		}
		return respond.StoreError(c, "failed to delete transaction data", serr)
	}

	h.invalidate(ctx, owner)
	return respond.OK(c, "transaction deleted successfully", fiber.Map{"id": id})
}

// invalidate drops a user's cached aggregate. A failed delete is logged
// and swallowed; the stale entry then ages out at TTL expiry.
func (h *Handler) invalidate(ctx context.Context, userID int64) {
	key := cache.UserKey(userID)
	if err := h.Cache.Del(ctx, key); err != nil {
		h.Log.Warn("cache delete failed", zap.String("key", key), zap.Error(err))
	}
}

func parseID(c *fiber.Ctx) (int64, error) {
	return strconv.ParseInt(c.Params("id"), 10, 64)
}

func userContext(c *fiber.Ctx) context.Context {
	if ctx := c.UserContext(); ctx != nil {
		return ctx
	}
	return context.Background()
}
