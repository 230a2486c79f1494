package users

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/sigitwie/mysql-w9/internal/cache"
	"github.com/sigitwie/mysql-w9/internal/respond"
)

// cacheWriteTimeout bounds the populate after a miss so a slow cache can
// never stall the response for long.
const cacheWriteTimeout = 2 * time.Second

// Store is the relational surface the user endpoints need.
type Store interface {
	Create(ctx context.Context, name, address string) (int64, error)
	List(ctx context.Context) ([]User, error)
	Aggregate(ctx context.Context, id int64) (Aggregate, error)
	Update(ctx context.Context, id int64, name, address string) error
	Delete(ctx context.Context, id int64) error
}

type Handler struct {
	Store Store
	Cache cache.Provider
	Codec cache.Codec[Aggregate]
	TTL   time.Duration
	Log   *zap.Logger
}

func NewHandler(store Store, provider cache.Provider, ttl time.Duration, log *zap.Logger) *Handler {
	return &Handler{
		Store: store,
		Cache: provider,
		Codec: cache.MsgpackCodec[Aggregate]{},
		TTL:   ttl,
		Log:   log,
	}
}

func (h *Handler) Create(c *fiber.Ctx) error {
	var req UpsertRequest
	if err := c.BodyParser(&req); err != nil {
		return respond.Validation(c, "invalid body")
	}

	id, err := h.Store.Create(userContext(c), req.Name, req.Address)
	if err != nil {
		return respond.StoreError(c, "failed to add user data", err)
	}
	return respond.OK(c, "user added successfully", fiber.Map{"userId": id})
}

func (h *Handler) List(c *fiber.Ctx) error {
	list, err := h.Store.List(userContext(c))
	if err != nil {
		return respond.StoreError(c, "failed to fetch user data", err)
	}
	return respond.OK(c, "user data fetched successfully", list)
}

// GetAggregate serves GET /user/:id through the read-through cache: probe
// the cache, fall back to the store on a miss, repopulate with the fixed
// TTL, answer. The aggregate is returned as raw JSON, not enveloped.
//
// Cache failures only degrade the path to store-only behavior; they are
// logged and never surfaced. Concurrent misses for the same id may both
// hit the store and both populate; last write wins and both writes carry
// the same data, so no coordination is needed.
func (h *Handler) GetAggregate(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return respond.Validation(c, "invalid user id")
	}

	ctx := userContext(c)
	key := cache.UserKey(id)

	if raw, ok, err := h.Cache.Get(ctx, key); err != nil {
		h.Log.Warn("cache get failed", zap.String("key", key), zap.Error(err))
	} else if ok {
		agg, err := h.Codec.Decode(raw)
		if err == nil {
			return c.JSON(agg)
		}
		h.Log.Warn("dropping undecodable cache entry", zap.String("key", key), zap.Error(err))
		if err := h.Cache.Del(ctx, key); err != nil {
			h.Log.Warn("cache delete failed", zap.String("key", key), zap.Error(err))
		}
	}

	agg, err := h.Store.Aggregate(ctx, id)
	if errors.Is(err, ErrNotFound) {
		// not cached: absence must stay "unknown", not a negative entry
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "user not found"})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to fetch user data"})
	}

	h.populate(ctx, key, agg)
	return c.JSON(agg)
}

// populate writes a freshly computed aggregate to the cache. Errors are
// swallowed: the read already has its answer from the store.
func (h *Handler) populate(ctx context.Context, key string, agg Aggregate) {
	raw, err := h.Codec.Encode(agg)
	if err != nil {
		h.Log.Warn("cache encode failed", zap.String("key", key), zap.Error(err))
		return
	}

	sctx, cancel := context.WithTimeout(ctx, cacheWriteTimeout)
	defer cancel()
	if err := h.Cache.Set(sctx, key, raw, h.TTL); err != nil {
		h.Log.Warn("cache set failed", zap.String("key", key), zap.Error(err))
	}
}

// Update changes name/address by id. It does not touch the cache: the
// derived fields are unaffected, and the stale name/address in an existing
// entry is an accepted window that closes at TTL expiry.
func (h *Handler) Update(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return respond.Validation(c, "invalid user id")
	}

	var req UpsertRequest
	if err := c.BodyParser(&req); err != nil {
		return respond.Validation(c, "invalid body")
	}

	err = h.Store.Update(userContext(c), id, req.Name, req.Address)
	if errors.Is(err, ErrNotFound) {
		return respond.NotFound(c, "user not found")
	}
	if err != nil {
		return respond.StoreError(c, "failed to update user data", err)
	}
	return respond.OK(c, "user updated successfully", fiber.Map{"userId": id})
}

func (h *Handler) Delete(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return respond.Validation(c, "invalid user id")
	}

	ctx := userContext(c)
	err = h.Store.Delete(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return respond.NotFound(c, "user not found")
	}
	if err != nil {
		return respond.StoreError(c, "failed to delete user data", err)
	}

	// Drop the aggregate so a reused or re-read id cannot serve a deleted
	// user's data for the rest of the TTL window.
	key := cache.UserKey(id)
	if err := h.Cache.Del(ctx, key); err != nil {
		h.Log.Warn("cache delete failed", zap.String("key", key), zap.Error(err))
	}

	return respond.OK(c, "user deleted successfully", fiber.Map{"userId": id})
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
