package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/sigitwie/mysql-w9/internal/transactions"
	"github.com/sigitwie/mysql-w9/internal/users"
)

type Router struct {
	Users        *users.Handler
	Transactions *transactions.Handler

	// AuthMW gates every /user and /transaction route when set. Health
	// endpoints stay open.
	AuthMW fiber.Handler
}

func (r *Router) RegisterRoutes(app *fiber.App) {
	app.Get("/health", health)
	app.Get("/healthz", health)

	guard := func(h fiber.Handler) []fiber.Handler {
		if r.AuthMW != nil {
			return []fiber.Handler{r.AuthMW, h}
		}
		return []fiber.Handler{h}
	}

	app.Post("/user", guard(r.Users.Create)...)
	app.Get("/user", guard(r.Users.List)...)
	app.Get("/user/:id", guard(r.Users.GetAggregate)...)
	app.Put("/user/:id", guard(r.Users.Update)...)
	app.Delete("/user/:id", guard(r.Users.Delete)...)

	app.Post("/transaction", guard(r.Transactions.Create)...)
	app.Get("/transaction", guard(r.Transactions.List)...)
	app.Get("/transaction/:id", guard(r.Transactions.Get)...)
	app.Put("/transaction/:id", guard(r.Transactions.Update)...)
	app.Delete("/transaction/:id", guard(r.Transactions.Delete)...)
}

func health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"ok": true})
}
