// Package respond implements the uniform success/error envelope shared by
// the CRUD endpoints. The aggregate read path and the transaction list
// intentionally bypass it and return raw JSON.
package respond

import "github.com/gofiber/fiber/v2"

type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// OK writes a 200 success envelope.
func OK(c *fiber.Ctx, message string, data any) error {
	return c.JSON(Envelope{Success: true, Message: message, Data: data})
}

// Fail writes an error envelope with the given status. detail is surfaced
// in the envelope's error field; pass "" to omit it.
func Fail(c *fiber.Ctx, status int, message, detail string) error {
	return c.Status(status).JSON(Envelope{Success: false, Message: message, Error: detail})
}

// Validation rejects a request that failed input validation.
func Validation(c *fiber.Ctx, message string) error {
	return Fail(c, fiber.StatusBadRequest, message, message)
}

// NotFound signals an absent update/delete/read target.
func NotFound(c *fiber.Ctx, message string) error {
	return Fail(c, fiber.StatusNotFound, message, "")
}

// StoreError maps a store-level failure; the error detail is surfaced.
func StoreError(c *fiber.Ctx, message string, err error) error {
	detail := ""
	if err != nil {
		detail = err.Error()
	}
	return Fail(c, fiber.StatusInternalServerError, message, detail)
}
