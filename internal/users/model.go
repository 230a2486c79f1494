package users

import "time"

// User is a persisted user row.
type User struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	CreatedAt time.Time `json:"created_at"`
}

// Aggregate is a user joined with income/expense sums over its
// transactions. It is a pure projection: never stored durably, it exists
// only as a query result or a cache payload.
type Aggregate struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address"`
	Income  int64  `json:"income"`
	Expense int64  `json:"expense"`
	Balance int64  `json:"balance"`
}

type UpsertRequest struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}
