package transactions

import (
	"fmt"
	"time"
)

// Type is the closed set of transaction kinds.
type Type string

const (
	TypeIncome  Type = "income"
	TypeExpense Type = "expense"
)

// ParseType validates a wire value against the closed set.
func ParseType(s string) (Type, error) {
	switch Type(s) {
	case TypeIncome:
		return TypeIncome, nil
	case TypeExpense:
		return TypeExpense, nil
	}
	return "", fmt.Errorf("invalid transaction type %q", s)
}

type Transaction struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Type      Type      `json:"type"`
	Amount    int64     `json:"amount"`
	CreatedAt time.Time `json:"created_at"`
}

type UpsertRequest struct {
	Type   string `json:"type"`
	Amount int64  `json:"amount"`
	UserID int64  `json:"user_id"`
}
