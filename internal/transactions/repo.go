package transactions

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when the targeted transaction row does not exist.
var ErrNotFound = errors.New("transaction not found")

type Repo struct {
	Pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) *Repo {
	return &Repo{Pool: pool}
}

func (r *Repo) Create(ctx context.Context, userID int64, typ Type, amount int64) (int64, error) {
	var id int64
	err := r.Pool.QueryRow(ctx,
		`INSERT INTO transactions (user_id, type, amount)
		 VALUES ($1, $2, $3)
		 RETURNING id`,
		userID, string(typ), amount,
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (r *Repo) List(ctx context.Context) ([]Transaction, error) {
	rows, err := r.Pool.Query(ctx,
		`SELECT id, user_id, type, amount, created_at
		 FROM transactions
		 ORDER BY id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Transaction, 0)
	for rows.Next() {
		var t Transaction
		if err := rows.Scan(&t.ID, &t.UserID, &t.Type, &t.Amount, &t.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *Repo) Get(ctx context.Context, id int64) (Transaction, error) {
	var t Transaction
	err := r.Pool.QueryRow(ctx,
		`SELECT id, user_id, type, amount, created_at
		 FROM transactions
		 WHERE id = $1`,
		id,
	).Scan(&t.ID, &t.UserID, &t.Type, &t.Amount, &t.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Transaction{}, ErrNotFound
	}
	if err != nil {
		return Transaction{}, err
	}
	return t, nil
}

// Owner returns the owning user id of a transaction. Write paths use it
// both as the existence check and to know which aggregate to invalidate.
func (r *Repo) Owner(ctx context.Context, id int64) (int64, error) {
	var userID int64
	err := r.Pool.QueryRow(ctx,
		`SELECT user_id FROM transactions WHERE id = $1`, id,
	).Scan(&userID)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, err
	}
	return userID, nil
}

func (r *Repo) Update(ctx context.Context, id, userID int64, typ Type, amount int64) error {
	tag, err := r.Pool.Exec(ctx,
		`UPDATE transactions SET user_id = $1, type = $2, amount = $3 WHERE id = $4`,
		userID, string(typ), amount, id,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repo) Delete(ctx context.Context, id int64) error {
	tag, err := r.Pool.Exec(ctx, `DELETE FROM transactions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UserExists checks the referenced owner before a transaction write.
func (r *Repo) UserExists(ctx context.Context, userID int64) (bool, error) {
	var id int64
	err := r.Pool.QueryRow(ctx, `SELECT id FROM users WHERE id = $1`, userID).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
