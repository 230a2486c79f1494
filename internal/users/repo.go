package users

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when the targeted user row does not exist.
var ErrNotFound = errors.New("user not found")

type Repo struct {
	Pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) *Repo {
	return &Repo{Pool: pool}
}

func (r *Repo) Create(ctx context.Context, name, address string) (int64, error) {
	var id int64
	err := r.Pool.QueryRow(ctx,
		`INSERT INTO users (name, address)
		 VALUES ($1, $2)
		 RETURNING id`,
		name, address,
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (r *Repo) List(ctx context.Context) ([]User, error) {
	rows, err := r.Pool.Query(ctx,
		`SELECT id, name, address, created_at
		 FROM users
		 ORDER BY id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]User, 0)
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Name, &u.Address, &u.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// Aggregate loads a user joined with income/expense sums over its
// transactions. Missing sums default to zero so a user without
// transactions reports a zero balance.
func (r *Repo) Aggregate(ctx context.Context, id int64) (Aggregate, error) {
	var a Aggregate
	err := r.Pool.QueryRow(ctx,
		`SELECT u.id, u.name, u.address,
			COALESCE(SUM(CASE WHEN t.type = 'income' THEN t.amount ELSE 0 END), 0)::bigint AS income,
			COALESCE(SUM(CASE WHEN t.type = 'expense' THEN t.amount ELSE 0 END), 0)::bigint AS expense,
			COALESCE(SUM(CASE WHEN t.type = 'income' THEN t.amount ELSE -t.amount END), 0)::bigint AS balance
		 FROM users u
		 LEFT JOIN transactions t ON t.user_id = u.id
		 WHERE u.id = $1
		 GROUP BY u.id`,
		id,
	).Scan(&a.ID, &a.Name, &a.Address, &a.Income, &a.Expense, &a.Balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return Aggregate{}, ErrNotFound
	}
	if err != nil {
		return Aggregate{}, err
	}
	return a, nil
}

func (r *Repo) Update(ctx context.Context, id int64, name, address string) error {
	tag, err := r.Pool.Exec(ctx,
		`UPDATE users SET name = $1, address = $2 WHERE id = $3`,
		name, address, id,
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
	tag, err := r.Pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
