package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bigMackD/Glyloop-sub002/internal/domain"
	"github.com/bigMackD/Glyloop-sub002/internal/repository"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func (r *UserRepository) FindOrCreate(ctx context.Context, email string) (*domain.User, error) {
	// Upsert keeps concurrent first-sign-ins from racing on the unique email.
	query := `
		INSERT INTO users (id, email)
		VALUES (gen_random_uuid(), $1)
		ON CONFLICT (email) DO UPDATE SET updated_at = NOW()
		RETURNING id, email, tir_lower, tir_upper, created_at, updated_at`

	return scanUser(r.pool.QueryRow(ctx, query, email))
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	query := `SELECT id, email, tir_lower, tir_upper, created_at, updated_at FROM users WHERE id = $1`
	return scanUser(r.pool.QueryRow(ctx, query, id))
}

func (r *UserRepository) UpdateTirTarget(ctx context.Context, userID string, target domain.TirRange) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE users SET tir_lower = $2, tir_upper = $3, updated_at = NOW() WHERE id = $1`,
		userID, target.Lower(), target.Upper(),
	)
	if err != nil {
		return fmt.Errorf("update tir target: %w", err)
	}
	return nil
}

func (r *UserRepository) CreateSignInToken(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO sign_in_tokens (id, user_id, token_hash, expires_at)
		 VALUES (gen_random_uuid(), $1, $2, $3)`,
		userID, tokenHash, expiresAt,
	)
	if err != nil {
		return fmt.Errorf("create sign-in token: %w", err)
	}
	return nil
}

func (r *UserRepository) ClaimSignInToken(ctx context.Context, tokenHash string) (*domain.SignInToken, error) {
	// Single UPDATE claims atomically: a token can be used exactly once.
	query := `
		UPDATE sign_in_tokens
		SET    used_at = NOW()
		WHERE  token_hash = $1 AND used_at IS NULL AND expires_at > NOW()
		RETURNING id, user_id, token_hash, expires_at, used_at, created_at`

	var t domain.SignInToken
	err := r.pool.QueryRow(ctx, query, tokenHash).
		Scan(&t.ID, &t.UserID, &t.TokenHash, &t.ExpiresAt, &t.UsedAt, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTokenInvalid
		}
		return nil, fmt.Errorf("claim sign-in token: %w", err)
	}
	return &t, nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var (
		u                  domain.User
		tirLower, tirUpper int
	)
	err := row.Scan(&u.ID, &u.Email, &tirLower, &tirUpper, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}

	target, err := valueOf(domain.NewTirRange(tirLower, tirUpper))
	if err != nil {
		return nil, err
	}
	u.TirTarget = target
	return &u, nil
}

var _ repository.UserRepository = (*UserRepository)(nil)
