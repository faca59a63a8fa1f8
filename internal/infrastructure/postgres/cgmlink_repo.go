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

const linkColumns = `id, user_id, access_token_enc, refresh_token_enc,
	       token_expires_at, last_refreshed_at, unlinked, created_at`

type CgmLinkRepository struct {
	pool *pgxpool.Pool
}

func NewCgmLinkRepository(pool *pgxpool.Pool) *CgmLinkRepository {
	return &CgmLinkRepository{pool: pool}
}

func (r *CgmLinkRepository) GetByID(ctx context.Context, id domain.LinkID) (*domain.CgmLink, error) {
	query := `SELECT ` + linkColumns + ` FROM cgm_links WHERE id = $1`
	return scanLink(r.pool.QueryRow(ctx, query, id.String()))
}

func (r *CgmLinkRepository) GetActiveByUser(ctx context.Context, userID domain.UserID) (*domain.CgmLink, error) {
	query := `
		SELECT ` + linkColumns + `
		FROM cgm_links
		WHERE user_id = $1 AND NOT unlinked AND token_expires_at > NOW()
		ORDER BY created_at DESC
		LIMIT 1`

	link, err := scanLink(r.pool.QueryRow(ctx, query, userID.String()))
	if errors.Is(err, domain.ErrLinkNotFound) {
		return nil, nil
	}
	return link, err
}

func (r *CgmLinkRepository) GetByUser(ctx context.Context, userID domain.UserID) ([]*domain.CgmLink, error) {
	query := `SELECT ` + linkColumns + ` FROM cgm_links WHERE user_id = $1 ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, userID.String())
	if err != nil {
		return nil, fmt.Errorf("list links: %w", err)
	}
	defer rows.Close()
	return collectLinks(rows)
}

func (r *CgmLinkRepository) GetLinksNeedingRefresh(ctx context.Context, now time.Time, threshold time.Duration) ([]*domain.CgmLink, error) {
	// Still-valid links whose expiry falls inside the refresh window.
	// Already-expired links are skipped: their refresh token is gone too.
	query := `
		SELECT ` + linkColumns + `
		FROM cgm_links
		WHERE NOT unlinked
		  AND token_expires_at > $1
		  AND token_expires_at <= $2
		ORDER BY token_expires_at ASC`

	rows, err := r.pool.Query(ctx, query, now, now.Add(threshold))
	if err != nil {
		return nil, fmt.Errorf("list links needing refresh: %w", err)
	}
	defer rows.Close()
	return collectLinks(rows)
}

func collectLinks(rows pgx.Rows) ([]*domain.CgmLink, error) {
	var links []*domain.CgmLink
	for rows.Next() {
		l, err := scanLink(rows)
		if err != nil {
			return nil, err
		}
		links = append(links, l)
	}
	return links, rows.Err()
}

func scanLink(row pgx.Row) (*domain.CgmLink, error) {
	var (
		id, userID      string
		access, refresh []byte
		expiresAt       time.Time
		lastRefreshedAt *time.Time
		unlinked        bool
		createdAt       time.Time
	)
	err := row.Scan(&id, &userID, &access, &refresh, &expiresAt, &lastRefreshedAt, &unlinked, &createdAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrLinkNotFound
		}
		return nil, fmt.Errorf("scan cgm link: %w", err)
	}

	linkID, err := valueOf(domain.NewLinkID(id))
	if err != nil {
		return nil, err
	}
	owner, err := valueOf(domain.NewUserID(userID))
	if err != nil {
		return nil, err
	}

	return domain.RehydrateCgmLink(domain.CgmLinkRecord{
		ID:                    linkID,
		UserID:                owner,
		EncryptedAccessToken:  access,
		EncryptedRefreshToken: refresh,
		TokenExpiresAt:        expiresAt,
		LastRefreshedAt:       lastRefreshedAt,
		Unlinked:              unlinked,
		CreatedAt:             createdAt,
	}), nil
}

var _ repository.CgmLinkRepository = (*CgmLinkRepository)(nil)
