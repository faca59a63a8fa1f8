package postgres

import (
	"context"
	"fmt"

	"github.com/bigMackD/Glyloop-sub002/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ReadingStore holds the glucose readings imported through a CGM link.
type ReadingStore struct {
	pool *pgxpool.Pool
}

func NewReadingStore(pool *pgxpool.Pool) *ReadingStore {
	return &ReadingStore{pool: pool}
}

func (s *ReadingStore) DeleteByLink(ctx context.Context, linkID domain.LinkID) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM cgm_readings WHERE link_id = $1`, linkID.String())
	if err != nil {
		return 0, fmt.Errorf("delete readings: %w", err)
	}
	return tag.RowsAffected(), nil
}
