package repository

import (
	"context"
	"time"

	"github.com/bigMackD/Glyloop-sub002/internal/domain"
)

type CgmLinkRepository interface {
	GetByID(ctx context.Context, id domain.LinkID) (*domain.CgmLink, error)
	// GetActiveByUser returns the user's active link (not unlinked, not yet
	// expired) or nil. The at-most-one-active invariant is check-then-act at
	// the use-case layer, so this is only as strong as the absence of
	// concurrent link requests.
	GetActiveByUser(ctx context.Context, userID domain.UserID) (*domain.CgmLink, error)
	GetByUser(ctx context.Context, userID domain.UserID) ([]*domain.CgmLink, error)
	// GetLinksNeedingRefresh returns active links whose expiry falls within
	// the threshold measured from now.
	GetLinksNeedingRefresh(ctx context.Context, now time.Time, threshold time.Duration) ([]*domain.CgmLink, error)
}
