// Package notify holds the subscribers that react to committed domain
// events: purging readings and emailing the user after an unlink.
package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bigMackD/Glyloop-sub002/internal/domain"
)

// ReadingStore deletes the CGM readings imported through a link.
type ReadingStore interface {
	DeleteByLink(ctx context.Context, linkID domain.LinkID) (int64, error)
}

// ReadingPurger deletes stored readings when a link is torn down with the
// purge flag. Other events pass through untouched.
type ReadingPurger struct {
	readings ReadingStore
	logger   *slog.Logger
}

func NewReadingPurger(readings ReadingStore, logger *slog.Logger) *ReadingPurger {
	return &ReadingPurger{
		readings: readings,
		logger:   logger.With("component", "reading_purger"),
	}
}

func (p *ReadingPurger) Handle(ctx context.Context, event domain.DomainEvent) error {
	unlinked, ok := event.(domain.CgmLinkUnlinked)
	if !ok || !unlinked.PurgeData {
		return nil
	}

	deleted, err := p.readings.DeleteByLink(ctx, unlinked.LinkID)
	if err != nil {
		return fmt.Errorf("purge readings for link %s: %w", unlinked.LinkID, err)
	}
	p.logger.InfoContext(ctx, "purged readings after unlink",
		"link_id", unlinked.LinkID.String(),
		"deleted", deleted,
	)
	return nil
}
