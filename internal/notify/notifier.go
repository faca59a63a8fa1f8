package notify

import (
	"context"
	"fmt"

	"github.com/bigMackD/Glyloop-sub002/internal/domain"
	"github.com/bigMackD/Glyloop-sub002/internal/email"
	"github.com/bigMackD/Glyloop-sub002/internal/repository"
)

// UnlinkNotifier emails the user a confirmation after their CGM link is
// removed, noting whether the stored readings were purged with it.
type UnlinkNotifier struct {
	users repository.UserRepository
	email email.Sender
}

func NewUnlinkNotifier(users repository.UserRepository, emailSender email.Sender) *UnlinkNotifier {
	return &UnlinkNotifier{users: users, email: emailSender}
}

func (n *UnlinkNotifier) Handle(ctx context.Context, event domain.DomainEvent) error {
	unlinked, ok := event.(domain.CgmLinkUnlinked)
	if !ok {
		return nil
	}

	user, err := n.users.FindByID(ctx, unlinked.UserID.String())
	if err != nil {
		return fmt.Errorf("find user for unlink notice: %w", err)
	}

	body := "<p>Your CGM connection has been removed.</p>"
	if unlinked.PurgeData {
		body += "<p>The glucose readings imported through it were deleted as requested.</p>"
	} else {
		body += "<p>Your imported glucose readings were kept.</p>"
	}
	if err := n.email.Send(ctx, user.Email, "CGM disconnected", body); err != nil {
		return fmt.Errorf("send unlink notice: %w", err)
	}
	return nil
}
