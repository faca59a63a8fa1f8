package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bigMackD/Glyloop-sub002/internal/dexcom"
	"github.com/bigMackD/Glyloop-sub002/internal/domain"
	"github.com/bigMackD/Glyloop-sub002/internal/metrics"
	"github.com/bigMackD/Glyloop-sub002/internal/repository"
)

// TokenCipher seals and opens OAuth token strings. Satisfied by
// tokencrypt.Service.
type TokenCipher interface {
	Encrypt(plaintext string) ([]byte, error)
	Decrypt(ciphertext []byte) (string, error)
}

// LinkUsecase manages the CGM provider connection: exchanging the OAuth
// code, keeping tokens fresh and tearing the link down again.
type LinkUsecase struct {
	links    repository.CgmLinkRepository
	uow      repository.UnitOfWorkFactory
	provider dexcom.Client
	cipher   TokenCipher
	clock    domain.Clock
}

func NewLinkUsecase(links repository.CgmLinkRepository, uow repository.UnitOfWorkFactory, provider dexcom.Client, cipher TokenCipher, clock domain.Clock) *LinkUsecase {
	return &LinkUsecase{links: links, uow: uow, provider: provider, cipher: cipher, clock: clock}
}

type LinkInput struct {
	UserID            string
	AuthorizationCode string
	CorrelationID     string
	CausationID       string
}

// Link exchanges the authorization code and stores a new link with both
// tokens encrypted. The at-most-one-active check is check-then-act: two
// simultaneous requests for the same user can both pass it. Accepted as a
// known gap until a partial unique index closes it.
func (u *LinkUsecase) Link(ctx context.Context, input LinkInput) domain.Result[*domain.CgmLink] {
	userID := domain.NewUserID(input.UserID)
	if userID.IsFailure() {
		return domain.Failure[*domain.CgmLink](userID.Err())
	}
	if input.AuthorizationCode == "" {
		return domain.Failure[*domain.CgmLink](domain.ValidationError("authorization code must not be empty"))
	}

	existing, err := u.links.GetActiveByUser(ctx, userID.Value())
	if err != nil {
		return domain.Failure[*domain.CgmLink](domain.ExternalError(fmt.Sprintf("check active link: %v", err)))
	}
	if existing != nil {
		return domain.Failure[*domain.CgmLink](domain.ConflictError("an active CGM link already exists"))
	}

	grant := u.provider.ExchangeCode(ctx, input.AuthorizationCode)
	if grant.IsFailure() {
		return domain.Failure[*domain.CgmLink](grant.Err())
	}

	access, refresh, expiry, encErr := u.sealGrant(grant.Value())
	if encErr != nil {
		return domain.Failure[*domain.CgmLink](domain.ExternalError(fmt.Sprintf("encrypt tokens: %v", encErr)))
	}

	link := domain.NewCgmLink(userID.Value(), access, refresh, expiry, u.clock, input.CorrelationID, input.CausationID)
	if link.IsFailure() {
		return link
	}

	uow := u.uow.New()
	uow.AddLink(link.Value())
	if err := uow.Commit(ctx); err != nil {
		return domain.Failure[*domain.CgmLink](domain.ExternalError(fmt.Sprintf("persist link: %v", err)))
	}
	metrics.LinksCreatedTotal.Inc()
	return link
}

type UnlinkInput struct {
	UserID        string
	LinkID        string
	PurgeData     bool
	CorrelationID string
	CausationID   string
}

// Unlink marks the link unusable and queues exactly one unlinked event. The
// stored readings are deleted by a subscriber when PurgeData is set, not
// here.
func (u *LinkUsecase) Unlink(ctx context.Context, input UnlinkInput) domain.Error {
	userID := domain.NewUserID(input.UserID)
	if userID.IsFailure() {
		return userID.Err()
	}
	linkID := domain.NewLinkID(input.LinkID)
	if linkID.IsFailure() {
		return linkID.Err()
	}

	link, err := u.links.GetByID(ctx, linkID.Value())
	if err != nil {
		if errors.Is(err, domain.ErrLinkNotFound) {
			return domain.NotFoundError("cgm link not found")
		}
		return domain.ExternalError(fmt.Sprintf("get link: %v", err))
	}
	if link.UserID() != userID.Value() {
		return domain.UnauthorizedError("link belongs to another user")
	}
	if link.Unlinked() {
		return domain.ConflictError("link is already unlinked")
	}

	link.Unlink(input.PurgeData, u.clock, input.CorrelationID, input.CausationID)

	uow := u.uow.New()
	uow.UpdateLink(link)
	if err := uow.Commit(ctx); err != nil {
		return domain.ExternalError(fmt.Sprintf("persist unlink: %v", err))
	}
	metrics.LinksUnlinkedTotal.WithLabelValues(fmt.Sprintf("%t", input.PurgeData)).Inc()
	return domain.ErrNone
}

// RefreshLink swaps both tokens for a fresh grant from the provider. Used by
// the refresher ahead of expiry; safe to call on demand too.
func (u *LinkUsecase) RefreshLink(ctx context.Context, link *domain.CgmLink, correlationID, causationID string) domain.Error {
	if link.Unlinked() {
		return domain.ConflictError("cannot refresh an unlinked CGM link")
	}
	if !link.Active(u.clock) {
		return domain.ConflictError("cannot refresh an expired CGM link")
	}

	refreshToken, err := u.cipher.Decrypt(link.EncryptedRefreshToken())
	if err != nil {
		return domain.ExternalError(fmt.Sprintf("decrypt refresh token: %v", err))
	}

	grant := u.provider.Refresh(ctx, refreshToken)
	if grant.IsFailure() {
		return grant.Err()
	}

	access, refresh, expiry, encErr := u.sealGrant(grant.Value())
	if encErr != nil {
		return domain.ExternalError(fmt.Sprintf("encrypt tokens: %v", encErr))
	}

	if applyErr := link.ApplyRefreshedTokens(access, refresh, expiry, u.clock, correlationID, causationID); !applyErr.IsNone() {
		return applyErr
	}

	uow := u.uow.New()
	uow.UpdateLink(link)
	if err := uow.Commit(ctx); err != nil {
		return domain.ExternalError(fmt.Sprintf("persist refresh: %v", err))
	}
	return domain.ErrNone
}

// RefreshDueLinks refreshes every link whose expiry falls within threshold.
// One failing link does not stop the sweep; the counts let the caller log
// and meter the cycle. The caller mints correlationID once per sweep so the
// refreshed events of one cycle share a tracing id.
func (u *LinkUsecase) RefreshDueLinks(ctx context.Context, threshold time.Duration, correlationID string) (refreshed, failed int, err error) {
	due, err := u.links.GetLinksNeedingRefresh(ctx, u.clock.Now(), threshold)
	if err != nil {
		return 0, 0, fmt.Errorf("list links needing refresh: %w", err)
	}

	for _, link := range due {
		if refreshErr := u.RefreshLink(ctx, link, correlationID, ""); !refreshErr.IsNone() {
			failed++
			metrics.LinkRefreshesTotal.WithLabelValues("failure").Inc()
			continue
		}
		refreshed++
		metrics.LinkRefreshesTotal.WithLabelValues("success").Inc()
	}
	return refreshed, failed, nil
}

// GetActiveLink returns the user's usable link, or a not-found failure.
func (u *LinkUsecase) GetActiveLink(ctx context.Context, userID string) domain.Result[*domain.CgmLink] {
	owner := domain.NewUserID(userID)
	if owner.IsFailure() {
		return domain.Failure[*domain.CgmLink](owner.Err())
	}
	link, err := u.links.GetActiveByUser(ctx, owner.Value())
	if err != nil {
		return domain.Failure[*domain.CgmLink](domain.ExternalError(fmt.Sprintf("get active link: %v", err)))
	}
	if link == nil {
		return domain.Failure[*domain.CgmLink](domain.NotFoundError("no active CGM link"))
	}
	return domain.Success(link)
}

func (u *LinkUsecase) sealGrant(grant dexcom.TokenGrant) (access, refresh []byte, expiry time.Time, err error) {
	if access, err = u.cipher.Encrypt(grant.AccessToken); err != nil {
		return nil, nil, time.Time{}, err
	}
	if refresh, err = u.cipher.Encrypt(grant.RefreshToken); err != nil {
		return nil, nil, time.Time{}, err
	}
	return access, refresh, u.clock.Now().Add(time.Duration(grant.ExpiresIn) * time.Second), nil
}
