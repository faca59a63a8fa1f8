package domain

import (
	"errors"
	"time"
)

// ErrLinkNotFound is returned by repositories when no link matches.
var ErrLinkNotFound = errors.New("cgm link not found")

// CgmLink ties a user to their CGM provider account. Tokens only ever cross
// this boundary as ciphertext; plaintext lives inside the encryption
// service. "Expired" is derived from the expiry timestamp, never stored.
type CgmLink struct {
	id                    LinkID
	userID                UserID
	encryptedAccessToken  []byte
	encryptedRefreshToken []byte
	tokenExpiresAt        time.Time
	lastRefreshedAt       *time.Time
	unlinked              bool
	createdAt             time.Time

	pending []DomainEvent
}

func (l *CgmLink) ID() LinkID                    { return l.id }
func (l *CgmLink) UserID() UserID                { return l.userID }
func (l *CgmLink) EncryptedAccessToken() []byte  { return l.encryptedAccessToken }
func (l *CgmLink) EncryptedRefreshToken() []byte { return l.encryptedRefreshToken }
func (l *CgmLink) TokenExpiresAt() time.Time     { return l.tokenExpiresAt }
func (l *CgmLink) LastRefreshedAt() *time.Time   { return l.lastRefreshedAt }
func (l *CgmLink) Unlinked() bool                { return l.unlinked }
func (l *CgmLink) CreatedAt() time.Time          { return l.createdAt }

func (l *CgmLink) PendingEvents() []DomainEvent { return l.pending }
func (l *CgmLink) ClearPendingEvents()          { l.pending = nil }

// NewCgmLink establishes a link from freshly exchanged, already encrypted
// tokens. The expiry must come from the provider's expires_in added to the
// exchange time, so a link can never be born expired.
func NewCgmLink(userID UserID, encryptedAccessToken, encryptedRefreshToken []byte, tokenExpiresAt time.Time, clock Clock, correlationID, causationID string) Result[*CgmLink] {
	if len(encryptedAccessToken) == 0 {
		return Failure[*CgmLink](ValidationError("encrypted access token must not be empty"))
	}
	if len(encryptedRefreshToken) == 0 {
		return Failure[*CgmLink](ValidationError("encrypted refresh token must not be empty"))
	}
	now := clock.Now()
	if !tokenExpiresAt.After(now) {
		return Failure[*CgmLink](ValidationError("token expiry must be in the future"))
	}
	l := &CgmLink{
		id:                    GenerateLinkID(),
		userID:                userID,
		encryptedAccessToken:  encryptedAccessToken,
		encryptedRefreshToken: encryptedRefreshToken,
		tokenExpiresAt:        tokenExpiresAt,
		createdAt:             now,
	}
	l.pending = append(l.pending, CgmLinkCreated{
		Occurrence:     Occurrence{At: now, Correlation: correlationID, Causation: causationID},
		LinkID:         l.id,
		UserID:         l.userID,
		TokenExpiresAt: l.tokenExpiresAt,
	})
	return Success(l)
}

// Active reports whether the link is usable: not unlinked and not expired.
func (l *CgmLink) Active(clock Clock) bool {
	return !l.unlinked && clock.Now().Before(l.tokenExpiresAt)
}

// ShouldRefresh reports whether the access token is within threshold of
// expiring. Derived, never stored.
func (l *CgmLink) ShouldRefresh(clock Clock, threshold time.Duration) bool {
	return !clock.Now().Before(l.tokenExpiresAt.Add(-threshold))
}

// ApplyRefreshedTokens replaces both tokens after a successful provider
// refresh, extending the expiry and stamping the refresh time. The
// aggregate identity is unchanged.
func (l *CgmLink) ApplyRefreshedTokens(newEncryptedAccess, newEncryptedRefresh []byte, newExpiry time.Time, clock Clock, correlationID, causationID string) Error {
	if len(newEncryptedAccess) == 0 {
		return ValidationError("encrypted access token must not be empty")
	}
	if len(newEncryptedRefresh) == 0 {
		return ValidationError("encrypted refresh token must not be empty")
	}
	now := clock.Now()
	if !newExpiry.After(now) {
		return ValidationError("token expiry must be in the future")
	}
	l.encryptedAccessToken = newEncryptedAccess
	l.encryptedRefreshToken = newEncryptedRefresh
	l.tokenExpiresAt = newExpiry
	l.lastRefreshedAt = &now
	l.pending = append(l.pending, CgmLinkRefreshed{
		Occurrence:     Occurrence{At: now, Correlation: correlationID, Causation: causationID},
		LinkID:         l.id,
		UserID:         l.userID,
		TokenExpiresAt: newExpiry,
	})
	return ErrNone
}

// Unlink marks the link for removal and queues the unlinked event. When
// purgeData is set, subscribers delete the stored readings; the aggregate
// never touches them itself.
func (l *CgmLink) Unlink(purgeData bool, clock Clock, correlationID, causationID string) {
	l.unlinked = true
	l.pending = append(l.pending, CgmLinkUnlinked{
		Occurrence: Occurrence{At: clock.Now(), Correlation: correlationID, Causation: causationID},
		LinkID:     l.id,
		UserID:     l.userID,
		PurgeData:  purgeData,
	})
}

// CgmLinkRecord is the persistence snapshot of a CgmLink.
type CgmLinkRecord struct {
	ID                    LinkID
	UserID                UserID
	EncryptedAccessToken  []byte
	EncryptedRefreshToken []byte
	TokenExpiresAt        time.Time
	LastRefreshedAt       *time.Time
	Unlinked              bool
	CreatedAt             time.Time
}

// Record snapshots the link for persistence.
func (l *CgmLink) Record() CgmLinkRecord {
	return CgmLinkRecord{
		ID:                    l.id,
		UserID:                l.userID,
		EncryptedAccessToken:  l.encryptedAccessToken,
		EncryptedRefreshToken: l.encryptedRefreshToken,
		TokenExpiresAt:        l.tokenExpiresAt,
		LastRefreshedAt:       l.lastRefreshedAt,
		Unlinked:              l.unlinked,
		CreatedAt:             l.createdAt,
	}
}

// RehydrateCgmLink rebuilds a CgmLink from its stored snapshot without
// raising domain events.
func RehydrateCgmLink(rec CgmLinkRecord) *CgmLink {
	return &CgmLink{
		id:                    rec.ID,
		userID:                rec.UserID,
		encryptedAccessToken:  rec.EncryptedAccessToken,
		encryptedRefreshToken: rec.EncryptedRefreshToken,
		tokenExpiresAt:        rec.TokenExpiresAt,
		lastRefreshedAt:       rec.LastRefreshedAt,
		unlinked:              rec.Unlinked,
		createdAt:             rec.CreatedAt,
	}
}
