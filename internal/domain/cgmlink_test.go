package domain_test

import (
	"testing"
	"time"

	"github.com/bigMackD/Glyloop-sub002/internal/domain"
)

func newTestLink(t *testing.T, clock domain.Clock, expiry time.Time) *domain.CgmLink {
	t.Helper()
	r := domain.NewCgmLink(mustUserID(t), []byte("enc-access"), []byte("enc-refresh"), expiry, clock, "corr-1", "cause-1")
	if r.IsFailure() {
		t.Fatalf("NewCgmLink failed: %v", r.Err())
	}
	return r.Value()
}

func TestNewCgmLink(t *testing.T) {
	clock := fixedClock{now: frozen}

	link := newTestLink(t, clock, frozen.Add(2*time.Hour))
	if link.LastRefreshedAt() != nil {
		t.Error("a fresh link must have no last-refreshed timestamp")
	}
	if link.ShouldRefresh(clock, time.Hour) {
		t.Error("a link expiring in 2h must not need refresh with a 1h threshold")
	}
	if !link.Active(clock) {
		t.Error("a fresh link must be active")
	}

	pending := link.PendingEvents()
	if len(pending) != 1 {
		t.Fatalf("pending events = %d, want 1", len(pending))
	}
	if _, ok := pending[0].(domain.CgmLinkCreated); !ok {
		t.Fatalf("pending[0] is %T, want CgmLinkCreated", pending[0])
	}
}

func TestNewCgmLink_Rejections(t *testing.T) {
	clock := fixedClock{now: frozen}
	user := mustUserID(t)

	if domain.NewCgmLink(user, nil, []byte("r"), frozen.Add(time.Hour), clock, "c", "c").IsSuccess() {
		t.Error("empty access ciphertext must fail")
	}
	if domain.NewCgmLink(user, []byte("a"), nil, frozen.Add(time.Hour), clock, "c", "c").IsSuccess() {
		t.Error("empty refresh ciphertext must fail")
	}
	if domain.NewCgmLink(user, []byte("a"), []byte("r"), frozen, clock, "c", "c").IsSuccess() {
		t.Error("expiry at exactly now must fail")
	}
	if domain.NewCgmLink(user, []byte("a"), []byte("r"), frozen.Add(-time.Minute), clock, "c", "c").IsSuccess() {
		t.Error("past expiry must fail")
	}
}

func TestShouldRefresh_Threshold(t *testing.T) {
	clock := fixedClock{now: frozen}
	threshold := time.Hour

	within := newTestLink(t, fixedClock{now: frozen.Add(-time.Hour)}, frozen.Add(30*time.Minute))
	if !within.ShouldRefresh(clock, threshold) {
		t.Error("expiry in 30min with 1h threshold must need refresh")
	}

	outside := newTestLink(t, clock, frozen.Add(90*time.Minute))
	if outside.ShouldRefresh(clock, threshold) {
		t.Error("expiry in 90min with 1h threshold must not need refresh")
	}
}

func TestApplyRefreshedTokens(t *testing.T) {
	created := fixedClock{now: frozen}
	link := newTestLink(t, created, frozen.Add(30*time.Minute))
	link.ClearPendingEvents()

	later := fixedClock{now: frozen.Add(10 * time.Minute)}
	newExpiry := later.now.Add(2 * time.Hour)
	if err := link.ApplyRefreshedTokens([]byte("enc-access-2"), []byte("enc-refresh-2"), newExpiry, later, "corr-2", "cause-2"); !err.IsNone() {
		t.Fatalf("refresh failed: %v", err)
	}

	if !link.TokenExpiresAt().Equal(newExpiry) {
		t.Error("expiry not extended")
	}
	if link.LastRefreshedAt() == nil || !link.LastRefreshedAt().Equal(later.now) {
		t.Error("last-refreshed not stamped with the refresh time")
	}
	if string(link.EncryptedAccessToken()) != "enc-access-2" {
		t.Error("access ciphertext not replaced")
	}

	pending := link.PendingEvents()
	if len(pending) != 1 {
		t.Fatalf("pending events = %d, want 1", len(pending))
	}
	if _, ok := pending[0].(domain.CgmLinkRefreshed); !ok {
		t.Fatalf("pending[0] is %T, want CgmLinkRefreshed", pending[0])
	}

	// Stale expiry from the provider is rejected and nothing changes.
	if err := link.ApplyRefreshedTokens([]byte("a"), []byte("r"), later.now, later, "c", "c"); err.IsNone() {
		t.Error("non-future expiry must be rejected")
	}
}

func TestUnlink_CarriesPurgeFlag(t *testing.T) {
	clock := fixedClock{now: frozen}
	link := newTestLink(t, clock, frozen.Add(2*time.Hour))
	link.ClearPendingEvents()

	link.Unlink(true, clock, "corr-3", "cause-3")
	if !link.Unlinked() {
		t.Error("link must be marked unlinked")
	}
	if link.Active(clock) {
		t.Error("an unlinked link must not be active")
	}

	pending := link.PendingEvents()
	if len(pending) != 1 {
		t.Fatalf("pending events = %d, want 1", len(pending))
	}
	unlinked, ok := pending[0].(domain.CgmLinkUnlinked)
	if !ok {
		t.Fatalf("pending[0] is %T, want CgmLinkUnlinked", pending[0])
	}
	if !unlinked.PurgeData {
		t.Error("purge flag must travel with the event")
	}
}

func TestActive_DerivedFromExpiry(t *testing.T) {
	link := newTestLink(t, fixedClock{now: frozen}, frozen.Add(time.Hour))

	if !link.Active(fixedClock{now: frozen.Add(59 * time.Minute)}) {
		t.Error("link must be active before expiry")
	}
	// No transition call: expiry alone deactivates it.
	if link.Active(fixedClock{now: frozen.Add(time.Hour)}) {
		t.Error("link must be inactive at expiry")
	}
}

func TestRehydrateCgmLink_RoundTrip(t *testing.T) {
	clock := fixedClock{now: frozen}
	link := newTestLink(t, clock, frozen.Add(2*time.Hour))

	back := domain.RehydrateCgmLink(link.Record())
	if back.ID() != link.ID() || back.UserID() != link.UserID() {
		t.Error("identity lost in round trip")
	}
	if len(back.PendingEvents()) != 0 {
		t.Error("rehydration must not raise domain events")
	}
	if !back.TokenExpiresAt().Equal(link.TokenExpiresAt()) {
		t.Error("expiry lost in round trip")
	}
}
