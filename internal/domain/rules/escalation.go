package rules

import (
	"time"

	"github.com/DevAniketIT/Playbharat/internal/domain/enums"
	"github.com/DevAniketIT/Playbharat/internal/domain/model"
)

const (
	DefaultStrikeTTL     = 90 * 24 * time.Hour
	DefaultWarningTTL    = 30 * 24 * time.Hour
	DefaultSuspensionTTL = 7 * 24 * time.Hour
)

// Policy holds the escalation durations. Zero values fall back to the
// defaults, so an empty Policy behaves like DefaultPolicy().
type Policy struct {
	StrikeTTL     time.Duration
	WarningTTL    time.Duration
	SuspensionTTL time.Duration
}

func DefaultPolicy() Policy {
	return Policy{
		StrikeTTL:     DefaultStrikeTTL,
		WarningTTL:    DefaultWarningTTL,
		SuspensionTTL: DefaultSuspensionTTL,
	}
}

func (p Policy) strikeTTL() time.Duration {
	if p.StrikeTTL <= 0 {
		return DefaultStrikeTTL
	}
	return p.StrikeTTL
}

func (p Policy) WarningExpiry(now time.Time) time.Time {
	ttl := p.WarningTTL
	if ttl <= 0 {
		ttl = DefaultWarningTTL
	}
	return now.Add(ttl)
}

func (p Policy) SuspensionExpiry(now time.Time) time.Time {
	ttl := p.SuspensionTTL
	if ttl <= 0 {
		ttl = DefaultSuspensionTTL
	}
	return now.Add(ttl)
}

// StrikeExpiry returns when a strike of the given severity stops counting.
// Warning-severity strikes carry no expiry at all: they stay active until
// explicitly resolved.
func (p Policy) StrikeExpiry(severity enums.StrikeSeverity, createdAt time.Time) *time.Time {
	if severity == enums.StrikeSeverityWarning {
		return nil
	}
	at := createdAt.Add(p.strikeTTL())
	return &at
}

// Tier is the consequence level derived from a user's active-strike count.
type Tier int

const (
	TierNone Tier = iota
	TierWarned
	TierSuspended
	TierBanned
)

func (t Tier) String() string {
	switch t {
	case TierWarned:
		return "warned"
	case TierSuspended:
		return "suspended"
	case TierBanned:
		return "banned"
	}
	return "none"
}

// TierForActiveStrikes maps an active-strike count to its consequence tier.
// The mapping is total and re-evaluated from scratch on every ledger write;
// nothing is keyed on the previous tier.
func TierForActiveStrikes(count int) Tier {
	switch {
	case count >= 3:
		return TierBanned
	case count == 2:
		return TierSuspended
	case count == 1:
		return TierWarned
	}
	return TierNone
}

// StrikeActiveAt reports whether a strike counts toward escalation at the
// given instant: not resolved, and either never expiring (warnings) or not
// yet past expires_at. Expiry is computed, never written back.
func StrikeActiveAt(s model.Strike, now time.Time) bool {
	if !s.IsActive {
		return false
	}
	if s.ExpiresAt == nil {
		return true
	}
	return s.ExpiresAt.After(now)
}
