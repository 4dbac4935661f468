package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/queensauto/booking-funnel/internal/booking"
)

// ErrNotFound is returned when a session id is unknown or expired.
var ErrNotFound = errors.New("session not found")

// Session is one visitor's funnel state, kept only for the duration of
// the visit via the store TTL.
type Session struct {
	ID        string           `json:"id"`
	Language  string           `json:"language"`
	Machine   *booking.Machine `json:"machine"`
	CreatedAt time.Time        `json:"created_at"`
}

// BonusData is the optional webhook response payload persisted for the
// confirmation page to read once.
type BonusData struct {
	AudioURL   string `json:"audioUrl,omitempty"`
	CouponCode string `json:"couponCode,omitempty"`
}

// Store is session-scoped storage for funnel state, the preferred
// language, the one-shot exit-popup flag and post-submission bonus
// data.
type Store interface {
	Save(ctx context.Context, s *Session) error
	Load(ctx context.Context, id string) (*Session, error)

	// SaveBonus stores webhook bonus data for the confirmation page.
	SaveBonus(ctx context.Context, sessionID string, b BonusData) error

	// TakeBonus returns stored bonus data and removes it. Absent data
	// yields (nil, nil), which downstream treats as the degraded mode,
	// not an error.
	TakeBonus(ctx context.Context, sessionID string) (*BonusData, error)

	// MarkExitPopupShown flips the one-shot flag. It reports true only
	// on the first call for a session.
	MarkExitPopupShown(ctx context.Context, sessionID string) (bool, error)
}

// NewSession creates a fresh session at step 1.
func NewSession(language string) *Session {
	return &Session{
		ID:        uuid.NewString(),
		Language:  language,
		Machine:   booking.NewMachine(),
		CreatedAt: time.Now().UTC(),
	}
}
