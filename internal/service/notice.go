package service

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// NoticeKind classifies a notice for display.
type NoticeKind string

const (
	NoticeSuccess NoticeKind = "success"
	NoticeError   NoticeKind = "error"
	NoticeInfo    NoticeKind = "info"
)

// DefaultNoticeTTL is how long a notice stays up when no TTL is configured.
const DefaultNoticeTTL = 4 * time.Second

// Notice is one inline feedback message.
type Notice struct {
	ID       string
	Kind     NoticeKind
	Text     string
	PostedAt time.Time
}

// NoticeBoard holds at most one notice. Posting replaces the current notice,
// which is dismissed automatically after the TTL.
type NoticeBoard struct {
	ttl time.Duration

	mu      sync.Mutex
	current *Notice
	timer   *time.Timer
}

// NewNoticeBoard creates a board whose notices expire after ttl.
func NewNoticeBoard(ttl time.Duration) *NoticeBoard {
	if ttl <= 0 {
		ttl = DefaultNoticeTTL
	}
	return &NoticeBoard{ttl: ttl}
}

// Post replaces the current notice.
func (b *NoticeBoard) Post(kind NoticeKind, text string) Notice {
	n := Notice{ID: uuid.NewString(), Kind: kind, Text: text, PostedAt: time.Now()}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.timer != nil {
		b.timer.Stop()
	}
	b.current = &n
	b.timer = time.AfterFunc(b.ttl, func() { b.dismiss(n.ID) })
	return n
}

// Current returns the visible notice, if any.
func (b *NoticeBoard) Current() (Notice, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.current == nil {
		return Notice{}, false
	}
	return *b.current, true
}

// Close dismisses the current notice and stops its timer.
func (b *NoticeBoard) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	b.current = nil
}

func (b *NoticeBoard) dismiss(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.current != nil && b.current.ID == id {
		b.current = nil
	}
}

// BookingNotice converts a reservation outcome to a notice.
func BookingNotice(err error) (NoticeKind, string) {
	var pe *PersistenceError
	switch {
	case err == nil:
		return NoticeSuccess, "Class booked successfully!"
	case errors.Is(err, ErrUnauthenticated):
		return NoticeError, "Please sign in to book a class."
	case errors.Is(err, ErrAlreadyBooked):
		return NoticeInfo, "You have already booked this class."
	case errors.Is(err, ErrCapacityExceeded):
		return NoticeError, "This class is full."
	case errors.As(err, &pe):
		return NoticeError, pe.Message
	default:
		return NoticeError, err.Error()
	}
}
