// Package notify delivers short user-facing notices such as
// "Item created" or "Paracetamol 500mg: only 4 available".
package notify

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"pharmacy/pkg/logger"
)

// Level is the severity of a notice.
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
)

// DefaultTTL is how long a notice stays visible.
const DefaultTTL = 3 * time.Second

// Notice is one message shown to the user.
type Notice struct {
	ID        string    `json:"id"`
	Level     Level     `json:"level"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Notifier receives notices.
type Notifier interface {
	Notify(ctx context.Context, level Level, message string)
}

// Success, Error, Info and Warning are shorthands for n.Notify.
func Success(ctx context.Context, n Notifier, msg string) { n.Notify(ctx, LevelSuccess, msg) }
func Error(ctx context.Context, n Notifier, msg string)   { n.Notify(ctx, LevelError, msg) }
func Info(ctx context.Context, n Notifier, msg string)    { n.Notify(ctx, LevelInfo, msg) }
func Warning(ctx context.Context, n Notifier, msg string) { n.Notify(ctx, LevelWarning, msg) }

// Center keeps notices until they expire. It is safe for concurrent use.
type Center struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	notices []Notice
}

// CenterOption configures a Center.
type CenterOption func(*Center)

// WithTTL overrides DefaultTTL.
func WithTTL(ttl time.Duration) CenterOption { return func(c *Center) { c.ttl = ttl } }

// WithClock overrides time.Now.
func WithClock(now func() time.Time) CenterOption { return func(c *Center) { c.now = now } }

// NewCenter creates an empty Center.
func NewCenter(opts ...CenterOption) *Center {
	c := &Center{ttl: DefaultTTL, now: time.Now}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Notify implements Notifier.
func (c *Center) Notify(_ context.Context, level Level, message string) {
	c.Push(level, message)
}

// Push stores a notice and returns it.
func (c *Center) Push(level Level, message string) Notice {
	now := c.now()
	n := Notice{
		ID:        uuid.NewString(),
		Level:     level,
		Message:   message,
		CreatedAt: now,
		ExpiresAt: now.Add(c.ttl),
	}

	c.mu.Lock()
	c.notices = append(c.notices, n)
	c.mu.Unlock()
	return n
}

// Active drops notices expired at now and returns the rest, oldest first.
func (c *Center) Active(now time.Time) []Notice {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.notices = slices.DeleteFunc(c.notices, func(n Notice) bool {
		return !now.Before(n.ExpiresAt)
	})
	return slices.Clone(c.notices)
}

// Dismiss removes the notice with id. It reports whether one was removed.
func (c *Center) Dismiss(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	before := len(c.notices)
	c.notices = slices.DeleteFunc(c.notices, func(n Notice) bool { return n.ID == id })
	return len(c.notices) != before
}

// LogNotifier writes notices to the structured log.
type LogNotifier struct {
	log *logger.Logger
}

// NewLogNotifier logs through l, or the default logger when l is nil.
func NewLogNotifier(l *logger.Logger) *LogNotifier {
	if l == nil {
		l = logger.Default()
	}
	return &LogNotifier{log: l.WithComponent("notify")}
}

// Notify implements Notifier.
func (n *LogNotifier) Notify(ctx context.Context, level Level, message string) {
	l := n.log.WithContext(ctx)
	switch level {
	case LevelError:
		l.Errorw(message, "level", level)
	case LevelWarning:
		l.Warnw(message, "level", level)
	default:
		l.Infow(message, "level", level)
	}
}

// Multi fans a notice out to every notifier.
type Multi []Notifier

// Notify implements Notifier.
func (m Multi) Notify(ctx context.Context, level Level, message string) {
	for _, n := range m {
		n.Notify(ctx, level, message)
	}
}
