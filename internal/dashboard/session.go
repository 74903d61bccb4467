package dashboard

import (
	"sync"
	"time"

	"github.com/vizille/dashboard/internal/actions"
)

// Session is one user's dashboard. It is safe for concurrent use.
type Session struct {
	id       string
	renderer *Renderer
	debounce *Debouncer
	now      func() time.Time
	observe  func(Command)

	mu       sync.Mutex
	state    State
	lastSeen time.Time
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithDebounce sets the text-query quiet period.
func WithDebounce(d time.Duration) SessionOption {
	return func(s *Session) { s.debounce = NewDebouncer(d, s.refilter) }
}

// WithClock replaces time.Now for idle tracking.
func WithClock(now func() time.Time) SessionOption {
	return func(s *Session) { s.now = now }
}

// WithObserver registers a callback invoked for every applied command.
func WithObserver(fn func(Command)) SessionOption {
	return func(s *Session) { s.observe = fn }
}

// NewSession starts a session over all in its initial state.
func NewSession(id string, all []*actions.Action, r *Renderer, opts ...SessionOption) *Session {
	if r == nil {
		r = NewRenderer(nil, nil)
	}
	s := &Session{
		id:       id,
		renderer: r,
		now:      time.Now,
		state:    NewState(all),
	}
	s.debounce = NewDebouncer(DefaultDebounce, s.refilter)
	for _, opt := range opts {
		opt(s)
	}
	s.lastSeen = s.now()
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Dispatch validates and applies cmd, schedules the debounced refilter
// when asked to, and returns the resulting view with every effect Apply
// emitted.
func (s *Session) Dispatch(cmd Command) (View, []Effect, error) {
	if err := cmd.Validate(); err != nil {
		return View{}, nil, err
	}
	s.mu.Lock()
	next, effects := Apply(s.state, cmd)
	s.state = next
	s.lastSeen = s.now()
	s.mu.Unlock()

	for _, e := range effects {
		if e == EffectDebounceRefilter {
			s.debounce.Trigger()
		}
	}
	if s.observe != nil {
		s.observe(cmd)
	}
	return s.View(), effects, nil
}

// Flush applies a pending text refilter immediately.
func (s *Session) Flush() bool { return s.debounce.Flush() }

func (s *Session) refilter() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state, _ = Apply(s.state, Command{Type: CmdRefilter})
}

// State returns a snapshot of the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// View renders the current state.
func (s *Session) View() View {
	return s.renderer.Render(s.State())
}

// Touch marks the session as used.
func (s *Session) Touch() {
	s.mu.Lock()
	s.lastSeen = s.now()
	s.mu.Unlock()
}

// LastSeen returns the time of the last command or touch.
func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// Close cancels any pending refilter.
func (s *Session) Close() { s.debounce.Stop() }
