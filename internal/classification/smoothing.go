package classification

import "time"

// Smoothing defaults.
const (
	DefaultWindowSize = 10
	DefaultAlpha      = 0.2
	// DefaultResetAfter clears the history when frames stop arriving for longer
	// than this, so a stale window does not leak into a new stream.
	DefaultResetAfter = 100 * time.Millisecond
)

// SmoothingOption configures an EMASmoothing.
type SmoothingOption func(*EMASmoothing)

// WithWindowSize sets the number of past results kept. Values < 1 are ignored.
func WithWindowSize(n int) SmoothingOption {
	return func(s *EMASmoothing) {
		if n > 0 {
			s.windowSize = n
		}
	}
}

// WithAlpha sets the decay factor. Values outside (0, 1] are ignored.
func WithAlpha(alpha float64) SmoothingOption {
	return func(s *EMASmoothing) {
		if alpha > 0 && alpha <= 1 {
			s.alpha = alpha
		}
	}
}

// WithResetAfter sets the idle gap after which the history is cleared.
// Zero disables the reset.
func WithResetAfter(d time.Duration) SmoothingOption {
	return func(s *EMASmoothing) {
		if d >= 0 {
			s.resetAfter = d
		}
	}
}

// WithClock replaces the time source used for the idle reset.
func WithClock(now func() time.Time) SmoothingOption {
	return func(s *EMASmoothing) {
		if now != nil {
			s.now = now
		}
	}
}

// EMASmoothing smooths classification results with an exponential moving
// average over a bounded window of recent frames. It must receive every frame,
// including empty ones, and is not safe for concurrent use.
type EMASmoothing struct {
	windowSize int
	alpha      float64
	resetAfter time.Duration
	now        func() time.Time

	// window holds past results, newest first.
	window   []*Result
	lastSeen time.Time
}

// NewEMASmoothing creates a smoother with the given options.
func NewEMASmoothing(opts ...SmoothingOption) *EMASmoothing {
	s := &EMASmoothing{
		windowSize: DefaultWindowSize,
		alpha:      DefaultAlpha,
		resetAfter: DefaultResetAfter,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.window = make([]*Result, 0, s.windowSize+1)
	return s
}

// Smooth adds r to the history and returns the smoothed result. For every
// class seen in the window the confidence is the weighted mean over all frames
// in the window, with weight (1-alpha)^age; frames missing the class count as 0.
func (s *EMASmoothing) Smooth(r *Result) *Result {
	if r == nil {
		r = NewResult()
	}

	now := s.now()
	if s.resetAfter > 0 && !s.lastSeen.IsZero() && now.Sub(s.lastSeen) > s.resetAfter {
		s.window = s.window[:0]
	}
	s.lastSeen = now

	s.window = append(s.window, nil)
	copy(s.window[1:], s.window)
	s.window[0] = r
	if len(s.window) > s.windowSize {
		s.window[len(s.window)-1] = nil
		s.window = s.window[:s.windowSize]
	}

	smoothed := NewResult()
	for _, class := range s.classes() {
		factor := 1.0
		var top, bottom float64
		for _, past := range s.window {
			top += factor * past.Confidence(class)
			bottom += factor
			factor *= 1 - s.alpha
		}
		smoothed.Set(class, top/bottom)
	}

	return smoothed
}

// Len returns the number of results currently in the window.
func (s *EMASmoothing) Len() int {
	return len(s.window)
}

// classes lists every class in the window, oldest frame first.
func (s *EMASmoothing) classes() []string {
	seen := make(map[string]bool)
	var out []string
	for i := len(s.window) - 1; i >= 0; i-- {
		for _, class := range s.window[i].Classes() {
			if !seen[class] {
				seen[class] = true
				out = append(out, class)
			}
		}
	}
	return out
}
