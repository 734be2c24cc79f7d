package app

import (
	"sync"
	"time"

	"github.com/ayusman/asana/internal/classification"
	"github.com/ayusman/asana/internal/pose"
)

// SessionInfo is a snapshot of a session.
type SessionInfo struct {
	ID          string         `json:"id"`
	Stream      bool           `json:"stream"`
	CreatedAt   time.Time      `json:"created_at"`
	LastFrameAt *time.Time     `json:"last_frame_at,omitempty"`
	ClosedAt    *time.Time     `json:"closed_at,omitempty"`
	Frames      int            `json:"frames"`
	Counts      map[string]int `json:"counts"`
	Label       string         `json:"label,omitempty"`
	RepText     string         `json:"rep_text,omitempty"`
}

// Session is one client's frame stream. Its mutex serializes frames so the
// smoothing window and counters see them in order.
type Session struct {
	ID        string
	Stream    bool
	CreatedAt time.Time

	mu           sync.Mutex
	processor    *classification.Processor
	lastActivity time.Time
	lastFrame    *time.Time
	frames       int
	last         classification.FrameResult
	closed       bool

	// hooks runs this session's plugin hooks in event order.
	hooks hookQueue
}

// process runs one frame. onEvents, when set, is called with the result while
// the session is still locked if the frame completed a repetition.
func (s *Session) process(set pose.LandmarkSet, now time.Time, onEvents func(classification.FrameResult)) (classification.FrameResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// A frame racing CloseSession sees the session as gone.
	if s.closed {
		return classification.FrameResult{}, ErrSessionNotFound
	}

	res := s.processor.Process(set)
	s.frames++
	s.lastActivity = now
	t := now
	s.lastFrame = &t
	s.last = res

	if onEvents != nil && len(res.Events) > 0 {
		onEvents(res)
	}
	return res, nil
}

// idleSince reports whether no frame arrived after cutoff.
func (s *Session) idleSince(cutoff time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActivity.Before(cutoff)
}

func (s *Session) close(at time.Time) SessionInfo {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	info := s.Info()
	info.ClosedAt = &at
	return info
}

// Info returns a snapshot of the session.
func (s *Session) Info() SessionInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	info := SessionInfo{
		ID:        s.ID,
		Stream:    s.Stream,
		CreatedAt: s.CreatedAt,
		Frames:    s.frames,
		Counts:    s.processor.Counts(),
		Label:     s.last.Label,
		RepText:   s.last.RepText,
	}
	if s.lastFrame != nil {
		t := *s.lastFrame
		info.LastFrameAt = &t
	}
	return info
}
