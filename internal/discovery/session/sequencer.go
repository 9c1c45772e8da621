// Package session guards search sessions against out-of-order responses.
//
// Every request in a session carries a monotonically increasing sequence
// number. A worker registers the number when it starts and checks it again
// before publishing; if a newer request was registered in between, the older
// result is dropped.
package session

import (
	"context"
	"sync"
	"sync/atomic"
)

// Sequencer tracks the latest sequence number per session.
// An empty session id disables sequencing: every request is the latest.
type Sequencer interface {
	// Register records seq for the session unless a newer one is already
	// known, and reports whether seq is the latest.
	Register(ctx context.Context, sessionID string, seq int64) (bool, error)
	// IsLatest reports whether no newer sequence has been registered.
	IsLatest(ctx context.Context, sessionID string, seq int64) (bool, error)
}

// LocalSequencer is an in-process Sequencer for single-replica use and the CLI.
type LocalSequencer struct {
	sessions sync.Map // string -> *atomic.Int64
}

func NewLocalSequencer() *LocalSequencer {
	return &LocalSequencer{}
}

func (s *LocalSequencer) counter(sessionID string) *atomic.Int64 {
	v, _ := s.sessions.LoadOrStore(sessionID, new(atomic.Int64))
	return v.(*atomic.Int64)
}

// Next issues the next sequence number for a session and registers it.
func (s *LocalSequencer) Next(sessionID string) int64 {
	return s.counter(sessionID).Add(1)
}

func (s *LocalSequencer) Register(_ context.Context, sessionID string, seq int64) (bool, error) {
	if sessionID == "" {
		return true, nil
	}
	c := s.counter(sessionID)
	for {
		cur := c.Load()
		if seq < cur {
			return false, nil
		}
		if seq == cur || c.CompareAndSwap(cur, seq) {
			return true, nil
		}
	}
}

func (s *LocalSequencer) IsLatest(_ context.Context, sessionID string, seq int64) (bool, error) {
	if sessionID == "" {
		return true, nil
	}
	return seq >= s.counter(sessionID).Load(), nil
}

// Forget drops a session's state.
func (s *LocalSequencer) Forget(sessionID string) {
	s.sessions.Delete(sessionID)
}
