// Package latency simulates backend round-trip delays so consumers see
// realistic loading states. Tests swap in None to run without timers.
package latency

import (
	"context"
	"time"
)

// Kind selects which delay of a Profile an operation waits for.
type Kind int

const (
	Default Kind = iota
	Read
	Upload
	Message
	Quick
)

// Profile holds the delay used for each Kind.
type Profile struct {
	Default time.Duration
	Read    time.Duration
	Upload  time.Duration
	Message time.Duration
	Quick   time.Duration
}

// DefaultProfile returns the stock delays: 500ms for ordinary calls, 1s for
// uploads, 300ms for messages and 100ms for read-flag updates.
func DefaultProfile() Profile {
	return Profile{
		Default: 500 * time.Millisecond,
		Read:    500 * time.Millisecond,
		Upload:  time.Second,
		Message: 300 * time.Millisecond,
		Quick:   100 * time.Millisecond,
	}
}

// Of returns the delay for the given kind.
func (p Profile) Of(k Kind) time.Duration {
	switch k {
	case Read:
		return p.Read
	case Upload:
		return p.Upload
	case Message:
		return p.Message
	case Quick:
		return p.Quick
	default:
		return p.Default
	}
}

// Simulator suspends the caller for the delay associated with an operation kind.
type Simulator interface {
	Wait(ctx context.Context, kind Kind) error
}

type timerSimulator struct {
	profile Profile
}

// New creates a Simulator that sleeps according to profile. A wait ends
// early with the context's error if ctx is done first.
func New(profile Profile) Simulator {
	return &timerSimulator{profile: profile}
}

func (s *timerSimulator) Wait(ctx context.Context, kind Kind) error {
	d := s.profile.Of(kind)
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

type noDelay struct{}

// None returns a Simulator that never sleeps.
func None() Simulator {
	return noDelay{}
}

func (noDelay) Wait(ctx context.Context, _ Kind) error {
	return ctx.Err()
}

// Recorder is a Simulator that records the kinds it was asked to wait for
// without sleeping.
type Recorder struct {
	Kinds []Kind
}

func (r *Recorder) Wait(ctx context.Context, kind Kind) error {
	r.Kinds = append(r.Kinds, kind)
	return ctx.Err()
}
