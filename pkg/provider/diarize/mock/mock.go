// Package mock provides a test double for the diarize.Diarizer interface.
package mock

import (
	"context"
	"sync"

	"github.com/openmediator/commonground/pkg/provider/diarize"
)

// Diarizer is a mock implementation of diarize.Diarizer.
// The zero value reports itself available and returns no turns.
type Diarizer struct {
	mu sync.Mutex

	// Turns is returned by Diarize.
	Turns []diarize.Turn

	// Err, if non-nil, is returned by Diarize instead of Turns.
	Err error

	// Unavailable makes Available return false and Diarize return
	// diarize.ErrUnavailable.
	Unavailable bool

	// DiarizeCalls records the wavPath of every Diarize invocation.
	DiarizeCalls []string
}

// Available implements diarize.Diarizer.
func (d *Diarizer) Available(_ context.Context) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return !d.Unavailable
}

// Diarize implements diarize.Diarizer.
func (d *Diarizer) Diarize(_ context.Context, wavPath string) ([]diarize.Turn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.DiarizeCalls = append(d.DiarizeCalls, wavPath)
	if d.Unavailable {
		return nil, diarize.ErrUnavailable
	}
	if d.Err != nil {
		return nil, d.Err
	}
	out := make([]diarize.Turn, len(d.Turns))
	copy(out, d.Turns)
	return out, nil
}
