// Package clock provides the production time and randomness sources.
package clock

import (
	"math/rand"
	"time"

	"mikecheck/internal/ports"
)

// System schedules callbacks on the runtime timer wheel.
type System struct{}

func (System) Now() time.Time { return time.Now() }

func (System) AfterFunc(d time.Duration, f func()) ports.Timer {
	return time.AfterFunc(d, f)
}

// Random draws from the goroutine-safe global generator.
type Random struct{}

func (Random) IntN(n int) int { return rand.Intn(n) }
