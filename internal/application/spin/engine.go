// Package spin computes wheel outcomes on the server and schedules their completion.
//
// Clients never draw random numbers: they receive a SpinRecord, sort the
// candidates by name, and animate from 0 to FinalRotation with EaseOutCubic.
package spin

import (
	crand "crypto/rand"
	"encoding/binary"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hilthontt/spinwheel/internal/domain"
)

// PointerAngle is where the wheel's pointer sits: 12 o'clock.
const PointerAngle = -math.Pi / 2

type Options struct {
	MinTurns    int
	MaxTurns    int
	MinDuration time.Duration
	MaxDuration time.Duration
}

func DefaultOptions() Options {
	return Options{
		MinTurns:    10,
		MaxTurns:    14,
		MinDuration: 3000 * time.Millisecond,
		MaxDuration: 5000 * time.Millisecond,
	}
}

type Engine struct {
	opts      Options
	now       func() time.Time
	scheduler *Scheduler

	mu  sync.Mutex
	rng *rand.Rand
}

type Option func(*Engine)

// WithRand replaces the random source, mostly for deterministic tests.
func WithRand(r *rand.Rand) Option {
	return func(e *Engine) { e.rng = r }
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func NewEngine(opts Options, options ...Option) *Engine {
	if opts.MaxTurns < opts.MinTurns {
		opts.MaxTurns = opts.MinTurns
	}
	if opts.MaxDuration < opts.MinDuration {
		opts.MaxDuration = opts.MinDuration
	}

	e := &Engine{
		opts:      opts,
		now:       time.Now,
		scheduler: NewScheduler(),
	}
	for _, o := range options {
		o(e)
	}
	if e.rng == nil {
		e.rng = rand.New(rand.NewPCG(seed(), seed()))
	}
	return e
}

func seed() uint64 {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return uint64(time.Now().UnixNano())
	}
	return binary.LittleEndian.Uint64(b[:])
}

// AnglePerSection is the arc covered by one of n sectors.
func AnglePerSection(n int) float64 {
	return 2 * math.Pi / float64(n)
}

// BaseRotation is the rotation that puts the midpoint of sector index under the pointer.
func BaseRotation(n, index int) float64 {
	a := AnglePerSection(n)
	return PointerAngle - float64(index)*a - a/2
}

// SectorMidpoint returns the absolute angle of a sector's midpoint after the
// wheel has turned by rotation.
func SectorMidpoint(n, index int, rotation float64) float64 {
	a := AnglePerSection(n)
	return rotation + float64(index)*a + a/2
}

// Spin picks a winner among games and builds the record every client animates.
func (e *Engine) Spin(games []domain.GameEntry) (domain.SpinRecord, error) {
	if len(games) == 0 {
		return domain.SpinRecord{}, domain.ErrEmptySelection
	}

	state := domain.GameState{SelectedGames: games}
	sorted := state.SortedGames()
	n := len(sorted)

	e.mu.Lock()
	index := e.rng.IntN(n)
	turns := e.opts.MinTurns + e.rng.IntN(e.opts.MaxTurns-e.opts.MinTurns+1)
	span := e.opts.MaxDuration - e.opts.MinDuration
	duration := e.opts.MinDuration
	if span > 0 {
		duration += time.Duration(e.rng.Int64N(int64(span/time.Millisecond)+1)) * time.Millisecond
	}
	e.mu.Unlock()

	base := BaseRotation(n, index)

	return domain.SpinRecord{
		SpinID:        uuid.NewString(),
		StartTime:     e.now().UnixMilli(),
		Duration:      duration.Milliseconds(),
		FinalRotation: base + float64(turns)*2*math.Pi,
		BaseRotation:  base,
		Winner:        sorted[index],
	}, nil
}

// ScheduleCompletion runs complete once the spin's duration has elapsed.
func (e *Engine) ScheduleCompletion(sessionID string, record domain.SpinRecord, complete func()) {
	delay := record.EndsAt().Sub(e.now())
	if delay < 0 {
		delay = 0
	}
	e.scheduler.Schedule(sessionID, record.SpinID, delay, complete)
}

// CancelCompletion drops the timer of a spin that was aborted before it ended.
func (e *Engine) CancelCompletion(sessionID, spinID string) bool {
	return e.scheduler.Cancel(sessionID, spinID)
}

func (e *Engine) Scheduler() *Scheduler {
	return e.scheduler
}

func (e *Engine) Stop() {
	e.scheduler.Stop()
}
