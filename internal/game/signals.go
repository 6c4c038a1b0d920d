package game

import (
	"github.com/go-gl/mathgl/mgl64"
)

// SignalKind identifies a one-way game-logic signal
type SignalKind uint8

const (
	SignalEnemyDeath SignalKind = iota + 1
	SignalPlayerDeath
	SignalLoopStarted
	SignalLoopCompleted
	SignalLoopFailed
	SignalStateChanged
	SignalScoreChanged
)

func (k SignalKind) String() string {
	switch k {
	case SignalEnemyDeath:
		return "enemy_death"
	case SignalPlayerDeath:
		return "player_death"
	case SignalLoopStarted:
		return "loop_started"
	case SignalLoopCompleted:
		return "loop_completed"
	case SignalLoopFailed:
		return "loop_failed"
	case SignalStateChanged:
		return "state_changed"
	case SignalScoreChanged:
		return "score_changed"
	default:
		return "unknown"
	}
}

// Signal carries one event through the bus. Only the fields relevant to
// Kind are set.
type Signal struct {
	Kind     SignalKind
	Loop     int
	EchoID   int
	Position mgl64.Vec2
	State    LoopState
	Previous LoopState
	Score    int
	Delta    int
}

// Observer handles a signal. Observers run synchronously on the tick thread.
type Observer func(Signal)

// SignalBus delivers signals to observers in registration order.
// Signals emitted from inside an observer are queued and delivered after the
// current signal reaches every observer, so delivery order stays FIFO.
type SignalBus struct {
	observers  []Observer
	queue      []Signal
	delivering bool
}

// NewSignalBus creates an empty bus
func NewSignalBus() *SignalBus {
	return &SignalBus{}
}

// Subscribe appends an observer. Earlier subscribers see each signal first.
func (b *SignalBus) Subscribe(fn Observer) {
	b.observers = append(b.observers, fn)
}

// Emit delivers s to every observer
func (b *SignalBus) Emit(s Signal) {
	b.queue = append(b.queue, s)
	if b.delivering {
		return
	}

	b.delivering = true
	for len(b.queue) > 0 {
		next := b.queue[0]
		b.queue = b.queue[1:]
		for _, fn := range b.observers {
			fn(next)
		}
	}
	b.queue = b.queue[:0]
	b.delivering = false
}
