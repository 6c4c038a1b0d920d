package tui

import (
	"sync"
	"time"

	"echo-loop/internal/game"

	"github.com/gdamore/tcell/v2"
	"github.com/go-gl/mathgl/mgl64"
)

// Action represents a player-requested action.
type Action uint8

const (
	ActionNone Action = iota
	ActionMoveUp
	ActionMoveDown
	ActionMoveLeft
	ActionMoveRight
	ActionFire
	ActionDash
	ActionPause
	ActionConfirm
	ActionRestart
	ActionQuit
	ActionMusic
)

// HoldWindow is how long a key counts as held after its last press.
// Terminals only report presses and auto-repeat, never releases.
const HoldWindow = 180 * time.Millisecond

// keyToAction maps a tcell key event to an action.
func keyToAction(ev *tcell.EventKey) Action {
	switch ev.Key() {
	case tcell.KeyUp:
		return ActionMoveUp
	case tcell.KeyDown:
		return ActionMoveDown
	case tcell.KeyLeft:
		return ActionMoveLeft
	case tcell.KeyRight:
		return ActionMoveRight
	case tcell.KeyEnter:
		return ActionConfirm
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return ActionQuit
	}

	switch ev.Rune() {
	case 'w', 'W':
		return ActionMoveUp
	case 's', 'S':
		return ActionMoveDown
	case 'a', 'A':
		return ActionMoveLeft
	case 'd', 'D':
		return ActionMoveRight
	case ' ':
		return ActionFire
	case 'e', 'E':
		return ActionDash
	case 'p', 'P':
		return ActionPause
	case 'r', 'R':
		return ActionRestart
	case 'q', 'Q':
		return ActionQuit
	case 'm', 'M':
		return ActionMusic
	}
	return ActionNone
}

// isShifted reports a shift-modified arrow, which dashes while moving
func isShifted(ev *tcell.EventKey) bool {
	if ev.Modifiers()&tcell.ModShift == 0 {
		return false
	}
	switch ev.Key() {
	case tcell.KeyUp, tcell.KeyDown, tcell.KeyLeft, tcell.KeyRight:
		return true
	}
	return false
}

// InputState turns discrete key presses into a held game.Input
type InputState struct {
	mu      sync.Mutex
	pressed map[Action]time.Time
	dash    bool
	aim     mgl64.Vec2
}

// NewInputState creates an empty input state
func NewInputState() *InputState {
	return &InputState{pressed: make(map[Action]time.Time)}
}

// Press records a movement, fire or dash action at now
func (s *InputState) Press(a Action, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch a {
	case ActionDash:
		s.dash = true
	case ActionMoveUp, ActionMoveDown, ActionMoveLeft, ActionMoveRight, ActionFire:
		s.pressed[a] = now
		if d := actionToDelta(a); d != (mgl64.Vec2{}) {
			s.aim = d
		}
	}
}

// Input returns the held input at now. A dash press is reported once.
func (s *InputState) Input(now time.Time) game.Input {
	s.mu.Lock()
	defer s.mu.Unlock()

	var in game.Input
	for a, at := range s.pressed {
		if now.Sub(at) > HoldWindow {
			delete(s.pressed, a)
			continue
		}
		if a == ActionFire {
			in.Fire = true
			continue
		}
		in.Move = in.Move.Add(actionToDelta(a))
	}
	// facing sticks to the last direction so standing still still aims
	in.Aim = s.aim
	in.Dash = s.dash
	s.dash = false
	return in
}

// Reset forgets all held keys
func (s *InputState) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pressed = make(map[Action]time.Time)
	s.dash = false
}

// actionToDelta converts a movement action to a world direction (y up).
func actionToDelta(a Action) mgl64.Vec2 {
	switch a {
	case ActionMoveUp:
		return mgl64.Vec2{0, 1}
	case ActionMoveDown:
		return mgl64.Vec2{0, -1}
	case ActionMoveLeft:
		return mgl64.Vec2{-1, 0}
	case ActionMoveRight:
		return mgl64.Vec2{1, 0}
	}
	return mgl64.Vec2{}
}
