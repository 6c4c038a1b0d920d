package game

import (
	"encoding/json"
	"time"
)

// EventType classifies audit events
type EventType uint8

const (
	EventTypeUnknown EventType = iota
	EventTypeLoopStart
	EventTypeLoopWon
	EventTypeLoopLost
	EventTypeEchoKilled
	EventTypePlayerDeath
	EventTypeStateChange
	EventTypeHighScore
)

// EventVersion is bumped when payload shapes change
const EventVersion uint8 = 1

// Event is one line of the JSONL audit log
type Event struct {
	Version   uint8           `json:"version"`
	Type      EventType       `json:"type"`
	Timestamp int64           `json:"timestamp"` // unix nano
	Sequence  uint64          `json:"sequence"`
	TickNum   uint64          `json:"tickNum"`
	SessionID string          `json:"sessionId"`
	Payload   json.RawMessage `json:"payload"`
}

func (t EventType) String() string {
	switch t {
	case EventTypeLoopStart:
		return "loop_start"
	case EventTypeLoopWon:
		return "loop_won"
	case EventTypeLoopLost:
		return "loop_lost"
	case EventTypeEchoKilled:
		return "echo_killed"
	case EventTypePlayerDeath:
		return "player_death"
	case EventTypeStateChange:
		return "state_change"
	case EventTypeHighScore:
		return "high_score"
	default:
		return "unknown"
	}
}

// MarshalText writes the type by name
func (t EventType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// LoopStartPayload describes a loop entering Intro
type LoopStartPayload struct {
	Loop   int     `json:"loop"`
	Weapon string  `json:"weapon"`
	Echoes int     `json:"echoes"`
	SpawnX float64 `json:"spawnX"`
	SpawnY float64 `json:"spawnY"`
}

// LoopWonPayload describes a win resolution
type LoopWonPayload struct {
	Loop      int     `json:"loop"`
	BaseScore int     `json:"baseScore"`
	TimeLeft  float64 `json:"timeLeft"`
	TimeBonus int     `json:"timeBonus"`
	Total     int     `json:"total"`
	Frames    int     `json:"frames"`
}

// LoopLostPayload describes a loss resolution
type LoopLostPayload struct {
	Loop          int  `json:"loop"`
	FinalScore    int  `json:"finalScore"`
	LoopsSurvived int  `json:"loopsSurvived"`
	HighScore     int  `json:"highScore"`
	NewRecord     bool `json:"newRecord"`
}

// EchoKilledPayload describes an echo death
type EchoKilledPayload struct {
	Loop   int     `json:"loop"`
	EchoID int     `json:"echoId"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Score  int     `json:"score"`
}

// PlayerDeathPayload describes the live player dying
type PlayerDeathPayload struct {
	Loop int     `json:"loop"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

// StateChangePayload describes a state machine transition
type StateChangePayload struct {
	From LoopState `json:"from"`
	To   LoopState `json:"to"`
	Loop int       `json:"loop"`
}

// HighScorePayload describes a new persisted record
type HighScorePayload struct {
	Score int `json:"score"`
}

// EncodePayload marshals a payload to JSON bytes
func EncodePayload(payload interface{}) json.RawMessage {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil
	}
	return data
}

// NewEvent creates an event stamped with the current time
func NewEvent(eventType EventType, tickNum uint64, sessionID string, payload interface{}) Event {
	return Event{
		Version:   EventVersion,
		Type:      eventType,
		Timestamp: time.Now().UnixNano(),
		TickNum:   tickNum,
		SessionID: sessionID,
		Payload:   EncodePayload(payload),
	}
}
