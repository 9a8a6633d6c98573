package game

import (
	"fmt"
	"strings"
	"time"
)

// Team identifies which side a unit or spawn belongs to
type Team int

const (
	TeamUnknown Team = iota
	TeamFriendly
	TeamEnemy
)

var teamNames = map[Team]string{
	TeamUnknown:  "Unknown",
	TeamFriendly: "Friendly",
	TeamEnemy:    "Enemy",
}

func (t Team) String() string {
	if name, ok := teamNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Team(%d)", int(t))
}

// MarshalText encodes the team by name
func (t Team) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText decodes a team name (case-insensitive)
func (t *Team) UnmarshalText(text []byte) error {
	for value, name := range teamNames {
		if strings.EqualFold(name, string(text)) {
			*t = value
			return nil
		}
	}
	return fmt.Errorf("unknown team %q", string(text))
}

// Lane is the horizontal band of the arena
type Lane int

const (
	LaneUnknown Lane = iota
	LaneLeft
	LaneRight
	LaneCenter
)

var laneNames = map[Lane]string{
	LaneUnknown: "Unknown",
	LaneLeft:    "Left",
	LaneRight:   "Right",
	LaneCenter:  "Center",
}

func (l Lane) String() string {
	if name, ok := laneNames[l]; ok {
		return name
	}
	return fmt.Sprintf("Lane(%d)", int(l))
}

func (l Lane) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

func (l *Lane) UnmarshalText(text []byte) error {
	for value, name := range laneNames {
		if strings.EqualFold(name, string(text)) {
			*l = value
			return nil
		}
	}
	return fmt.Errorf("unknown lane %q", string(text))
}

// Lane band edges in normalized x
const (
	LeftLaneMaxX  = 0.45
	RightLaneMinX = 0.55
)

// LaneFromX maps a normalized x coordinate to a lane
func LaneFromX(x float32) Lane {
	switch {
	case x < LeftLaneMaxX:
		return LaneLeft
	case x > RightLaneMinX:
		return LaneRight
	default:
		return LaneCenter
	}
}

// MatchPhase is the stage of the match clock
type MatchPhase int

const (
	PhaseUnknown MatchPhase = iota
	PhaseEarly
	PhaseDoubleElixir
	PhaseOvertime
)

var phaseNames = map[MatchPhase]string{
	PhaseUnknown:      "Unknown",
	PhaseEarly:        "Early",
	PhaseDoubleElixir: "DoubleElixir",
	PhaseOvertime:     "Overtime",
}

func (p MatchPhase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return fmt.Sprintf("MatchPhase(%d)", int(p))
}

func (p MatchPhase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *MatchPhase) UnmarshalText(text []byte) error {
	for value, name := range phaseNames {
		if strings.EqualFold(name, string(text)) {
			*p = value
			return nil
		}
	}
	return fmt.Errorf("unknown match phase %q", string(text))
}

// MatchClockState is the phase reading for one frame
type MatchClockState struct {
	Phase      MatchPhase
	Confidence float32
}

// MotionResult counts changed samples on each side of the split line
type MotionResult struct {
	Left    int64
	Right   int64
	Trigger bool
}

// Total returns the combined activity
func (m MotionResult) Total() int64 {
	return m.Left + m.Right
}

// ElixirResult is the smoothed elixir bar reading
type ElixirResult struct {
	Filled float32
	Elixir int
}

// SpawnEvent is a confirmed unit deployment
type SpawnEvent struct {
	Team       Team
	Lane       Lane
	X          float32
	Y          float32
	Time       time.Time
	Confidence float32
}

// LevelLabelCandidate is a raw, unconfirmed level label cluster from one frame
type LevelLabelCandidate struct {
	Team  Team
	X     float32
	Y     float32
	Score float32
}

// Unit is an HP bar marker
type Unit struct {
	X          float32
	Y          float32
	Lane       Lane
	Team       Team
	Confidence float32
}
