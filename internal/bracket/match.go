package bracket

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

// Match is one vertex of the bracket. Links to other matches and teams are
// stable ids resolved through the owning Tournament.
type Match struct {
	ID     uuid.UUID
	Round  int
	Number int

	Prereqs  [2]uuid.UUID
	Next     uuid.UUID
	NextSide int

	Teams  [2]uuid.UUID
	Score  [2]int
	BestOf int
	Winner uuid.UUID

	State        State
	RealmBans    []string
	CurrentRealm string
	RoomNumber   *int
	StartTime    *time.Time
	ChatID       uuid.UUID
	Ruleset      string

	// Games already folded into the state machine. A report is detected
	// when the sum of Score runs ahead of this.
	SettledGames   int
	LastGameWinner int
}

func newMatch() *Match {
	return &Match{
		ID:             uuid.New(),
		ChatID:         uuid.New(),
		State:          State{Name: StateBuilding},
		RealmBans:      []string{},
		LastGameWinner: -1,
	}
}

func (m *Match) HasWinner() bool { return m.Winner != uuid.Nil }

// GamesPlayed is the total number of games reported so far.
func (m *Match) GamesPlayed() int { return m.Score[0] + m.Score[1] }

// WinsNeeded is the number of games a side must win to take the series.
func (m *Match) WinsNeeded() int { return m.BestOf/2 + 1 }

// Decided reports whether one side's score exceeds bestOf/2.
func (m *Match) Decided() (side int, ok bool) {
	for i, s := range m.Score {
		if s > m.BestOf/2 {
			return i, true
		}
	}
	return -1, false
}

// SideOf returns the slot index of the team in this match, or -1.
func (m *Match) SideOf(teamID uuid.UUID) int {
	if teamID == uuid.Nil {
		return -1
	}
	return slices.Index(m.Teams[:], teamID)
}

func (m *Match) IsRealmBanned(id string) bool {
	return slices.Contains(m.RealmBans, id)
}

// Clone returns a deep copy used to roll back a failed command.
func (m *Match) Clone() *Match {
	c := *m
	c.RealmBans = slices.Clone(m.RealmBans)
	c.State.TeamNames = slices.Clone(m.State.TeamNames)
	c.State.CanPick = slices.Clone(m.State.CanPick)
	if m.State.TurnSide != nil {
		side := *m.State.TurnSide
		c.State.TurnSide = &side
	}
	if m.RoomNumber != nil {
		room := *m.RoomNumber
		c.RoomNumber = &room
	}
	if m.StartTime != nil {
		start := *m.StartTime
		c.StartTime = &start
	}
	return &c
}
