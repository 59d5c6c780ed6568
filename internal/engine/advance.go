package engine

import (
	"fmt"
	"time"

	"github.com/DoyleJ11/brawlbracket-backend/internal/bracket"
	"github.com/google/uuid"
)

// now is swapped out in tests.
var now = time.Now

// Recompute derives the match state from its facts (prereq winners,
// presence, picks, bans, room and score). It is idempotent, and a match
// that has entered the per-game loop never drops back to a waiting state.
// Completing a match writes the winner into the next match and recomputes
// that one too.
func Recompute(t *bracket.Tournament, m *bracket.Match) error {
	switch {
	case m.State.Name == bracket.StateComplete:
		return nil
	case !m.State.Name.Cyclic():
		waiting, err := prePlay(t, m)
		if err != nil || waiting {
			return err
		}
		m.State = bracket.State{Name: bracket.StatePickLegends}
	}
	return advance(t, m)
}

// prePlay handles the states before a match is playable. It reports true
// while the match still has to wait on a prerequisite or on players.
func prePlay(t *bracket.Tournament, m *bracket.Match) (bool, error) {
	for side := range m.Prereqs {
		prereq := t.Prereq(m, side)
		if prereq == nil || prereq.HasWinner() {
			continue
		}
		var names []string
		for _, team := range t.MatchTeams(prereq) {
			if team != nil {
				names = append(names, team.Name)
			}
		}
		m.State = bracket.State{
			Name:        bracket.StateWaitingForMatch,
			MatchNumber: prereq.Number,
			TeamNames:   names,
		}
		return true, nil
	}

	teams := t.MatchTeams(m)
	if teams[0] == nil || teams[1] == nil {
		return false, fmt.Errorf("%w: match %d has no pending prereq but is missing a team", bracket.ErrInvariant, m.Number)
	}

	if m.StartTime == nil {
		start := now()
		m.StartTime = &start
	}
	if !t.TeamReady(teams[0]) || !t.TeamReady(teams[1]) {
		m.State = bracket.State{Name: bracket.StateWaitingForPlayers}
		return true, nil
	}
	return false, nil
}

// advance runs the per-game loop until it reaches a state that needs
// input from someone.
func advance(t *bracket.Tournament, m *bracket.Match) error {
	rules, err := Lookup(m.Ruleset)
	if err != nil {
		return err
	}

	for {
		if m.GamesPlayed() != m.SettledGames {
			done, err := settleGame(t, m)
			if err != nil || done {
				return err
			}
		}

		c := newContext(t, m)
		switch m.State.Name {
		case bracket.StatePickLegends:
			step := rules.NextDraftStep(c)
			if !step.Done() {
				m.State = bracket.State{Name: bracket.StatePickLegends, CanPick: step.CanPick}
				return nil
			}
			m.State = bracket.State{Name: bracket.StateChooseMap}

		case bracket.StateChooseMap:
			if m.CurrentRealm != "" {
				m.State = bracket.State{Name: bracket.StateCreateRoom}
				continue
			}
			step, err := rules.NextMapStep(c)
			if err != nil {
				return err
			}
			if step.AutoRealm != "" {
				m.CurrentRealm = step.AutoRealm
				continue
			}
			side := step.Side
			m.State = bracket.State{
				Name:     bracket.StateChooseMap,
				Action:   step.Action,
				TurnSide: &side,
				Count:    step.Count,
			}
			return nil

		case bracket.StateCreateRoom:
			if m.RoomNumber == nil {
				m.State = bracket.State{Name: bracket.StateCreateRoom}
				return nil
			}
			m.State = bracket.State{Name: bracket.StateInGame}

		case bracket.StateInGame:
			m.State = bracket.State{Name: bracket.StateInGame, Game: m.GamesPlayed() + 1}
			return nil

		default:
			return fmt.Errorf("%w: ruleset %s cannot advance match %d from %q",
				bracket.ErrInvariant, rules.Name(), m.Number, m.State.Name)
		}
	}
}

// settleGame folds newly reported games into the match. A decided series
// completes the match; otherwise the loser of the last game re-picks and
// the realm choice starts over.
func settleGame(t *bracket.Tournament, m *bracket.Match) (bool, error) {
	if side, ok := m.Decided(); ok {
		return true, complete(t, m, side)
	}

	if m.LastGameWinner < 0 || m.LastGameWinner > 1 {
		return false, fmt.Errorf("%w: match %d has new games but no last winner", bracket.ErrInvariant, m.Number)
	}
	if loser := t.Team(m.Teams[1-m.LastGameWinner]); loser != nil {
		for _, p := range t.TeamPlayers(loser) {
			p.CurrentLegend = ""
		}
	}
	m.RealmBans = []string{}
	m.CurrentRealm = ""
	m.SettledGames = m.GamesPlayed()
	m.State = bracket.State{Name: bracket.StatePickLegends}
	return false, nil
}

func complete(t *bracket.Tournament, m *bracket.Match, side int) error {
	m.Winner = m.Teams[side]
	m.SettledGames = m.GamesPlayed()
	m.State = bracket.State{Name: bracket.StateComplete}
	if loser := t.Team(m.Teams[1-side]); loser != nil {
		loser.Eliminated = true
	}
	// Picks never carry over into the next match.
	for _, team := range t.MatchTeams(m) {
		if team == nil {
			continue
		}
		for _, p := range t.TeamPlayers(team) {
			p.CurrentLegend = ""
		}
	}

	next := t.NextMatch(m)
	if next == nil {
		return nil
	}
	if next.Teams[m.NextSide] != uuid.Nil {
		return fmt.Errorf("%w: match %d slot %d already holds a team", bracket.ErrInvariant, next.Number, m.NextSide)
	}
	next.Teams[m.NextSide] = m.Winner
	return Recompute(t, next)
}

// BuildBracket generates the single elimination tree and derives the
// starting state of every match.
func BuildBracket(t *bracket.Tournament) (*bracket.Match, error) {
	if _, err := Lookup(t.Ruleset); err != nil {
		return nil, err
	}
	root, err := t.GenerateSingleElimination()
	if err != nil || root == nil {
		return root, err
	}
	if err := RecomputeAll(t); err != nil {
		return nil, err
	}
	return root, nil
}

func RecomputeAll(t *bracket.Tournament) error {
	for _, m := range t.Matches() {
		if err := Recompute(t, m); err != nil {
			return err
		}
	}
	return nil
}

// Reset puts every match back to its starting placement and clears all
// per-game progress.
func Reset(t *bracket.Tournament) error {
	t.Reset()
	for _, m := range t.Matches() {
		m.State = bracket.State{Name: bracket.StateBuilding}
		m.RealmBans = []string{}
		m.CurrentRealm = ""
		m.RoomNumber = nil
		m.StartTime = nil
	}
	for _, p := range t.Players() {
		p.CurrentLegend = ""
	}
	return RecomputeAll(t)
}
