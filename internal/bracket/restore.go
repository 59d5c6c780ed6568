package bracket

import (
	"errors"
	"fmt"

	"github.com/dominikbraun/graph"
	"github.com/google/uuid"
)

func matchKey(m *Match) uuid.UUID { return m.ID }

// Restore rebuilds a tournament from stored entities. Matches are linked
// only through their Prereqs ids; Next and NextSide are derived here and
// the root is the single match nothing feeds into.
func Restore(t *Tournament, teams []*Team, players []*Player, matches []*Match) error {
	t.teams = make(map[uuid.UUID]*Team, len(teams))
	t.players = make(map[uuid.UUID]*Player, len(players))
	t.matches = make(map[uuid.UUID]*Match, len(matches))

	for _, team := range teams {
		team.Players = nil
		t.teams[team.ID] = team
	}
	for _, p := range players {
		team := t.teams[p.TeamID]
		if team == nil {
			return fmt.Errorf("%w: player %s references %s", ErrUnknownTeam, p.ID, p.TeamID)
		}
		team.Players = append(team.Players, p.ID)
		t.players[p.ID] = p
	}

	g := graph.New(matchKey, graph.Directed(), graph.PreventCycles())
	for _, m := range matches {
		if err := g.AddVertex(m); err != nil {
			return fmt.Errorf("%w: %v", ErrMalformedTree, err)
		}
		m.Next = uuid.Nil
		m.NextSide = 0
		t.matches[m.ID] = m
	}

	for _, m := range matches {
		for _, id := range m.Teams {
			if id != uuid.Nil && t.teams[id] == nil {
				return fmt.Errorf("%w: match %s references %s", ErrUnknownTeam, m.ID, id)
			}
		}
		for side, id := range m.Prereqs {
			if id == uuid.Nil {
				continue
			}
			prereq := t.matches[id]
			if prereq == nil {
				return fmt.Errorf("%w: match %s references %s", ErrUnknownMatch, m.ID, id)
			}
			if prereq.Next != uuid.Nil {
				return fmt.Errorf("%w: match %s feeds more than one match", ErrMalformedTree, id)
			}
			if err := g.AddEdge(id, m.ID); err != nil {
				if errors.Is(err, graph.ErrEdgeCreatesCycle) {
					return fmt.Errorf("%w: cycle through %s", ErrMalformedTree, m.ID)
				}
				return fmt.Errorf("%w: %v", ErrMalformedTree, err)
			}
			prereq.Next = m.ID
			prereq.NextSide = side
		}
	}

	t.Root = uuid.Nil
	if len(matches) == 0 {
		return nil
	}

	adjacency, err := g.AdjacencyMap()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedTree, err)
	}
	for id, out := range adjacency {
		if len(out) > 0 {
			continue
		}
		if t.Root != uuid.Nil {
			return fmt.Errorf("%w: more than one root (%s, %s)", ErrMalformedTree, t.Root, id)
		}
		t.Root = id
	}
	return nil
}
