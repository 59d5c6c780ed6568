package bracket

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func detach(tour *Tournament) ([]*Team, []*Player, []*Match) {
	var teams []*Team
	for _, team := range tour.Teams() {
		c := *team
		teams = append(teams, &c)
	}
	var players []*Player
	for _, p := range tour.Players() {
		c := *p
		players = append(players, &c)
	}
	var matches []*Match
	for _, m := range tour.Matches() {
		c := m.Clone()
		c.Next = uuid.Nil
		matches = append(matches, c)
	}
	return teams, players, matches
}

func TestRestore_RebuildsLinks(t *testing.T) {
	tour := newTestTournament(t, 11)
	root, err := tour.GenerateSingleElimination()
	require.NoError(t, err)

	teams, players, matches := detach(tour)
	restored := NewTournament(tour.ShortName, tour.Name)
	require.NoError(t, Restore(restored, teams, players, matches))

	assert.Equal(t, root.ID, restored.Root)
	assert.NoError(t, restored.Validate())
	for _, m := range tour.Matches() {
		got := restored.Match(m.ID)
		require.NotNil(t, got)
		assert.Equal(t, m.Next, got.Next)
		assert.Equal(t, m.NextSide, got.NextSide)
		assert.Equal(t, m.Teams, got.Teams)
	}
	for _, team := range tour.Teams() {
		assert.ElementsMatch(t, team.Players, restored.Team(team.ID).Players)
	}
}

func TestRestore_RejectsMalformedTrees(t *testing.T) {
	a := &Match{ID: uuid.New()}
	b := &Match{ID: uuid.New()}
	a.Prereqs[0] = b.ID
	b.Prereqs[0] = a.ID
	err := Restore(NewTournament("x", "x"), nil, nil, []*Match{a, b})
	assert.ErrorIs(t, err, ErrMalformedTree)

	c := &Match{ID: uuid.New()}
	d := &Match{ID: uuid.New()}
	err = Restore(NewTournament("x", "x"), nil, nil, []*Match{c, d})
	assert.ErrorIs(t, err, ErrMalformedTree, "two roots")

	shared := &Match{ID: uuid.New()}
	e := &Match{ID: uuid.New(), Prereqs: [2]uuid.UUID{shared.ID, uuid.Nil}}
	f := &Match{ID: uuid.New(), Prereqs: [2]uuid.UUID{shared.ID, uuid.Nil}}
	err = Restore(NewTournament("x", "x"), nil, nil, []*Match{shared, e, f})
	assert.ErrorIs(t, err, ErrMalformedTree, "shared prerequisite")

	g := &Match{ID: uuid.New(), Prereqs: [2]uuid.UUID{uuid.New(), uuid.Nil}}
	err = Restore(NewTournament("x", "x"), nil, nil, []*Match{g})
	assert.ErrorIs(t, err, ErrUnknownMatch)
}

func TestValidate_ReportsEveryViolation(t *testing.T) {
	tour := newTestTournament(t, 4)
	root, err := tour.GenerateSingleElimination()
	require.NoError(t, err)

	semi := tour.Prereq(root, 0)
	semi.Round = root.Round
	semi.Winner = uuid.New()
	root.Number = semi.Number

	err = tour.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvariant)
	assert.Contains(t, err.Error(), "round")
	assert.Contains(t, err.Error(), "winner")
	assert.Contains(t, err.Error(), "share number")
}
