package engine

import (
	"testing"

	"github.com/DoyleJ11/brawlbracket-backend/internal/bracket"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testPool = []string{"a", "b", "c", "d", "e"}

// mapContext builds a context where side 0 holds seed 1 and side 1 holds
// seed 8.
func mapContext(score [2]int, bans ...string) Context {
	return Context{
		Match: &bracket.Match{Score: score, BestOf: 3, RealmBans: bans},
		Teams: [2]*bracket.Team{
			{Seed: 1, Name: "Top"},
			{Seed: 8, Name: "Bottom"},
		},
		RealmPool: testPool,
	}
}

func TestEslRules_NextMapStep(t *testing.T) {
	cases := []struct {
		name  string
		score [2]int
		bans  []string
		want  MapStep
	}{
		{"game one opens with the higher seed", [2]int{}, nil, MapStep{Action: bracket.MapBan, Side: 1, Count: 1}},
		{"game one alternates", [2]int{}, []string{"a"}, MapStep{Action: bracket.MapBan, Side: 0, Count: 1}},
		{"game one keeps banning at two left", [2]int{}, []string{"a", "b", "c"}, MapStep{Action: bracket.MapBan, Side: 0, Count: 1}},
		{"game one auto-selects the last realm", [2]int{}, []string{"a", "b", "c", "d"}, MapStep{AutoRealm: "e"}},
		{"later games: higher seed bans two", [2]int{1, 0}, nil, MapStep{Action: bracket.MapBan, Side: 1, Count: 2}},
		{"later games: one ban left", [2]int{0, 1}, []string{"c"}, MapStep{Action: bracket.MapBan, Side: 1, Count: 1}},
		{"later games: lower seed picks", [2]int{1, 1}, []string{"c", "a"}, MapStep{Action: bracket.MapPick, Side: 0, Count: 1}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := EslRules{}.NextMapStep(mapContext(tc.score, tc.bans...))
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestBasicRules_NextMapStep(t *testing.T) {
	cases := []struct {
		name string
		bans []string
		want MapStep
	}{
		{"larger seed number bans first", nil, MapStep{Action: bracket.MapBan, Side: 1, Count: 1}},
		{"then the other side", []string{"a"}, MapStep{Action: bracket.MapBan, Side: 0, Count: 1}},
		{"two left: next in turn picks", []string{"a", "b", "c"}, MapStep{Action: bracket.MapPick, Side: 0, Count: 1}},
		{"one left is selected", []string{"a", "b", "c", "d"}, MapStep{AutoRealm: "e"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := BasicRules{}.NextMapStep(mapContext([2]int{}, tc.bans...))
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestNextMapStep_EmptyPoolIsAnInvariantViolation(t *testing.T) {
	for _, rules := range []Ruleset{BasicRules{}, EslRules{}} {
		_, err := rules.NextMapStep(mapContext([2]int{}, testPool...))
		assert.ErrorIs(t, err, bracket.ErrInvariant, rules.Name())
	}
}

func TestDraftOrder(t *testing.T) {
	c := mapContext([2]int{})
	c.Players = [2][]*bracket.Player{
		{{User: bracket.User{ID: uuid.New(), Name: "top"}}},
		{{User: bracket.User{ID: uuid.New(), Name: "bottom"}}},
	}
	top, bottom := c.Players[0][0].User.ID.String(), c.Players[1][0].User.ID.String()

	assert.Equal(t, DraftStep{Side: 1, CanPick: []string{bottom}}, BasicRules{}.NextDraftStep(c))
	assert.Equal(t, DraftStep{Side: 0, CanPick: []string{top}}, EslRules{}.NextDraftStep(c))

	c.Players[0][0].CurrentLegend = "ada"
	assert.Equal(t, DraftStep{Side: 1, CanPick: []string{bottom}}, EslRules{}.NextDraftStep(c))

	c.Players[1][0].CurrentLegend = "koji"
	assert.True(t, BasicRules{}.NextDraftStep(c).Done())
	assert.True(t, EslRules{}.NextDraftStep(c).Done())
}

func TestLookup(t *testing.T) {
	r, err := Lookup("esl")
	require.NoError(t, err)
	assert.Equal(t, "esl", r.Name())

	_, err = Lookup("fearless")
	assert.ErrorIs(t, err, ErrUnknownRuleset)
	assert.Equal(t, []string{"basic", "esl"}, RulesetNames())
}
