package engine

import (
	"fmt"
	"slices"

	"github.com/DoyleJ11/brawlbracket-backend/internal/bracket"
)

// Context is everything a ruleset may look at when deciding the next step.
type Context struct {
	Match     *bracket.Match
	Teams     [2]*bracket.Team
	Players   [2][]*bracket.Player
	RealmPool []string
}

func newContext(t *bracket.Tournament, m *bracket.Match) Context {
	c := Context{Match: m, Teams: t.MatchTeams(m), RealmPool: t.RealmPool}
	for side, team := range c.Teams {
		if team != nil {
			c.Players[side] = t.TeamPlayers(team)
		}
	}
	return c
}

// RemainingRealms is the pool minus this game's bans, in pool order.
func (c Context) RemainingRealms() []string {
	var out []string
	for _, id := range c.RealmPool {
		if !c.Match.IsRealmBanned(id) {
			out = append(out, id)
		}
	}
	return out
}

// unpicked returns the user ids of the side's players without a legend.
func (c Context) unpicked(side int) []string {
	var ids []string
	for _, p := range c.Players[side] {
		if p.CurrentLegend == "" {
			ids = append(ids, p.User.ID.String())
		}
	}
	return ids
}

type DraftStep struct {
	Side    int
	CanPick []string
}

func (s DraftStep) Done() bool { return len(s.CanPick) == 0 }

type MapStep struct {
	Action bracket.MapAction
	Side   int
	Count  int

	// Set when only one realm is left; the driver selects it directly.
	AutoRealm string
}

// Ruleset decides draft order and realm ban/pick order for a match.
type Ruleset interface {
	Name() string
	NextDraftStep(c Context) DraftStep
	NextMapStep(c Context) (MapStep, error)
}

var rulesets = map[string]Ruleset{
	"basic": BasicRules{},
	"esl":   EslRules{},
}

func Lookup(name string) (Ruleset, error) {
	r, ok := rulesets[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownRuleset, name)
	}
	return r, nil
}

func RulesetNames() []string {
	names := make([]string, 0, len(rulesets))
	for name := range rulesets {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// draftInOrder gives the pick to the first side in order that still has
// players without a legend.
func draftInOrder(c Context, order TurnOrder) DraftStep {
	for _, side := range order {
		if ids := c.unpicked(side); len(ids) > 0 {
			return DraftStep{Side: side, CanPick: ids}
		}
	}
	return DraftStep{}
}

func lastRealm(c Context, remaining []string) (MapStep, error) {
	if len(remaining) != 1 {
		return MapStep{}, fmt.Errorf("%w: match %d expected one realm left, found %d", bracket.ErrInvariant, c.Match.Number, len(remaining))
	}
	return MapStep{AutoRealm: remaining[0]}, nil
}

// BasicRules: the higher seed drafts first; realms are banned one at a
// time, alternating, until two are left and the next side picks one.
type BasicRules struct{}

func (BasicRules) Name() string { return "basic" }

func (BasicRules) NextDraftStep(c Context) DraftStep {
	return draftInOrder(c, higherSeedFirst(c.Teams))
}

func (BasicRules) NextMapStep(c Context) (MapStep, error) {
	order := higherSeedFirst(c.Teams)
	remaining := c.RemainingRealms()
	turn := order.Alternate(len(c.Match.RealmBans))

	switch {
	case len(remaining) <= 1:
		return lastRealm(c, remaining)
	case len(remaining) == 2:
		return MapStep{Action: bracket.MapPick, Side: turn, Count: 1}, nil
	default:
		return MapStep{Action: bracket.MapBan, Side: turn, Count: 1}, nil
	}
}

// EslRules: the lower seed drafts first. Game one alternates bans, higher
// seed first, down to a single realm. Later games the higher seed bans two
// and the lower seed picks.
type EslRules struct{}

const eslLaterGameBans = 2

func (EslRules) Name() string { return "esl" }

func (EslRules) NextDraftStep(c Context) DraftStep {
	return draftInOrder(c, lowerSeedFirst(c.Teams))
}

func (EslRules) NextMapStep(c Context) (MapStep, error) {
	order := higherSeedFirst(c.Teams)
	remaining := c.RemainingRealms()
	bans := len(c.Match.RealmBans)

	if c.Match.GamesPlayed() == 0 {
		if len(remaining) <= 1 {
			return lastRealm(c, remaining)
		}
		return MapStep{Action: bracket.MapBan, Side: order.Alternate(bans), Count: 1}, nil
	}

	if bans < eslLaterGameBans && len(remaining) > 1 {
		return MapStep{Action: bracket.MapBan, Side: order[0], Count: eslLaterGameBans - bans}, nil
	}
	if len(remaining) <= 1 {
		return lastRealm(c, remaining)
	}
	return MapStep{Action: bracket.MapPick, Side: order[1], Count: 1}, nil
}
