package bracket

import (
	"cmp"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
)

type Style string

const (
	StyleNotSet            Style = "not-set"
	StyleSingleElimination Style = "Single Elimination"
)

// Tournament owns every team, player and match and resolves the ids that
// link them together.
type Tournament struct {
	ID          uuid.UUID
	ShortName   string
	Name        string
	Description string
	Style       Style
	StartTime   *time.Time
	CheckInTime *time.Time
	Admins      []uuid.UUID

	BestOf      int
	FinalBestOf int
	Ruleset     string
	RealmPool   []string
	Legends     []string

	Root uuid.UUID

	matches map[uuid.UUID]*Match
	teams   map[uuid.UUID]*Team
	players map[uuid.UUID]*Player
}

func NewTournament(shortName, name string) *Tournament {
	return &Tournament{
		ID:        uuid.New(),
		ShortName: shortName,
		Name:      name,
		Style:     StyleNotSet,
		BestOf:    3,
		Ruleset:   "basic",
		RealmPool: slices.Clone(ESLRealms),
		matches:   make(map[uuid.UUID]*Match),
		teams:     make(map[uuid.UUID]*Team),
		players:   make(map[uuid.UUID]*Player),
	}
}

func (t *Tournament) IsAdmin(userID uuid.UUID) bool {
	return slices.Contains(t.Admins, userID)
}

func (t *Tournament) AddAdmins(ids ...uuid.UUID) {
	for _, id := range ids {
		if !t.IsAdmin(id) {
			t.Admins = append(t.Admins, id)
		}
	}
}

func (t *Tournament) CreateTeam(seed int, name string) (*Team, error) {
	if seed < 1 {
		return nil, fmt.Errorf("seed must be at least 1, got %d", seed)
	}
	for _, other := range t.teams {
		if other.Seed == seed {
			return nil, fmt.Errorf("%w: %d", ErrDuplicateSeed, seed)
		}
	}
	team := &Team{ID: uuid.New(), Seed: seed, Name: name}
	t.teams[team.ID] = team
	return team, nil
}

func (t *Tournament) CreatePlayer(teamID uuid.UUID, user User) (*Player, error) {
	team := t.teams[teamID]
	if team == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTeam, teamID)
	}
	p := &Player{ID: uuid.New(), TeamID: teamID, User: user}
	t.players[p.ID] = p
	team.Players = append(team.Players, p.ID)
	return p, nil
}

// CreateMatch adds a match whose prerequisites and teams must already
// belong to this tournament. Prerequisites are pointed at the new match.
func (t *Tournament) CreateMatch(prereqs, teams [2]uuid.UUID) (*Match, error) {
	for _, id := range prereqs {
		if id != uuid.Nil && t.matches[id] == nil {
			return nil, fmt.Errorf("%w: %s", ErrUnknownMatch, id)
		}
	}
	for _, id := range teams {
		if id != uuid.Nil && t.teams[id] == nil {
			return nil, fmt.Errorf("%w: %s", ErrUnknownTeam, id)
		}
	}

	m := newMatch()
	m.Prereqs = prereqs
	m.Teams = teams
	m.BestOf = t.BestOf
	m.Ruleset = t.Ruleset
	for side, id := range prereqs {
		if id == uuid.Nil {
			continue
		}
		prereq := t.matches[id]
		prereq.Next = m.ID
		prereq.NextSide = side
	}
	t.matches[m.ID] = m
	return m, nil
}

// removeMatch unlinks the match from its neighbours and drops it.
func (t *Tournament) removeMatch(m *Match) error {
	if t.matches[m.ID] == nil {
		return fmt.Errorf("%w: %s", ErrUnknownMatch, m.ID)
	}
	if next := t.matches[m.Next]; next != nil {
		next.Prereqs[m.NextSide] = uuid.Nil
	}
	for _, id := range m.Prereqs {
		if prereq := t.matches[id]; prereq != nil {
			prereq.Next = uuid.Nil
			prereq.NextSide = 0
		}
	}
	delete(t.matches, m.ID)
	return nil
}

func (t *Tournament) Match(id uuid.UUID) *Match   { return t.matches[id] }
func (t *Tournament) Team(id uuid.UUID) *Team     { return t.teams[id] }
func (t *Tournament) Player(id uuid.UUID) *Player { return t.players[id] }

func (t *Tournament) RootMatch() *Match { return t.matches[t.Root] }

func (t *Tournament) MatchByNumber(number int) *Match {
	for _, m := range t.matches {
		if m.Number == number {
			return m
		}
	}
	return nil
}

// Matches returns all matches ordered by match number.
func (t *Tournament) Matches() []*Match {
	out := make([]*Match, 0, len(t.matches))
	for _, m := range t.matches {
		out = append(out, m)
	}
	slices.SortFunc(out, func(a, b *Match) int {
		return cmp.Or(cmp.Compare(a.Number, b.Number), slices.Compare(a.ID[:], b.ID[:]))
	})
	return out
}

// Teams returns all teams ordered by seed.
func (t *Tournament) Teams() []*Team {
	out := make([]*Team, 0, len(t.teams))
	for _, team := range t.teams {
		out = append(out, team)
	}
	slices.SortFunc(out, func(a, b *Team) int { return cmp.Compare(a.Seed, b.Seed) })
	return out
}

func (t *Tournament) Players() []*Player {
	out := make([]*Player, 0, len(t.players))
	for _, p := range t.players {
		out = append(out, p)
	}
	slices.SortFunc(out, func(a, b *Player) int { return slices.Compare(a.ID[:], b.ID[:]) })
	return out
}

func (t *Tournament) Prereq(m *Match, side int) *Match { return t.matches[m.Prereqs[side]] }

func (t *Tournament) NextMatch(m *Match) *Match { return t.matches[m.Next] }

// MatchTeams resolves both team slots; unresolved slots are nil.
func (t *Tournament) MatchTeams(m *Match) [2]*Team {
	return [2]*Team{t.teams[m.Teams[0]], t.teams[m.Teams[1]]}
}

func (t *Tournament) TeamPlayers(team *Team) []*Player {
	out := make([]*Player, 0, len(team.Players))
	for _, id := range team.Players {
		if p := t.players[id]; p != nil {
			out = append(out, p)
		}
	}
	return out
}

// TeamReady reports whether every player on the team is connected.
func (t *Tournament) TeamReady(team *Team) bool {
	for _, p := range t.TeamPlayers(team) {
		if !p.IsOnline() {
			return false
		}
	}
	return true
}

func (t *Tournament) PlayerByUser(userID uuid.UUID) (*Team, *Player) {
	for _, p := range t.players {
		if p.User.ID == userID {
			return t.teams[p.TeamID], p
		}
	}
	return nil, nil
}

// UserInfo finds the user's team, player and active (winner-less) match.
// The match is nil when the team is eliminated, when no bracket has been
// generated, or when the team has no active match. ok is false when the
// user does not play in this tournament.
func (t *Tournament) UserInfo(userID uuid.UUID) (m *Match, team *Team, p *Player, ok bool) {
	team, p = t.PlayerByUser(userID)
	if p == nil || team == nil {
		return nil, nil, nil, false
	}
	if team.Eliminated || len(t.matches) == 0 {
		return nil, team, p, true
	}
	return t.ActiveMatch(team), team, p, true
}

// ActiveMatch returns the winner-less match the team currently sits in.
func (t *Tournament) ActiveMatch(team *Team) *Match {
	for _, m := range t.Matches() {
		if m.HasWinner() {
			continue
		}
		if m.SideOf(team.ID) >= 0 {
			return m
		}
	}
	return nil
}

// Reset returns the bracket to its starting placement.
func (t *Tournament) Reset() {
	for _, m := range t.matches {
		m.Winner = uuid.Nil
		m.Score = [2]int{}
		m.SettledGames = 0
		m.LastGameWinner = -1
		for side, prereq := range m.Prereqs {
			if prereq != uuid.Nil {
				m.Teams[side] = uuid.Nil
			}
		}
	}
	for _, team := range t.teams {
		team.Eliminated = false
	}
}

// TeamStatus summarises where a team stands for its own dashboard.
func (t *Tournament) TeamStatus(team *Team) (string, string) {
	if team.Eliminated {
		return "eliminated", "Eliminated"
	}
	m := t.ActiveMatch(team)
	if m == nil {
		return "waiting", "No Match"
	}

	var state, pretty string
	switch m.State.Name {
	case StateWaitingForMatch, StateWaitingForPlayers:
		state, pretty = "waiting", "Waiting"
	case StateInGame:
		state, pretty = "playing", "Playing"
	default:
		state, pretty = "setup", "Setting up"
	}
	return state, fmt.Sprintf("%s (match #%d)", pretty, m.Number)
}
