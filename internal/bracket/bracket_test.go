package bracket

import (
	"fmt"
	"strconv"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestTournament creates n single-player teams seeded 1..n.
func newTestTournament(t *testing.T, n int) *Tournament {
	t.Helper()
	tour := NewTournament("test", "Test Tournament")
	for seed := 1; seed <= n; seed++ {
		team, err := tour.CreateTeam(seed, fmt.Sprintf("Team %d", seed))
		require.NoError(t, err)
		_, err = tour.CreatePlayer(team.ID, User{ID: uuid.New(), Name: fmt.Sprintf("player%d", seed)})
		require.NoError(t, err)
	}
	return tour
}

func teamBySeed(t *testing.T, tour *Tournament, seed int) *Team {
	t.Helper()
	for _, team := range tour.Teams() {
		if team.Seed == seed {
			return team
		}
	}
	t.Fatalf("no team with seed %d", seed)
	return nil
}

func seedsOf(tour *Tournament, m *Match) []int {
	var seeds []int
	for _, team := range tour.MatchTeams(m) {
		if team != nil {
			seeds = append(seeds, team.Seed)
		}
	}
	return seeds
}

// arrangeSeeds is the textbook layout: each round's matchup (a, b) splits
// into (a, T-1-a) and (b, T-1-b) one round down.
func arrangeSeeds(rounds int) [][2]int {
	matchups := [][2]int{{0, 1}}
	total := 2
	for i := 1; i < rounds; i++ {
		total *= 2
		next := make([][2]int, 0, total/2)
		for _, m := range matchups {
			next = append(next, [2]int{m[0], total - 1 - m[0]}, [2]int{m[1], total - 1 - m[1]})
		}
		matchups = next
	}
	return matchups
}

func joinCanon(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return "[" + a + "," + b + "]"
}

func referenceCanon(n int, leaf func(int) string) string {
	var nodes []string
	for _, p := range arrangeSeeds(numRounds(n)) {
		if p[1] >= n {
			nodes = append(nodes, leaf(p[0]+1))
			continue
		}
		nodes = append(nodes, joinCanon(leaf(p[0]+1), leaf(p[1]+1)))
	}
	for len(nodes) > 1 {
		next := make([]string, 0, len(nodes)/2)
		for i := 0; i < len(nodes); i += 2 {
			next = append(next, joinCanon(nodes[i], nodes[i+1]))
		}
		nodes = next
	}
	return nodes[0]
}

func treeCanon(tour *Tournament, m *Match, leaf func(int) string) string {
	var parts [2]string
	for side := range 2 {
		if prereq := tour.Prereq(m, side); prereq != nil {
			parts[side] = treeCanon(tour, prereq, leaf)
		} else {
			parts[side] = leaf(tour.Team(m.Teams[side]).Seed)
		}
	}
	return joinCanon(parts[0], parts[1])
}

func TestNumRounds(t *testing.T) {
	cases := map[int]int{0: 0, 1: 0, 2: 1, 3: 2, 4: 2, 5: 3, 8: 3, 9: 4, 64: 6, 65: 7}
	for n, want := range cases {
		assert.Equal(t, want, numRounds(n), "n=%d", n)
	}
}

func TestGenerateSingleElimination_TooFewTeams(t *testing.T) {
	for _, n := range []int{0, 1} {
		tour := newTestTournament(t, n)
		root, err := tour.GenerateSingleElimination()
		require.NoError(t, err)
		assert.Nil(t, root)
		assert.Empty(t, tour.Matches())
	}
}

func TestGenerateSingleElimination_FiveEntrants(t *testing.T) {
	tour := newTestTournament(t, 5)
	root, err := tour.GenerateSingleElimination()
	require.NoError(t, err)
	require.NotNil(t, root)

	require.Len(t, tour.Matches(), 4)
	assert.Equal(t, 3, root.Round)
	assert.Equal(t, 4, root.Number)

	seedOne := tour.ActiveMatch(teamBySeed(t, tour, 1))
	require.NotNil(t, seedOne)
	assert.Equal(t, 2, seedOne.Round)
	assert.Equal(t, 2, seedOne.Number)
	assert.Equal(t, []int{1}, seedsOf(tour, seedOne))

	opening := tour.Prereq(seedOne, 1)
	require.NotNil(t, opening)
	assert.Equal(t, 1, opening.Round)
	assert.Equal(t, 1, opening.Number)
	assert.Equal(t, []int{4, 5}, seedsOf(tour, opening))

	other := tour.ActiveMatch(teamBySeed(t, tour, 2))
	require.NotNil(t, other)
	assert.Equal(t, 2, other.Round)
	assert.Equal(t, 3, other.Number)
	assert.Equal(t, []int{2, 3}, seedsOf(tour, other))

	assert.Equal(t, [2]uuid.UUID{seedOne.ID, other.ID}, root.Prereqs)
	assert.NoError(t, tour.Validate())
}

func TestGenerateSingleElimination_PowerOfTwo(t *testing.T) {
	tour := newTestTournament(t, 8)
	_, err := tour.GenerateSingleElimination()
	require.NoError(t, err)

	require.Len(t, tour.Matches(), 7)
	var firstRound [][]int
	for _, m := range tour.Matches() {
		if m.Round == 1 {
			firstRound = append(firstRound, seedsOf(tour, m))
		}
	}
	assert.Len(t, firstRound, 4)
	assert.ElementsMatch(t, [][]int{{1, 8}, {4, 5}, {2, 7}, {3, 6}}, firstRound)
}

func TestGenerateSingleElimination_MatchesReferenceBracket(t *testing.T) {
	seeded := strconv.Itoa
	shape := func(int) string { return "x" }

	for n := 2; n <= 64; n++ {
		t.Run(strconv.Itoa(n), func(t *testing.T) {
			tour := newTestTournament(t, n)
			root, err := tour.GenerateSingleElimination()
			require.NoError(t, err)

			assert.Equal(t, referenceCanon(n, shape), treeCanon(tour, root, shape))
			assert.Equal(t, referenceCanon(n, seeded), treeCanon(tour, root, seeded))
			assert.Len(t, tour.Matches(), n-1)
			assert.NoError(t, tour.Validate())
		})
	}
}

func TestGenerateSingleElimination_Byes(t *testing.T) {
	for n := 2; n <= 64; n++ {
		tour := newTestTournament(t, n)
		root, err := tour.GenerateSingleElimination()
		require.NoError(t, err)
		assert.Equal(t, numRounds(n), root.Round, "n=%d", n)

		seen := make(map[uuid.UUID]bool)
		byes := 0
		for _, m := range tour.Matches() {
			for _, id := range m.Teams {
				if id == uuid.Nil {
					continue
				}
				require.False(t, seen[id], "n=%d: team placed twice", n)
				seen[id] = true
				if m.Round > 1 {
					byes++
					// A bye skips the first round only.
					assert.Equal(t, 2, m.Round, "n=%d", n)
					assert.Equal(t, uuid.Nil, m.Prereqs[m.SideOf(id)], "n=%d", n)
				}
			}
		}
		assert.Len(t, seen, n, "n=%d", n)
		assert.Equal(t, 1<<numRounds(n)-n, byes, "n=%d", n)
	}
}

func TestGenerateSingleElimination_RoundsAndNumbers(t *testing.T) {
	tour := newTestTournament(t, 13)
	root, err := tour.GenerateSingleElimination()
	require.NoError(t, err)

	numbers := make(map[int]bool)
	for _, m := range tour.Matches() {
		numbers[m.Number] = true
		for side := range 2 {
			if prereq := tour.Prereq(m, side); prereq != nil {
				assert.Equal(t, m.Round, prereq.Round+1)
				assert.Less(t, prereq.Number, m.Number)
			}
		}
	}
	for i := 1; i <= 12; i++ {
		assert.True(t, numbers[i], "missing number %d", i)
	}
	assert.Equal(t, 12, root.Number)
}

func TestGenerateSingleElimination_FinalBestOf(t *testing.T) {
	tour := newTestTournament(t, 4)
	tour.BestOf = 3
	tour.FinalBestOf = 5
	root, err := tour.GenerateSingleElimination()
	require.NoError(t, err)

	assert.Equal(t, 5, root.BestOf)
	assert.Equal(t, 3, tour.Prereq(root, 0).BestOf)
}

func TestCreateMatch_RejectsForeignReferences(t *testing.T) {
	tour := newTestTournament(t, 2)
	other := newTestTournament(t, 2)

	_, err := tour.CreateMatch([2]uuid.UUID{uuid.New(), uuid.Nil}, [2]uuid.UUID{})
	assert.ErrorIs(t, err, ErrUnknownMatch)

	_, err = tour.CreateMatch([2]uuid.UUID{}, [2]uuid.UUID{other.Teams()[0].ID, uuid.Nil})
	assert.ErrorIs(t, err, ErrUnknownTeam)

	_, err = tour.CreateTeam(1, "dup")
	assert.ErrorIs(t, err, ErrDuplicateSeed)
}

func TestPlayerDisconnectBelowZero(t *testing.T) {
	p := &Player{ID: uuid.New()}
	p.Connect()
	p.Connect()
	require.NoError(t, p.Disconnect())
	assert.True(t, p.IsOnline())
	require.NoError(t, p.Disconnect())
	assert.False(t, p.IsOnline())
	assert.ErrorIs(t, p.Disconnect(), ErrInvariant)
	assert.Equal(t, 0, p.Online)
}

func TestUserInfo(t *testing.T) {
	tour := newTestTournament(t, 3)
	_, _, _, ok := tour.UserInfo(uuid.New())
	assert.False(t, ok)

	seedThree := teamBySeed(t, tour, 3)
	user := tour.Player(seedThree.Players[0]).User

	m, team, p, ok := tour.UserInfo(user.ID)
	require.True(t, ok)
	assert.Nil(t, m, "no bracket yet")
	assert.Equal(t, seedThree, team)
	assert.Equal(t, user, p.User)

	_, err := tour.GenerateSingleElimination()
	require.NoError(t, err)
	m, _, _, ok = tour.UserInfo(user.ID)
	require.True(t, ok)
	require.NotNil(t, m)
	assert.Equal(t, []int{2, 3}, seedsOf(tour, m))

	seedThree.Eliminated = true
	m, _, _, ok = tour.UserInfo(user.ID)
	assert.True(t, ok)
	assert.Nil(t, m)

	state, pretty := tour.TeamStatus(seedThree)
	assert.Equal(t, "eliminated", state)
	assert.Equal(t, "Eliminated", pretty)
}

func TestTeamStatus(t *testing.T) {
	tour := newTestTournament(t, 2)
	root, err := tour.GenerateSingleElimination()
	require.NoError(t, err)
	team := teamBySeed(t, tour, 1)

	cases := []struct {
		state StateName
		want  string
	}{
		{StateWaitingForPlayers, "waiting"},
		{StateInGame, "playing"},
		{StateChooseMap, "setup"},
	}
	for _, tc := range cases {
		root.State = State{Name: tc.state}
		state, pretty := tour.TeamStatus(team)
		assert.Equal(t, tc.want, state)
		assert.Contains(t, pretty, "(match #1)")
	}
}

func TestLobbyStatus(t *testing.T) {
	tour := newTestTournament(t, 4)
	root, err := tour.GenerateSingleElimination()
	require.NoError(t, err)
	semi := tour.Prereq(root, 0)

	root.State = State{Name: StateWaitingForMatch}
	status, err := tour.LobbyStatus(root)
	require.NoError(t, err)
	assert.Equal(t, SortWaitingMatchNoSide, status.Sort)
	assert.Equal(t, fmt.Sprintf("Waiting for match #%d", semi.Number), status.Display)

	semi.Winner = semi.Teams[0]
	root.Teams[0] = semi.Winner
	status, err = tour.LobbyStatus(root)
	require.NoError(t, err)
	assert.Equal(t, SortWaitingMatchOneSide, status.Sort)

	for _, id := range root.Prereqs {
		tour.Match(id).Winner = tour.Match(id).Teams[0]
	}
	_, err = tour.LobbyStatus(root)
	assert.ErrorIs(t, err, ErrInvariant)

	semi.State = State{Name: StateWaitingForPlayers}
	status, err = tour.LobbyStatus(semi)
	require.NoError(t, err)
	assert.Equal(t, SortWaitingBothTeams, status.Sort)

	tour.Player(tour.Team(semi.Teams[0]).Players[0]).Connect()
	status, err = tour.LobbyStatus(semi)
	require.NoError(t, err)
	assert.Equal(t, SortWaitingOneTeam, status.Sort)
	assert.Equal(t, "Waiting for "+tour.Team(semi.Teams[1]).Name, status.Display)

	order := []StateName{StateInGame, StatePickLegends, StateComplete, StateBuilding}
	want := []int{SortInGame, SortSetup, SortComplete, SortUnknown}
	for i, name := range order {
		semi.State = State{Name: name}
		status, err = tour.LobbyStatus(semi)
		require.NoError(t, err)
		assert.Equal(t, want[i], status.Sort, name)
	}
}

func TestReset(t *testing.T) {
	tour := newTestTournament(t, 4)
	root, err := tour.GenerateSingleElimination()
	require.NoError(t, err)
	semi := tour.Prereq(root, 0)

	semi.Score = [2]int{2, 0}
	semi.Winner = semi.Teams[0]
	root.Teams[0] = semi.Teams[0]
	tour.Team(semi.Teams[1]).Eliminated = true

	tour.Reset()
	assert.False(t, semi.HasWinner())
	assert.Equal(t, [2]int{}, semi.Score)
	assert.Equal(t, [2]uuid.UUID{}, root.Teams)
	assert.False(t, tour.Team(semi.Teams[1]).Eliminated)
	assert.NotEqual(t, uuid.Nil, semi.Teams[0])
}

func TestDisplay(t *testing.T) {
	tour := newTestTournament(t, 3)
	root, err := tour.GenerateSingleElimination()
	require.NoError(t, err)

	d := tour.Display()
	require.NotNil(t, d.Root)
	assert.Equal(t, root.ID.String(), *d.Root)
	assert.Len(t, d.Teams, 3)
	assert.Len(t, d.Matches, 2)

	dm := d.Matches[root.ID.String()]
	assert.Equal(t, 2, dm.ID)
	assert.Nil(t, dm.Winner)
	assert.NotNil(t, dm.Teams[0])
	assert.Nil(t, dm.Teams[1])
	assert.Nil(t, dm.PrereqMatches[0])
	assert.NotNil(t, dm.PrereqMatches[1])
}
