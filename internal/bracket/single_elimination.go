package bracket

import (
	"cmp"
	"fmt"
	"math/bits"
	"slices"

	"github.com/google/uuid"
)

// numRounds is ceil(log2(n)) for n >= 1.
func numRounds(n int) int {
	if n <= 1 {
		return 0
	}
	return bits.Len(uint(n - 1))
}

// GenerateSingleElimination builds a seeded single-elimination tree over
// the tournament's teams and returns its root. Fewer than two teams yield
// no matches and a nil root.
//
// Placement works top-down: the final is predicted to be won by the best
// seed, and every round below pairs each predicted winner with the best
// still-unplaced seed it can face, worst-for-best. Leaf matches whose
// predicted loser is a bye are dropped and their winner is placed straight
// into the next round.
func (t *Tournament) GenerateSingleElimination() (*Match, error) {
	t.Style = StyleSingleElimination

	n := len(t.teams)
	if n < 2 {
		return nil, nil
	}

	rounds := numRounds(n)
	byRound := make([][]*Match, rounds)
	root, err := t.genMatchTree(rounds, byRound)
	if err != nil {
		return nil, err
	}
	t.Root = root.ID

	numByes := 1<<rounds - n
	entrants := t.Teams()
	slots := make([]*Team, 0, n+numByes)
	slots = append(slots, entrants...)
	for range numByes {
		slots = append(slots, nil)
	}

	predicted := map[uuid.UUID]*Team{root.ID: slots[0]}

	// Work down from the final, skipping the leaf round.
	for depth := rounds - 1; depth >= 1; depth-- {
		matches, roundTeams := roundData(byRound[depth], slots, predicted)
		for _, m := range matches {
			predicted[m.Prereqs[0]] = predicted[m.ID]

			// Expected loser is the worst seed left for this round.
			predicted[m.Prereqs[1]] = roundTeams[len(roundTeams)-1]
			roundTeams = roundTeams[:len(roundTeams)-1]
		}
	}

	matches, roundTeams := roundData(byRound[0], slots, predicted)
	for _, m := range matches {
		winner := predicted[m.ID]
		loser := roundTeams[len(roundTeams)-1]
		roundTeams = roundTeams[:len(roundTeams)-1]

		if loser != nil {
			m.Teams = [2]uuid.UUID{winner.ID, loser.ID}
			continue
		}

		// Bye: the winner plays its first match one round later.
		next := t.matches[m.Next]
		if next == nil {
			return nil, fmt.Errorf("%w: leaf match %s has no next match", ErrInvariant, m.ID)
		}
		next.Teams[m.NextSide] = winner.ID
		if err := t.removeMatch(m); err != nil {
			return nil, err
		}
	}

	t.Finalize()
	return root, nil
}

// genMatchTree creates a perfect tree of the given depth and records the
// matches of every depth in byRound (index 0 holds the leaves).
func (t *Tournament) genMatchTree(depth int, byRound [][]*Match) (*Match, error) {
	var prereqs [2]uuid.UUID
	if depth > 1 {
		for side := range prereqs {
			child, err := t.genMatchTree(depth-1, byRound)
			if err != nil {
				return nil, err
			}
			prereqs[side] = child.ID
		}
	}

	m, err := t.CreateMatch(prereqs, [2]uuid.UUID{})
	if err != nil {
		return nil, err
	}
	byRound[depth-1] = append(byRound[depth-1], m)
	return m, nil
}

// roundData sorts a round by predicted winner and returns the seeds that
// are placed as expected losers in it. The first len(matches) seeds were
// placed by the rounds above, so the next len(matches) are this round's.
func roundData(matches []*Match, slots []*Team, predicted map[uuid.UUID]*Team) ([]*Match, []*Team) {
	sorted := slices.Clone(matches)
	slices.SortFunc(sorted, func(a, b *Match) int {
		return cmp.Compare(predicted[a.ID].Seed, predicted[b.ID].Seed)
	})
	k := len(sorted)
	return sorted, slices.Clone(slots[k : 2*k])
}

// Finalize recomputes rounds and numbers from the root. Call it whenever
// the shape of the tree changes.
func (t *Tournament) Finalize() {
	root := t.RootMatch()
	if root == nil {
		return
	}
	maxDepth := t.treeDepth(root)
	t.updateRounds(root, maxDepth)
	t.numberMatches(root, 1)
}

func (t *Tournament) treeDepth(m *Match) int {
	depth := 0
	for _, id := range m.Prereqs {
		if prereq := t.matches[id]; prereq != nil {
			depth = max(depth, t.treeDepth(prereq))
		}
	}
	return depth + 1
}

// updateRounds gives the root the highest round; leaves end at round 1
// on the deepest branch.
func (t *Tournament) updateRounds(m *Match, round int) {
	m.Round = round
	for _, id := range m.Prereqs {
		if prereq := t.matches[id]; prereq != nil {
			t.updateRounds(prereq, round-1)
		}
	}
	if m.Next == uuid.Nil && t.FinalBestOf > 0 {
		m.BestOf = t.FinalBestOf
	}
}

// numberMatches walks the tree breadth first from the root and numbers it
// back to front, so leaves play first and the root is played last.
func (t *Tournament) numberMatches(root *Match, start int) {
	traversed := []*Match{}
	queue := []*Match{root}
	for len(queue) > 0 {
		m := queue[0]
		queue = queue[1:]
		traversed = append(traversed, m)

		// Side 1 first so side 0 comes out ahead once reversed.
		for side := 1; side >= 0; side-- {
			if prereq := t.matches[m.Prereqs[side]]; prereq != nil {
				queue = append(queue, prereq)
			}
		}
	}

	for i := len(traversed) - 1; i >= 0; i-- {
		traversed[i].Number = start
		start++
	}
}
