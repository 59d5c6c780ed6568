package bracket

import (
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/multierr"
)

// Validate checks the structural invariants of the match tree and returns
// every violation found.
func (t *Tournament) Validate() error {
	var errs error
	violation := func(format string, args ...any) {
		errs = multierr.Append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvariant}, args...)...))
	}

	numbers := make(map[int]uuid.UUID, len(t.matches))
	maxNumber := 0
	for _, m := range t.matches {
		if m.Next != uuid.Nil {
			next := t.matches[m.Next]
			switch {
			case next == nil:
				violation("match %d points to missing next match", m.Number)
			case next.Prereqs[m.NextSide] != m.ID:
				violation("match %d is not prerequisite %d of match %d", m.Number, m.NextSide, next.Number)
			}
		} else if m.ID != t.Root {
			violation("match %d has no next match but is not the root", m.Number)
		}

		for side, id := range m.Prereqs {
			if id == uuid.Nil {
				continue
			}
			prereq := t.matches[id]
			if prereq == nil {
				violation("match %d has missing prerequisite", m.Number)
				continue
			}
			if prereq.Next != m.ID || prereq.NextSide != side {
				violation("prerequisite %d does not point back to match %d", prereq.Number, m.Number)
			}
			if m.Round != prereq.Round+1 {
				violation("match %d round %d, prerequisite %d round %d", m.Number, m.Round, prereq.Number, prereq.Round)
			}
		}

		if m.HasWinner() && m.SideOf(m.Winner) < 0 {
			violation("match %d winner is not one of its teams", m.Number)
		}
		for side, s := range m.Score {
			if s < 0 || s > m.WinsNeeded() {
				violation("match %d side %d score %d out of range for best of %d", m.Number, side, s, m.BestOf)
			}
		}
		if m.BestOf < 1 || m.BestOf%2 == 0 {
			violation("match %d best of %d is not an odd positive number", m.Number, m.BestOf)
		}

		if m.Number < 1 {
			violation("match %s has no number", m.ID)
		}
		if other, dup := numbers[m.Number]; dup {
			violation("matches %s and %s share number %d", other, m.ID, m.Number)
		}
		numbers[m.Number] = m.ID
		maxNumber = max(maxNumber, m.Number)
	}

	if len(t.matches) > 0 {
		if maxNumber != len(t.matches) {
			violation("match numbers are not contiguous from 1 to %d", len(t.matches))
		}
		if root := t.RootMatch(); root == nil {
			violation("root match missing")
		} else if root.Number != maxNumber {
			violation("root has number %d, expected %d", root.Number, maxNumber)
		}
	}

	active := make(map[uuid.UUID]int)
	for _, m := range t.matches {
		if m.HasWinner() {
			continue
		}
		for _, id := range m.Teams {
			if id == uuid.Nil {
				continue
			}
			active[id]++
			if active[id] == 2 {
				violation("team %s is in more than one active match", id)
			}
		}
	}

	return errs
}
