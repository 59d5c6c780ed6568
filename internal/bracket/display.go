package bracket

import "github.com/google/uuid"

type DisplayTeam struct {
	Name string `json:"name"`
	Seed int    `json:"seed"`
}

type DisplayMatch struct {
	ID            int        `json:"id"`
	Round         int        `json:"round"`
	Teams         [2]*string `json:"teams"`
	PrereqMatches [2]*string `json:"prereqMatches"`
	Score         [2]int     `json:"score"`
	Winner        *int       `json:"winner"`
}

// Display is what the client needs to draw the bracket.
type Display struct {
	Teams   map[string]DisplayTeam  `json:"teams"`
	Matches map[string]DisplayMatch `json:"matches"`
	Root    *string                 `json:"root"`
}

func idOrNil(id uuid.UUID) *string {
	if id == uuid.Nil {
		return nil
	}
	s := id.String()
	return &s
}

func (t *Tournament) Display() Display {
	d := Display{
		Teams:   make(map[string]DisplayTeam, len(t.teams)),
		Matches: make(map[string]DisplayMatch, len(t.matches)),
		Root:    idOrNil(t.Root),
	}
	for _, team := range t.teams {
		name := team.Name
		if name == "" {
			name = "Unnamed Team"
		}
		d.Teams[team.ID.String()] = DisplayTeam{Name: name, Seed: team.Seed}
	}
	for _, m := range t.matches {
		dm := DisplayMatch{ID: m.Number, Round: m.Round, Score: m.Score}
		for side := range 2 {
			dm.Teams[side] = idOrNil(m.Teams[side])
			dm.PrereqMatches[side] = idOrNil(m.Prereqs[side])
		}
		if side := m.SideOf(m.Winner); side >= 0 {
			dm.Winner = &side
		}
		d.Matches[m.ID.String()] = dm
	}
	return d
}
