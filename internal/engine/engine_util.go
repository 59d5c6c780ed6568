package engine

import "github.com/DoyleJ11/brawlbracket-backend/internal/bracket"

func ContainsEvent(events []Event, eventType EventType) bool {
	for _, event := range events {
		if event.Type == eventType {
			return true
		}
	}
	return false
}

type playerMark struct {
	p      *bracket.Player
	legend string
	online int
}

// checkpoint records everything a single command can touch: the match,
// the match its winner feeds, and the teams and players of both.
type checkpoint struct {
	matches    map[*bracket.Match]bracket.Match
	eliminated map[*bracket.Team]bool
	players    []playerMark
}

func takeCheckpoint(t *bracket.Tournament, m *bracket.Match) *checkpoint {
	cp := &checkpoint{
		matches:    map[*bracket.Match]bracket.Match{},
		eliminated: map[*bracket.Team]bool{},
	}
	for cur := m; cur != nil; cur = t.NextMatch(cur) {
		cp.matches[cur] = *cur.Clone()
		for _, team := range t.MatchTeams(cur) {
			if team == nil {
				continue
			}
			if _, seen := cp.eliminated[team]; seen {
				continue
			}
			cp.eliminated[team] = team.Eliminated
			for _, p := range t.TeamPlayers(team) {
				cp.players = append(cp.players, playerMark{p: p, legend: p.CurrentLegend, online: p.Online})
			}
		}
		if cur != m {
			break
		}
	}
	return cp
}

func (cp *checkpoint) restore() {
	for m, saved := range cp.matches {
		*m = saved
	}
	for team, eliminated := range cp.eliminated {
		team.Eliminated = eliminated
	}
	for _, mark := range cp.players {
		mark.p.CurrentLegend = mark.legend
		mark.p.Online = mark.online
	}
}
