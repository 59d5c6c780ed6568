package bracket

import (
	"fmt"

	"github.com/google/uuid"
)

// LobbyStatus is the condensed state shown on the admin dashboard. Lower
// Sort values are more urgent.
type LobbyStatus struct {
	Name    string `json:"stats"`
	Display string `json:"display"`
	Sort    int    `json:"sort"`
}

const (
	SortInGame              = 1
	SortSetup               = 2
	SortWaitingOneTeam      = 3
	SortWaitingBothTeams    = 4
	SortWaitingMatchOneSide = 5
	SortWaitingMatchNoSide  = 6
	SortComplete            = 7
	SortUnknown             = 98
)

func (t *Tournament) LobbyStatus(m *Match) (LobbyStatus, error) {
	name := string(m.State.Name)
	switch m.State.Name {
	case StateInGame:
		return LobbyStatus{name, "In game", SortInGame}, nil
	case StatePickLegends:
		return LobbyStatus{name, "Picking legends", SortSetup}, nil
	case StateChooseMap:
		return LobbyStatus{name, "Choosing realm", SortSetup}, nil
	case StateCreateRoom:
		return LobbyStatus{name, "Creating room", SortSetup}, nil

	case StateWaitingForMatch:
		var prereq *Match
		for _, id := range m.Prereqs {
			if p := t.matches[id]; p != nil && !p.HasWinner() {
				prereq = p
				break
			}
		}
		if prereq == nil {
			return LobbyStatus{}, fmt.Errorf("%w: match %s waiting for match but no prerequisite is pending", ErrInvariant, m.ID)
		}
		known := 0
		for _, id := range m.Teams {
			if id != uuid.Nil {
				known++
			}
		}
		sort := SortWaitingMatchNoSide
		if known >= 1 {
			sort = SortWaitingMatchOneSide
		}
		return LobbyStatus{name, fmt.Sprintf("Waiting for match #%d", prereq.Number), sort}, nil

	case StateWaitingForPlayers:
		var notReady []string
		for _, team := range t.MatchTeams(m) {
			if team != nil && !t.TeamReady(team) {
				notReady = append(notReady, team.Name)
			}
		}
		switch len(notReady) {
		case 2:
			return LobbyStatus{name, "Waiting for both teams", SortWaitingBothTeams}, nil
		case 1:
			return LobbyStatus{name, "Waiting for " + notReady[0], SortWaitingOneTeam}, nil
		}

	case StateComplete:
		return LobbyStatus{name, "Complete", SortComplete}, nil
	}

	return LobbyStatus{"unknown", "Unknown", SortUnknown}, nil
}
