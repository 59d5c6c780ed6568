package lobby

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/DoyleJ11/brawlbracket-backend/internal/bracket"
	"github.com/DoyleJ11/brawlbracket-backend/internal/engine"
)

type PlayerData struct {
	Name   string `json:"name"`
	ID     string `json:"id"`
	Status string `json:"status"`
	Legend string `json:"legend"`
}

type TeamData struct {
	ID      string       `json:"id"`
	Name    string       `json:"name"`
	Seed    int          `json:"seed"`
	Ready   bool         `json:"ready"`
	Wins    int          `json:"wins"`
	Avatar  string       `json:"avatar"`
	Players []PlayerData `json:"players"`
}

// Snapshot is the full lobby record sent to a client joining a match room.
type Snapshot struct {
	ID           string        `json:"id"`
	Number       int           `json:"number"`
	State        bracket.State `json:"state"`
	ChatID       string        `json:"chatId"`
	RealmBans    []string      `json:"realmBans"`
	BestOf       int           `json:"bestOf"`
	StartTime    *time.Time    `json:"startTime"`
	RoomNumber   *int          `json:"roomNumber"`
	CurrentRealm *string       `json:"currentRealm"`
	Teams        []TeamData    `json:"teams"`
}

const noLegend = "none"

func BuildSnapshot(t *bracket.Tournament, m *bracket.Match) Snapshot {
	s := Snapshot{
		ID:         m.ID.String(),
		Number:     m.Number,
		State:      m.State,
		ChatID:     m.ChatID.String(),
		RealmBans:  slices.Clone(m.RealmBans),
		BestOf:     m.BestOf,
		StartTime:  m.StartTime,
		RoomNumber: m.RoomNumber,
		Teams:      []TeamData{},
	}
	if s.RealmBans == nil {
		s.RealmBans = []string{}
	}
	if m.CurrentRealm != "" {
		realm := m.CurrentRealm
		s.CurrentRealm = &realm
	}

	for side, team := range t.MatchTeams(m) {
		if team == nil {
			continue
		}
		td := TeamData{
			ID:      team.ID.String(),
			Name:    team.Name,
			Seed:    team.Seed,
			Ready:   t.TeamReady(team),
			Wins:    m.Score[side],
			Players: []PlayerData{},
		}
		for i, p := range t.TeamPlayers(team) {
			if i == 0 {
				td.Avatar = p.User.Avatar
			}
			pd := PlayerData{Name: p.User.Name, ID: p.User.ID.String(), Status: "Offline", Legend: noLegend}
			if p.IsOnline() {
				pd.Status = "Online"
			}
			if p.CurrentLegend != "" {
				pd.Legend = p.CurrentLegend
			}
			td.Players = append(td.Players, pd)
		}
		s.Teams = append(s.Teams, td)
	}
	return s
}

// Delta extracts the named fields of a snapshot, keyed the way the full
// snapshot is serialized.
func Delta(s Snapshot, fields []engine.Field) map[string]any {
	out := make(map[string]any, len(fields))
	for _, f := range fields {
		switch f {
		case engine.FieldState:
			out[string(f)] = s.State
		case engine.FieldTeams:
			out[string(f)] = s.Teams
		case engine.FieldRealmBans:
			out[string(f)] = s.RealmBans
		case engine.FieldCurrentRealm:
			out[string(f)] = s.CurrentRealm
		case engine.FieldRoomNumber:
			out[string(f)] = s.RoomNumber
		}
	}
	return out
}

// Summary is one dashboard row.
type Summary struct {
	ID        int                 `json:"id"`
	T1Name    string              `json:"t1Name"`
	T2Name    string              `json:"t2Name"`
	Score     string              `json:"score"`
	Room      *int                `json:"room"`
	StartTime *time.Time          `json:"startTime"`
	Status    bracket.LobbyStatus `json:"status"`
}

func ScoreString(m *bracket.Match) string {
	parts := make([]string, len(m.Score))
	for i, s := range m.Score {
		parts[i] = fmt.Sprint(s)
	}
	return fmt.Sprintf("%s (Bo%d)", strings.Join(parts, "-"), m.BestOf)
}

// Dashboard lists every match, most urgent first.
func Dashboard(t *bracket.Tournament) ([]Summary, error) {
	rows := make([]Summary, 0, len(t.Matches()))
	for _, m := range t.Matches() {
		status, err := t.LobbyStatus(m)
		if err != nil {
			return nil, err
		}
		row := Summary{
			ID:        m.Number,
			Score:     ScoreString(m),
			Room:      m.RoomNumber,
			StartTime: m.StartTime,
			Status:    status,
		}
		teams := t.MatchTeams(m)
		if teams[0] != nil {
			row.T1Name = teams[0].Name
		}
		if teams[1] != nil {
			row.T2Name = teams[1].Name
		}
		rows = append(rows, row)
	}
	slices.SortStableFunc(rows, func(a, b Summary) int {
		return cmp.Or(cmp.Compare(a.Status.Sort, b.Status.Sort), cmp.Compare(a.ID, b.ID))
	})
	return rows, nil
}
