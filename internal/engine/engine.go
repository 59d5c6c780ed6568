package engine

import (
	"errors"
	"fmt"
	"slices"

	"github.com/DoyleJ11/brawlbracket-backend/internal/bracket"
	"github.com/google/uuid"
)

var ErrWrongState = errors.New("match is not in a state that accepts this command")
var ErrWrongTurn = errors.New("not your turn")
var ErrNotInTournament = errors.New("user does not play in this tournament")
var ErrNotInMatch = errors.New("user is not part of this match")
var ErrIllegalLegend = errors.New("illegal legend")
var ErrIllegalRealm = errors.New("illegal realm")
var ErrIllegalRoom = errors.New("illegal room number")
var ErrIllegalScore = errors.New("illegal score")
var ErrMatchComplete = errors.New("match already completed")
var ErrEliminated = errors.New("team is eliminated")
var ErrUnknownRuleset = errors.New("unknown ruleset")
var ErrUnsupportedCommand = errors.New("unsupported command")

type CommandType string

const (
	CmdConnect      CommandType = "Connect"
	CmdDisconnect   CommandType = "Disconnect"
	CmdPickLegend   CommandType = "PickLegend"
	CmdBanRealm     CommandType = "BanRealm"
	CmdPickRealm    CommandType = "PickRealm"
	CmdSetRoom      CommandType = "SetRoom"
	CmdReportScore  CommandType = "ReportScore"
	CmdAdvanceLobby CommandType = "AdvanceLobby"
)

type Command struct {
	Type   CommandType
	UserID uuid.UUID

	// Optional for Connect/Disconnect, where the match is resolved from
	// the user. When set it must match.
	MatchID uuid.UUID

	LegendID   string
	RealmID    string
	RoomNumber int

	// ReportScore: the side that won and how many games to add (default 1).
	Side  int
	Games int
}

// Field names a part of the lobby snapshot that changed.
type Field string

const (
	FieldState        Field = "state"
	FieldTeams        Field = "teams"
	FieldRealmBans    Field = "realmBans"
	FieldCurrentRealm Field = "currentRealm"
	FieldRoomNumber   Field = "roomNumber"
)

type EventType string

const (
	EvtLobbyJoined    EventType = "LobbyJoined"
	EvtLobbyUpdated   EventType = "LobbyUpdated"
	EvtRoomLeft       EventType = "RoomLeft"
	EvtMatchCompleted EventType = "MatchCompleted"
)

// Event tells the transport what to send. LobbyJoined and RoomLeft are
// addressed to the sender only; LobbyUpdated goes to everyone in the
// match room, the sender included when IncludeSelf is set.
type Event struct {
	Type        EventType
	MatchID     uuid.UUID
	Fields      []Field
	IncludeSelf bool
}

// Apply validates and applies one command. On error nothing in the
// tournament has changed.
func Apply(t *bracket.Tournament, cmd Command) ([]Event, error) {
	switch cmd.Type {
	case CmdConnect:
		return connect(t, cmd)
	case CmdDisconnect:
		return disconnect(t, cmd)
	case CmdPickLegend:
		return pickLegend(t, cmd)
	case CmdBanRealm:
		return banRealm(t, cmd)
	case CmdPickRealm:
		return pickRealm(t, cmd)
	case CmdSetRoom:
		return setRoom(t, cmd)
	case CmdReportScore:
		return reportScore(t, cmd)
	case CmdAdvanceLobby:
		return advanceLobby(t, cmd)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedCommand, cmd.Type)
	}
}

func connect(t *bracket.Tournament, cmd Command) ([]Event, error) {
	m, _, p, err := presence(t, cmd)
	if err != nil {
		return nil, err
	}
	if m == nil {
		p.Connect()
		return nil, nil
	}

	cp := takeCheckpoint(t, m)
	p.Connect()
	if err := Recompute(t, m); err != nil {
		cp.restore()
		return nil, err
	}
	return []Event{
		{Type: EvtLobbyJoined, MatchID: m.ID},
		{Type: EvtLobbyUpdated, MatchID: m.ID, Fields: []Field{FieldState, FieldTeams}},
	}, nil
}

func disconnect(t *bracket.Tournament, cmd Command) ([]Event, error) {
	m, _, p, err := presence(t, cmd)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, p.Disconnect()
	}

	cp := takeCheckpoint(t, m)
	if err := p.Disconnect(); err != nil {
		return nil, err
	}
	if err := Recompute(t, m); err != nil {
		cp.restore()
		return nil, err
	}
	return []Event{
		{Type: EvtLobbyUpdated, MatchID: m.ID, Fields: []Field{FieldState, FieldTeams}},
	}, nil
}

// presence resolves the match a connect or disconnect is about. A nil
// match means only the presence counter changes.
func presence(t *bracket.Tournament, cmd Command) (*bracket.Match, *bracket.Team, *bracket.Player, error) {
	m, team, p, ok := t.UserInfo(cmd.UserID)
	if !ok {
		return nil, nil, nil, fmt.Errorf("%w: %s", ErrNotInTournament, cmd.UserID)
	}
	if cmd.MatchID != uuid.Nil && (m == nil || m.ID != cmd.MatchID) {
		if team.Eliminated {
			return nil, team, p, nil
		}
		return nil, nil, nil, fmt.Errorf("%w: %s", ErrNotInMatch, cmd.MatchID)
	}
	return m, team, p, nil
}

func pickLegend(t *bracket.Tournament, cmd Command) ([]Event, error) {
	m, _, p, err := participant(t, cmd)
	if err != nil {
		return nil, err
	}
	if m.State.Name != bracket.StatePickLegends {
		return nil, fmt.Errorf("%w: %s", ErrWrongState, m.State.Name)
	}
	if !slices.Contains(m.State.CanPick, cmd.UserID.String()) {
		return nil, ErrWrongTurn
	}
	if !slices.Contains(legendRoster(t), cmd.LegendID) {
		return nil, fmt.Errorf("%w: %q", ErrIllegalLegend, cmd.LegendID)
	}

	return mutate(t, m, func() {
		p.CurrentLegend = cmd.LegendID
	}, FieldState, FieldTeams)
}

func banRealm(t *bracket.Tournament, cmd Command) ([]Event, error) {
	m, err := mapTurn(t, cmd, bracket.MapBan)
	if err != nil {
		return nil, err
	}
	return mutate(t, m, func() {
		m.RealmBans = append(m.RealmBans, cmd.RealmID)
	}, FieldState, FieldRealmBans, FieldCurrentRealm)
}

func pickRealm(t *bracket.Tournament, cmd Command) ([]Event, error) {
	m, err := mapTurn(t, cmd, bracket.MapPick)
	if err != nil {
		return nil, err
	}
	return mutate(t, m, func() {
		m.CurrentRealm = cmd.RealmID
	}, FieldState, FieldCurrentRealm)
}

// mapTurn checks that the sender's side is the one the ruleset is waiting
// on for the given action and that the realm is still available.
func mapTurn(t *bracket.Tournament, cmd Command, action bracket.MapAction) (*bracket.Match, error) {
	m, team, _, err := participant(t, cmd)
	if err != nil {
		return nil, err
	}
	s := m.State
	if s.Name != bracket.StateChooseMap || s.Action != action {
		return nil, fmt.Errorf("%w: %s", ErrWrongState, s.Name)
	}
	if s.TurnSide == nil || m.SideOf(team.ID) != *s.TurnSide {
		return nil, ErrWrongTurn
	}
	if !slices.Contains(t.RealmPool, cmd.RealmID) || m.IsRealmBanned(cmd.RealmID) {
		return nil, fmt.Errorf("%w: %q", ErrIllegalRealm, cmd.RealmID)
	}
	return m, nil
}

func setRoom(t *bracket.Tournament, cmd Command) ([]Event, error) {
	m, err := participantOrAdmin(t, cmd)
	if err != nil {
		return nil, err
	}
	if m.State.Name != bracket.StateCreateRoom {
		return nil, fmt.Errorf("%w: %s", ErrWrongState, m.State.Name)
	}
	if cmd.RoomNumber <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrIllegalRoom, cmd.RoomNumber)
	}

	room := cmd.RoomNumber
	return mutate(t, m, func() {
		m.RoomNumber = &room
	}, FieldState, FieldRoomNumber)
}

func reportScore(t *bracket.Tournament, cmd Command) ([]Event, error) {
	m, err := participantOrAdmin(t, cmd)
	if err != nil {
		return nil, err
	}
	if m.State.Name == bracket.StateComplete {
		return nil, ErrMatchComplete
	}
	if !m.State.Name.Cyclic() {
		return nil, fmt.Errorf("%w: %s", ErrWrongState, m.State.Name)
	}
	games := cmd.Games
	if games == 0 {
		games = 1
	}
	if cmd.Side < 0 || cmd.Side > 1 || games < 0 {
		return nil, fmt.Errorf("%w: side %d, games %d", ErrIllegalScore, cmd.Side, games)
	}
	if m.Score[cmd.Side]+games > m.WinsNeeded() {
		return nil, fmt.Errorf("%w: side %d would have %d of %d wins",
			ErrIllegalScore, cmd.Side, m.Score[cmd.Side]+games, m.WinsNeeded())
	}

	events, err := mutate(t, m, func() {
		m.Score[cmd.Side] += games
		m.LastGameWinner = cmd.Side
	}, FieldState, FieldTeams, FieldRealmBans, FieldCurrentRealm)
	if err != nil {
		return nil, err
	}

	if m.State.Name == bracket.StateComplete {
		events = append(events, Event{Type: EvtMatchCompleted, MatchID: m.ID})
		if next := t.NextMatch(m); next != nil {
			events = append(events, Event{
				Type:    EvtLobbyUpdated,
				MatchID: next.ID,
				Fields:  []Field{FieldState, FieldTeams},
			})
		}
	}
	return events, nil
}

// advanceLobby moves a user still watching their previous match into the
// one they advanced to. Nothing in the bracket changes.
func advanceLobby(t *bracket.Tournament, cmd Command) ([]Event, error) {
	m, team, _, ok := t.UserInfo(cmd.UserID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotInTournament, cmd.UserID)
	}
	if team.Eliminated {
		return nil, ErrEliminated
	}
	if m == nil {
		return nil, ErrNotInMatch
	}
	for side := range m.Prereqs {
		prev := t.Prereq(m, side)
		if prev != nil && prev.SideOf(team.ID) >= 0 {
			return []Event{
				{Type: EvtRoomLeft, MatchID: prev.ID},
				{Type: EvtLobbyJoined, MatchID: m.ID},
			}, nil
		}
	}
	return nil, fmt.Errorf("%w: no previous match to advance from", ErrNotInMatch)
}

// participant resolves the sender's active match and checks it is the
// one the command names.
func participant(t *bracket.Tournament, cmd Command) (*bracket.Match, *bracket.Team, *bracket.Player, error) {
	m, team, p, ok := t.UserInfo(cmd.UserID)
	if !ok {
		return nil, nil, nil, fmt.Errorf("%w: %s", ErrNotInTournament, cmd.UserID)
	}
	if m == nil || (cmd.MatchID != uuid.Nil && m.ID != cmd.MatchID) {
		return nil, nil, nil, ErrNotInMatch
	}
	return m, team, p, nil
}

// participantOrAdmin lets tournament admins act on any match by id.
func participantOrAdmin(t *bracket.Tournament, cmd Command) (*bracket.Match, error) {
	if t.IsAdmin(cmd.UserID) && cmd.MatchID != uuid.Nil {
		m := t.Match(cmd.MatchID)
		if m == nil {
			return nil, fmt.Errorf("%w: %s", bracket.ErrUnknownMatch, cmd.MatchID)
		}
		return m, nil
	}
	m, _, _, err := participant(t, cmd)
	return m, err
}

// mutate applies change, recomputes the match and rolls everything back
// if the recompute fails.
func mutate(t *bracket.Tournament, m *bracket.Match, change func(), fields ...Field) ([]Event, error) {
	cp := takeCheckpoint(t, m)
	change()
	if err := Recompute(t, m); err != nil {
		cp.restore()
		return nil, err
	}
	return []Event{{Type: EvtLobbyUpdated, MatchID: m.ID, Fields: fields, IncludeSelf: true}}, nil
}

func legendRoster(t *bracket.Tournament) []string {
	if len(t.Legends) > 0 {
		return t.Legends
	}
	return bracket.Legends
}
