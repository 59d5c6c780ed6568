package lobby

import (
	"context"
	"errors"
	"time"

	"github.com/DoyleJ11/brawlbracket-backend/internal/bracket"
	"github.com/DoyleJ11/brawlbracket-backend/internal/engine"
	"github.com/DoyleJ11/brawlbracket-backend/internal/metrics"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

const persistTimeout = 3 * time.Second

var ErrForbidden = errors.New("only tournament admins may do that")

// Sink receives the matches touched by each applied command.
type Sink interface {
	SaveMatches(ctx context.Context, t *bracket.Tournament, ids []uuid.UUID) error
}

type Msg interface{ isLobbyMsg() }

// Join registers a connection. A user who plays in the tournament counts
// as online for as long as the connection stays joined.
type Join struct {
	ClientID string
	UserID   uuid.UUID
	Outbox   chan Update
}

func (Join) isLobbyMsg() {}

type Leave struct{ ClientID string }

func (Leave) isLobbyMsg() {}

type FromClient struct {
	ClientID string
	Cmd      engine.Command
}

func (FromClient) isLobbyMsg() {}

// Watch subscribes a client to a match room without playing in it.
type Watch struct {
	ClientID string
	MatchID  uuid.UUID
}

func (Watch) isLobbyMsg() {}

// Reset puts the whole bracket back to its starting placement. Only
// tournament admins may ask for it.
type Reset struct {
	UserID uuid.UUID
	Reply  chan error
}

func (Reset) isLobbyMsg() {}

// Authorize replies ErrForbidden unless the user administers the tournament.
type Authorize struct {
	UserID uuid.UUID
	Reply  chan error
}

func (Authorize) isLobbyMsg() {}

type Shutdown struct{}

func (Shutdown) isLobbyMsg() {}

type GetState struct {
	Reply chan View
}

func (GetState) isLobbyMsg() {}

type GetLobby struct {
	Number int
	Reply  chan *Snapshot // nil when no match has that number
}

func (GetLobby) isLobbyMsg() {}

type DashboardReply struct {
	Rows []Summary
	Err  error
}

type GetDashboard struct {
	Reply chan DashboardReply
}

func (GetDashboard) isLobbyMsg() {}

type GetDisplay struct {
	Reply chan bracket.Display
}

func (GetDisplay) isLobbyMsg() {}

type UpdateKind string

const (
	UpdateLobbyData      UpdateKind = "LobbyData"
	UpdateLobbyDelta     UpdateKind = "UpdateLobbyData"
	UpdateLeaveRoom      UpdateKind = "LeaveRoom"
	UpdateMatchCompleted UpdateKind = "MatchCompleted"
	UpdateError          UpdateKind = "Error"
)

// Update is one outbound message for a single client.
type Update struct {
	Kind    UpdateKind
	Version int
	MatchID uuid.UUID
	Lobby   *Snapshot
	Delta   map[string]any
	Err     error
}

type View struct {
	Version    int
	NumClients int
	Rooms      map[uuid.UUID]int // subscribers per match
}

type client struct {
	userID  uuid.UUID
	outbox  chan Update
	rooms   map[uuid.UUID]struct{}
	present bool
}

type Options struct {
	Sink    Sink
	Logger  *zap.Logger
	Metrics *metrics.Metrics
}

// Lobby serializes every command of one tournament. Commands for
// different tournaments run on different lobbies.
type Lobby struct {
	inbox   chan Msg
	t       *bracket.Tournament
	version int
	clients map[string]*client
	dropped []*client

	sink    Sink
	log     *zap.Logger
	metrics *metrics.Metrics

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

func NewLobby(parent context.Context, t *bracket.Tournament, opts Options) *Lobby {
	ctx, cancel := context.WithCancel(parent)
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.New(prometheus.NewRegistry())
	}

	l := &Lobby{
		inbox:   make(chan Msg, 64),
		t:       t,
		clients: make(map[string]*client),
		sink:    opts.Sink,
		log:     opts.Logger.With(zap.String("tournament", t.ShortName)),
		metrics: opts.Metrics,
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}

	go l.loop()
	return l
}

func (l *Lobby) loop() {
	defer close(l.done)
	for {
		select {
		case <-l.ctx.Done():
			l.shutdown()
			return

		case m := <-l.inbox:
			switch msg := m.(type) {
			case Join:
				l.join(msg)

			case Leave:
				c := l.clients[msg.ClientID]
				if c == nil {
					break
				}
				l.removeClient(msg.ClientID, c)
				l.disconnect(c)
				l.flushDropped()

			case FromClient:
				c := l.clients[msg.ClientID]
				if c == nil {
					break
				}
				cmd := msg.Cmd
				cmd.UserID = c.userID
				if cmd.Type == engine.CmdConnect || cmd.Type == engine.CmdDisconnect {
					l.reject(msg.ClientID, cmd.Type, engine.ErrUnsupportedCommand)
					break
				}
				events, err := engine.Apply(l.t, cmd)
				if err != nil {
					l.reject(msg.ClientID, cmd.Type, err)
					break
				}
				l.commit(msg.ClientID, cmd.Type, events)
				l.flushDropped()

			case Watch:
				c := l.clients[msg.ClientID]
				if c == nil {
					break
				}
				m := l.t.Match(msg.MatchID)
				if m == nil {
					l.send(msg.ClientID, c, Update{Kind: UpdateError, Err: bracket.ErrUnknownMatch})
					break
				}
				c.rooms[m.ID] = struct{}{}
				l.sendSnapshot(msg.ClientID, c, m)
				l.flushDropped()

			case GetState:
				rooms := map[uuid.UUID]int{}
				for _, c := range l.clients {
					for id := range c.rooms {
						rooms[id]++
					}
				}
				msg.Reply <- View{Version: l.version, NumClients: len(l.clients), Rooms: rooms}

			case GetLobby:
				var snap *Snapshot
				if m := l.t.MatchByNumber(msg.Number); m != nil {
					s := BuildSnapshot(l.t, m)
					snap = &s
				}
				msg.Reply <- snap

			case GetDashboard:
				rows, err := Dashboard(l.t)
				msg.Reply <- DashboardReply{Rows: rows, Err: err}

			case GetDisplay:
				msg.Reply <- l.t.Display()

			case Reset:
				msg.Reply <- l.reset(msg.UserID)
				l.flushDropped()

			case Authorize:
				if l.t.IsAdmin(msg.UserID) {
					msg.Reply <- nil
				} else {
					msg.Reply <- ErrForbidden
				}

			case Shutdown:
				l.shutdown()
				return
			}
		}
	}
}

func (l *Lobby) join(msg Join) {
	c := &client{userID: msg.UserID, outbox: msg.Outbox, rooms: map[uuid.UUID]struct{}{}}
	l.clients[msg.ClientID] = c
	l.metrics.ClientsConnected.Inc()

	events, err := engine.Apply(l.t, engine.Command{Type: engine.CmdConnect, UserID: msg.UserID})
	if errors.Is(err, engine.ErrNotInTournament) {
		// Spectators and admins only watch.
		return
	}
	if err != nil {
		l.reject(msg.ClientID, engine.CmdConnect, err)
		return
	}
	c.present = true
	l.commit(msg.ClientID, engine.CmdConnect, events)
	l.flushDropped()
}

func (l *Lobby) reset(userID uuid.UUID) error {
	if !l.t.IsAdmin(userID) {
		return ErrForbidden
	}
	if err := engine.Reset(l.t); err != nil {
		l.log.Error("reset bracket", zap.Error(err))
		return err
	}
	l.version++
	l.log.Info("bracket reset", zap.Stringer("by", userID))

	ids := make([]uuid.UUID, 0, len(l.t.Matches()))
	for _, m := range l.t.Matches() {
		ids = append(ids, m.ID)
	}
	for id, c := range l.clients {
		for matchID := range c.rooms {
			if m := l.t.Match(matchID); m != nil {
				l.sendSnapshot(id, c, m)
			}
		}
	}
	l.persist(ids)
	return nil
}

func (l *Lobby) disconnect(c *client) {
	if !c.present {
		return
	}
	c.present = false
	events, err := engine.Apply(l.t, engine.Command{Type: engine.CmdDisconnect, UserID: c.userID})
	if err != nil {
		l.reject("", engine.CmdDisconnect, err)
		return
	}
	l.commit("", engine.CmdDisconnect, events)
}

// flushDropped releases the presence held by clients dropped while
// broadcasting. Releasing it can broadcast again, so loop until empty.
func (l *Lobby) flushDropped() {
	for len(l.dropped) > 0 {
		c := l.dropped[0]
		l.dropped = l.dropped[1:]
		l.disconnect(c)
	}
}

// commit routes the events of an applied command and persists the
// matches they touched.
func (l *Lobby) commit(senderID string, cmd engine.CommandType, events []engine.Event) {
	l.metrics.CommandsApplied.WithLabelValues(string(cmd)).Inc()
	if len(events) == 0 {
		return
	}
	l.version++

	var touched []uuid.UUID
	for _, ev := range events {
		m := l.t.Match(ev.MatchID)
		if m == nil {
			l.log.Error("event for unknown match", zap.Stringer("match", ev.MatchID), zap.String("event", string(ev.Type)))
			continue
		}
		touched = appendUnique(touched, m.ID)

		switch ev.Type {
		case engine.EvtLobbyJoined:
			if c := l.clients[senderID]; c != nil {
				c.rooms[m.ID] = struct{}{}
				l.sendSnapshot(senderID, c, m)
			}

		case engine.EvtRoomLeft:
			if c := l.clients[senderID]; c != nil {
				delete(c.rooms, m.ID)
				l.send(senderID, c, Update{Kind: UpdateLeaveRoom, Version: l.version, MatchID: m.ID})
			}

		case engine.EvtLobbyUpdated:
			delta := Delta(BuildSnapshot(l.t, m), ev.Fields)
			l.broadcast(m.ID, senderID, ev.IncludeSelf, Update{
				Kind:    UpdateLobbyDelta,
				Version: l.version,
				MatchID: m.ID,
				Delta:   delta,
			})

		case engine.EvtMatchCompleted:
			l.log.Info("match complete", zap.Int("match", m.Number), zap.Stringer("winner", m.Winner))
			l.broadcast(m.ID, senderID, true, Update{Kind: UpdateMatchCompleted, Version: l.version, MatchID: m.ID})
		}
	}
	l.persist(touched)
}

func (l *Lobby) persist(ids []uuid.UUID) {
	if l.sink == nil || len(ids) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(l.ctx, persistTimeout)
	defer cancel()
	if err := l.sink.SaveMatches(ctx, l.t, ids); err != nil {
		l.metrics.PersistFailures.Inc()
		l.log.Warn("persist matches", zap.Error(err))
	}
}

func (l *Lobby) reject(senderID string, cmd engine.CommandType, err error) {
	reason := rejectReason(err)
	l.metrics.CommandsRejected.WithLabelValues(string(cmd), reason).Inc()
	if errors.Is(err, bracket.ErrInvariant) {
		l.log.Error("invariant violated", zap.String("command", string(cmd)), zap.Error(err))
	} else {
		l.log.Debug("command rejected", zap.String("command", string(cmd)), zap.String("reason", reason), zap.Error(err))
	}
	if c := l.clients[senderID]; c != nil {
		l.send(senderID, c, Update{Kind: UpdateError, Version: l.version, Err: err})
	}
}

func (l *Lobby) sendSnapshot(id string, c *client, m *bracket.Match) {
	snap := BuildSnapshot(l.t, m)
	l.send(id, c, Update{Kind: UpdateLobbyData, Version: l.version, MatchID: m.ID, Lobby: &snap})
}

func (l *Lobby) broadcast(matchID uuid.UUID, senderID string, includeSelf bool, upd Update) {
	for id, c := range l.clients {
		if _, ok := c.rooms[matchID]; !ok {
			continue
		}
		if id == senderID && !includeSelf {
			continue
		}
		l.send(id, c, upd)
	}
}

func (l *Lobby) send(id string, c *client, upd Update) {
	select {
	case c.outbox <- upd:
	default:
		// Client is slow/full - drop them.
		l.metrics.BroadcastsDropped.Inc()
		l.log.Debug("dropping slow client", zap.String("client", id))
		l.removeClient(id, c)
		l.dropped = append(l.dropped, c)
	}
}

func (l *Lobby) removeClient(id string, c *client) {
	if l.clients[id] != c {
		return
	}
	close(c.outbox)
	delete(l.clients, id)
	l.metrics.ClientsConnected.Dec()
}

func (l *Lobby) shutdown() {
	for id, c := range l.clients {
		l.removeClient(id, c)
	}
	l.cancel()
}

// Expose the inbox so tests or WS layer can send messages.
func (l *Lobby) Inbox() chan<- Msg { return l.inbox }

// Done is closed once the lobby loop has exited.
func (l *Lobby) Done() <-chan struct{} { return l.done }

func appendUnique(ids []uuid.UUID, id uuid.UUID) []uuid.UUID {
	for _, existing := range ids {
		if existing == id {
			return ids
		}
	}
	return append(ids, id)
}

func rejectReason(err error) string {
	reasons := []struct {
		err    error
		reason string
	}{
		{engine.ErrWrongTurn, "wrong_turn"},
		{engine.ErrWrongState, "wrong_state"},
		{engine.ErrNotInTournament, "not_in_tournament"},
		{engine.ErrNotInMatch, "not_in_match"},
		{engine.ErrIllegalLegend, "illegal_legend"},
		{engine.ErrIllegalRealm, "illegal_realm"},
		{engine.ErrIllegalRoom, "illegal_room"},
		{engine.ErrIllegalScore, "illegal_score"},
		{engine.ErrMatchComplete, "match_complete"},
		{engine.ErrEliminated, "eliminated"},
		{engine.ErrUnknownRuleset, "unknown_ruleset"},
		{engine.ErrUnsupportedCommand, "unsupported"},
		{bracket.ErrInvariant, "invariant"},
	}
	for _, r := range reasons {
		if errors.Is(err, r.err) {
			return r.reason
		}
	}
	return "other"
}
