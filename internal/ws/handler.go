package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/DoyleJ11/brawlbracket-backend/internal/engine"
	"github.com/DoyleJ11/brawlbracket-backend/internal/hub"
	"github.com/DoyleJ11/brawlbracket-backend/internal/lobby"
	"github.com/DoyleJ11/brawlbracket-backend/internal/types"
	"github.com/coder/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// UserHeader carries the id of the user the login layer authenticated.
const UserHeader = "X-User-ID"

const (
	writeTimeout = 3 * time.Second
	idleTimeout  = 60 * time.Second
)

var errUnknownType = errors.New("unknown type")

type Options struct {
	OutboxSize     int
	OriginPatterns []string
	Logger         *zap.Logger
}

func Handler(h *hub.Hub, opts Options) http.HandlerFunc {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.OutboxSize <= 0 {
		opts.OutboxSize = 16
	}

	return func(w http.ResponseWriter, r *http.Request) {
		name := r.URL.Query().Get("tournament")
		if name == "" {
			http.Error(w, "missing tournament", http.StatusBadRequest)
			return
		}
		userID, err := uuid.Parse(r.Header.Get(UserHeader))
		if err != nil {
			http.Error(w, "missing or malformed user id", http.StatusUnauthorized)
			return
		}

		reply := make(chan *lobby.Lobby, 1)
		h.Inbox() <- hub.GetLobby{Name: name, Reply: reply}
		lb := <-reply
		if lb == nil {
			http.Error(w, "tournament not found", http.StatusNotFound)
			return
		}

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns: opts.OriginPatterns,
		})
		if err != nil {
			opts.Logger.Debug("websocket accept", zap.Error(err))
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		log := opts.Logger.With(zap.String("tournament", name), zap.Stringer("user", userID))
		out := make(chan lobby.Update, opts.OutboxSize)
		clientID := uuid.NewString()

		lb.Inbox() <- lobby.Join{ClientID: clientID, UserID: userID, Outbox: out}
		defer func() { lb.Inbox() <- lobby.Leave{ClientID: clientID} }()

		// Writer goroutine
		writeCtx, writeCancel := context.WithCancel(r.Context())
		defer writeCancel()
		go func() {
			for upd := range out {
				payload, err := json.Marshal(toServerMessage(upd))
				if err != nil {
					log.Error("encode update", zap.Error(err))
					continue
				}
				ctx, cancel := context.WithTimeout(writeCtx, writeTimeout)
				err = conn.Write(ctx, websocket.MessageText, payload)
				cancel()
				if err != nil {
					return
				}
			}
			// The lobby closed our outbox: we were too slow or it shut down.
			conn.Close(websocket.StatusTryAgainLater, "lobby closed")
		}()

		// Reader loop
		for {
			ctx, cancel := context.WithTimeout(r.Context(), idleTimeout)
			_, data, err := conn.Read(ctx)
			cancel()
			if err != nil {
				switch websocket.CloseStatus(err) {
				case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				default:
					log.Debug("websocket read", zap.Error(err))
				}
				return
			}

			var cm types.ClientMessage
			if err := json.Unmarshal(data, &cm); err != nil {
				writeError(r.Context(), conn, "bad json")
				continue
			}

			msg, err := toLobbyMsg(clientID, cm)
			if err != nil {
				writeError(r.Context(), conn, err.Error())
				continue
			}
			lb.Inbox() <- msg
		}
	}
}

func writeError(ctx context.Context, conn *websocket.Conn, text string) {
	payload, _ := json.Marshal(types.ServerMessage{Type: string(lobby.UpdateError), Error: text})
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	_ = conn.Write(ctx, websocket.MessageText, payload)
}

func toServerMessage(upd lobby.Update) types.ServerMessage {
	msg := types.ServerMessage{Type: string(upd.Kind), Version: upd.Version, Delta: upd.Delta}
	if upd.MatchID != uuid.Nil {
		msg.MatchID = upd.MatchID.String()
	}
	if upd.Lobby != nil {
		msg.Lobby = upd.Lobby
	}
	if upd.Err != nil {
		msg.Error = upd.Err.Error()
	}
	return msg
}

func toLobbyMsg(clientID string, m types.ClientMessage) (lobby.Msg, error) {
	var matchID uuid.UUID
	if m.MatchID != "" {
		id, err := uuid.Parse(m.MatchID)
		if err != nil {
			return nil, fmt.Errorf("bad match id: %w", err)
		}
		matchID = id
	}

	if m.Type == "WatchLobby" {
		if matchID == uuid.Nil {
			return nil, errors.New("missing match id")
		}
		return lobby.Watch{ClientID: clientID, MatchID: matchID}, nil
	}

	cmd := engine.Command{MatchID: matchID}
	switch m.Type {
	case "PickLegend":
		cmd.Type, cmd.LegendID = engine.CmdPickLegend, m.LegendID
	case "BanRealm":
		cmd.Type, cmd.RealmID = engine.CmdBanRealm, m.RealmID
	case "PickRealm":
		cmd.Type, cmd.RealmID = engine.CmdPickRealm, m.RealmID
	case "SetRoom":
		cmd.Type, cmd.RoomNumber = engine.CmdSetRoom, m.RoomNumber
	case "ReportScore":
		cmd.Type, cmd.Side, cmd.Games = engine.CmdReportScore, m.Side, m.Games
	case "AdvanceLobby":
		cmd.Type = engine.CmdAdvanceLobby
	default:
		return nil, errUnknownType
	}
	return lobby.FromClient{ClientID: clientID, Cmd: cmd}, nil
}
