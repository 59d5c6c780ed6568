package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/DoyleJ11/brawlbracket-backend/internal/bracket"
	"github.com/DoyleJ11/brawlbracket-backend/internal/engine"
	"github.com/DoyleJ11/brawlbracket-backend/internal/hub"
	"github.com/DoyleJ11/brawlbracket-backend/internal/lobby"
	"github.com/DoyleJ11/brawlbracket-backend/internal/store"
	"github.com/DoyleJ11/brawlbracket-backend/internal/ws"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const replyTimeout = 3 * time.Second

// TournamentStore keeps tournaments across restarts.
type TournamentStore interface {
	SaveTournament(ctx context.Context, t *bracket.Tournament) error
	DeleteTournament(ctx context.Context, shortName string) error
}

type Defaults struct {
	Ruleset string
	BestOf  int
}

type PlayerInput struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
}

type TeamInput struct {
	Name    string        `json:"name"`
	Seed    int           `json:"seed"`
	Players []PlayerInput `json:"players"`
}

type CreateTournamentRequest struct {
	ShortName   string      `json:"shortName"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Ruleset     string      `json:"ruleset"`
	BestOf      int         `json:"bestOf"`
	FinalBestOf int         `json:"finalBestOf"`
	RealmPool   []string    `json:"realmPool"`
	Admins      []string    `json:"admins"`
	Teams       []TeamInput `json:"teams"`
}

type CreateTournamentResponse struct {
	ShortName string `json:"shortName"`
	Matches   int    `json:"matches"`
}

var errBadRequest = errors.New("bad request")

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// buildTournament turns a create request into a bracketed tournament.
func buildTournament(req CreateTournamentRequest, defaults Defaults) (*bracket.Tournament, error) {
	req.ShortName = strings.TrimSpace(req.ShortName)
	if req.ShortName == "" || req.Name == "" {
		return nil, fmt.Errorf("%w: shortName and name are required", errBadRequest)
	}

	t := bracket.NewTournament(req.ShortName, req.Name)
	t.Description = req.Description
	t.Ruleset = defaults.Ruleset
	if req.Ruleset != "" {
		t.Ruleset = req.Ruleset
	}
	t.BestOf = defaults.BestOf
	if req.BestOf != 0 {
		t.BestOf = req.BestOf
	}
	for _, bestOf := range []int{t.BestOf, req.FinalBestOf} {
		if bestOf < 0 || (bestOf != 0 && bestOf%2 == 0) {
			return nil, fmt.Errorf("%w: best of %d must be odd", errBadRequest, bestOf)
		}
	}
	t.FinalBestOf = req.FinalBestOf
	if len(req.RealmPool) > 0 {
		t.RealmPool = req.RealmPool
	}

	for _, raw := range req.Admins {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: admin id %q", errBadRequest, raw)
		}
		t.AddAdmins(id)
	}

	seen := map[uuid.UUID]bool{}
	for _, in := range req.Teams {
		team, err := t.CreateTeam(in.Seed, in.Name)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", errBadRequest, err)
		}
		if len(in.Players) == 0 {
			return nil, fmt.Errorf("%w: team %q has no players", errBadRequest, in.Name)
		}
		for _, p := range in.Players {
			id, err := uuid.Parse(p.ID)
			if err != nil {
				return nil, fmt.Errorf("%w: player id %q", errBadRequest, p.ID)
			}
			if seen[id] {
				return nil, fmt.Errorf("%w: user %s is on more than one team", errBadRequest, id)
			}
			seen[id] = true
			if _, err := t.CreatePlayer(team.ID, bracket.User{ID: id, Name: p.Name, Avatar: p.Avatar}); err != nil {
				return nil, fmt.Errorf("%w: %v", errBadRequest, err)
			}
		}
	}

	if _, err := engine.BuildBracket(t); err != nil {
		if errors.Is(err, engine.ErrUnknownRuleset) {
			return nil, fmt.Errorf("%w: %v", errBadRequest, err)
		}
		return nil, err
	}
	return t, nil
}

func CreateTournament(h *hub.Hub, saver TournamentStore, defaults Defaults, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateTournamentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "bad json")
			return
		}

		t, err := buildTournament(req, defaults)
		if err != nil {
			if errors.Is(err, errBadRequest) {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
			log.Error("build bracket", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to build bracket")
			return
		}

		exists := make(chan *lobby.Lobby, 1)
		h.Inbox() <- hub.GetLobby{Name: t.ShortName, Reply: exists}
		if <-exists != nil {
			writeError(w, http.StatusConflict, "short name already taken")
			return
		}

		if saver != nil {
			if err := saver.SaveTournament(r.Context(), t); err != nil {
				log.Error("save tournament", zap.String("tournament", t.ShortName), zap.Error(err))
				writeError(w, http.StatusInternalServerError, "failed to save tournament")
				return
			}
		}

		reply := make(chan hub.CreateReply, 1)
		h.Inbox() <- hub.CreateLobby{Tournament: t, Reply: reply}
		if res := <-reply; !res.Created {
			writeError(w, http.StatusConflict, "short name already taken")
			return
		}

		writeJSON(w, http.StatusCreated, CreateTournamentResponse{ShortName: t.ShortName, Matches: len(t.Matches())})
	}
}

func ListTournaments(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reply := make(chan []string, 1)
		h.Inbox() <- hub.ListLobbies{Reply: reply}
		writeJSON(w, http.StatusOK, map[string][]string{"data": <-reply})
	}
}

// lookup resolves the {name} url param to a running lobby.
func lookup(h *hub.Hub, w http.ResponseWriter, r *http.Request) *lobby.Lobby {
	reply := make(chan *lobby.Lobby, 1)
	h.Inbox() <- hub.GetLobby{Name: chi.URLParam(r, "name"), Reply: reply}
	lb := <-reply
	if lb == nil {
		writeError(w, http.StatusNotFound, "tournament not found")
	}
	return lb
}

// ask sends msg to the lobby and waits for its reply.
func ask[T any](ctx context.Context, lb *lobby.Lobby, msg lobby.Msg, reply chan T) (T, error) {
	var zero T
	ctx, cancel := context.WithTimeout(ctx, replyTimeout)
	defer cancel()
	select {
	case lb.Inbox() <- msg:
	case <-ctx.Done():
		return zero, ctx.Err()
	}
	select {
	case v := <-reply:
		return v, nil
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

func Dashboard(h *hub.Hub, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lb := lookup(h, w, r)
		if lb == nil {
			return
		}
		reply := make(chan lobby.DashboardReply, 1)
		res, err := ask(r.Context(), lb, lobby.GetDashboard{Reply: reply}, reply)
		if err == nil {
			err = res.Err
		}
		if err != nil {
			log.Error("dashboard", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to build dashboard")
			return
		}
		writeJSON(w, http.StatusOK, map[string][]lobby.Summary{"data": res.Rows})
	}
}

func LobbySnapshot(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		number, err := strconv.Atoi(chi.URLParam(r, "number"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "match number must be an integer")
			return
		}
		lb := lookup(h, w, r)
		if lb == nil {
			return
		}
		reply := make(chan *lobby.Snapshot, 1)
		snap, err := ask(r.Context(), lb, lobby.GetLobby{Number: number, Reply: reply}, reply)
		if err != nil {
			writeError(w, http.StatusServiceUnavailable, "lobby busy")
			return
		}
		if snap == nil {
			writeError(w, http.StatusNotFound, "match not found")
			return
		}
		writeJSON(w, http.StatusOK, snap)
	}
}

func BracketDisplay(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lb := lookup(h, w, r)
		if lb == nil {
			return
		}
		reply := make(chan bracket.Display, 1)
		display, err := ask(r.Context(), lb, lobby.GetDisplay{Reply: reply}, reply)
		if err != nil {
			writeError(w, http.StatusServiceUnavailable, "lobby busy")
			return
		}
		writeJSON(w, http.StatusOK, display)
	}
}

func ResetBracket(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := uuid.Parse(r.Header.Get(ws.UserHeader))
		if err != nil {
			writeError(w, http.StatusUnauthorized, "missing or malformed user id")
			return
		}
		lb := lookup(h, w, r)
		if lb == nil {
			return
		}
		reply := make(chan error, 1)
		resetErr, err := ask(r.Context(), lb, lobby.Reset{UserID: userID, Reply: reply}, reply)
		switch {
		case err != nil:
			writeError(w, http.StatusServiceUnavailable, "lobby busy")
		case errors.Is(resetErr, lobby.ErrForbidden):
			writeError(w, http.StatusForbidden, resetErr.Error())
		case resetErr != nil:
			writeError(w, http.StatusInternalServerError, "failed to reset bracket")
		default:
			w.WriteHeader(http.StatusNoContent)
		}
	}
}

// RemoveTournament closes the tournament's lobby and forgets it. Admins only.
func RemoveTournament(h *hub.Hub, st TournamentStore, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := uuid.Parse(r.Header.Get(ws.UserHeader))
		if err != nil {
			writeError(w, http.StatusUnauthorized, "missing or malformed user id")
			return
		}
		lb := lookup(h, w, r)
		if lb == nil {
			return
		}
		reply := make(chan error, 1)
		authErr, err := ask(r.Context(), lb, lobby.Authorize{UserID: userID, Reply: reply}, reply)
		switch {
		case err != nil:
			writeError(w, http.StatusServiceUnavailable, "lobby busy")
			return
		case authErr != nil:
			writeError(w, http.StatusForbidden, authErr.Error())
			return
		}

		name := chi.URLParam(r, "name")
		if st != nil {
			if err := st.DeleteTournament(r.Context(), name); err != nil && !errors.Is(err, store.ErrNotFound) {
				log.Error("delete tournament", zap.String("tournament", name), zap.Error(err))
				writeError(w, http.StatusInternalServerError, "failed to delete tournament")
				return
			}
		}
		h.Inbox() <- hub.RemoveLobby{Name: name}
		log.Info("tournament removed", zap.String("tournament", name), zap.Stringer("by", userID))
		w.WriteHeader(http.StatusNoContent)
	}
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}
