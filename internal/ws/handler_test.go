package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DoyleJ11/brawlbracket-backend/internal/bracket"
	"github.com/DoyleJ11/brawlbracket-backend/internal/engine"
	"github.com/DoyleJ11/brawlbracket-backend/internal/hub"
	"github.com/DoyleJ11/brawlbracket-backend/internal/lobby"
	"github.com/DoyleJ11/brawlbracket-backend/internal/types"
	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToLobbyMsg(t *testing.T) {
	matchID := uuid.New()
	cases := []struct {
		name string
		in   types.ClientMessage
		want lobby.Msg
	}{
		{
			name: "pick legend",
			in:   types.ClientMessage{Type: "PickLegend", LegendID: "ada"},
			want: lobby.FromClient{ClientID: "c", Cmd: engine.Command{Type: engine.CmdPickLegend, LegendID: "ada"}},
		},
		{
			name: "admin score report names the match",
			in:   types.ClientMessage{Type: "ReportScore", MatchID: matchID.String(), Side: 1, Games: 2},
			want: lobby.FromClient{ClientID: "c", Cmd: engine.Command{Type: engine.CmdReportScore, MatchID: matchID, Side: 1, Games: 2}},
		},
		{
			name: "watch",
			in:   types.ClientMessage{Type: "WatchLobby", MatchID: matchID.String()},
			want: lobby.Watch{ClientID: "c", MatchID: matchID},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := toLobbyMsg("c", tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}

	_, err := toLobbyMsg("c", types.ClientMessage{Type: "LockPick"})
	assert.ErrorIs(t, err, errUnknownType)
	_, err = toLobbyMsg("c", types.ClientMessage{Type: "BanRealm", MatchID: "nope"})
	assert.Error(t, err)
	_, err = toLobbyMsg("c", types.ClientMessage{Type: "WatchLobby"})
	assert.Error(t, err)
}

func setup(t *testing.T) (*httptest.Server, uuid.UUID) {
	t.Helper()
	tour := bracket.NewTournament("cup", "Cup")
	user := uuid.New()
	for seed := 1; seed <= 2; seed++ {
		team, err := tour.CreateTeam(seed, "Team")
		require.NoError(t, err)
		id := uuid.New()
		if seed == 1 {
			id = user
		}
		_, err = tour.CreatePlayer(team.ID, bracket.User{ID: id, Name: "p"})
		require.NoError(t, err)
	}
	_, err := engine.BuildBracket(tour)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	h := hub.NewHub(ctx, lobby.Options{})
	reply := make(chan hub.CreateReply, 1)
	h.Inbox() <- hub.CreateLobby{Tournament: tour, Reply: reply}
	<-reply

	srv := httptest.NewServer(Handler(h, Options{}))
	t.Cleanup(srv.Close)
	return srv, user
}

func dial(t *testing.T, srv *httptest.Server, query string, user uuid.UUID) *websocket.Conn {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?" + query
	conn, _, err := websocket.Dial(ctx, url, &websocket.DialOptions{
		HTTPHeader: http.Header{UserHeader: []string{user.String()}},
	})
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "") })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) types.ServerMessage {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, data, err := conn.Read(ctx)
	require.NoError(t, err)
	var msg types.ServerMessage
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

func TestHandler_JoinAndReject(t *testing.T) {
	srv, user := setup(t)
	conn := dial(t, srv, "tournament=cup", user)

	first := readMessage(t, conn)
	assert.Equal(t, "LobbyData", first.Type)
	assert.NotEmpty(t, first.MatchID)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, conn.Write(ctx, websocket.MessageText, []byte(`{"type":"PickLegend","legendId":"ada"}`)))
	reply := readMessage(t, conn)
	assert.Equal(t, "Error", reply.Type)
	assert.Contains(t, reply.Error, engine.ErrWrongState.Error())

	require.NoError(t, conn.Write(ctx, websocket.MessageText, []byte(`{"type":"Dance"}`)))
	assert.Equal(t, "unknown type", readMessage(t, conn).Error)

	require.NoError(t, conn.Write(ctx, websocket.MessageText, []byte(`not json`)))
	assert.Equal(t, "bad json", readMessage(t, conn).Error)
}

func TestHandler_RejectsBadRequests(t *testing.T) {
	srv, user := setup(t)

	cases := []struct {
		name   string
		query  string
		header string
		want   int
	}{
		{"missing tournament", "", user.String(), http.StatusBadRequest},
		{"missing user", "tournament=cup", "", http.StatusUnauthorized},
		{"unknown tournament", "tournament=nope", user.String(), http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req, err := http.NewRequest(http.MethodGet, srv.URL+"/?"+tc.query, nil)
			require.NoError(t, err)
			req.Header.Set(UserHeader, tc.header)
			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			resp.Body.Close()
			assert.Equal(t, tc.want, resp.StatusCode)
		})
	}
}
