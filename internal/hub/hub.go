package hub

import (
	"context"
	"slices"

	"github.com/DoyleJ11/brawlbracket-backend/internal/bracket"
	"github.com/DoyleJ11/brawlbracket-backend/internal/lobby"
	"go.uber.org/zap"
)

type HubMsg interface{ isHubMsg() }

type CreateReply struct {
	Lobby   *lobby.Lobby
	Created bool // false when the short name was already taken
}

// CreateLobby starts a lobby for the tournament under its short name.
type CreateLobby struct {
	Tournament *bracket.Tournament
	Reply      chan CreateReply
}

type GetLobby struct {
	Name  string
	Reply chan *lobby.Lobby
}

type ListLobbies struct {
	Reply chan []string
}

type RemoveLobby struct {
	Name string
}

type ShutdownHub struct{}

func (CreateLobby) isHubMsg() {}
func (GetLobby) isHubMsg()    {}
func (ListLobbies) isHubMsg() {}
func (RemoveLobby) isHubMsg() {}
func (ShutdownHub) isHubMsg() {}

// Hub owns the lobby of every live tournament.
type Hub struct {
	inbox   chan HubMsg
	lobbies map[string]*lobby.Lobby
	opts    lobby.Options
	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}
}

func NewHub(parent context.Context, opts lobby.Options) *Hub {
	ctx, cancel := context.WithCancel(parent)
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	h := &Hub{
		inbox:   make(chan HubMsg, 64),
		lobbies: make(map[string]*lobby.Lobby),
		opts:    opts,
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	go h.loop()
	return h
}

func (h *Hub) Inbox() chan<- HubMsg { return h.inbox }

// Done is closed once every lobby has been told to stop.
func (h *Hub) Done() <-chan struct{} { return h.done }

func (h *Hub) loop() {
	defer close(h.done)
	for {
		select {
		case <-h.ctx.Done():
			h.shutdown()
			return

		case m := <-h.inbox:
			switch msg := m.(type) {
			case CreateLobby:
				name := msg.Tournament.ShortName
				if lb := h.lobbies[name]; lb != nil {
					msg.Reply <- CreateReply{Lobby: lb}
					break
				}
				lb := lobby.NewLobby(h.ctx, msg.Tournament, h.opts)
				h.lobbies[name] = lb
				h.setOpen()
				h.opts.Logger.Info("tournament lobby started", zap.String("tournament", name))
				msg.Reply <- CreateReply{Lobby: lb, Created: true}

			case GetLobby:
				msg.Reply <- h.lobbies[msg.Name] // May be nil

			case ListLobbies:
				names := make([]string, 0, len(h.lobbies))
				for name := range h.lobbies {
					names = append(names, name)
				}
				slices.Sort(names)
				msg.Reply <- names

			case RemoveLobby:
				if lb := h.lobbies[msg.Name]; lb != nil {
					lb.Inbox() <- lobby.Shutdown{}
					delete(h.lobbies, msg.Name)
					h.setOpen()
				}

			case ShutdownHub:
				h.shutdown()
				return
			}
		}
	}
}

func (h *Hub) shutdown() {
	for _, lb := range h.lobbies {
		select {
		case lb.Inbox() <- lobby.Shutdown{}:
		case <-lb.Done():
		}
	}
	clear(h.lobbies)
	h.setOpen()
	h.cancel()
}

func (h *Hub) setOpen() {
	if h.opts.Metrics != nil {
		h.opts.Metrics.LobbiesOpen.Set(float64(len(h.lobbies)))
	}
}
