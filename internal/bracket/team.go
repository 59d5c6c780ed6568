package bracket

import (
	"fmt"

	"github.com/google/uuid"
)

// User is the identity handed to us by the login collaborator.
type User struct {
	ID     uuid.UUID `json:"id"`
	Name   string    `json:"name"`
	Avatar string    `json:"avatar"`
}

// Team is a seeded entry in the tournament.
type Team struct {
	ID         uuid.UUID
	Seed       int
	Name       string
	Players    []uuid.UUID
	Eliminated bool
	CheckedIn  bool
}

func (t *Team) String() string {
	return fmt.Sprintf("%s (%d)", t.Name, t.Seed)
}

// Player is one member of a team, bound to a single user.
type Player struct {
	ID            uuid.UUID
	TeamID        uuid.UUID
	User          User
	CurrentLegend string
	AdminChatID   *uuid.UUID

	// Number of live connections, not persisted.
	Online int
}

func (p *Player) IsOnline() bool { return p.Online > 0 }

func (p *Player) Connect() { p.Online++ }

func (p *Player) Disconnect() error {
	if p.Online <= 0 {
		return fmt.Errorf("%w: player %s disconnected with no live connection", ErrInvariant, p.ID)
	}
	p.Online--
	return nil
}
