package bracket

type StateName string

const (
	StateBuilding          StateName = "building"
	StateWaitingForMatch   StateName = "waitingForMatch"
	StateWaitingForPlayers StateName = "waitingForPlayers"
	StatePickLegends       StateName = "pickLegends"
	StateChooseMap         StateName = "chooseMap"
	StateCreateRoom        StateName = "createRoom"
	StateInGame            StateName = "inGame"
	StateComplete          StateName = "complete"
)

// Cyclic reports whether the state belongs to the per-game loop. Once a
// match is in one of these it only moves forward through the ruleset.
func (n StateName) Cyclic() bool {
	switch n {
	case StatePickLegends, StateChooseMap, StateCreateRoom, StateInGame:
		return true
	}
	return false
}

type MapAction string

const (
	MapBan  MapAction = "ban"
	MapPick MapAction = "pick"
)

// State is the tagged lobby state. Name is the discriminant; the other
// fields are only set for the phase that uses them.
type State struct {
	Name StateName `json:"name"`

	// waitingForMatch
	MatchNumber int      `json:"matchNumber,omitempty"`
	TeamNames   []string `json:"teamNames,omitempty"`

	// pickLegends: user ids allowed to pick right now
	CanPick []string `json:"canPick,omitempty"`

	// chooseMap
	Action   MapAction `json:"action,omitempty"`
	TurnSide *int      `json:"turn,omitempty"`
	Count    int       `json:"count,omitempty"`

	// inGame
	Game int `json:"game,omitempty"`
}
