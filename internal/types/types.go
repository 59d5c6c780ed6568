package types

type ClientMessage struct {
	Type       string `json:"type"`
	MatchID    string `json:"matchId,omitempty"`
	LegendID   string `json:"legendId,omitempty"`
	RealmID    string `json:"realmId,omitempty"`
	RoomNumber int    `json:"roomNumber,omitempty"`
	Side       int    `json:"side,omitempty"`
	Games      int    `json:"games,omitempty"`
}

type ServerMessage struct {
	Type    string         `json:"type"` // "LobbyData" | "UpdateLobbyData" | "LeaveRoom" | "MatchCompleted" | "Error"
	Version int            `json:"version,omitempty"`
	MatchID string         `json:"matchId,omitempty"`
	Lobby   any            `json:"lobby,omitempty"`
	Delta   map[string]any `json:"delta,omitempty"`
	Error   string         `json:"error,omitempty"`
}
