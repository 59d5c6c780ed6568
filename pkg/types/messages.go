package types

// Client -> Server
// Connecting to /ws?tournament=<shortName> with an X-User-ID header joins the
// tournament lobby. Players count as online while the socket is open.
//
// PickLegend:
//   legendId: string
//
// BanRealm / PickRealm:
//   realmId: string
//
// SetRoom:
//   roomNumber: number
//
// ReportScore (players of the match or tournament admins):
//   matchId: string   // required for admins
//   side: 0 | 1
//   games: number     // defaults to 1
//
// AdvanceLobby: {}     // leave the finished match room for the next one
//
// WatchLobby:
//   matchId: string

// Server -> Client
// LobbyData:        full lobby record (see snapshot.go), sent on joining a room
// UpdateLobbyData:  matchId + delta holding only the changed top-level keys
// LeaveRoom:        matchId of a room the client was moved out of
// MatchCompleted:   matchId
//
// Error:
//   error: string
