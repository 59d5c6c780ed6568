package types

// LobbyData:
//   id: string
//   number: number
//   state: { name, matchNumber?, teamNames?, canPick?, action?, turn?, count?, game? }
//   chatId: string
//   realmBans: string[]
//   bestOf: number
//   startTime: ISO-8601 | null
//   roomNumber: number | null
//   currentRealm: string | null
//   teams: [{ id, name, seed, ready, wins, avatar,
//             players: [{ name, id, status: "Online" | "Offline", legend }] }]
//
// Dashboard row (GET /tournaments/{name}/lobbies):
//   id: number
//   t1Name, t2Name: string
//   score: "x-y (BoN)"
//   room: number | null
//   startTime: ISO-8601 | null
//   status: { stats, display, sort }
