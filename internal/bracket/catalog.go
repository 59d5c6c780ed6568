package bracket

// ESLRealms is the realm pool used by ESL 1v1 events.
var ESLRealms = []string{
	"twilight",
	"kings",
	"thunder",
	"keep",
	"mammoth",
	"hall",
	"falls",
}

// Legends in the order they appear in game, random last.
var Legends = []string{
	"bodvar", "cassidy", "orion", "vraxx", "gnash", "nai", "hattori",
	"roland", "scarlet", "thatch", "ada", "sentinel", "lucien", "teros",
	"brynn", "asuri", "barraza", "ember", "azoth", "koji", "ulgrim",
	"random",
}
