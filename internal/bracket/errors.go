package bracket

import "errors"

var (
	ErrInvariant     = errors.New("bracket invariant violated")
	ErrUnknownMatch  = errors.New("match not in tournament")
	ErrUnknownTeam   = errors.New("team not in tournament")
	ErrUnknownPlayer = errors.New("player not in tournament")
	ErrMalformedTree = errors.New("malformed match tree")
	ErrDuplicateSeed = errors.New("seed already taken")
)
