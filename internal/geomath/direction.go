package geomath

import "strings"

// relativeMap translates colloquial relative tokens into compass directions.
// Relative movement is interpreted against a north-facing frame; callers
// with a real heading should resolve the frame before calling in.
var relativeMap = map[string]Direction{
	"forward":  North,
	"backward": South,
	"right":    East,
	"left":     West,
}

// hintTable matches free-text direction hints by substring. Spanish entries
// are kept alongside English because the product's conversational layer
// serves both.
var hintTable = []struct {
	substr string
	dir    Direction
}{
	{"derecha", East},
	{"right", East},
	{"izquierda", West},
	{"left", West},
	{"adelante", North},
	{"frente", North},
	{"forward", North},
	{"atrás", South},
	{"atras", South},
	{"back", South},
}

// NormalizeDirection resolves a direction token, optionally assisted by a
// free-text hint, into one of the 8 compass directions. The second return
// is false when the input was unrecognized and the documented default of
// North was applied; callers should treat that as low confidence rather
// than a resolved answer.
func NormalizeDirection(token, hint string) (Direction, bool) {
	switch d := Direction(strings.ToLower(strings.TrimSpace(token))); d {
	case North, South, East, West, Northeast, Northwest, Southeast, Southwest:
		return d, true
	}
	if d, ok := relativeMap[strings.ToLower(strings.TrimSpace(token))]; ok {
		return d, true
	}
	if hint != "" {
		lower := strings.ToLower(hint)
		for _, e := range hintTable {
			if strings.Contains(lower, e.substr) {
				return e.dir, true
			}
		}
	}
	return North, false
}
