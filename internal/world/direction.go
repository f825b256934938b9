package world

// Directions is the closed set of standard exit tokens, in display order.
// Named exits ("portal") are allowed in room data but have no short form.
var Directions = []string{
	"north", "south", "east", "west", "up", "down",
	"northeast", "northwest", "southeast", "southwest",
}

var directionAliases = map[string]string{
	"n": "north", "s": "south", "e": "east", "w": "west",
	"u": "up", "d": "down",
	"ne": "northeast", "nw": "northwest",
	"se": "southeast", "sw": "southwest",
}

var reverseDirection = map[string]string{
	"north": "south", "south": "north",
	"east": "west", "west": "east",
	"up": "down", "down": "up",
	"northeast": "southwest", "southwest": "northeast",
	"northwest": "southeast", "southeast": "northwest",
}

// NormalizeDirection expands a short direction token. Reports whether the
// token is one of the standard directions.
func NormalizeDirection(tok string) (string, bool) {
	if full, ok := directionAliases[tok]; ok {
		return full, true
	}
	for _, d := range Directions {
		if d == tok {
			return d, true
		}
	}
	return tok, false
}

// ReverseDirection returns the opposite direction for arrival messages;
// named exits return "".
func ReverseDirection(dir string) string { return reverseDirection[dir] }
