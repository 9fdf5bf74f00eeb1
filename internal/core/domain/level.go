package domain

// Level indexes the ordered privilege tiers. Zero is the lowest tier.
type Level int

const (
	LevelPlayer Level = iota
	LevelSupporter
	LevelModerator
	LevelOperator
	LevelAdministrator
	LevelDeveloper
	LevelCreator
)

// levels holds the tier labels in ascending order.
var levels = []string{"player", "supporter", "moderator", "operator", "administrator", "developer", "creator"}

// Levels returns a copy of the tier labels in ascending order.
func Levels() []string {
	out := make([]string, len(levels))
	copy(out, levels)
	return out
}

// Valid reports whether l names a known tier.
func (l Level) Valid() bool {
	return l >= 0 && int(l) < len(levels)
}

// String returns the tier label, or "unknown" for out-of-range levels.
func (l Level) String() string {
	if !l.Valid() {
		return "unknown"
	}
	return levels[l]
}

// ParseLevel resolves a tier label back to its Level.
func ParseLevel(label string) (Level, bool) {
	for i, name := range levels {
		if name == label {
			return Level(i), true
		}
	}
	return 0, false
}
