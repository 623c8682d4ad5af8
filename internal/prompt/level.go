package prompt

import (
	"strings"

	"github.com/metcalfc/simplyread/internal/errors"
)

// Level is an ordinal readability target. Easy < Medium < Hard.
type Level int

const (
	Easy Level = iota + 1
	Medium
	Hard
)

var levelNames = map[Level]string{
	Easy:   "Easy",
	Medium: "Medium",
	Hard:   "Hard",
}

// Levels returns the selectable levels in ascending order.
func Levels() []Level {
	return []Level{Easy, Medium, Hard}
}

func (l Level) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return "Unknown"
}

// Valid reports whether l is one of the selectable levels.
func (l Level) Valid() bool {
	_, ok := levelNames[l]
	return ok
}

// ParseLevel accepts a level name in any case.
func ParseLevel(s string) (Level, error) {
	for l, name := range levelNames {
		if strings.EqualFold(strings.TrimSpace(s), name) {
			return l, nil
		}
	}
	return 0, errors.Newf("unknown difficulty level %q", s)
}
