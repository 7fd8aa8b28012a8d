package models

import "fmt"

// Kind classifies courses and rooms as lecture or lab.
type Kind string

const (
	KindLecture Kind = "lecture"
	KindLab     Kind = "lab"
)

// ParseKind resolves a raw kind string. An empty value defaults to lecture,
// matching the historical data where most records carry no explicit type.
func ParseKind(raw string) (Kind, error) {
	switch raw {
	case "":
		return KindLecture, nil
	case string(KindLecture), string(KindLab):
		return Kind(raw), nil
	default:
		return "", fmt.Errorf("unknown kind %q", raw)
	}
}

// Compatible reports whether a course of the given kind may be scheduled in a
// room of the given kind. Lab courses require lab rooms; lecture courses are
// excluded from lab rooms.
func Compatible(course, room Kind) bool {
	if course == KindLab {
		return room == KindLab
	}
	return room != KindLab
}
