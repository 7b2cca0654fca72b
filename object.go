package petri

import "github.com/google/uuid"

// Kind is the kind of a net component.
type Kind int

const (
	PlaceObject Kind = iota
	TransitionObject
	ArcObject
	TokenObject
)

func (k Kind) String() string {
	switch k {
	case PlaceObject:
		return "place"
	case TransitionObject:
		return "transition"
	case ArcObject:
		return "arc"
	case TokenObject:
		return "token"
	}
	return "unknown"
}

// Object is any named component of a net.
type Object interface {
	Kind() Kind
	String() string
}

// Node is a place or a transition, i.e. something an arc can connect.
type Node interface {
	Object
	IsNode()
}

// ID returns a new random identifier.
func ID() string {
	return uuid.New().String()
}
