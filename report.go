package petri

// PlaceState is the marking of one place in a state report.
type PlaceState struct {
	Place  string         `json:"place"`
	Tokens map[string]int `json:"tokens"`
}

// StateReport is what the engine emits once per round.
type StateReport struct {
	RunID string `json:"run"`
	// Round is 0 for the snapshot taken before anything fires.
	Round int `json:"round"`
	// Transition is the qualified name of the transition fired this round.
	Transition string `json:"transition"`
	// Marking holds every place of the net ordered by place name.
	Marking []PlaceState `json:"marking"`
}

// Columns returns the place names of the report in column order.
func (r *StateReport) Columns() []string {
	ret := make([]string, len(r.Marking))
	for i, m := range r.Marking {
		ret[i] = m.Place
	}
	return ret
}

// Count returns the count of a token in a place, or 0.
func (r *StateReport) Count(place, token string) int {
	for _, m := range r.Marking {
		if m.Place == place {
			return m.Tokens[token]
		}
	}
	return 0
}

// Listener consumes state reports in round order.
type Listener interface {
	Report(r *StateReport) error
}

// ListenerFunc adapts a function to a Listener.
type ListenerFunc func(r *StateReport) error

func (f ListenerFunc) Report(r *StateReport) error { return f(r) }
