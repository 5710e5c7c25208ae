package download

// validTransitions defines allowed state transitions.
// Key is the "from" status, value is the list of valid "to" statuses.
// done and error are terminal: late daemon events for finished jobs must
// not resurrect them.
var validTransitions = map[Status][]Status{
	StatusPending:     {StatusDownloading, StatusError},
	StatusDownloading: {StatusDone, StatusError},
	StatusDone:        {},
	StatusError:       {},
}

// CanTransitionTo returns true if transitioning from s to target is valid.
func (s Status) CanTransitionTo(target Status) bool {
	valid, ok := validTransitions[s]
	if !ok {
		return false
	}
	for _, v := range valid {
		if v == target {
			return true
		}
	}
	return false
}

// IsTerminal returns true if this status has no outgoing transitions.
func (s Status) IsTerminal() bool {
	return s == StatusDone || s == StatusError
}
