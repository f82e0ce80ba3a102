package tracker

// severity ranks finished child states. Anything not listed ranks as error.
var severity = map[Status]int{
	StatusValidated: 1,
	StatusFailed:    2,
	StatusError:     3,
	StatusAborted:   4,
}

// Aggregate resolves a raw snapshot into a canonical status.
//
// While the envelope is queued or running its value is returned as is. Once the envelope
// reports done, the worst child outcome wins, because the envelope finishes before the
// children's verdicts are known to it.
func Aggregate(s Snapshot) Status {
	if s.Status.Active() {
		return s.Status
	}

	if len(s.Children) > 0 {
		worst := StatusValidated
		for _, child := range s.Children {
			state := childSeverityState(child.State)
			if severity[state] > severity[worst] {
				worst = state
			}
		}
		return worst
	}

	if s.Status.Terminal() {
		return s.Status
	}
	// Generic done marker with no children to inspect.
	return StatusValidated
}

func childSeverityState(s Status) Status {
	if _, ok := severity[s]; ok {
		return s
	}
	return StatusError
}
