package show

// Event reports export progress. Agent is 1-indexed; Agent and Total are
// zero for events that are not per agent.
type Event struct {
	Stage string
	Agent int
	Total int
}

// Progress receives events. A nil Progress discards them.
type Progress func(Event)

// Emit sends an event if p is set.
func (p Progress) Emit(stage string, agent, total int) {
	if p != nil {
		p(Event{Stage: stage, Agent: agent, Total: total})
	}
}
