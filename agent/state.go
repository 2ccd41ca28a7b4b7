package agent

import "fmt"

// State is a phase of an agent run.
type State int

const (
	StatePlanning State = iota
	StateToolCalling
	StateFinalizing
	StateDone
)

func (s State) String() string {
	switch s {
	case StatePlanning:
		return "planning"
	case StateToolCalling:
		return "tool_calling"
	case StateFinalizing:
		return "finalizing"
	case StateDone:
		return "done"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Termination records why a run stopped.
type Termination int

const (
	TerminationNone Termination = iota
	TerminationSuccess
	TerminationParseError
	TerminationMaxIterations
	TerminationProviderError
	TerminationEmptyResponse
)

func (t Termination) String() string {
	switch t {
	case TerminationNone:
		return "none"
	case TerminationSuccess:
		return "success"
	case TerminationParseError:
		return "parse_error"
	case TerminationMaxIterations:
		return "max_iterations"
	case TerminationProviderError:
		return "provider_error"
	case TerminationEmptyResponse:
		return "empty_response"
	}
	return fmt.Sprintf("termination(%d)", int(t))
}

func (t Termination) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// machine tracks the state of one run. Transitions out of StateDone are
// ignored so the first terminal reason sticks.
type machine struct {
	state       State
	termination Termination
	iteration   int
	max         int
}

func newMachine(maxIterations int) *machine {
	return &machine{state: StatePlanning, max: maxIterations}
}

// next starts a model turn. It returns false, and terminates the run, when
// the iteration ceiling has been reached.
func (m *machine) next() bool {
	if m.done() {
		return false
	}
	if m.iteration >= m.max {
		m.finish(TerminationMaxIterations)
		return false
	}
	m.iteration++
	return true
}

// toolCalls records that the model asked for tools this turn.
func (m *machine) toolCalls() {
	if m.done() {
		return
	}
	m.state = StateToolCalling
}

// finalize records that the model answered without tool calls.
func (m *machine) finalize() {
	if m.done() {
		return
	}
	m.state = StateFinalizing
}

func (m *machine) finish(t Termination) {
	if m.done() {
		return
	}
	m.state = StateDone
	m.termination = t
}

func (m *machine) done() bool {
	return m.state == StateDone
}
