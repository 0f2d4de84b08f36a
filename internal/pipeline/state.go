package pipeline

// State identifies where a Pipeline sits in its lifecycle, per the
// state machine in spec.md §4.5.
type State int32

const (
	StateCreated State = iota
	StateStarting
	StateRunning
	StateDrainingExtractor
	StateDrainingTransformers
	StateDrainingLoaders
	StateInterrupted
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "CREATED"
	case StateStarting:
		return "STARTING"
	case StateRunning:
		return "RUNNING"
	case StateDrainingExtractor:
		return "DRAINING(extractor done)"
	case StateDrainingTransformers:
		return "DRAINING(transformers done)"
	case StateDrainingLoaders:
		return "DRAINING(loaders done)"
	case StateInterrupted:
		return "INTERRUPTED"
	case StateClosed:
		return "CLOSED"
	default:
		return "UNKNOWN"
	}
}
