package daemon

import "sync"

// The OS hook callbacks must reach the event loop without holding a
// reference to loop-owned state. A process-wide cell holds the current
// sink; it is replaced atomically and the previous sink stays valid for
// callbacks already in flight.
var (
	forwardMu   sync.Mutex
	forwardSink func(message)
)

// setForwarder installs the loop's message sink for hook callbacks.
func setForwarder(sink func(message)) {
	forwardMu.Lock()
	forwardSink = sink
	forwardMu.Unlock()
}

// forward posts a message through the current sink, if any. Called from
// OS threads.
func forward(msg message) {
	forwardMu.Lock()
	sink := forwardSink
	forwardMu.Unlock()
	if sink != nil {
		sink(msg)
	}
}
