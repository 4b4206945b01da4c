package queue

import "sync"

// AlertThreshold is the number of consecutive queue observations needed
// before a source is reported.
const AlertThreshold = 3

// State is the hysteresis record of one source URL.
type State struct {
	ConsecutiveDetections int
	Alerted               bool
}

// Detector tracks queue state per source URL. It is held in memory only;
// a restart forgets any run of detections in progress.
type Detector struct {
	mu        sync.Mutex
	threshold int
	states    map[string]*State
}

func NewDetector() *Detector {
	return NewDetectorWithThreshold(AlertThreshold)
}

func NewDetectorWithThreshold(threshold int) *Detector {
	if threshold < 1 {
		threshold = 1
	}
	return &Detector{threshold: threshold, states: make(map[string]*State)}
}

// Observe records whether source is showing a waiting room this cycle and
// reports whether an alert should be sent now. It returns true at most once
// per unbroken run of detections.
func (d *Detector) Observe(source string, queued bool) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	st, ok := d.states[source]
	if !ok {
		st = &State{}
		d.states[source] = st
	}
	return Transition(st, queued, d.threshold)
}

// State returns a copy of the current record for source.
func (d *Detector) State(source string) State {
	d.mu.Lock()
	defer d.mu.Unlock()

	if st, ok := d.states[source]; ok {
		return *st
	}
	return State{}
}

// Transition applies one observation to st.
func Transition(st *State, queued bool, threshold int) bool {
	if !queued {
		st.ConsecutiveDetections = 0
		st.Alerted = false
		return false
	}

	if st.ConsecutiveDetections < threshold {
		st.ConsecutiveDetections++
	}
	if st.ConsecutiveDetections >= threshold && !st.Alerted {
		st.Alerted = true
		return true
	}
	return false
}
