package retrieval

// Logger is the narrow logging seam retrieval diagnostics are written
// through, matching the teacher's plain log.Printf-style call sites instead
// of pulling a structured logging dependency into a pure-function package.
type Logger interface {
	Printf(format string, args ...any)
}

// Diagnostic summarizes one Evaluate run for observability: how many
// candidates were considered, how many survived each stage, how often each
// signal fired among gate-passing candidates, and which ids were ultimately
// selected and why.
type Diagnostic struct {
	CandidateCount     int
	PassedPreFilter    int
	PassedGate         int
	SignalActivations  SignalCounts
	SelectedIDs        []string
	BackfilledIDs      []string
}

// SignalCounts tallies how many gate-passing candidates fired each signal.
type SignalCounts struct {
	Trigger int
	Tags    int
	Domain  int
	Feature int
	Content int
	Vector  int
}

func (d *Diagnostic) recordGatePass(s Signals) {
	d.PassedGate++
	if s.Trigger {
		d.SignalActivations.Trigger++
	}
	if s.Tags {
		d.SignalActivations.Tags++
	}
	if s.Domain {
		d.SignalActivations.Domain++
	}
	if s.Feature {
		d.SignalActivations.Feature++
	}
	if s.Content {
		d.SignalActivations.Content++
	}
	if s.Vector {
		d.SignalActivations.Vector++
	}
}

// Log emits a one-line summary through l, matching the teacher's terse
// request-scoped log lines. A nil Logger is a no-op.
func (d Diagnostic) Log(l Logger) {
	if l == nil {
		return
	}
	l.Printf("retrieval: candidates=%d prefilter=%d gate=%d selected=%d backfilled=%d signals(trigger=%d tags=%d domain=%d feature=%d content=%d vector=%d)",
		d.CandidateCount, d.PassedPreFilter, d.PassedGate, len(d.SelectedIDs), len(d.BackfilledIDs),
		d.SignalActivations.Trigger, d.SignalActivations.Tags, d.SignalActivations.Domain,
		d.SignalActivations.Feature, d.SignalActivations.Content, d.SignalActivations.Vector)
}
