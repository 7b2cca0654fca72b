package report

import (
	"sync"

	petri "github.com/jt05610/xschema"
)

// Recorder keeps every report of a run in memory.
type Recorder struct {
	mu      sync.Mutex
	reports []*petri.StateReport
}

func NewRecorder() *Recorder {
	return &Recorder{reports: make([]*petri.StateReport, 0)}
}

func (rec *Recorder) Report(r *petri.StateReport) error {
	rec.mu.Lock()
	defer rec.mu.Unlock()
	rec.reports = append(rec.reports, r)
	return nil
}

func (rec *Recorder) Reports() []*petri.StateReport {
	rec.mu.Lock()
	defer rec.mu.Unlock()
	ret := make([]*petri.StateReport, len(rec.reports))
	copy(ret, rec.reports)
	return ret
}

// Lines renders the recorded run the way a FiringWriter writes it, header
// first, without line terminators.
func (rec *Recorder) Lines() []string {
	reports := rec.Reports()
	if len(reports) == 0 {
		return nil
	}
	cols := columns(reports[0])
	ret := make([]string, 0, len(reports)+1)
	ret = append(ret, header(cols))
	for _, r := range reports {
		ret = append(ret, row(cols, r))
	}
	return ret
}
