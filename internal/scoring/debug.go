package scoring

import "log"

// maxDebugPerKind caps diagnostic lines per category per scoring run, so a
// response sheet full of unmatched answers cannot flood the log.
const maxDebugPerKind = 5

// debugLog is scoped to a single scoring run. No cross-run state.
type debugLog struct {
	logger *log.Logger
	counts map[string]int
}

func newDebugLog(logger *log.Logger) *debugLog {
	return &debugLog{logger: logger, counts: map[string]int{}}
}

func (d *debugLog) notef(kind, format string, args ...interface{}) {
	d.counts[kind]++
	if d.logger == nil {
		return
	}
	n := d.counts[kind]
	if n <= maxDebugPerKind {
		d.logger.Printf("scoring: "+format, args...)
	}
	if n == maxDebugPerKind+1 {
		d.logger.Printf("scoring: further %q diagnostics suppressed for this run", kind)
	}
}
