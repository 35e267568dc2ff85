package periodogram

// ProgressReporter observes the engine. Advance may be called concurrently and
// out of window order when more than one worker is running.
type ProgressReporter interface {
	Start(total int)
	Advance(window int)
	Finish()
}

type nopProgress struct{}

func (nopProgress) Start(int)   {}
func (nopProgress) Advance(int) {}
func (nopProgress) Finish()     {}
