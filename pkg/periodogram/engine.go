package periodogram

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"slices"
	"sync"

	"github.com/rs/zerolog"
)

// Engine computes one spectrum per window and stacks them into a Matrix.
type Engine struct {
	Estimator Estimator
	// Workers bounds the number of windows estimated at once. Zero means
	// runtime.NumCPU(); one runs serially.
	Workers  int
	Progress ProgressReporter
	Logger   zerolog.Logger
}

// NewEngine returns an engine around est with one worker per CPU and no logging.
func NewEngine(est Estimator) *Engine {
	return &Engine{
		Estimator: est,
		Progress:  nopProgress{},
		Logger:    zerolog.Nop(),
	}
}

// Run fills a len(windows) x len(frequencies) matrix. A window whose estimate
// fails with ErrDegenerateWindow keeps a zero row and is reported in the
// returned failures, ordered by window index. Any other estimator error stops
// the run.
func (e *Engine) Run(ctx context.Context, lc LightCurve, windows []Window, frequencies []float64, unit FrequencyUnit, norm Normalization) (*Matrix, []WindowFailure, error) {
	if e.Estimator == nil {
		return nil, nil, errors.New("periodogram: engine has no estimator")
	}
	progress := e.Progress
	if progress == nil {
		progress = nopProgress{}
	}

	m := NewMatrix(len(windows), len(frequencies))
	progress.Start(len(windows))
	defer progress.Finish()
	if len(windows) == 0 {
		return m, nil, nil
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		mu       sync.Mutex
		failures []WindowFailure
		firstErr error
		wg       sync.WaitGroup
	)
	jobs := make(chan int)
	for w := 0; w < e.workerCount(len(windows)); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				failure, err := e.estimateWindow(runCtx, lc, i, windows[i], frequencies, unit, norm, m.Row(i))
				if err != nil {
					mu.Lock()
					if firstErr == nil {
						firstErr = err
						cancel()
					}
					mu.Unlock()
					continue
				}
				if failure != nil {
					mu.Lock()
					failures = append(failures, *failure)
					mu.Unlock()
				}
				progress.Advance(i)
			}
		}()
	}

dispatch:
	for i := range windows {
		select {
		case jobs <- i:
		case <-runCtx.Done():
			break dispatch
		}
	}
	close(jobs)
	wg.Wait()

	if firstErr != nil {
		return nil, nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	slices.SortFunc(failures, func(a, b WindowFailure) int { return a.Index - b.Index })
	return m, failures, nil
}

func (e *Engine) workerCount(windows int) int {
	n := e.Workers
	if n <= 0 {
		n = runtime.NumCPU()
	}
	return max(1, min(n, windows))
}

// estimateWindow writes the spectrum for window i into row. It returns a
// failure record when the window is degenerate and an error for anything else.
func (e *Engine) estimateWindow(ctx context.Context, lc LightCurve, i int, w Window, frequencies []float64, unit FrequencyUnit, norm Normalization, row []float64) (*WindowFailure, error) {
	seg := lc.Slice(w)

	power, err := e.Estimator.Estimate(ctx, seg.Time, seg.Flux, frequencies, unit, norm)
	if err != nil {
		if errors.Is(err, ErrDegenerateWindow) {
			e.Logger.Warn().
				Int("window", i).
				Float64("start", w.Start).
				Float64("stop", w.Stop).
				Int("samples", seg.Len()).
				Err(err).
				Msg("Window estimate failed, leaving row empty")
			return &WindowFailure{
				Index:   i,
				Start:   w.Start,
				Stop:    w.Stop,
				Samples: seg.Len(),
				Reason:  err.Error(),
			}, nil
		}
		return nil, fmt.Errorf("window %d [%g, %g): %w", i, w.Start, w.Stop, err)
	}
	if len(power) != len(frequencies) {
		return nil, fmt.Errorf("window %d: estimator returned %d values for %d frequencies", i, len(power), len(frequencies))
	}

	copy(row, power)
	e.Logger.Debug().Int("window", i).Int("samples", seg.Len()).Msg("Window estimated")
	return nil, nil
}
