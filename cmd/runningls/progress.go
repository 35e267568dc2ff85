package main

import (
	"io"

	"github.com/schollz/progressbar/v3"
)

// barProgress shows engine progress as a terminal bar. progressbar locks
// internally so Advance is safe from any worker.
type barProgress struct {
	w   io.Writer
	bar *progressbar.ProgressBar
}

func newBarProgress(w io.Writer) *barProgress {
	return &barProgress{w: w}
}

func (b *barProgress) Start(total int) {
	b.bar = progressbar.NewOptions(total,
		progressbar.OptionSetWriter(b.w),
		progressbar.OptionSetDescription("windows"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionClearOnFinish(),
	)
}

func (b *barProgress) Advance(int) {
	if b.bar != nil {
		_ = b.bar.Add(1)
	}
}

func (b *barProgress) Finish() {
	if b.bar != nil {
		_ = b.bar.Finish()
	}
}
