package main

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"sync"

	"github.com/schollz/progressbar/v3"

	"subtitler/internal/stage"
)

// progressObserver renders one progress bar per stage.
type progressObserver struct {
	out io.Writer

	mu  sync.Mutex
	bar *progressbar.ProgressBar
}

func newProgressObserver(out io.Writer) *progressObserver {
	return &progressObserver{out: out}
}

func (p *progressObserver) StageStarted(_ context.Context, name string, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.bar = progressbar.NewOptions(total,
		progressbar.OptionSetWriter(p.out),
		progressbar.OptionSetDescription(stageLabel(name, "")),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionOnCompletion(func() { fmt.Fprintln(p.out) }),
	)
}

func (p *progressObserver) ItemStarted(_ context.Context, name, input string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.bar != nil {
		p.bar.Describe(stageLabel(name, filepath.Base(input)))
	}
}

func (p *progressObserver) ItemFinished(context.Context, stage.Result) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.bar != nil {
		_ = p.bar.Add(1)
	}
}

func (p *progressObserver) StageFinished(_ context.Context, name string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.bar == nil {
		return
	}
	if err != nil {
		p.bar.Describe(stageLabel(name, "failed"))
		_ = p.bar.Exit()
		fmt.Fprintln(p.out)
	} else {
		_ = p.bar.Finish()
	}
	p.bar = nil
}

func stageLabel(name, detail string) string {
	if detail == "" {
		return fmt.Sprintf("%-10s", name)
	}
	return fmt.Sprintf("%-10s %s", name, detail)
}
