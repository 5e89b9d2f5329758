package progress

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/briandowns/spinner"
	"github.com/schollz/progressbar/v3"
)

// terminalStep is one tracked unit of work rendered as either a spinner
// (unknown total) or a progress bar (known total).
type terminalStep struct {
	desc      string
	total     float64
	completed float64
	bar       *progressbar.ProgressBar
}

// Terminal renders steps as spinners and progress bars.
type Terminal struct {
	out     io.Writer
	mu      sync.Mutex
	steps   []*terminalStep
	spinner *spinner.Spinner
}

// NewTerminal constructs a Terminal writing to out.
func NewTerminal(out io.Writer) *Terminal {
	s := spinner.New(spinner.CharSets[11], 100*time.Millisecond, spinner.WithWriter(out))
	return &Terminal{out: out, spinner: s}
}

func (t *Terminal) Open() {
	t.spinner.Start()
}

func (t *Terminal) Close() {
	t.spinner.Stop()
}

func (t *Terminal) AddStep(desc string, total float64) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	step := &terminalStep{desc: desc, total: total}
	if total > 0 {
		step.bar = progressbar.NewOptions(int(total),
			progressbar.OptionSetDescription(desc),
			progressbar.OptionSetWriter(t.out),
		)
	} else {
		t.spinner.Suffix = " " + desc
	}
	t.steps = append(t.steps, step)
	return len(t.steps) - 1
}

func (t *Terminal) Update(taskID int, desc string, completed float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if taskID < 0 || taskID >= len(t.steps) {
		return
	}
	step := t.steps[taskID]
	if desc != "" {
		step.desc = desc
		t.spinner.Suffix = " " + desc
	}
	step.completed = completed
	if step.bar != nil {
		_ = step.bar.Set(int(completed))
	}
}

func (t *Terminal) Advance(taskID int, amount float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if taskID < 0 || taskID >= len(t.steps) {
		return
	}
	step := t.steps[taskID]
	step.completed += amount
	if step.bar != nil {
		_ = step.bar.Add(int(amount))
	}
}

func (t *Terminal) Complete(taskID int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if taskID < 0 || taskID >= len(t.steps) {
		return
	}
	step := t.steps[taskID]
	if step.bar != nil {
		_ = step.bar.Finish()
	}
}

func (t *Terminal) Print(msg string, style string) {
	fmt.Fprintln(t.out, stripMarkup(msg))
}
