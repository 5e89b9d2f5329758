package progress

import (
	"sync"
	"time"
)

// Callback emits ProgressUpdate values to a plain function, so the pipeline
// never imports UI code.
type Callback struct {
	emit  func(Update)
	start time.Time

	mu    sync.Mutex
	steps []*callbackStep
}

type callbackStep struct {
	desc      string
	total     float64
	completed float64
}

// NewCallback constructs a Callback tracker that invokes emit on every
// Update/Advance/Complete call.
func NewCallback(emit func(Update)) *Callback {
	return &Callback{emit: emit}
}

func (c *Callback) Open() {
	c.start = time.Now()
}

func (c *Callback) Close() {}

func (c *Callback) AddStep(desc string, total float64) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.steps = append(c.steps, &callbackStep{desc: desc, total: total})
	id := len(c.steps) - 1
	c.emitLocked(id, desc)
	return id
}

func (c *Callback) Update(taskID int, desc string, completed float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if taskID < 0 || taskID >= len(c.steps) {
		return
	}
	step := c.steps[taskID]
	if desc != "" {
		step.desc = desc
	}
	step.completed = completed
	c.emitLocked(taskID, step.desc)
}

func (c *Callback) Advance(taskID int, amount float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if taskID < 0 || taskID >= len(c.steps) {
		return
	}
	step := c.steps[taskID]
	step.completed += amount
	c.emitLocked(taskID, step.desc)
}

func (c *Callback) Complete(taskID int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if taskID < 0 || taskID >= len(c.steps) {
		return
	}
	step := c.steps[taskID]
	step.completed = step.total
	c.emitLocked(taskID, step.desc)
}

func (c *Callback) Print(msg string, style string) {
	c.emit(Update{Stage: "processing", Message: stripMarkup(msg), ElapsedS: time.Since(c.start).Seconds()})
}

// emitLocked builds and emits an Update for step taskID; caller holds c.mu.
func (c *Callback) emitLocked(taskID int, desc string) {
	step := c.steps[taskID]
	update := Update{
		Stage:    deriveStage(step.desc),
		Message:  stripMarkup(desc),
		ElapsedS: time.Since(c.start).Seconds(),
	}
	if step.total > 0 {
		update.HasProgress = true
		update.Progress = step.completed / step.total
		if update.Progress > 0 {
			perUnit := update.ElapsedS / step.completed
			update.RemainingS = perUnit * (step.total - step.completed)
		}
	}
	c.emit(update)
}
