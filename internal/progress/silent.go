package progress

// Silent is the no-op Tracker used by batch/headless callers that want no
// progress reporting at all.
type Silent struct{}

func (Silent) Open()                                             {}
func (Silent) Close()                                            {}
func (Silent) AddStep(desc string, total float64) int            { return 0 }
func (Silent) Update(taskID int, desc string, completed float64) {}
func (Silent) Advance(taskID int, amount float64)                {}
func (Silent) Complete(taskID int)                               {}
func (Silent) Print(msg string, style string)                    {}
