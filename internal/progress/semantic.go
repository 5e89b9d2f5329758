package progress

// TranscriptionProgress exposes semantic helpers over a Tracker so the
// pipeline orchestrator never constructs step descriptions itself.
type TranscriptionProgress struct {
	tracker Tracker

	decodeTask     int
	vadTask        int
	condenseTask   int
	transcribeTask int
	refineTask     int
}

// NewTranscriptionProgress wraps tracker with the pipeline's semantic step
// vocabulary.
func NewTranscriptionProgress(tracker Tracker) *TranscriptionProgress {
	return &TranscriptionProgress{tracker: tracker}
}

func (p *TranscriptionProgress) StartDecode() {
	p.decodeTask = p.tracker.AddStep("decoding audio", 0)
}

func (p *TranscriptionProgress) CompleteDecode() {
	p.tracker.Complete(p.decodeTask)
}

func (p *TranscriptionProgress) StartVAD() {
	p.vadTask = p.tracker.AddStep("detecting speech segments", 0)
}

func (p *TranscriptionProgress) CompleteVAD(segmentCount int) {
	p.tracker.Update(p.vadTask, "", float64(segmentCount))
	p.tracker.Complete(p.vadTask)
}

func (p *TranscriptionProgress) StartCondense() {
	p.condenseTask = p.tracker.AddStep("condensing into chunks", 0)
}

func (p *TranscriptionProgress) CompleteCondense(chunkCount int) {
	p.tracker.Update(p.condenseTask, "", float64(chunkCount))
	p.tracker.Complete(p.condenseTask)
}

func (p *TranscriptionProgress) StartTranscribe(chunkCount int) {
	p.transcribeTask = p.tracker.AddStep("transcribing", float64(chunkCount))
}

func (p *TranscriptionProgress) AdvanceTranscribe(amount float64) {
	p.tracker.Advance(p.transcribeTask, amount)
}

func (p *TranscriptionProgress) CompleteTranscribe() {
	p.tracker.Complete(p.transcribeTask)
}

func (p *TranscriptionProgress) StartRefine() {
	p.refineTask = p.tracker.AddStep("refining transcript", 0)
}

func (p *TranscriptionProgress) CompleteRefine() {
	p.tracker.Complete(p.refineTask)
}

func (p *TranscriptionProgress) Success(msg string) {
	p.tracker.Print("[green]"+msg+"[/green]", "success")
}

func (p *TranscriptionProgress) Warning(msg string) {
	p.tracker.Print("[yellow]"+msg+"[/yellow]", "warning")
}

func (p *TranscriptionProgress) Error(msg string) {
	p.tracker.Print("[red]"+msg+"[/red]", "error")
}

func (p *TranscriptionProgress) Open()  { p.tracker.Open() }
func (p *TranscriptionProgress) Close() { p.tracker.Close() }
