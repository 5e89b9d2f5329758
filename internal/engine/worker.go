package engine

import (
	"context"
	"fmt"
	"strings"
)

// DaemonFrontend is the capability surface EngineWorker needs from a warm
// daemon client, expressed as an interface rather than a concrete import of
// internal/daemon to avoid a package cycle (daemon already imports engine
// for TranscriptSegment wire conversion). internal/app wires a concrete
// adapter over daemon.Client.
type DaemonFrontend interface {
	ModelLoaded(ctx context.Context) (bool, error)
	TranscribeBatch(ctx context.Context, paths []string, language string) ([]TranscriptSegment, error)
	Refine(ctx context.Context, text, instructions string) (string, error)
}

// Worker owns zero or one live local Engine instance per profile, and
// routes batch transcription through a warm daemon when available,
// otherwise lazily loading and driving a local engine.
type Worker struct {
	profile   Profile
	registry  *Registry
	daemon    DaemonFrontend
	useDaemon bool

	local        Engine
	daemonProbed bool
	daemonReady  bool
	usedDaemon   bool
}

// NewWorker constructs a Worker for profile. engine, when non-nil, is used
// as an already-loaded local engine instead of lazily constructing one from
// registry. daemon may be nil, in which case the daemon fast-path is never
// attempted regardless of useDaemon.
func NewWorker(profile Profile, registry *Registry, daemon DaemonFrontend, useDaemon bool, preloaded Engine) *Worker {
	return &Worker{
		profile:   profile,
		registry:  registry,
		daemon:    daemon,
		useDaemon: useDaemon,
		local:     preloaded,
	}
}

// TranscribeBatch probes the daemon (cached after the first probe) and
// uses it if ready, otherwise fall back to a local
// engine. The daemon groups all paths into a single logical result; the
// local fallback returns one group per path.
func (w *Worker) TranscribeBatch(ctx context.Context, paths []string) ([][]TranscriptSegment, error) {
	if w.useDaemon && w.daemon != nil {
		if !w.daemonProbed {
			loaded, err := w.daemon.ModelLoaded(ctx)
			w.daemonProbed = true
			w.daemonReady = err == nil && loaded
		}
		if w.daemonReady {
			segments, err := w.daemon.TranscribeBatch(ctx, paths, w.profile.Options.Language)
			if err == nil {
				w.usedDaemon = true
				return [][]TranscriptSegment{segments}, nil
			}
			// Daemon call failed after a healthy probe: fall through to
			// the local engine rather than aborting the pipeline.
			w.daemonReady = false
		}
	}

	eng, err := w.ensureLocal()
	if err != nil {
		return nil, err
	}

	if batcher, ok := eng.(BatchTranscriber); ok {
		return batcher.TranscribeBatch(paths, w.profile.Options)
	}

	out := make([][]TranscriptSegment, len(paths))
	for i, p := range paths {
		segs, err := eng.TranscribeFile(p, w.profile.Options)
		if err != nil {
			return nil, fmt.Errorf("transcribe chunk %s: %w", p, err)
		}
		out[i] = segs
	}
	return out, nil
}

// RefineText delegates to the daemon's refine mode when the daemon
// fast-path is in use, else to the local engine's TextRefiner capability if
// present, else returns text unchanged.
func (w *Worker) RefineText(ctx context.Context, text string, instructions string) (string, error) {
	if w.usedDaemon && w.daemon != nil {
		return w.daemon.Refine(ctx, text, instructions)
	}

	eng, err := w.ensureLocal()
	if err != nil {
		return text, err
	}
	if refiner, ok := eng.(TextRefiner); ok {
		return refiner.RefineText(text, instructions)
	}
	return text, nil
}

// RefineSegments refines a whole segment list at once when the local engine
// supports it; otherwise it joins each segment's Text(), refines once, and attaches the
// refined result to every segment.
func (w *Worker) RefineSegments(ctx context.Context, segments []TranscriptSegment, mode string, instructions string) ([]TranscriptSegment, error) {
	eng, err := w.ensureLocalIfNotUsingDaemon()
	if err == nil && eng != nil {
		if refiner, ok := eng.(SegmentRefiner); ok {
			return refiner.RefineSegments(segments, mode, instructions)
		}
	}

	texts := make([]string, len(segments))
	for i, s := range segments {
		texts[i] = strings.TrimSpace(s.Text())
	}
	refined, refineErr := w.RefineText(ctx, strings.Join(texts, " "), instructions)
	if refineErr != nil {
		return segments, refineErr
	}

	out := make([]TranscriptSegment, len(segments))
	copy(out, segments)
	for i := range out {
		out[i].RefinedText = refined
	}
	return out, nil
}

// Metadata reports which engine instance actually produced results: a
// daemon-synthesized summary from the profile's config when the daemon
// fast-path was used (no local engine is loaded in that case), or the
// local engine's own metadata.
func (w *Worker) Metadata() Metadata {
	if w.usedDaemon {
		return Metadata{
			ModelName: w.profile.Config.ModelName,
			Device:    "daemon",
			Precision: string(w.profile.Config.ComputeType),
			Engine:    string(w.profile.Kind),
		}
	}
	if w.local != nil {
		return w.local.Metadata()
	}
	return Metadata{ModelName: w.profile.Config.ModelName, Engine: string(w.profile.Kind)}
}

// UsedDaemon reports whether any TranscribeBatch call on this worker has
// been served by the warm daemon; a later local fallback does not reset it.
func (w *Worker) UsedDaemon() bool {
	return w.usedDaemon
}

func (w *Worker) ensureLocal() (Engine, error) {
	if w.local != nil {
		return w.local, nil
	}
	if w.registry == nil {
		return nil, fmt.Errorf("engine worker: no local engine registry configured")
	}
	eng, err := w.registry.Build(w.profile.Config, w.profile.Kind)
	if err != nil {
		return nil, err
	}
	w.local = eng
	return eng, nil
}

// ensureLocalIfNotUsingDaemon avoids eagerly loading a local engine purely
// to check for the SegmentRefiner capability when the daemon fast-path
// already produced the segments.
func (w *Worker) ensureLocalIfNotUsingDaemon() (Engine, error) {
	if w.usedDaemon {
		return nil, nil
	}
	return w.ensureLocal()
}
