package sink

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vociferous/vociferous/internal/pipeline"
)

type fakeRefiner struct {
	text string
	err  error
}

func (f fakeRefiner) Refine(ctx context.Context, text string, instructions string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.text, nil
}

type recordingSink struct {
	segments []pipeline.Segment
	results  []pipeline.Result
	err      error
}

func (r *recordingSink) HandleSegment(seg pipeline.Segment) { r.segments = append(r.segments, seg) }
func (r *recordingSink) Complete(result pipeline.Result) error {
	r.results = append(r.results, result)
	return r.err
}

func TestFileSinkWritesFullTextOnComplete(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.txt")
	f := &File{Path: path}

	f.HandleSegment(pipeline.Segment{Text: "ignored"})
	require.NoError(t, f.Complete(pipeline.Result{Text: "hello world"}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(data))
}

func TestCompositeFansOutInOrder(t *testing.T) {
	a := &recordingSink{}
	b := &recordingSink{}
	c := &Composite{Sinks: []Sink{a, b}}

	seg := pipeline.Segment{Text: "hi"}
	c.HandleSegment(seg)
	assert.Equal(t, []pipeline.Segment{seg}, a.segments)
	assert.Equal(t, []pipeline.Segment{seg}, b.segments)

	result := pipeline.Result{Text: "done"}
	require.NoError(t, c.Complete(result))
	assert.Equal(t, []pipeline.Result{result}, a.results)
	assert.Equal(t, []pipeline.Result{result}, b.results)
}

func TestCompositeCollectsAllCompleteErrors(t *testing.T) {
	ok := &recordingSink{}
	failing := &recordingSink{err: errors.New("disk full")}
	c := &Composite{Sinks: []Sink{ok, failing}}

	err := c.Complete(pipeline.Result{Text: "done"})
	require.Error(t, err)
	assert.ErrorContains(t, err, "disk full")
	assert.Len(t, ok.results, 1)
}

func TestRefiningSinkRefinesBeforeForwarding(t *testing.T) {
	inner := &recordingSink{}
	r := &Refining{Inner: inner, Refiner: fakeRefiner{text: "refined text"}}

	require.NoError(t, r.Complete(pipeline.Result{Text: "raw text"}))
	require.Len(t, inner.results, 1)
	assert.Equal(t, "refined text", inner.results[0].Text)
	assert.True(t, inner.results[0].Refined)
}

func TestRefiningSinkPassesThroughSegments(t *testing.T) {
	inner := &recordingSink{}
	r := &Refining{Inner: inner, Refiner: fakeRefiner{text: "refined"}}

	seg := pipeline.Segment{Text: "hi"}
	r.HandleSegment(seg)
	assert.Equal(t, []pipeline.Segment{seg}, inner.segments)
}

func TestRefiningSinkPropagatesRefineError(t *testing.T) {
	inner := &recordingSink{}
	r := &Refining{Inner: inner, Refiner: fakeRefiner{err: errors.New("llm down")}}

	err := r.Complete(pipeline.Result{Text: "raw"})
	require.Error(t, err)
	assert.ErrorContains(t, err, "llm down")
	assert.Empty(t, inner.results)
}

func TestRefiningSinkSkipsEmptyText(t *testing.T) {
	inner := &recordingSink{}
	r := &Refining{Inner: inner, Refiner: fakeRefiner{text: "should not be used"}}

	require.NoError(t, r.Complete(pipeline.Result{Text: ""}))
	require.Len(t, inner.results, 1)
	assert.Equal(t, "", inner.results[0].Text)
}
