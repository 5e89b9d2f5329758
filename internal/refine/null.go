package refine

import "context"

// NullRefiner returns the input text unchanged, for a pipeline that does
// not want a second pass.
type NullRefiner struct{}

func (NullRefiner) Refine(ctx context.Context, text string, instructions string) (string, error) {
	return text, nil
}
