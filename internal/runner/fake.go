package runner

import (
	"context"
	"sync"
)

// Fake is a Runner for tests. Responses are returned in FIFO order; once
// exhausted, calls return the Default output.
type Fake struct {
	mu        sync.Mutex
	responses []FakeResponse
	Default   *Output
	Calls     []Spec
}

// FakeResponse is one scripted invocation result.
type FakeResponse struct {
	Output *Output
	Err    error
}

// NewFake creates an empty fake runner whose default response is a clean
// zero-exit with no output.
func NewFake() *Fake {
	return &Fake{Default: &Output{}}
}

// Enqueue scripts the next response.
func (f *Fake) Enqueue(out *Output, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses = append(f.responses, FakeResponse{Output: out, Err: err})
}

// Run records the spec and pops the next scripted response.
func (f *Fake) Run(ctx context.Context, spec Spec) (*Output, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, spec)

	if len(f.responses) > 0 {
		resp := f.responses[0]
		f.responses = f.responses[1:]
		return resp.Output, resp.Err
	}
	return f.Default, nil
}

var _ Runner = (*Fake)(nil)
