package workspace

import "context"

// Pending is the handle of an asynchronous persistence call. It resolves once,
// to the durable id of the entity or to an error.
type Pending struct {
	done chan struct{}
	id   string
	err  error
}

func newPending() *Pending {
	return &Pending{done: make(chan struct{})}
}

func resolved(id string, err error) *Pending {
	p := newPending()
	p.resolve(id, err)
	return p
}

func (p *Pending) resolve(id string, err error) {
	p.id, p.err = id, err
	close(p.done)
}

// Done is closed when the handle resolves.
func (p *Pending) Done() <-chan struct{} { return p.done }

// Wait blocks until the handle resolves or ctx ends.
func (p *Pending) Wait(ctx context.Context) (string, error) {
	select {
	case <-p.done:
		return p.id, p.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
