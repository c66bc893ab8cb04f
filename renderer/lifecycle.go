package renderer

// releaser collects cleanup functions as resources are acquired and runs them
// in reverse order.
type releaser struct {
	fns []func()
}

func (r *releaser) push(fn func()) {
	r.fns = append(r.fns, fn)
}

// release runs every pushed function, newest first, and forgets them.
func (r *releaser) release() {
	for i := len(r.fns) - 1; i >= 0; i-- {
		r.fns[i]()
	}
	r.fns = nil
}
