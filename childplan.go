package gather

import "context"

// Tuple is an opaque row produced by a child plan. Gather never interprets
// its contents; it only moves tuples between a child plan, the queues, and
// a Projection.
type Tuple interface{}

// ChildPlan is the contract a scanned-in-parallel query node must satisfy.
// Each running copy — one per worker, plus optionally one in the leader —
// is an independent ChildPlan instance created by a ChildPlanFactory.
type ChildPlan interface {
	// Next returns the next tuple. ok is false (with a nil error) once the
	// plan is exhausted; a non-nil error is fatal to that copy.
	Next(ctx context.Context) (tuple Tuple, ok bool, err error)
	// Rescan resets the plan for another pass over the same input.
	Rescan(ctx context.Context) error
	// Shutdown releases any resources held by this copy. Idempotent.
	Shutdown(ctx context.Context) error
}

// ChildPlanFactory creates one independent copy of the child plan. Called
// once per worker (by the harness) and, when the leader participates
// locally, once more for the leader's own copy.
type ChildPlanFactory func() (ChildPlan, error)

// Projection applies a target-list evaluation to a tuple before it leaves
// the operator. Errors are fatal to the scan, matching a qual/expression
// evaluator failure in a real executor.
type Projection interface {
	Apply(t Tuple) (Tuple, error)
}

// ProjectionFunc adapts a plain function to the Projection interface.
type ProjectionFunc func(Tuple) (Tuple, error)

// Apply implements Projection.
func (f ProjectionFunc) Apply(t Tuple) (Tuple, error) {
	return f(t)
}

// identityProjection returns every tuple unchanged; it is the default when
// no Projection is configured.
type identityProjection struct{}

// Apply implements Projection.
func (identityProjection) Apply(t Tuple) (Tuple, error) {
	return t, nil
}
