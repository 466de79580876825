package gather

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChildPlanError_UnwrapAndIs(t *testing.T) {
	cause := errors.New("disk read failed")
	err := &ChildPlanError{WorkerID: 3, Cause: cause}

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "worker 3")

	leader := &ChildPlanError{WorkerID: 0, Cause: cause}
	assert.Contains(t, leader.Error(), "local")
}

func TestQueueTransportError_UnwrapAndMessage(t *testing.T) {
	cause := errors.New("context canceled")
	err := &QueueTransportError{WorkerID: 2, Message: "push canceled", Cause: cause}

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "push canceled")
	assert.Contains(t, err.Error(), "worker 2")

	noCause := &QueueTransportError{WorkerID: 1, Message: "torn record"}
	assert.NotContains(t, noCause.Error(), "<nil>")
}

func TestAggregateWorkerError_UnwrapsEveryError(t *testing.T) {
	e1 := &ChildPlanError{WorkerID: 1, Cause: errors.New("one")}
	e2 := &ChildPlanError{WorkerID: 2, Cause: errors.New("two")}
	agg := &AggregateWorkerError{Errors: []error{e1, e2}}

	assert.ErrorIs(t, agg, e1)
	assert.ErrorIs(t, agg, e2)

	var target *AggregateWorkerError
	require.True(t, errors.As(error(agg), &target))
}

func TestAggregateWorkerError_SingleErrorMessagePassesThrough(t *testing.T) {
	only := &ChildPlanError{WorkerID: 1, Cause: errors.New("boom")}
	agg := &AggregateWorkerError{Errors: []error{only}}
	assert.Equal(t, only.Error(), agg.Error())
}

func TestWrapError_PreservesCauseForErrorsIs(t *testing.T) {
	cause := errors.New("underlying")
	wrapped := WrapError("gather: setup failed", cause)
	assert.ErrorIs(t, wrapped, cause)
}

func TestRangeError_Message(t *testing.T) {
	err := &RangeError{Message: "queue capacity must be positive"}
	assert.Equal(t, "gather: queue capacity must be positive", err.Error())
}
