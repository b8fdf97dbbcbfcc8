package publishing

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewBatchItemDefaults(t *testing.T) {
	item := NewBatchItem(`{"a":1}`, "2")
	require.Equal(t, StepNone, item.Step())
	require.Equal(t, Response{Status: StatusUnspecified}, item.Response())
}

// TestFirstUpdateOnFreshItemIsNotADowngradeNoOp guards against the zero
// value of Status ever aliasing StatusSubmitted again: a never-touched item
// must be able to become FAILED on its very first update.
func TestFirstUpdateOnFreshItemIsNotADowngradeNoOp(t *testing.T) {
	item := NewBatchItem("p", "0")
	item.UpdateStatusAndDetail(StatusFailed, "short circuited")
	require.Equal(t, StatusFailed, item.Response().Status)
	require.Equal(t, "short circuited", item.Response().Detail)
}

func TestSetStepAdvances(t *testing.T) {
	item := NewBatchItem("p", "0")
	item.SetStep(StepPublishing)
	require.Equal(t, StepPublishing, item.Step())
	item.SetStep(StepPublished)
	require.Equal(t, StepPublished, item.Step())
}

func TestUpdateStatusAndDetailSetsBoth(t *testing.T) {
	item := NewBatchItem("p", "0")
	item.UpdateStatusAndDetail(StatusFailed, "connection refused")
	require.Equal(t, Response{Status: StatusFailed, Detail: "connection refused"}, item.Response())
}

func TestUpdateStatusAndDetailNeverDowngradesSubmitted(t *testing.T) {
	item := NewBatchItem("p", "0")
	item.UpdateStatusAndDetail(StatusSubmitted, "")
	item.UpdateStatusAndDetail(StatusFailed, "too late")
	require.Equal(t, StatusSubmitted, item.Response().Status)
	require.Equal(t, "", item.Response().Detail)
}

func TestUpdateStatusAndDetailPreservesNonEmptyDetail(t *testing.T) {
	item := NewBatchItem("p", "0")
	item.UpdateStatusAndDetail(StatusFailed, "leader not available")
	item.UpdateStatusAndDetail(StatusAborted, "")
	require.Equal(t, StatusAborted, item.Response().Status)
	require.Equal(t, "leader not available", item.Response().Detail)
}

func TestUpdateStatusAndDetailOverwritesWithNonEmptyDetail(t *testing.T) {
	item := NewBatchItem("p", "0")
	item.UpdateStatusAndDetail(StatusFailed, "first")
	item.UpdateStatusAndDetail(StatusFailed, "second")
	require.Equal(t, "second", item.Response().Detail)
}

func TestEnsureFailedDetailFillsOnlyWhenEmpty(t *testing.T) {
	item := NewBatchItem("p", "0")
	item.UpdateStatusAndDetail(StatusFailed, "")
	item.EnsureFailedDetail("batch aborted")
	require.Equal(t, "batch aborted", item.Response().Detail)
}

func TestEnsureFailedDetailLeavesExistingDetail(t *testing.T) {
	item := NewBatchItem("p", "0")
	item.UpdateStatusAndDetail(StatusFailed, "leader not available")
	item.EnsureFailedDetail("batch aborted")
	require.Equal(t, "leader not available", item.Response().Detail)
}

func TestEnsureFailedDetailIgnoresNonFailedStatus(t *testing.T) {
	item := NewBatchItem("p", "0")
	item.UpdateStatusAndDetail(StatusSubmitted, "")
	item.EnsureFailedDetail("batch aborted")
	require.Equal(t, "", item.Response().Detail)
}

func TestStatusStrings(t *testing.T) {
	require.Equal(t, "UNSPECIFIED", StatusUnspecified.String())
	require.Equal(t, "SUBMITTED", StatusSubmitted.String())
	require.Equal(t, "FAILED", StatusFailed.String())
	require.Equal(t, "ABORTED", StatusAborted.String())
}
