package slotlimiter

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAcquireUpToCeiling(t *testing.T) {
	l := New(2)
	s1, err := l.AcquireConnectionSlots("client-a", "orders", []string{"0"})
	require.NoError(t, err)
	require.Len(t, s1, 1)

	s2, err := l.AcquireConnectionSlots("client-b", "orders", []string{"0"})
	require.NoError(t, err)
	require.Len(t, s2, 1)

	_, err = l.AcquireConnectionSlots("client-c", "orders", []string{"0"})
	require.ErrorIs(t, err, ErrNoSlots)
}

func TestAcquireIsAtomicAcrossPartitions(t *testing.T) {
	l := New(1)
	_, err := l.AcquireConnectionSlots("client-a", "orders", []string{"0"})
	require.NoError(t, err)

	_, err = l.AcquireConnectionSlots("client-b", "orders", []string{"1", "0"})
	require.ErrorIs(t, err, ErrNoSlots)

	s, err := l.AcquireConnectionSlots("client-c", "orders", []string{"1"})
	require.NoError(t, err)
	require.Len(t, s, 1)
}

func TestReleaseFreesSlotForReuse(t *testing.T) {
	l := New(1)
	s1, err := l.AcquireConnectionSlots("client-a", "orders", []string{"0"})
	require.NoError(t, err)

	_, err = l.AcquireConnectionSlots("client-b", "orders", []string{"0"})
	require.ErrorIs(t, err, ErrNoSlots)

	l.ReleaseConnectionSlots(s1)
	s2, err := l.AcquireConnectionSlots("client-b", "orders", []string{"0"})
	require.NoError(t, err)
	require.Len(t, s2, 1)
}

func TestReleaseIsIdempotent(t *testing.T) {
	l := New(1)
	s1, err := l.AcquireConnectionSlots("client-a", "orders", []string{"0"})
	require.NoError(t, err)

	l.ReleaseConnectionSlots(s1)
	l.ReleaseConnectionSlots(s1)

	s2, err := l.AcquireConnectionSlots("client-b", "orders", []string{"0"})
	require.NoError(t, err)
	require.Len(t, s2, 1)
}

func TestReleaseToleratesEmptyAndNil(t *testing.T) {
	l := New(1)
	require.NotPanics(t, func() {
		l.ReleaseConnectionSlots(nil)
		l.ReleaseConnectionSlots([]*Slot{})
	})
}

func TestDifferentPartitionsAreIndependent(t *testing.T) {
	l := New(1)
	_, err := l.AcquireConnectionSlots("client-a", "orders", []string{"0"})
	require.NoError(t, err)

	s, err := l.AcquireConnectionSlots("client-b", "orders", []string{"1"})
	require.NoError(t, err)
	require.Len(t, s, 1)
}

func TestNonPositiveMaxPerKeyDefaultsToOne(t *testing.T) {
	l := New(0)
	require.Equal(t, 1, l.maxPerKey)
}
