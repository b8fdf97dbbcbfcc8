package cursor

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestToInternalRoundTrip(t *testing.T) {
	pos := TopicPosition{Topic: "orders", Partition: "3", Offset: "42"}
	ic, err := pos.ToInternal()
	require.NoError(t, err)
	require.Equal(t, int32(3), ic.Partition)
	require.Equal(t, int64(42), ic.Offset)
	require.Equal(t, pos, ic.ToTopicPosition())
}

func TestToInternalNullPartition(t *testing.T) {
	pos := TopicPosition{Topic: "orders", Offset: "42"}
	_, err := pos.ToInternal()
	require.Error(t, err)
	var fe *FormatError
	require.ErrorAs(t, err, &fe)
	require.Equal(t, NullPartition, fe.Kind)
}

func TestToInternalNullOffset(t *testing.T) {
	pos := TopicPosition{Topic: "orders", Partition: "3"}
	_, err := pos.ToInternal()
	require.Error(t, err)
	var fe *FormatError
	require.ErrorAs(t, err, &fe)
	require.Equal(t, NullOffset, fe.Kind)
}

func TestToInternalInvalidFormat(t *testing.T) {
	pos := TopicPosition{Topic: "orders", Partition: "abc", Offset: "42"}
	_, err := pos.ToInternal()
	require.Error(t, err)
	var fe *FormatError
	require.ErrorAs(t, err, &fe)
	require.Equal(t, InvalidFormat, fe.Kind)
}

func TestIsBeginCaseInsensitive(t *testing.T) {
	require.True(t, TopicPosition{Offset: "begin"}.IsBegin())
	require.True(t, TopicPosition{Offset: "BEGIN"}.IsBegin())
	require.False(t, TopicPosition{Offset: "42"}.IsBegin())
}

func TestCompareOrdersByPartitionThenOffset(t *testing.T) {
	a := InternalCursor{Partition: 0, Offset: 5}
	b := InternalCursor{Partition: 0, Offset: 10}
	c := InternalCursor{Partition: 1, Offset: 0}

	require.Negative(t, a.Compare(b))
	require.Positive(t, b.Compare(a))
	require.Zero(t, a.Compare(a))
	require.Negative(t, a.Compare(c))
	require.Negative(t, b.Compare(c))
}
