package incr_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/clipmenu/clipmenu-go/internal/incr"
)

func TestSendTransfer_ChunksUntilComplete(t *testing.T) {
	data := []byte("0123456789")
	tr := incr.NewSendTransfer(incr.Key{Requestor: 1, Property: 2}, 99, data)

	require.Equal(t, incr.Starting, tr.State())

	c1 := tr.NextChunk(4)
	require.Equal(t, []byte("0123"), c1)
	require.Equal(t, incr.Streaming, tr.State())

	c2 := tr.NextChunk(4)
	require.Equal(t, []byte("4567"), c2)

	c3 := tr.NextChunk(4)
	require.Equal(t, []byte("89"), c3)

	c4 := tr.NextChunk(4)
	require.Empty(t, c4)

	tr.Finish()
	require.Equal(t, incr.Complete, tr.State())
}

func TestReceiveTransfer_AccumulatesUntilEmptyChunk(t *testing.T) {
	tr := incr.NewReceiveTransfer(incr.Key{Requestor: 1, Property: 2})

	tr.AppendChunk([]byte("hello "))
	require.Equal(t, incr.Streaming, tr.State())

	tr.AppendChunk([]byte("world"))
	tr.AppendChunk(nil)

	require.Equal(t, incr.Complete, tr.State())
	require.Equal(t, "hello world", string(tr.Bytes()))
}

func TestList_RejectsDuplicateKey(t *testing.T) {
	l := incr.NewList[incr.SendTransfer]()
	key := incr.Key{Requestor: 1, Property: 2}

	require.NoError(t, l.Add(key, &incr.SendTransfer{}))
	require.Error(t, l.Add(key, &incr.SendTransfer{}))
	require.Equal(t, 1, l.Len())

	l.Remove(key)
	require.Equal(t, 0, l.Len())
}

func TestList_Get(t *testing.T) {
	l := incr.NewList[incr.ReceiveTransfer]()
	key := incr.Key{Requestor: 7, Property: 8}

	_, ok := l.Get(key)
	require.False(t, ok)

	want := incr.NewReceiveTransfer(key)
	require.NoError(t, l.Add(key, want))

	got, ok := l.Get(key)
	require.True(t, ok)
	require.Same(t, want, got)
}
