package clipstore

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestContentGet_ReturnsStoredBytes(t *testing.T) {
	s := newTestStore(t)

	hash, err := s.Add("the clip body", KeepAll)
	require.NoError(t, err)

	c, err := s.ContentGet(hash)
	require.NoError(t, err)
	require.Equal(t, "the clip body", string(c.Data))
}

func TestContentGet_NotExist(t *testing.T) {
	s := newTestStore(t)

	_, err := s.ContentGet(0xFFFFFFFFFFFFFFFF)
	require.ErrorIs(t, err, ErrNotExist)
}

func TestContent_ReleasedOnlyAfterLastReferenceRemoved(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Add("shared", KeepAll)
	require.NoError(t, err)
	hash, err := s.Add("shared", KeepAll)
	require.NoError(t, err)

	removed, err := s.Remove(OldestFirst, func(h uint64, line string) RemoveAction {
		if h == hash {
			return ActionRemove | ActionStop
		}
		return ActionNone
	})
	require.NoError(t, err)
	require.Equal(t, 1, removed)

	// One live slot still references hash; content must survive.
	_, err = s.ContentGet(hash)
	require.NoError(t, err)

	removed, err = s.Remove(OldestFirst, func(h uint64, line string) RemoveAction {
		return ActionRemove
	})
	require.NoError(t, err)
	require.Equal(t, 1, removed)

	_, err = s.ContentGet(hash)
	require.ErrorIs(t, err, ErrNotExist)
}

func TestContent_DedupReusesExistingFile(t *testing.T) {
	s := newTestStore(t)

	h1, err := s.Add("same text", KeepAll)
	require.NoError(t, err)
	h2, err := s.Add("same text", KeepAll)
	require.NoError(t, err)

	require.Equal(t, h1, h2)
}
