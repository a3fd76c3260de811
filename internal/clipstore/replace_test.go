package clipstore

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReplace_UpdatesContentAndLinePreservingPosition(t *testing.T) {
	s := newTestStore(t)

	for i := '0'; i <= '2'; i++ {
		_, err := s.Add(string(i), KeepAll)
		require.NoError(t, err)
	}

	newHash, err := s.Replace(OldestFirst, 1, "replaced\ntext")
	require.NoError(t, err)

	guard, err := s.Ref()
	require.NoError(t, err)

	snips := guard.Collect(OldestFirst)
	require.Equal(t, []string{"0", "replaced", "2"}, linesOf(snips))
	require.Equal(t, newHash, snips[1].Hash)
	require.EqualValues(t, 2, snips[1].NrLines)
	require.NoError(t, guard.Close())

	c, err := s.ContentGet(newHash)
	require.NoError(t, err)
	require.Equal(t, "replaced\ntext", string(c.Data))
}

func TestReplace_OutOfRangeOrdinalFails(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Add("only", KeepAll)
	require.NoError(t, err)

	_, err = s.Replace(OldestFirst, 5, "new")
	require.ErrorIs(t, err, ErrRange)
}

func TestReplace_ReleasesOldContentWhenUnreferenced(t *testing.T) {
	s := newTestStore(t)

	oldHash, err := s.Add("old text", KeepAll)
	require.NoError(t, err)

	_, err = s.Replace(OldestFirst, 0, "new text")
	require.NoError(t, err)

	_, err = s.ContentGet(oldHash)
	require.ErrorIs(t, err, ErrNotExist)
}
