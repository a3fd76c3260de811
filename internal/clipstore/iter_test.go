package clipstore

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCursor_OldestFirst(t *testing.T) {
	s := newTestStore(t)

	for i := '0'; i <= '2'; i++ {
		_, err := s.Add(string(i), KeepAll)
		require.NoError(t, err)
	}

	guard, err := s.Ref()
	require.NoError(t, err)
	defer guard.Close()

	cur := guard.Iterate(OldestFirst)

	var got []string
	for cur.Next() {
		got = append(got, cur.Snip().Line)
	}
	require.Equal(t, []string{"0", "1", "2"}, got)

	// Exhausted cursor stays parked on the last yielded slot.
	require.False(t, cur.Next())
	require.Equal(t, "2", cur.Snip().Line)
}

func TestCursor_NewestFirst(t *testing.T) {
	s := newTestStore(t)

	for i := '0'; i <= '2'; i++ {
		_, err := s.Add(string(i), KeepAll)
		require.NoError(t, err)
	}

	guard, err := s.Ref()
	require.NoError(t, err)
	defer guard.Close()

	cur := guard.Iterate(NewestFirst)

	var got []string
	for cur.Next() {
		got = append(got, cur.Snip().Line)
	}
	require.Equal(t, []string{"2", "1", "0"}, got)
}

func TestCursor_OnEmptyStore_NeverYields(t *testing.T) {
	s := newTestStore(t)

	guard, err := s.Ref()
	require.NoError(t, err)
	defer guard.Close()

	cur := guard.Iterate(OldestFirst)
	require.False(t, cur.Next())
}
