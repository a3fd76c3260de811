package clipstore

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRemove_OldestFirst_RemovesMatching(t *testing.T) {
	s := newTestStore(t)

	for i := '0'; i <= '4'; i++ {
		_, err := s.Add(string(i), KeepAll)
		require.NoError(t, err)
	}

	removed, err := s.Remove(OldestFirst, func(hash uint64, line string) RemoveAction {
		if line == "1" || line == "3" {
			return ActionRemove
		}
		return ActionNone
	})
	require.NoError(t, err)
	require.Equal(t, 2, removed)

	guard, err := s.Ref()
	require.NoError(t, err)
	defer guard.Close()

	snips := guard.Collect(OldestFirst)
	require.Equal(t, []string{"0", "2", "4"}, linesOf(snips))
}

func TestRemove_NewestFirst_PreservesOrder(t *testing.T) {
	s := newTestStore(t)

	for i := '0'; i <= '4'; i++ {
		_, err := s.Add(string(i), KeepAll)
		require.NoError(t, err)
	}

	removed, err := s.Remove(NewestFirst, func(hash uint64, line string) RemoveAction {
		if line == "1" || line == "3" {
			return ActionRemove
		}
		return ActionNone
	})
	require.NoError(t, err)
	require.Equal(t, 2, removed)

	guard, err := s.Ref()
	require.NoError(t, err)
	defer guard.Close()

	snips := guard.Collect(OldestFirst)
	require.Equal(t, []string{"0", "2", "4"}, linesOf(snips))
}

func TestRemove_StopEndsIterationAfterCurrentSlot(t *testing.T) {
	s := newTestStore(t)

	for i := '0'; i <= '4'; i++ {
		_, err := s.Add(string(i), KeepAll)
		require.NoError(t, err)
	}

	visited := 0
	removed, err := s.Remove(OldestFirst, func(hash uint64, line string) RemoveAction {
		visited++
		if line == "1" {
			return ActionStop
		}
		return ActionNone
	})
	require.NoError(t, err)
	require.Equal(t, 0, removed)
	require.Equal(t, 2, visited)
}

func TestRemove_RemoveAndStopTogether(t *testing.T) {
	s := newTestStore(t)

	for i := '0'; i <= '4'; i++ {
		_, err := s.Add(string(i), KeepAll)
		require.NoError(t, err)
	}

	removed, err := s.Remove(OldestFirst, func(hash uint64, line string) RemoveAction {
		if line == "1" {
			return ActionRemove | ActionStop
		}
		return ActionNone
	})
	require.NoError(t, err)
	require.Equal(t, 1, removed)

	guard, err := s.Ref()
	require.NoError(t, err)
	defer guard.Close()

	snips := guard.Collect(OldestFirst)
	require.Equal(t, []string{"0", "2", "3", "4"}, linesOf(snips))
}

func TestRemove_OnEmptyStore_IsNoop(t *testing.T) {
	s := newTestStore(t)

	visited := false
	removed, err := s.Remove(OldestFirst, func(hash uint64, line string) RemoveAction {
		visited = true
		return ActionRemove
	})
	require.NoError(t, err)
	require.Equal(t, 0, removed)
	require.False(t, visited)
}
