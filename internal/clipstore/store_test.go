package clipstore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	dir := t.TempDir()

	s, err := Open(Options{
		SnipPath:   filepath.Join(dir, "line_cache"),
		ContentDir: filepath.Join(dir, "content"),
	})
	require.NoError(t, err)

	t.Cleanup(func() { _ = s.Close() })

	return s
}

func TestOpen_CreatesZeroedStoreOnEmptyFile(t *testing.T) {
	s := newTestStore(t)

	n, err := s.Len()
	require.NoError(t, err)
	require.Equal(t, 0, n)
}

func TestOpen_ReopensExistingStore(t *testing.T) {
	dir := t.TempDir()
	opts := Options{
		SnipPath:   filepath.Join(dir, "line_cache"),
		ContentDir: filepath.Join(dir, "content"),
	}

	s1, err := Open(opts)
	require.NoError(t, err)

	_, err = s1.Add("hello", KeepAll)
	require.NoError(t, err)
	require.NoError(t, s1.Close())

	s2, err := Open(opts)
	require.NoError(t, err)
	defer s2.Close()

	n, err := s2.Len()
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func TestOpen_RejectsBadSize(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "line_cache")

	require.NoError(t, os.WriteFile(path, make([]byte, 100), 0o600))

	_, err := Open(Options{SnipPath: path, ContentDir: filepath.Join(dir, "content")})
	require.ErrorIs(t, err, ErrInvalid)
}

func TestOpen_RejectsBadMagic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "line_cache")

	h := newHeader()
	buf := encodeHeader(h)
	buf[0] = 'X'

	require.NoError(t, os.WriteFile(path, buf, 0o600))

	_, err := Open(Options{SnipPath: path, ContentDir: filepath.Join(dir, "content")})
	require.ErrorIs(t, err, ErrInvalid)
}

func TestClose_Idempotent(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
}

func TestAdd_KeepAll_AllowsDuplicates(t *testing.T) {
	s := newTestStore(t)

	for i := 0; i < 3; i++ {
		_, err := s.Add("dup", KeepAll)
		require.NoError(t, err)
	}

	n, err := s.Len()
	require.NoError(t, err)
	require.Equal(t, 3, n)
}

func TestAdd_KeepLast_MovesExistingToNewest(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Add("a", KeepLast)
	require.NoError(t, err)
	_, err = s.Add("b", KeepLast)
	require.NoError(t, err)
	_, err = s.Add("a", KeepLast)
	require.NoError(t, err)

	n, err := s.Len()
	require.NoError(t, err)
	require.Equal(t, 2, n)

	guard, err := s.Ref()
	require.NoError(t, err)
	defer guard.Close()

	snips := guard.Collect(OldestFirst)
	require.Len(t, snips, 2)
	require.Equal(t, "b", snips[0].Line)
	require.Equal(t, "a", snips[1].Line)
}

// TestDigitSequence_KeepAll checks that adding ten distinct single-digit
// clips under KeepAll yields ten slots in insertion order.
func TestDigitSequence_KeepAll(t *testing.T) {
	s := newTestStore(t)

	for i := '0'; i <= '9'; i++ {
		_, err := s.Add(string(i), KeepAll)
		require.NoError(t, err)
	}

	guard, err := s.Ref()
	require.NoError(t, err)
	defer guard.Close()

	snips := guard.Collect(OldestFirst)
	require.Len(t, snips, 10)
	for i, snip := range snips {
		require.Equal(t, string(rune('0'+i)), snip.Line)
	}
}

func TestDigitSequence_TrimKeepsNewest(t *testing.T) {
	s := newTestStore(t)

	for i := '0'; i <= '9'; i++ {
		_, err := s.Add(string(i), KeepAll)
		require.NoError(t, err)
	}

	require.NoError(t, s.Trim(NewestFirst, 4))

	guard, err := s.Ref()
	require.NoError(t, err)
	defer guard.Close()

	snips := guard.Collect(OldestFirst)
	require.Len(t, snips, 4)
	require.Equal(t, []string{"6", "7", "8", "9"}, linesOf(snips))
}

func TestDigitSequence_ReplaceNewest(t *testing.T) {
	s := newTestStore(t)

	for i := '0'; i <= '9'; i++ {
		_, err := s.Add(string(i), KeepAll)
		require.NoError(t, err)
	}

	_, err := s.Replace(NewestFirst, 0, "nine-replaced")
	require.NoError(t, err)

	guard, err := s.Ref()
	require.NoError(t, err)
	defer guard.Close()

	snips := guard.Collect(OldestFirst)
	require.Len(t, snips, 10)
	require.Equal(t, "nine-replaced", snips[9].Line)
}

func linesOf(snips []Snip) []string {
	out := make([]string, len(snips))
	for i, s := range snips {
		out[i] = s.Line
	}
	return out
}
