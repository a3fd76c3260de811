package daemon_test

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/clipmenu/clipmenu-go/internal/daemon"
)

func TestIsPossiblePartial(t *testing.T) {
	require.True(t, daemon.IsPossiblePartial("foo", "foobar"))
	require.True(t, daemon.IsPossiblePartial("foobar", "foo"))
	require.True(t, daemon.IsPossiblePartial("bar", "foobar"))
	require.True(t, daemon.IsPossiblePartial("abc", "abc"))
	require.False(t, daemon.IsPossiblePartial("abc", "xyz"))
	require.False(t, daemon.IsPossiblePartial("", "xyz"))
}

func TestIsSalientText(t *testing.T) {
	require.True(t, daemon.IsSalientText("hello"))
	require.False(t, daemon.IsSalientText("   \n\t"))
	require.False(t, daemon.IsSalientText(""))
}

func TestIsClipserveWindow(t *testing.T) {
	require.True(t, daemon.IsClipserveWindow("clipserve"))
	require.False(t, daemon.IsClipserveWindow("xterm"))
}

func TestIsIgnoredWindow(t *testing.T) {
	patterns := []*regexp.Regexp{regexp.MustCompile(`^keepassxc`)}

	require.True(t, daemon.IsIgnoredWindow("keepassxc - Database", patterns))
	require.False(t, daemon.IsIgnoredWindow("xterm", patterns))
	require.False(t, daemon.IsIgnoredWindow("", patterns))
}

func TestPartialMergeState_ShouldMerge(t *testing.T) {
	var s daemon.PartialMergeState

	now := time.Now()

	require.False(t, s.ShouldMerge("abc", now, 2*time.Second))

	s.Record("foo", now)

	require.True(t, s.ShouldMerge("foobar", now.Add(time.Second), 2*time.Second))
	require.False(t, s.ShouldMerge("foobar", now.Add(3*time.Second), 2*time.Second))
	require.False(t, s.ShouldMerge("xyz", now.Add(time.Second), 2*time.Second))
}
