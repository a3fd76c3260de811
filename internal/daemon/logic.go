// Package daemon implements the capture daemon: the selection-watching
// loop, enable/disable control, the partial-selection merge heuristic, and
// ignore-window filtering.
//
// This file holds the pieces of that logic with no X11 dependency, so they
// can be tested without a display.
package daemon

import (
	"regexp"
	"strings"
	"time"
)

// IsPossiblePartial reports whether s1 looks like a partial selection of
// s2 or vice versa: one is a prefix or a suffix of the other.
//
// Compares byte-wise, not rune-wise, matching clipmenud.c:is_possible_partial's
// strncmp/strcmp-based check; some badly-behaved X11 clients spam PRIMARY
// mid-drag, producing a sequence like "a", "ab", "abc".
func IsPossiblePartial(s1, s2 string) bool {
	len1, len2 := len(s1), len(s2)

	minLen := len1
	if len2 < minLen {
		minLen = len2
	}

	if s1[:minLen] == s2[:minLen] {
		return true
	}

	if len1 < len2 {
		return s1 == s2[len2-len1:]
	}
	return s2 == s1[len1-len2:]
}

// IsSalientText reports whether s has any non-whitespace character,
// matching clipmenud.c:is_salient_text.
func IsSalientText(s string) bool {
	return strings.TrimSpace(s) != ""
}

// IsClipserveWindow reports whether title matches the serve process's own
// window title, so the daemon doesn't re-capture what it just re-served
// (clipmenud.c:is_clipserve).
func IsClipserveWindow(title string) bool {
	return title == "clipserve"
}

// IsIgnoredWindow reports whether title matches any of the configured
// ignore-window regexes (clipmenud.c:is_ignored_window). An empty title
// never matches.
func IsIgnoredWindow(title string, patterns []*regexp.Regexp) bool {
	if title == "" {
		return false
	}
	for _, p := range patterns {
		if p.MatchString(title) {
			return true
		}
	}
	return false
}

// PartialMergeState tracks the most recently stored clip, for the
// partial-merge decision in Daemon.captureText (clipmenud.c's static last_text/
// last_text_time in store_clip).
type PartialMergeState struct {
	Text string
	At   time.Time
	set  bool
}

// ShouldMerge reports whether text should be merged (via Replace) into the
// previously stored clip rather than appended as a new one: it must be
// within maxAge of the last store, and look like a partial of it.
func (s *PartialMergeState) ShouldMerge(text string, now time.Time, maxAge time.Duration) bool {
	if !s.set {
		return false
	}
	if now.Sub(s.At) > maxAge {
		return false
	}
	return IsPossiblePartial(s.Text, text)
}

// Record updates the merge state after a clip has been stored.
func (s *PartialMergeState) Record(text string, now time.Time) {
	s.Text = text
	s.At = now
	s.set = true
}
