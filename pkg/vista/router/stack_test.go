package router

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/BrandonKowalski/vista/pkg/vista/host"
	"github.com/BrandonKowalski/vista/pkg/vista/view"
)

func newTestStack() (*Stack, *host.MemoryHost) {
	h := host.NewMemoryHost("")
	clock := time.UnixMicro(1_000)
	serials := host.NewSerialGeneratorWithClock(func() time.Time { return clock })
	return NewStack(h, serials), h
}

func key(id string) view.Key {
	return view.NewKey(id, "")
}

// =============================================================================
// Push
// =============================================================================

func TestStack_PushAdvancesAndWritesThrough(t *testing.T) {
	s, h := newTestStack()
	s.Replace(key("v1"), nil, nil)
	s.Push(key("v2"), nil)
	st := s.Push(key("v3"), map[string]string{"id": "9"})

	assert.Equal(t, 3, s.Len())
	assert.Equal(t, 2, s.Cursor())
	assert.Equal(t, 3, h.Len())
	assert.Equal(t, "#v3!id=9", h.Address())
	require.NotNil(t, h.Current())
	assert.Equal(t, st.Serial, h.Current().Serial)
}

func TestStack_PushTruncatesForwardBranch(t *testing.T) {
	s, _ := newTestStack()
	s.Replace(key("v1"), nil, nil)
	second := s.Push(key("v2"), nil)
	s.Push(key("v3"), nil)

	first := s.Entries()[0]
	s.Replace(key("v2"), &second.Serial, nil)
	s.Replace(key("v1"), &first.Serial, nil)
	require.Equal(t, 0, s.Cursor())

	s.Push(key("v4"), nil)
	assert.Equal(t, 2, s.Len())
	assert.Equal(t, []string{"v1", "v4"}, ids(s.Entries()))
	assert.False(t, s.CanGoForward())
}

// =============================================================================
// Replace
// =============================================================================

func TestStack_PushThenReplaceSameSerialIsOverwrite(t *testing.T) {
	s, h := newTestStack()
	s.Replace(key("v1"), nil, nil)
	pushed := s.Push(key("v2"), nil)

	s.Replace(key("v2"), &pushed.Serial, map[string]string{"tab": "b"})

	assert.Equal(t, 1, s.Cursor())
	assert.Equal(t, 2, s.Len())
	cur, ok := s.Current()
	require.True(t, ok)
	assert.Equal(t, pushed.Serial, cur.Serial)
	assert.Equal(t, map[string]string{"tab": "b"}, cur.Options)
	assert.Equal(t, "#v2!tab=b", h.Address())
}

func TestStack_BackWalk(t *testing.T) {
	s, _ := newTestStack()
	s.Replace(key("v1"), nil, nil)
	s.Push(key("v2"), nil)
	s.Push(key("v3"), nil)
	entries := s.Entries()

	assert.True(t, s.CanGoBack())

	st := s.Replace(key("v2"), &entries[1].Serial, nil)
	assert.Equal(t, 1, s.Cursor())
	assert.Equal(t, "v2", st.ViewID)
	assert.True(t, s.CanGoBack())

	st = s.Replace(key("v1"), &entries[0].Serial, nil)
	assert.Equal(t, 0, s.Cursor())
	assert.Equal(t, "v1", st.ViewID)
	assert.False(t, s.CanGoBack())
	assert.True(t, s.CanGoForward())
	assert.Equal(t, 3, s.Len())
}

func TestStack_ReplaceForwardAndJump(t *testing.T) {
	s, _ := newTestStack()
	s.Replace(key("v1"), nil, nil)
	s.Push(key("v2"), nil)
	s.Push(key("v3"), nil)
	s.Push(key("v4"), nil)
	entries := s.Entries()

	s.Replace(key("v1"), &entries[0].Serial, nil)
	assert.Equal(t, 0, s.Cursor(), "multi-step jump back")

	s.Replace(key("v2"), &entries[1].Serial, nil)
	assert.Equal(t, 1, s.Cursor())

	s.Replace(key("v4"), &entries[3].Serial, nil)
	assert.Equal(t, 3, s.Cursor(), "multi-step jump forward")
}

func TestStack_ReplaceNilSerialKeepsSerial(t *testing.T) {
	s, _ := newTestStack()
	s.Replace(key("v1"), nil, nil)
	pushed := s.Push(key("v2"), nil)

	st := s.Replace(key("other"), nil, nil)
	assert.Equal(t, pushed.Serial, st.Serial)
	assert.Equal(t, "other", st.ViewID)
	assert.Equal(t, 2, s.Len())
}

func TestStack_ReplaceUnknownSerialOverwritesWithIt(t *testing.T) {
	s, _ := newTestStack()
	s.Replace(key("v1"), nil, nil)

	foreign := host.Serial(9_999_999)
	st := s.Replace(key("v2"), &foreign, nil)
	assert.Equal(t, foreign, st.Serial)
	assert.Equal(t, 0, s.Cursor())

	next := s.Push(key("v3"), nil)
	assert.Greater(t, int64(next.Serial), int64(foreign))
}

func TestStack_ReplaceOnEmptyRecordsFirstEntry(t *testing.T) {
	s, h := newTestStack()
	assert.True(t, s.IsEmpty())
	_, ok := s.Current()
	assert.False(t, ok)

	s.Replace(key("home"), nil, nil)
	assert.Equal(t, 0, s.Cursor())
	assert.Equal(t, 1, h.Len(), "host entry replaced, not pushed")
	assert.Equal(t, "#home", h.Address())
}

// =============================================================================
// Adopt and Neighbor
// =============================================================================

func TestStack_Adopt(t *testing.T) {
	s, h := newTestStack()
	s.Replace(key("v1"), nil, nil)
	h.Visit("#v2")

	s.Adopt(key("v2"), nil)
	assert.Equal(t, 1, s.Cursor())
	assert.Equal(t, 2, h.Len())
	require.NotNil(t, h.Current())
	assert.Equal(t, "v2", h.Current().ViewID)
}

func TestStack_Neighbor(t *testing.T) {
	s, _ := newTestStack()
	s.Replace(key("v1"), nil, nil)
	s.Push(key("v2"), nil)
	s.Push(key("v3"), nil)
	entries := s.Entries()
	s.Replace(key("v2"), &entries[1].Serial, nil)

	got, ok := s.Neighbor(key("v1"))
	assert.True(t, ok)
	assert.Equal(t, entries[0].Serial, got)

	got, ok = s.Neighbor(key("v3"))
	assert.True(t, ok)
	assert.Equal(t, entries[2].Serial, got)

	_, ok = s.Neighbor(key("v9"))
	assert.False(t, ok)
}

// =============================================================================
// Snapshot
// =============================================================================

func TestStack_SnapshotRestore(t *testing.T) {
	s, _ := newTestStack()
	s.Replace(key("v1"), nil, nil)
	s.Push(key("v2"), map[string]string{"a": "1"})
	snap := s.Snapshot()

	snap.Entries[1].Options["a"] = "mutated"
	assert.Equal(t, "1", s.Entries()[1].Options["a"], "snapshot is a copy")

	other, _ := newTestStack()
	other.Restore(snap)
	assert.Equal(t, 1, other.Cursor())
	assert.Equal(t, 2, other.Len())

	next := other.Push(key("v3"), nil)
	assert.Greater(t, int64(next.Serial), int64(snap.Entries[1].Serial))
}

// =============================================================================
// Properties
// =============================================================================

func TestStack_SerialsStayOrderedAlongTheStack(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		s, _ := newTestStack()
		s.Replace(key("root"), nil, nil)

		steps := rapid.IntRange(1, 40).Draw(rt, "steps")
		for i := 0; i < steps; i++ {
			entries := s.Entries()
			switch rapid.IntRange(0, 3).Draw(rt, "op") {
			case 0:
				s.Push(key("v"), nil)
			case 1:
				s.Replace(key("r"), nil, nil)
			case 2:
				j := rapid.IntRange(0, len(entries)-1).Draw(rt, "target")
				s.Replace(entries[j].Key(), &entries[j].Serial, nil)
				if s.Cursor() != j {
					rt.Fatalf("cursor %d after replacing entry %d", s.Cursor(), j)
				}
			case 3:
				before := s.Len()
				s.Replace(key("x"), nil, nil)
				if s.Len() != before {
					rt.Fatalf("replace grew the stack")
				}
			}

			entries = s.Entries()
			for k := 1; k < len(entries); k++ {
				if entries[k-1].Serial >= entries[k].Serial {
					rt.Fatalf("serials out of order at %d: %v", k, entries)
				}
			}
			if c := s.Cursor(); c < 0 || c >= len(entries) {
				rt.Fatalf("cursor %d out of range %d", c, len(entries))
			}
		}
	})
}

func ids(entries []host.State) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.ViewID
	}
	return out
}
