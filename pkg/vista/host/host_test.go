package host

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BrandonKowalski/vista/pkg/vista/view"
)

// =============================================================================
// Address codec
// =============================================================================

func TestParseAddress(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Address
	}{
		{
			name: "id only",
			raw:  "#home",
			want: Address{ViewID: "home", Namespace: "default"},
		},
		{
			name: "namespace",
			raw:  "#list@admin",
			want: Address{ViewID: "list", Namespace: "admin"},
		},
		{
			name: "options",
			raw:  "#detail!id=42&tab=info",
			want: Address{ViewID: "detail", Namespace: "default", Options: map[string]string{"id": "42", "tab": "info"}},
		},
		{
			name: "namespace and options",
			raw:  "#detail@shop!q=red%20shoes&empty=",
			want: Address{ViewID: "detail", Namespace: "shop", Options: map[string]string{"q": "red shoes", "empty": ""}},
		},
		{
			name: "full url",
			raw:  "https://example.com/app?x=1#home!a=%26",
			want: Address{ViewID: "home", Namespace: "default", Options: map[string]string{"a": "&"}},
		},
		{
			name: "trailing bang",
			raw:  "#home!",
			want: Address{ViewID: "home", Namespace: "default"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAddress(tt.raw)
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ParseAddress(%q) mismatch (-want +got):\n%s", tt.raw, diff)
			}
		})
	}
}

func TestParseAddress_Errors(t *testing.T) {
	for _, raw := range []string{"", "#", "#@admin", "#!a=1", "#home!a=%zz"} {
		_, err := ParseAddress(raw)
		assert.ErrorIs(t, err, ErrBadAddress, "raw=%q", raw)
	}
}

func TestFormatAddress(t *testing.T) {
	assert.Equal(t, "#home", FormatAddress(Address{ViewID: "home", Namespace: "default"}))
	assert.Equal(t, "#list@admin", FormatAddress(Address{ViewID: "list", Namespace: "admin"}))
	assert.Equal(t, "#detail!a=1&b=x%20y%26z",
		FormatAddress(Address{ViewID: "detail", Options: map[string]string{"b": "x y&z", "a": "1"}}))
}

func TestAddress_RoundTrip(t *testing.T) {
	in := Address{ViewID: "detail", Namespace: "shop", Options: map[string]string{"q": "a=b&c d/é"}}
	out, err := ParseAddress(FormatAddress(in))
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

// =============================================================================
// Serials
// =============================================================================

func TestSerialGenerator_StrictlyIncreasingUnderFrozenClock(t *testing.T) {
	frozen := time.UnixMicro(1_000_000)
	g := NewSerialGeneratorWithClock(func() time.Time { return frozen })

	a := g.Next()
	b := g.Next()
	c := g.Next()
	assert.Equal(t, Serial(1_000_000), a)
	assert.Less(t, int64(a), int64(b))
	assert.Less(t, int64(b), int64(c))
}

func TestSerialGenerator_Observe(t *testing.T) {
	g := NewSerialGeneratorWithClock(func() time.Time { return time.UnixMicro(10) })
	g.Observe(500)
	assert.Equal(t, Serial(501), g.Next())

	g.Observe(5)
	assert.Equal(t, Serial(502), g.Next(), "observing an older serial changes nothing")
}

// =============================================================================
// MemoryHost
// =============================================================================

func TestMemoryHost_PushBackForward(t *testing.T) {
	h := NewMemoryHost("#a")
	var got []Notification
	h.Notify(func(n Notification) { got = append(got, n) })

	h.ReplaceState(NewState(view.NewKey("a", ""), 1, nil), "#a")
	h.PushState(NewState(view.NewKey("b", ""), 2, nil), "#b")
	h.PushState(NewState(view.NewKey("c", ""), 3, nil), "#c")
	assert.Equal(t, 3, h.Len())
	assert.Equal(t, "#c", h.Address())

	h.Back()
	h.Back()
	h.Back() // past the start, ignored
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[0].State.ViewID)
	assert.Equal(t, Serial(1), got[1].State.Serial)
	assert.Equal(t, 0, h.Index())

	h.Forward()
	require.Len(t, got, 3)
	assert.Equal(t, "#b", got[2].Address)

	h.PushState(NewState(view.NewKey("d", ""), 4, nil), "#d")
	assert.Equal(t, 3, h.Len(), "push discards the forward branch")
}

func TestMemoryHost_VisitIsAddressOnly(t *testing.T) {
	h := NewMemoryHost("#a")
	var got []Notification
	h.Notify(func(n Notification) { got = append(got, n) })

	h.Visit("#b!x=1")
	require.Len(t, got, 1)
	assert.Nil(t, got[0].State)
	assert.Equal(t, "#b!x=1", got[0].Address)
	assert.Equal(t, 2, h.Len())
}

func TestMemoryHost_WithoutStatePayload(t *testing.T) {
	h := NewMemoryHost("#a", WithoutStatePayload())
	h.PushState(NewState(view.NewKey("b", ""), 2, nil), "#b")
	assert.Nil(t, h.Current())
}

func TestMemoryHost_Restore(t *testing.T) {
	h := NewMemoryHost("")
	h.Restore([]State{
		NewState(view.NewKey("a", ""), 1, nil),
		NewState(view.NewKey("b", "x"), 2, map[string]string{"k": "v"}),
	}, 1)

	assert.Equal(t, 2, h.Len())
	assert.Equal(t, "#b@x!k=v", h.Address())
	require.NotNil(t, h.Current())
	assert.Equal(t, Serial(2), h.Current().Serial)
}
