package view

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func newResolver(t testing.TB, decls StaticSource, allAccessible bool) (*Registry, *Resolver) {
	t.Helper()
	reg := NewRegistry(decls)
	require.NoError(t, reg.Init())
	return reg, NewResolver(reg, nil, allAccessible)
}

func TestResolver_Scenario(t *testing.T) {
	_, res := newResolver(t, StaticSource{
		{ID: "A", Default: true, Accessible: AccessAllowed},
		{ID: "B", Fallback: "A"},
		{ID: "C", Accessible: AccessDenied, Fallback: ":default-view"},
	}, false)

	assert.Equal(t, "A", res.Resolve(ParseTarget("C", "")).ID())
	assert.Equal(t, "A", res.Resolve(ParseTarget("B", "")).ID())
	assert.Equal(t, "A", res.Resolve(ParseTarget("A", "")).ID())
}

func TestResolver_AccessibleReturnsItself(t *testing.T) {
	_, res := newResolver(t, StaticSource{
		{ID: "home", Default: true},
		{ID: "detail", Accessible: AccessAllowed},
	}, false)

	assert.Equal(t, "detail", res.ResolveKey(NewKey("detail", "")).ID())
}

func TestResolver_GlobalFlag(t *testing.T) {
	decls := StaticSource{
		{ID: "home", Default: true},
		{ID: "detail"},
		{ID: "locked", Accessible: AccessDenied},
	}

	_, strict := newResolver(t, decls, false)
	assert.Equal(t, "home", strict.ResolveKey(NewKey("detail", "")).ID())

	_, open := newResolver(t, decls, true)
	assert.Equal(t, "detail", open.ResolveKey(NewKey("detail", "")).ID())
	assert.Equal(t, "home", open.ResolveKey(NewKey("locked", "")).ID(), "own flag beats global flag")
}

func TestResolver_FollowsChainToFirstAccessible(t *testing.T) {
	_, res := newResolver(t, StaticSource{
		{ID: "home", Default: true},
		{ID: "step1", Fallback: "step2"},
		{ID: "step2", Fallback: "step3"},
		{ID: "step3", Accessible: AccessAllowed, Fallback: "home"},
	}, false)

	assert.Equal(t, "step3", res.ResolveKey(NewKey("step1", "")).ID())
}

func TestResolver_CycleLandsOnDefault(t *testing.T) {
	_, res := newResolver(t, StaticSource{
		{ID: "home", Default: true},
		{ID: "A", Fallback: "B"},
		{ID: "B", Fallback: "A"},
	}, false)

	assert.Equal(t, "home", res.ResolveKey(NewKey("A", "")).ID())
	assert.Equal(t, "home", res.ResolveKey(NewKey("B", "")).ID())
}

func TestResolver_SelfCycle(t *testing.T) {
	_, res := newResolver(t, StaticSource{
		{ID: "home", Default: true},
		{ID: "loop", Fallback: "loop"},
	}, false)

	assert.Equal(t, "home", res.ResolveKey(NewKey("loop", "")).ID())
}

func TestResolver_MissingHopLandsOnDefault(t *testing.T) {
	_, res := newResolver(t, StaticSource{
		{ID: "home", Default: true},
		{ID: "orphan", Fallback: "ghost"},
		{ID: "bare"},
	}, false)

	assert.Equal(t, "home", res.ResolveKey(NewKey("orphan", "")).ID())
	assert.Equal(t, "home", res.ResolveKey(NewKey("bare", "")).ID(), "no fallback declared")
}

func TestResolver_GroupFallback(t *testing.T) {
	_, res := newResolver(t, StaticSource{
		{ID: "home", Default: true},
		{ID: "tab1", Group: "tabs", Accessible: AccessAllowed},
		{ID: "tab2", Group: "tabs", Accessible: AccessAllowed},
		{ID: "modal", Fallback: "~tabs"},
	}, false)

	assert.Equal(t, "tab1", res.ResolveKey(NewKey("modal", "")).ID())
	assert.Equal(t, "tab1", res.Resolve(Group{Name: "TABS"}).ID())
}

func TestResolver_NamespacedFallback(t *testing.T) {
	_, res := newResolver(t, StaticSource{
		{ID: "home", Default: true},
		{ID: "index", Namespace: "admin", Accessible: AccessAllowed},
		{ID: "users", Namespace: "admin", Fallback: "index"},
		{ID: "audit", Namespace: "admin", Fallback: "home@default"},
	}, false)

	got := res.ResolveKey(NewKey("users", "admin"))
	assert.Equal(t, NewKey("index", "admin"), got.Key(), "fallback is relative to the view's namespace")
	assert.Equal(t, "home", res.ResolveKey(NewKey("audit", "admin")).ID())
}

func TestResolver_EmptyOrUnknownUsesActive(t *testing.T) {
	reg := NewRegistry(StaticSource{
		{ID: "home", Default: true},
		{ID: "list", Accessible: AccessAllowed},
	})
	require.NoError(t, reg.Init())

	var active *View
	res := NewResolver(reg, func() *View { return active }, false)

	assert.Equal(t, "home", res.Resolve(nil).ID(), "nothing active: default")
	assert.Equal(t, "home", res.ResolveKey(NewKey("nope", "")).ID())

	active, _ = reg.OfID("list", "")
	assert.Equal(t, "list", res.Resolve(nil).ID())
	assert.Equal(t, "list", res.ResolveKey(NewKey("nope", "")).ID())
	assert.Equal(t, "list", res.Resolve(Back{}).ID())
	assert.Equal(t, "home", res.Resolve(DefaultView{}).ID())
}

func TestResolver_LongChainIsCapped(t *testing.T) {
	decls := StaticSource{{ID: "home", Default: true}}
	for i := 0; i < MaxFallbackHops+5; i++ {
		decls = append(decls, Declaration{
			ID:       fmt.Sprintf("v%d", i),
			Fallback: fmt.Sprintf("v%d", i+1),
		})
	}
	last := MaxFallbackHops + 5
	decls = append(decls, Declaration{ID: fmt.Sprintf("v%d", last), Accessible: AccessAllowed})

	_, res := newResolver(t, decls, false)
	assert.Equal(t, "home", res.ResolveKey(NewKey("v0", "")).ID())
}

func TestResolver_FallbackAlwaysTerminates(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(1, 12).Draw(rt, "views")
		decls := make(StaticSource, 0, n)
		for i := 0; i < n; i++ {
			fallback := ""
			switch rapid.IntRange(0, 3).Draw(rt, "fallbackKind") {
			case 0:
				fallback = fmt.Sprintf("v%d", rapid.IntRange(0, n).Draw(rt, "fallbackTarget"))
			case 1:
				fallback = ":default-view"
			case 2:
				fallback = "~g"
			}
			decls = append(decls, Declaration{
				ID:         fmt.Sprintf("v%d", i),
				Default:    i == 0 && rapid.Bool().Draw(rt, "declaredDefault"),
				Accessible: Accessibility(rapid.IntRange(0, 2).Draw(rt, "access")),
				Fallback:   fallback,
				Group:      rapid.SampledFrom([]string{"", "g"}).Draw(rt, "group"),
			})
		}

		reg := NewRegistry(decls)
		if err := reg.Init(); err != nil {
			rt.Fatalf("init: %v", err)
		}
		res := NewResolver(reg, nil, rapid.Bool().Draw(rt, "allAccessible"))

		for _, d := range decls {
			got := res.ResolveKey(d.Key())
			if got == nil {
				rt.Fatalf("resolve(%s) returned nil", d.ID)
			}
			if got != reg.Default() && !got.DirectlyAccessible(res.allAccessible) {
				rt.Fatalf("resolve(%s) = %s which is neither default nor accessible", d.ID, got)
			}
		}
	})
}
