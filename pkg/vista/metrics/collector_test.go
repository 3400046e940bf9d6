package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BrandonKowalski/vista/pkg/vista/host"
	"github.com/BrandonKowalski/vista/pkg/vista/router"
	"github.com/BrandonKowalski/vista/pkg/vista/view"
)

func TestCollector(t *testing.T) {
	reg := prometheus.NewPedanticRegistry()
	c := New(reg)

	h := host.NewMemoryHost("#home")
	r, err := router.New(h, view.StaticSource{
		{ID: "home", Default: true, Accessible: view.AccessAllowed},
		{ID: "list"},
	})
	require.NoError(t, err)
	detach := c.Attach(r)

	_, err = r.Start()
	require.NoError(t, err)
	_, err = r.NavTo("list")
	require.NoError(t, err)
	_, err = r.NavTo("ghost@shop")
	require.NoError(t, err)
	h.Back()

	assert.Equal(t, 1.0, testutil.ToFloat64(c.transitions.WithLabelValues("nav", "navigator")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.transitions.WithLabelValues("nav", "app")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.transitions.WithLabelValues("history.back", "navigator")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.missing.WithLabelValues("shop")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.depth))
	assert.Equal(t, 2, testutil.CollectAndCount(c.duration))
	assert.Empty(t, c.started, "every started transition was observed")

	detach()
	_, err = r.NavTo("list")
	require.NoError(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(c.transitions.WithLabelValues("nav", "app")))

	n, err := testutil.GatherAndCount(reg)
	require.NoError(t, err)
	assert.Positive(t, n)
}
