package vista

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BrandonKowalski/vista/pkg/vista/constants"
	"github.com/BrandonKowalski/vista/pkg/vista/discovery"
	"github.com/BrandonKowalski/vista/pkg/vista/host"
)

const optionsFile = `
all_accessible = true
log_level = "warn"
locale = "fr"

[[view]]
id = "home"
default = true
title = "Home"

[[view]]
id = "settings"
fallback = "home"
accessible = false
title = "Settings"
`

const frMessages = `
[view.settings]
title = "Réglages"
`

func write(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func clearEnv(t *testing.T) {
	t.Helper()
	t.Setenv(constants.LocaleEnvVar, "")
	t.Setenv(constants.LogLevelEnvVar, "")
}

func TestLoadOptions(t *testing.T) {
	opts, err := LoadOptions(write(t, "vista.toml", optionsFile))
	require.NoError(t, err)

	assert.True(t, opts.AllAccessible)
	assert.Equal(t, "warn", opts.LogLevel)
	assert.Equal(t, "fr", opts.Locale)
	require.Len(t, opts.Views, 2)
	assert.Equal(t, "settings", opts.Views[1].ID)
	assert.Equal(t, discovery.Flag("false"), opts.Views[1].Accessible)
}

func TestLoadOptions_Errors(t *testing.T) {
	_, err := LoadOptions(filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)
	assert.True(t, IsInfrastructureError(err))

	_, err = LoadOptions(write(t, "bad.toml", "all_accessible = [\n"))
	require.Error(t, err)
	assert.True(t, IsInfrastructureError(err))
}

func TestNew_InlineViews(t *testing.T) {
	clearEnv(t)
	h := host.NewMemoryHost("#settings")
	app, err := New(h, Options{Views: []discovery.Entry{
		{ID: "home", Default: true, Title: "Home"},
		{ID: "settings", Fallback: "home", Title: "Settings"},
	}})
	require.NoError(t, err)
	defer app.Close()

	_, err = app.Start()
	require.NoError(t, err)
	assert.Equal(t, "home", app.Active().ID(), "settings is not reachable from an address")
	assert.Equal(t, "Home", h.Title())

	_, err = app.NavTo("settings")
	require.NoError(t, err)
	assert.Equal(t, "settings", app.Active().ID())
	assert.Nil(t, app.Titles)
	assert.Nil(t, app.Store)
}

func TestNew_DeclarationFilesAndTitles(t *testing.T) {
	clearEnv(t)
	decls := write(t, "views.yaml", `
views:
  - id: home
    default: true
    title: Home
  - id: settings
    accessible: true
    title: Settings
`)
	messages := write(t, "fr.toml", frMessages)

	h := host.NewMemoryHost("#settings")
	app, err := New(h, Options{
		DeclarationPaths: []string{decls},
		MessageFiles:     []string{messages},
		Locale:           "fr",
	})
	require.NoError(t, err)
	defer app.Close()

	require.NotNil(t, app.Titles)
	assert.Equal(t, 2, app.Catalog.Len())

	_, err = app.Start()
	require.NoError(t, err)
	assert.Equal(t, "settings", app.Active().ID())
	assert.Equal(t, "Réglages", h.Title())

	_, err = app.NavTo("home")
	require.NoError(t, err)
	assert.Equal(t, "Home", h.Title(), "no message falls back to the declared title")
}

func TestNew_LocaleFromEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv(constants.LocaleEnvVar, "fr")

	h := host.NewMemoryHost("#settings")
	app, err := New(h, Options{
		AllAccessible: true,
		Views: []discovery.Entry{
			{ID: "home", Default: true},
			{ID: "settings", Title: "Settings"},
		},
		MessageFiles: []string{write(t, "fr.toml", frMessages)},
		Locale:       "en",
	})
	require.NoError(t, err)
	defer app.Close()

	_, err = app.Start()
	require.NoError(t, err)
	assert.Equal(t, "Réglages", h.Title())
}

func TestNew_Session(t *testing.T) {
	clearEnv(t)
	opts := Options{
		AllAccessible: true,
		Views: []discovery.Entry{
			{ID: "home", Default: true},
			{ID: "list"},
			{ID: "detail"},
		},
		SessionPath: filepath.Join(t.TempDir(), "session.db"),
		Session:     "player-one",
	}

	first, err := New(host.NewMemoryHost("#home"), opts)
	require.NoError(t, err)
	_, err = first.Start()
	require.NoError(t, err)
	_, err = first.NavTo("list")
	require.NoError(t, err)
	_, err = first.NavTo("detail")
	require.NoError(t, err)
	require.NoError(t, first.Back())
	require.NoError(t, first.Close())

	h := host.NewMemoryHost("#home")
	second, err := New(h, opts)
	require.NoError(t, err)
	defer second.Close()

	_, err = second.Start()
	require.NoError(t, err)
	assert.Equal(t, "list", second.Active().ID())
	assert.Equal(t, 3, second.Stack().Len())
	assert.True(t, second.Stack().CanGoForward())
	assert.Equal(t, 3, h.Len(), "host history is rebuilt")

	names, err := second.Store.Sessions()
	require.NoError(t, err)
	assert.Equal(t, []string{"player-one"}, names)
}

func TestNew_Errors(t *testing.T) {
	clearEnv(t)
	tests := []struct {
		name  string
		opts  Options
		check func(t *testing.T, err error)
	}{
		{
			name: "no views",
			opts: Options{},
			check: func(t *testing.T, err error) {
				assert.True(t, errors.Is(err, ErrNoViews))
			},
		},
		{
			name: "missing declaration file",
			opts: Options{DeclarationPaths: []string{"/nonexistent/views.toml"}},
			check: func(t *testing.T, err error) {
				assert.True(t, IsInfrastructureError(err))
			},
		},
		{
			name: "bad base locale",
			opts: Options{
				Views:      []discovery.Entry{{ID: "home"}},
				Locale:     "fr",
				BaseLocale: "not a locale!",
			},
			check: func(t *testing.T, err error) {
				assert.True(t, IsInfrastructureError(err))
			},
		},
		{
			name: "missing message file",
			opts: Options{
				Views:        []discovery.Entry{{ID: "home"}},
				MessageFiles: []string{"/nonexistent/fr.toml"},
			},
			check: func(t *testing.T, err error) {
				assert.True(t, IsInfrastructureError(err))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, err := New(host.NewMemoryHost(""), tt.opts)
			require.Error(t, err)
			assert.Nil(t, app)
			tt.check(t, err)
		})
	}
}

func TestApp_Instrument(t *testing.T) {
	clearEnv(t)
	app, err := New(host.NewMemoryHost("#home"), Options{Views: []discovery.Entry{
		{ID: "home", Default: true},
		{ID: "list"},
	}})
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	detach := app.Instrument(reg)
	defer detach()

	_, err = app.Start()
	require.NoError(t, err)
	_, err = app.NavTo("list")
	require.NoError(t, err)

	n, err := testutil.GatherAndCount(reg, "vista_transitions_total")
	require.NoError(t, err)
	assert.Equal(t, 2, n, "one series per type and trigger")
}

func TestInfrastructureError(t *testing.T) {
	cause := errors.New("disk full")
	err := NewInfrastructureError("open session store", cause)

	assert.Equal(t, "vista: open session store: disk full", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.True(t, IsInfrastructureError(err))
	assert.False(t, IsInfrastructureError(cause))
}
