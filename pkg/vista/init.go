// Package vista is the entry point of the view-switching framework. It builds a
// router from an Options value, wiring declaration files, localized titles and
// a persisted session, and exposes the logging setup shared by every package.
//
// Applications that need finer control use the router, view, transition and
// host packages directly.
package vista

import (
	"log/slog"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/text/language"

	"github.com/BrandonKowalski/vista/pkg/vista/constants"
	"github.com/BrandonKowalski/vista/pkg/vista/discovery"
	"github.com/BrandonKowalski/vista/pkg/vista/host"
	"github.com/BrandonKowalski/vista/pkg/vista/i18n"
	"github.com/BrandonKowalski/vista/pkg/vista/internal"
	"github.com/BrandonKowalski/vista/pkg/vista/metrics"
	"github.com/BrandonKowalski/vista/pkg/vista/router"
	"github.com/BrandonKowalski/vista/pkg/vista/store"
)

// Options configures an application. It can be written by hand or read from
// a TOML file with LoadOptions.
type Options struct {
	// Views declared inline, as [[view]] tables.
	Views []discovery.Entry `toml:"view"`

	// DeclarationPaths lists TOML or YAML declaration files, loaded after Views.
	DeclarationPaths []string `toml:"declarations"`

	// AllAccessible makes views that do not say otherwise reachable directly
	// from an address.
	AllAccessible bool `toml:"all_accessible"`

	// AnimateHistory runs the animation hook for history moves too.
	AnimateHistory bool `toml:"animate_history"`

	// BaseLocale is the language of declared titles. Defaults to English.
	BaseLocale string `toml:"base_locale"`

	// Locale selects the title language. VISTA_LOCALE overrides it.
	Locale string `toml:"locale"`

	// MessageFiles are go-i18n message files holding localized titles.
	MessageFiles []string `toml:"messages"`

	// LogPath is the full path of the log file. Empty logs to stdout only.
	LogPath string `toml:"log_path"`

	// LogLevel is debug, info, warn or error. VISTA_LOG_LEVEL overrides it.
	LogLevel string `toml:"log_level"`

	// SessionPath is a bbolt database the stack is saved to after every
	// change and restored from on Start. Empty disables persistence.
	SessionPath string `toml:"session_path"`

	// Session names the saved session within SessionPath.
	Session string `toml:"session"`
}

// LoadOptions reads Options from a TOML file. Unknown keys are logged and
// ignored.
func LoadOptions(path string) (Options, error) {
	var opts Options
	md, err := toml.DecodeFile(path, &opts)
	if err != nil {
		return Options{}, NewInfrastructureError("read options", err)
	}
	for _, key := range md.Undecoded() {
		internal.GetInternalLogger().Warn("unknown option", "key", key.String(), "file", path)
	}
	return opts, nil
}

// Init configures logging from options. New calls it; call it directly when
// building a router without New.
func Init(options Options) {
	if options.LogPath != "" {
		internal.SetLogPath(options.LogPath)
	}

	level := options.LogLevel
	if env := os.Getenv(constants.LogLevelEnvVar); env != "" {
		level = env
	}
	if level != "" {
		internal.SetRawLogLevel(level)
	}

	if constants.IsDevMode() {
		internal.SetInternalLogLevel(slog.LevelDebug)
	}
}

// App is a router together with the resources New opened for it.
type App struct {
	*router.Router

	Catalog *discovery.Catalog
	Titles  *i18n.Titles
	Store   *store.Bolt
}

// New builds an application on h. Extra router options are applied after the
// ones derived from options.
func New(h host.Host, options Options, extra ...router.Option) (*App, error) {
	Init(options)

	app := &App{Catalog: discovery.NewCatalog()}
	for _, e := range options.Views {
		app.Catalog.Add(e.Declaration())
	}
	for _, p := range options.DeclarationPaths {
		if err := app.Catalog.LoadFile(p); err != nil {
			return nil, NewInfrastructureError("load declarations", err)
		}
	}

	opts := []router.Option{
		router.WithAllAccessible(options.AllAccessible),
		router.WithHistoryAnimation(options.AnimateHistory),
	}

	titles, err := loadTitles(options)
	if err != nil {
		return nil, err
	}
	if titles != nil {
		app.Titles = titles
		opts = append(opts, router.WithTitler(titles))
	}

	if options.SessionPath != "" {
		s, err := store.Open(options.SessionPath, options.Session)
		if err != nil {
			return nil, NewInfrastructureError("open session store", err)
		}
		app.Store = s
		opts = append(opts, router.WithPersister(s))
	}

	r, err := router.New(h, app.Catalog, append(opts, extra...)...)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.Router = r

	internal.GetInternalLogger().Debug("application ready",
		"views", r.Registry().Len(),
		"default", r.Registry().Default().String(),
		"persisted", app.Store != nil)
	return app, nil
}

func loadTitles(options Options) (*i18n.Titles, error) {
	locale := options.Locale
	if env := os.Getenv(constants.LocaleEnvVar); env != "" {
		locale = env
	}
	if locale == "" && len(options.MessageFiles) == 0 {
		return nil, nil
	}

	base := language.English
	if options.BaseLocale != "" {
		tag, err := language.Parse(options.BaseLocale)
		if err != nil {
			return nil, NewInfrastructureError("parse base locale", err)
		}
		base = tag
	}

	titles := i18n.New(base)
	for _, p := range options.MessageFiles {
		if err := titles.LoadFile(p); err != nil {
			return nil, NewInfrastructureError("load messages", err)
		}
	}
	if locale != "" {
		titles.SetLocale(locale)
	}
	return titles, nil
}

// Instrument registers transition metrics with reg and starts recording.
func (a *App) Instrument(reg prometheus.Registerer) (detach func()) {
	return metrics.New(reg).Attach(a.Router)
}

// Close releases the session store, if any.
func (a *App) Close() error {
	if a.Store == nil {
		return nil
	}
	return a.Store.Close()
}

// SetLogPath sets the full path for the log file, including filename.
// Must be called before the first logger is requested.
func SetLogPath(path string) {
	internal.SetLogPath(path)
}

// GetLogger returns the application logger.
func GetLogger() *slog.Logger {
	return internal.GetLogger()
}

// SetLogLevel sets the application log level.
func SetLogLevel(level slog.Level) {
	internal.SetLogLevel(level)
}

// SetRawLogLevel sets the application log level from its name.
func SetRawLogLevel(level string) {
	internal.SetRawLogLevel(level)
}

// CloseLogger closes the log file.
func CloseLogger() {
	internal.CloseLogger()
}
