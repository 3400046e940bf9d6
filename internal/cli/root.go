// Package cli implements the vista command: inspecting view declarations,
// checking how addresses resolve and replaying navigation scenarios against
// an in-memory host.
package cli

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/BrandonKowalski/vista/pkg/vista"
	"github.com/BrandonKowalski/vista/pkg/vista/host"
)

// Output formats.
const (
	FormatAuto = "auto"
	FormatText = "text"
	FormatJSON = "json"
)

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{FormatAuto, FormatText, FormatJSON}

// RootOptions holds global flags for all commands. Every flag can also be
// set through a VISTA_ environment variable, e.g. VISTA_FORMAT=json.
type RootOptions struct {
	Verbose bool
	Format  string

	settings *viper.Viper
}

// NewRootCommand creates the root command for the vista CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "vista",
		Short: "vista - view switching with history",
		Long: `Inspect view declarations and exercise the view switching engine
without a user interface.

Views come from the [[view]] tables of a --config file and from
--views declaration files (TOML or YAML).`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.load(cmd)
		},
	}

	flags := cmd.PersistentFlags()
	flags.BoolP("verbose", "v", false, "verbose output on stderr")
	flags.String("format", FormatAuto, "output format (auto|text|json)")
	flags.StringP("config", "c", "", "TOML options file")
	flags.StringSlice("views", nil, "declaration files, TOML or YAML (repeatable)")
	flags.Bool("all-accessible", false, "make views reachable from addresses unless they say otherwise")
	flags.String("locale", "", "title language")
	flags.String("session-path", "", "bbolt database for session persistence")
	flags.String("session", "", "session name within --session-path")

	cmd.AddCommand(NewViewsCommand(opts))
	cmd.AddCommand(NewResolveCommand(opts))
	cmd.AddCommand(NewRunCommand(opts))

	return cmd
}

// load layers flags over environment variables and validates the format.
func (o *RootOptions) load(cmd *cobra.Command) error {
	v := viper.New()
	v.SetEnvPrefix("VISTA")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return WrapExitError(ExitCommandError, "failed to bind flags", err)
	}
	o.settings = v

	o.Verbose = v.GetBool("verbose")
	o.Format = v.GetString("format")
	if !slices.Contains(ValidFormats, o.Format) {
		return NewExitError(ExitCommandError,
			fmt.Sprintf("invalid format %q: must be one of %v", o.Format, ValidFormats))
	}
	o.Format = resolveFormat(o.Format, cmd.OutOrStdout())
	return nil
}

// formatter returns the output formatter for cmd.
func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}

// appOptions builds vista options from the config file, then the flags.
func (o *RootOptions) appOptions() (vista.Options, error) {
	var opts vista.Options
	if path := o.settings.GetString("config"); path != "" {
		loaded, err := vista.LoadOptions(path)
		if err != nil {
			return vista.Options{}, err
		}
		opts = loaded
	}

	opts.DeclarationPaths = append(opts.DeclarationPaths, o.settings.GetStringSlice("views")...)
	if o.settings.IsSet("all-accessible") {
		opts.AllAccessible = o.settings.GetBool("all-accessible")
	}
	if o.settings.IsSet("locale") {
		opts.Locale = o.settings.GetString("locale")
	}
	if o.settings.IsSet("session-path") {
		opts.SessionPath = o.settings.GetString("session-path")
	}
	if o.settings.IsSet("session") {
		opts.Session = o.settings.GetString("session")
	}
	return opts, nil
}

// open builds an application on h.
func (o *RootOptions) open(h host.Host) (*vista.App, error) {
	opts, err := o.appOptions()
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to read options", err)
	}
	app, err := vista.New(h, opts)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load views", err)
	}
	return app, nil
}
