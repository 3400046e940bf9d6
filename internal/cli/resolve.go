package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/BrandonKowalski/vista/pkg/vista/host"
)

// Resolution reports which view an address lands on when opened directly.
type Resolution struct {
	Address  string            `json:"address"`
	Resolved string            `json:"resolved,omitempty"`
	View     string            `json:"view,omitempty"`
	Options  map[string]string `json:"options,omitempty"`
	Reason   string            `json:"reason,omitempty"`
	Error    string            `json:"error,omitempty"`
}

// Resolutions is the result of the resolve command.
type Resolutions []Resolution

// WriteText writes one line per address.
func (rs Resolutions) WriteText(w io.Writer) error {
	for _, r := range rs {
		var err error
		switch {
		case r.Error != "":
			_, err = fmt.Fprintf(w, "%s -> error: %s\n", r.Address, r.Error)
		case r.Reason != "":
			_, err = fmt.Fprintf(w, "%s -> %s (%s)\n", r.Address, r.Resolved, r.Reason)
		default:
			_, err = fmt.Fprintf(w, "%s -> %s\n", r.Address, r.Resolved)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// Reasons an address does not land on the view it names.
const (
	ReasonNotFound      = "not found"
	ReasonNotAccessible = "not accessible"
)

// NewResolveCommand creates the resolve command.
func NewResolveCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <address>...",
		Short: "Show which view an address opens",
		Long: `Resolve addresses the way a cold start or a typed address does:
views that are not directly accessible follow their fallback chain, and
unknown views land on the default view. Options survive only when the
requested view is the one shown.

Examples:
  vista resolve '#detail' '#cart@shop!id=7' --views views.toml`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResolve(rootOpts, cmd, args)
		},
	}
}

func runResolve(opts *RootOptions, cmd *cobra.Command, addresses []string) error {
	out := opts.formatter(cmd)

	app, err := opts.open(host.NewMemoryHost(""))
	if err != nil {
		return err
	}
	defer app.Close()

	var (
		results = make(Resolutions, 0, len(addresses))
		failed  int
	)
	for _, raw := range addresses {
		res := Resolution{Address: raw}

		addr, err := host.ParseAddress(raw)
		if err != nil {
			res.Error = err.Error()
			results = append(results, res)
			failed++
			continue
		}

		requested := addr.Key()
		v := app.Resolver().ResolveKey(requested)
		shown := host.Address{ViewID: v.ID(), Namespace: v.Namespace()}
		switch {
		case !app.Registry().Has(requested):
			res.Reason = ReasonNotFound
		case v.Key() != requested:
			res.Reason = ReasonNotAccessible
		default:
			shown.Options = addr.Options
		}

		res.Resolved = host.FormatAddress(shown)
		res.View = v.Key().String()
		res.Options = shown.Options
		out.VerboseLog("%s: requested %s, showing %s", raw, requested.String(), res.View)
		results = append(results, res)
	}

	if err := out.Success(results); err != nil {
		return err
	}
	if failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d of %d addresses could not be parsed", failed, len(addresses)))
	}
	return nil
}
