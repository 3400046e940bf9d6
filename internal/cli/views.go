package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/BrandonKowalski/vista/pkg/vista/host"
	"github.com/BrandonKowalski/vista/pkg/vista/view"
)

// ViewInfo describes one registered view.
type ViewInfo struct {
	Key        string `json:"key"`
	ID         string `json:"id"`
	Namespace  string `json:"namespace"`
	Default    bool   `json:"default"`
	Accessible string `json:"accessible"`
	Fallback   string `json:"fallback,omitempty"`
	Group      string `json:"group,omitempty"`
	Title      string `json:"title,omitempty"`
}

// ViewList is the result of the views command.
type ViewList []ViewInfo

// WriteText writes one line per view.
func (l ViewList) WriteText(w io.Writer) error {
	for _, v := range l {
		var b strings.Builder
		b.WriteString(v.Key)
		if v.Default {
			b.WriteString(" [default]")
		}
		fmt.Fprintf(&b, " access=%s", v.Accessible)
		if v.Fallback != "" {
			fmt.Fprintf(&b, " fallback=%s", v.Fallback)
		}
		if v.Group != "" {
			fmt.Fprintf(&b, " group=%s", v.Group)
		}
		if v.Title != "" {
			fmt.Fprintf(&b, " title=%q", v.Title)
		}
		if _, err := fmt.Fprintln(w, b.String()); err != nil {
			return err
		}
	}
	return nil
}

func describeView(v *view.View) ViewInfo {
	info := ViewInfo{
		Key:        v.Key().String(),
		ID:         v.ID(),
		Namespace:  v.Namespace(),
		Default:    v.IsDefault(),
		Accessible: v.Accessibility().String(),
		Group:      v.Group(),
		Title:      v.Title(),
	}
	if fb := v.Fallback(); fb != nil {
		info.Fallback = fb.String()
	}
	return info
}

// NewViewsCommand creates the views command.
func NewViewsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "views [group]",
		Short: "List declared views",
		Long: `List the declared views in registration order, optionally only those
tagged with a group.

Examples:
  vista views --views views.toml
  vista views checkout --config vista.toml --format json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var filter string
			if len(args) == 1 {
				filter = args[0]
			}
			return runViews(rootOpts, cmd, filter)
		},
	}
}

func runViews(opts *RootOptions, cmd *cobra.Command, filter string) error {
	out := opts.formatter(cmd)

	app, err := opts.open(host.NewMemoryHost(""))
	if err != nil {
		return err
	}
	defer app.Close()

	views := app.Registry().List(filter)
	out.VerboseLog("%d of %d views listed", len(views), app.Registry().Len())

	list := make(ViewList, 0, len(views))
	for _, v := range views {
		list = append(list, describeView(v))
	}
	return out.Success(list)
}
