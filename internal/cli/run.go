package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/BrandonKowalski/vista/pkg/vista"
	"github.com/BrandonKowalski/vista/pkg/vista/constants"
	"github.com/BrandonKowalski/vista/pkg/vista/event"
	"github.com/BrandonKowalski/vista/pkg/vista/host"
	"github.com/BrandonKowalski/vista/pkg/vista/router"
	"github.com/BrandonKowalski/vista/pkg/vista/transition"
	"github.com/BrandonKowalski/vista/pkg/vista/view"
)

// Scenario actions.
const (
	ActionNav         = "nav"          // Router.NavTo target
	ActionChange      = "change"       // Router.ChangeTo target
	ActionBack        = "back"         // Router.Back
	ActionForward     = "forward"      // Router.Forward
	ActionParams      = "params"       // Router.SetParams target
	ActionHostBack    = "host-back"    // the user presses back
	ActionHostForward = "host-forward" // the user presses forward
	ActionGo          = "go"           // the user jumps delta entries
	ActionVisit       = "visit"        // the user types target as an address
)

var validActions = []string{
	ActionNav, ActionChange, ActionBack, ActionForward, ActionParams,
	ActionHostBack, ActionHostForward, ActionGo, ActionVisit,
}

// Scenario is a scripted navigation session, read from YAML:
//
//	name: checkout
//	address: "#home"
//	steps:
//	  - action: nav
//	    target: list
//	  - action: nav
//	    target: cart@shop
//	    options: {id: "7"}
//	    params: {qty: 2}
//	  - action: host-back
type Scenario struct {
	Name    string `yaml:"name"`
	Address string `yaml:"address"`
	Steps   []Step `yaml:"steps"`
}

// Step is one scenario action.
type Step struct {
	Action  string            `yaml:"action" json:"action"`
	Target  string            `yaml:"target,omitempty" json:"target,omitempty"`
	Options map[string]string `yaml:"options,omitempty" json:"options,omitempty"`
	Params  any               `yaml:"params,omitempty" json:"params,omitempty"`
	Delta   int               `yaml:"delta,omitempty" json:"delta,omitempty"`
}

// LoadScenario reads and validates a scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	for i, st := range sc.Steps {
		if err := st.validate(); err != nil {
			return nil, fmt.Errorf("step %d: %w", i+1, err)
		}
	}
	return &sc, nil
}

func (s Step) validate() error {
	switch s.Action {
	case ActionNav, ActionChange, ActionParams, ActionVisit:
		if s.Target == "" {
			return fmt.Errorf("%s needs a target", s.Action)
		}
	case ActionGo:
		if s.Delta == 0 {
			return errors.New("go needs a non-zero delta")
		}
	case ActionBack, ActionForward, ActionHostBack, ActionHostForward:
	default:
		return fmt.Errorf("unknown action %q (want one of %s)", s.Action, strings.Join(validActions, ", "))
	}
	return nil
}

// TraceEvent is one event observed during a step.
type TraceEvent struct {
	Name    string `json:"name"`
	View    string `json:"view"`
	Source  string `json:"source,omitempty"`
	Type    string `json:"type,omitempty"`
	Trigger string `json:"trigger,omitempty"`
	Params  any    `json:"params,omitempty"`
}

// StepResult is the trace of one step.
type StepResult struct {
	Step
	Outcome string       `json:"outcome,omitempty"`
	Error   string       `json:"error,omitempty"`
	Events  []TraceEvent `json:"events"`
}

// RunResult is the result of the run command.
type RunResult struct {
	Scenario string             `json:"scenario,omitempty"`
	Steps    []StepResult       `json:"steps"`
	Active   string             `json:"active"`
	Address  string             `json:"address"`
	Title    string             `json:"title,omitempty"`
	Stack    []string           `json:"stack"`
	Cursor   int                `json:"cursor"`
	Metrics  map[string]float64 `json:"metrics,omitempty"`
}

// WriteText writes the trace step by step, then the final state.
func (r *RunResult) WriteText(w io.Writer) error {
	var b strings.Builder
	if r.Scenario != "" {
		fmt.Fprintf(&b, "scenario: %s\n", r.Scenario)
	}
	for i, st := range r.Steps {
		fmt.Fprintf(&b, "[%d] %s\n", i, st.header())
		for _, ev := range st.Events {
			fmt.Fprintf(&b, "    %s\n", ev.line())
		}
		switch {
		case st.Error != "":
			fmt.Fprintf(&b, "    => error: %s\n", st.Error)
		case st.Outcome != "":
			fmt.Fprintf(&b, "    => %s\n", st.Outcome)
		}
	}

	fmt.Fprintf(&b, "active: %s\n", r.Active)
	fmt.Fprintf(&b, "address: %s\n", r.Address)
	if r.Title != "" {
		fmt.Fprintf(&b, "title: %s\n", r.Title)
	}
	stack := make([]string, len(r.Stack))
	for i, k := range r.Stack {
		stack[i] = k
		if i == r.Cursor {
			stack[i] = "[" + k + "]"
		}
	}
	fmt.Fprintf(&b, "stack: %s\n", strings.Join(stack, " "))

	if len(r.Metrics) > 0 {
		names := make([]string, 0, len(r.Metrics))
		for name := range r.Metrics {
			names = append(names, name)
		}
		sort.Strings(names)
		b.WriteString("metrics:\n")
		for _, name := range names {
			fmt.Fprintf(&b, "    %s %g\n", name, r.Metrics[name])
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func (s StepResult) header() string {
	parts := []string{s.Action}
	if s.Target != "" {
		parts = append(parts, s.Target)
	}
	if s.Delta != 0 {
		parts = append(parts, fmt.Sprintf("%+d", s.Delta))
	}
	if len(s.Options) > 0 {
		parts = append(parts, host.FormatAddress(host.Address{ViewID: "", Options: s.Options})[1:])
	}
	if s.Params != nil {
		parts = append(parts, "params="+compact(s.Params))
	}
	return strings.Join(parts, " ")
}

func (e TraceEvent) line() string {
	switch constants.EventName(e.Name) {
	case constants.EventBeforeChange:
		move := e.View
		if e.Source != "" {
			move = e.Source + " -> " + e.View
		}
		return fmt.Sprintf("%s %s (%s, %s)", e.Name, move, e.Type, e.Trigger)
	case constants.EventViewNotExists:
		return fmt.Sprintf("%s %s (%s)", e.Name, e.View, e.Trigger)
	case constants.EventChange:
		if e.Params != nil {
			return fmt.Sprintf("%s %s params=%s", e.Name, e.View, compact(e.Params))
		}
	}
	return e.Name + " " + e.View
}

func compact(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(data)
}

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Lifecycle bool
	Metrics   bool
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <scenario.yaml>",
		Short: "Replay a navigation scenario",
		Long: `Replay a scripted navigation session against an in-memory history and
print the events every step produced.

App actions (nav, change, back, forward, params) go through the router as
application code would. User actions (host-back, host-forward, go, visit)
act on the history the way a user does.

Examples:
  vista run checkout.yaml --views views.toml
  vista run checkout.yaml --config vista.toml --lifecycle --metrics`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenario(opts, cmd, args[0])
		},
	}

	cmd.Flags().BoolVar(&opts.Lifecycle, "lifecycle", false, "include per-view lifecycle events")
	cmd.Flags().BoolVar(&opts.Metrics, "metrics", false, "report transition counters")

	return cmd
}

func runScenario(opts *RunOptions, cmd *cobra.Command, path string) error {
	out := opts.formatter(cmd)

	sc, err := LoadScenario(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load scenario", err)
	}

	h := host.NewMemoryHost(sc.Address)
	app, err := opts.open(h)
	if err != nil {
		return err
	}
	defer app.Close()

	var reg *prometheus.Registry
	if opts.Metrics {
		reg = prometheus.NewRegistry()
		defer app.Instrument(reg)()
	}

	rec := newTraceRecorder(app, opts.Lifecycle)
	defer rec.stop()

	result := &RunResult{Scenario: sc.Name}
	var failed int

	steps := append([]Step{{Action: "start"}}, sc.Steps...)
	for _, st := range steps {
		rec.reset()
		tr, err := perform(app, h, st)

		res := StepResult{Step: st}
		if tr != nil {
			res.Outcome = tr.Outcome().String()
		}
		if err != nil {
			res.Error = err.Error()
			failed++
		}
		res.Events = rec.take()
		out.VerboseLog("%s: %d events", res.header(), len(res.Events))
		result.Steps = append(result.Steps, res)
	}

	if v := app.Active(); v != nil {
		result.Active = v.Key().String()
	}
	result.Address = h.Address()
	result.Title = h.Title()
	for _, e := range app.Stack().Entries() {
		result.Stack = append(result.Stack, e.Key().String())
	}
	result.Cursor = app.Stack().Cursor()

	if reg != nil {
		result.Metrics, err = counters(reg)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to gather metrics", err)
		}
	}

	if err := out.Success(result); err != nil {
		return err
	}
	if failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d of %d steps failed", failed, len(steps)))
	}
	return nil
}

func perform(app *vista.App, h *host.MemoryHost, st Step) (*transition.Transition, error) {
	navOpts := []router.NavOption{router.WithOptions(st.Options)}
	if st.Params != nil {
		navOpts = append(navOpts, router.WithParams(st.Params))
	}

	switch st.Action {
	case "start":
		return app.Start()
	case ActionNav:
		return app.NavTo(st.Target, navOpts...)
	case ActionChange:
		return app.ChangeTo(st.Target, navOpts...)
	case ActionBack:
		return nil, app.Back(navOpts...)
	case ActionForward:
		return nil, app.Forward(navOpts...)
	case ActionParams:
		app.SetParams(st.Target, st.Params)
	case ActionHostBack:
		h.Back()
	case ActionHostForward:
		h.Forward()
	case ActionGo:
		h.Go(st.Delta)
	case ActionVisit:
		h.Visit(st.Target)
	}
	return nil, nil
}

// counters flattens the counter and gauge samples of reg.
func counters(reg *prometheus.Registry) (map[string]float64, error) {
	families, err := reg.Gather()
	if err != nil {
		return nil, err
	}

	out := make(map[string]float64)
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			labels := make([]string, 0, len(m.GetLabel()))
			for _, lp := range m.GetLabel() {
				labels = append(labels, lp.GetName()+"="+lp.GetValue())
			}
			name := mf.GetName()
			if len(labels) > 0 {
				name += "{" + strings.Join(labels, ",") + "}"
			}

			switch {
			case m.GetCounter() != nil:
				out[name] = m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				out[name] = m.GetGauge().GetValue()
			}
		}
	}
	return out, nil
}

var (
	globalEvents = []constants.EventName{
		constants.EventBeforeChange,
		constants.EventViewNotExists,
		constants.EventChange,
		constants.EventAfterChange,
	}
	viewEvents = []constants.EventName{
		constants.EventLeave,
		constants.EventBeforeEnter,
		constants.EventReady,
		constants.EventEnter,
		constants.EventAfterEnter,
	}
)

// traceRecorder collects events in the order they are emitted.
type traceRecorder struct {
	mu     sync.Mutex
	events []TraceEvent
	offs   []func()
}

func newTraceRecorder(app *vista.App, lifecycle bool) *traceRecorder {
	rec := &traceRecorder{}
	for _, name := range globalEvents {
		rec.offs = append(rec.offs, app.On(name, rec.add))
	}
	if lifecycle {
		for _, v := range app.Registry().List("") {
			for _, name := range viewEvents {
				rec.offs = append(rec.offs, v.On(name, rec.add))
			}
		}
	}
	return rec
}

func (rec *traceRecorder) add(ev event.Event) {
	te := TraceEvent{
		Name: string(ev.Name),
		View: view.NewKey(ev.ViewID, ev.Namespace).String(),
	}
	if ev.SourceID != "" {
		te.Source = view.NewKey(ev.SourceID, ev.SourceNamespace).String()
	}
	switch ev.Name {
	case constants.EventLeave:
		te.View, te.Source = te.Source, ""
	case constants.EventBeforeChange:
		te.Type = ev.Type.String()
		te.Trigger = ev.Trigger.String()
	case constants.EventViewNotExists:
		te.Trigger = ev.Trigger.String()
	case constants.EventChange:
		te.Params = ev.Params
	}

	rec.mu.Lock()
	rec.events = append(rec.events, te)
	rec.mu.Unlock()
}

func (rec *traceRecorder) reset() {
	rec.mu.Lock()
	rec.events = nil
	rec.mu.Unlock()
}

func (rec *traceRecorder) take() []TraceEvent {
	rec.mu.Lock()
	defer rec.mu.Unlock()
	out := rec.events
	rec.events = nil
	if out == nil {
		out = []TraceEvent{}
	}
	return out
}

func (rec *traceRecorder) stop() {
	for _, off := range rec.offs {
		off()
	}
}
