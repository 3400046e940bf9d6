package router_test

import (
	"fmt"

	"github.com/BrandonKowalski/vista/pkg/vista/constants"
	"github.com/BrandonKowalski/vista/pkg/vista/event"
	"github.com/BrandonKowalski/vista/pkg/vista/host"
	"github.com/BrandonKowalski/vista/pkg/vista/router"
	"github.com/BrandonKowalski/vista/pkg/vista/view"
)

// Domain types
type Game struct {
	ID   int
	Name string
}

type GameListResume struct {
	SelectedIndex int
}

var views = view.StaticSource{
	{ID: "games", Default: true, Accessible: view.AccessAllowed, Title: "Games"},
	{ID: "detail", Fallback: "games", Title: "Game"},
	{ID: "settings", Group: "settings", Accessible: view.AccessAllowed, Title: "Settings"},
}

// Example demonstrates navigating forward with parameters and back with
// resume state.
func Example() {
	h := host.NewMemoryHost("#games")
	r, err := router.New(h, views)
	if err != nil {
		panic(err)
	}

	r.On(constants.EventAfterChange, func(ev event.Event) {
		switch p := ev.Params.(type) {
		case Game:
			fmt.Printf("%s: showing %s (%s)\n", ev.ViewID, p.Name, ev.Trigger)
		case GameListResume:
			fmt.Printf("%s: restored to index %d (%s)\n", ev.ViewID, p.SelectedIndex, ev.Trigger)
		default:
			fmt.Printf("%s: fresh (%s)\n", ev.ViewID, ev.Trigger)
		}
	})

	_, _ = r.Start()
	_, _ = r.NavTo("detail", router.WithParams(Game{ID: 1, Name: "Portal"}))
	_ = r.Back(router.WithParams(GameListResume{SelectedIndex: 3}))

	fmt.Println("address:", h.Address(), "title:", h.Title())

	// Output:
	// games: fresh (navigator)
	// detail: showing Portal (app)
	// games: restored to index 3 (app)
	// address: #games title: Games
}

// Example_navigatorBack demonstrates the host's own back control.
func Example_navigatorBack() {
	h := host.NewMemoryHost("#games")
	r, _ := router.New(h, views)

	r.On(constants.EventChange, func(ev event.Event) {
		fmt.Printf("%s %s via %s\n", ev.Type, ev.ViewID, ev.Trigger)
	})

	_, _ = r.Start()
	_, _ = r.NavTo("~settings")
	h.Back()
	h.Forward()

	// Output:
	// nav games via navigator
	// nav settings via app
	// history.back games via navigator
	// history.forward settings via navigator
}

// Example_deepLink demonstrates an address naming a view that cannot be
// entered directly.
func Example_deepLink() {
	h := host.NewMemoryHost("#detail!id=7")
	r, _ := router.New(h, views)

	_, _ = r.Start()
	fmt.Println(r.Active().ID(), h.Address())

	// Output:
	// games #games
}
