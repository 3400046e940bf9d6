// Package router keeps view switches and the host's navigation history in
// step.
//
// A Router is created once per application. It owns the view registry and
// resolver, the parameter store, the navigation stack mirroring the host's
// history, and the transition engine. Application code navigates through the
// Router; the host reports history moves back through HandleNotification.
//
// # Basic Usage
//
//	h := host.NewMemoryHost("#home")
//
//	r, err := router.New(h, view.StaticSource{
//	    {ID: "home", Default: true, Accessible: view.AccessAllowed},
//	    {ID: "detail", Fallback: "home"},
//	})
//	if err != nil {
//	    return err
//	}
//
//	r.On(constants.EventChange, func(ev event.Event) {
//	    fmt.Println("showing", ev.ViewID)
//	})
//
//	r.Start()                                        // shows home
//	r.NavTo("detail", router.WithParams(item))       // grows history
//	r.Back(router.WithParams(result))                // home receives result
//
// # References
//
// NavTo, ChangeTo and SetParams accept view references:
//
//	"detail"          view detail in the default namespace
//	"detail@shop"     view detail in namespace shop
//	"~settings"       first view in group settings
//	":default-view"   the default view
//	":back"           the previous history entry
//	":forward"        the next history entry
//
// # History Classification
//
// Every history entry carries a serial that increases with each new entry.
// When the host reports a move with the entry's state attached, an older
// serial than the current entry means the user went back and anything else
// means forward. Hosts that lose state (for example after the user edits the
// address) deliver only the address; the router then matches the neighbouring
// entries or records the address as new navigation.
//
// Transitions started by Back and Forward carry the app trigger; moves made
// with the host's own controls carry the navigator trigger.
package router
