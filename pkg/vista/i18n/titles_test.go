package i18n

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/BrandonKowalski/vista/pkg/vista/view"
)

const frMessages = `
[view.home]
title = "Accueil"

[view.shop.cart]
title = "Panier de {{.ID}}"
`

const deMessages = `
view:
  home:
    title: Startseite
`

func newViews(t *testing.T) *view.Registry {
	t.Helper()
	reg := view.NewRegistry(view.StaticSource{
		{ID: "home", Default: true, Title: "Home"},
		{ID: "cart", Namespace: "shop", Title: "Cart"},
		{ID: "about", Title: "About"},
	})
	require.NoError(t, reg.Init())
	return reg
}

func get(t *testing.T, reg *view.Registry, id, ns string) *view.View {
	t.Helper()
	v, err := reg.OfID(id, ns)
	require.NoError(t, err)
	return v
}

func TestMessageID(t *testing.T) {
	assert.Equal(t, "view.home.title", MessageID(view.NewKey("home", "")))
	assert.Equal(t, "view.shop.cart.title", MessageID(view.NewKey("cart", "shop")))
}

func TestTitles_Localized(t *testing.T) {
	reg := newViews(t)
	titles := New(language.English)
	require.NoError(t, titles.LoadBytes([]byte(frMessages), "fr.toml"))
	require.NoError(t, titles.LoadBytes([]byte(deMessages), "de.yaml"))

	titles.SetLocale("fr")
	assert.Equal(t, "Accueil", titles.Title(get(t, reg, "home", "")))
	assert.Equal(t, "Panier de cart", titles.Title(get(t, reg, "cart", "shop")))
	assert.Equal(t, "About", titles.Title(get(t, reg, "about", "")), "no message keeps the declared title")

	titles.SetLocale("de-CH", "fr")
	assert.Equal(t, "Startseite", titles.Title(get(t, reg, "home", "")))
}

func TestTitles_BaseLanguageUsesDeclaredTitles(t *testing.T) {
	reg := newViews(t)
	titles := New(language.English)
	require.NoError(t, titles.LoadBytes([]byte(frMessages), "fr.toml"))

	assert.Equal(t, "Home", titles.Title(get(t, reg, "home", "")))
}

func TestTitles_LoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fr.toml")
	require.NoError(t, os.WriteFile(path, []byte(frMessages), 0o644))

	titles := New(language.English)
	require.NoError(t, titles.LoadFile(path))
	titles.SetLocale("fr")
	assert.Equal(t, "Accueil", titles.Title(get(t, newViews(t), "home", "")))

	assert.Error(t, titles.LoadFile(filepath.Join(t.TempDir(), "missing.toml")))
}
