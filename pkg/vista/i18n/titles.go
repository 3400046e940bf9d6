// Package i18n localizes view titles with go-i18n message files.
//
// The message for a view is "view.<id>.title" in the default namespace and
// "view.<namespace>.<id>.title" elsewhere. A TOML message file for French:
//
//	# fr.toml
//	[view.home]
//	title = "Accueil"
//
// Views without a message keep their declared title.
package i18n

import (
	"fmt"
	"sync"

	"github.com/BurntSushi/toml"
	goi18n "github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/BrandonKowalski/vista/pkg/vista/constants"
	"github.com/BrandonKowalski/vista/pkg/vista/internal"
	"github.com/BrandonKowalski/vista/pkg/vista/view"
)

// Titles is a router.Titler backed by a go-i18n bundle.
type Titles struct {
	bundle *goi18n.Bundle

	mu        sync.RWMutex
	localizer *goi18n.Localizer
}

// New creates an empty catalog whose source language is base.
func New(base language.Tag) *Titles {
	bundle := goi18n.NewBundle(base)
	bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)
	bundle.RegisterUnmarshalFunc("yaml", yaml.Unmarshal)
	bundle.RegisterUnmarshalFunc("yml", yaml.Unmarshal)

	return &Titles{
		bundle:    bundle,
		localizer: goi18n.NewLocalizer(bundle, base.String()),
	}
}

// LoadFile loads a message file. The language comes from the file name,
// e.g. "fr.toml" or "active.de-CH.yaml".
func (t *Titles) LoadFile(path string) error {
	if _, err := t.bundle.LoadMessageFile(path); err != nil {
		return fmt.Errorf("i18n: load %s: %w", path, err)
	}
	return nil
}

// LoadBytes parses message file contents; path names the language and format.
func (t *Titles) LoadBytes(data []byte, path string) error {
	if _, err := t.bundle.ParseMessageFileBytes(data, path); err != nil {
		return fmt.Errorf("i18n: parse %s: %w", path, err)
	}
	return nil
}

// SetLocale selects the preferred languages, most preferred first. Accepts
// language tags and Accept-Language values.
func (t *Titles) SetLocale(langs ...string) {
	l := goi18n.NewLocalizer(t.bundle, langs...)

	t.mu.Lock()
	t.localizer = l
	t.mu.Unlock()
}

// Title returns the localized title of v, or its declared title.
func (t *Titles) Title(v *view.View) string {
	t.mu.RLock()
	l := t.localizer
	t.mu.RUnlock()

	id := MessageID(v.Key())
	msg, err := l.Localize(&goi18n.LocalizeConfig{
		MessageID: id,
		TemplateData: map[string]string{
			"ID":        v.ID(),
			"Namespace": v.Namespace(),
		},
	})
	if err != nil || msg == "" {
		internal.GetInternalLogger().Debug("no localized title", "view", v.String(), "message", id)
		return v.Title()
	}
	return msg
}

// MessageID returns the message id holding the title of key.
func MessageID(key view.Key) string {
	if key.Namespace == "" || key.Namespace == constants.DefaultNamespace {
		return "view." + key.ID + ".title"
	}
	return "view." + key.Namespace + "." + key.ID + ".title"
}
