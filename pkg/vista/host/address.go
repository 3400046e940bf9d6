package host

import (
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/BrandonKowalski/vista/pkg/vista/constants"
	"github.com/BrandonKowalski/vista/pkg/vista/view"
)

// ErrBadAddress is returned when an address cannot be parsed.
var ErrBadAddress = errors.New("host: malformed address")

// Address is the parsed form of
//
//	#<viewId>(@<namespace>)?(!<key>=<value>(&<key>=<value>)*)?
type Address struct {
	ViewID    string
	Namespace string
	Options   map[string]string
}

// Key returns the view the address names.
func (a Address) Key() view.Key {
	return view.NewKey(a.ViewID, a.Namespace)
}

// ParseAddress parses raw. Anything before the first '#' is ignored, so full
// URLs are accepted. Option keys and values are percent-decoded.
func ParseAddress(raw string) (Address, error) {
	if i := strings.IndexByte(raw, '#'); i >= 0 {
		raw = raw[i+1:]
	}
	if raw == "" {
		return Address{}, fmt.Errorf("%w: empty", ErrBadAddress)
	}

	head, query, hasQuery := strings.Cut(raw, "!")
	id, ns, _ := strings.Cut(head, "@")
	if id == "" {
		return Address{}, fmt.Errorf("%w: missing view id in %q", ErrBadAddress, raw)
	}

	addr := Address{ViewID: id, Namespace: ns}
	if addr.Namespace == "" {
		addr.Namespace = constants.DefaultNamespace
	}

	if !hasQuery || query == "" {
		return addr, nil
	}

	addr.Options = make(map[string]string)
	for _, pair := range strings.Split(query, "&") {
		if pair == "" {
			continue
		}
		rawKey, rawValue, _ := strings.Cut(pair, "=")
		key, err := url.PathUnescape(rawKey)
		if err != nil {
			return Address{}, fmt.Errorf("%w: option key %q: %v", ErrBadAddress, rawKey, err)
		}
		value, err := url.PathUnescape(rawValue)
		if err != nil {
			return Address{}, fmt.Errorf("%w: option %q: %v", ErrBadAddress, key, err)
		}
		addr.Options[key] = value
	}
	return addr, nil
}

// FormatAddress renders a. Options are written in key order so the same state
// always produces the same address.
func FormatAddress(a Address) string {
	var b strings.Builder
	b.WriteByte('#')
	b.WriteString(a.ViewID)
	if a.Namespace != "" && a.Namespace != constants.DefaultNamespace {
		b.WriteByte('@')
		b.WriteString(a.Namespace)
	}

	if len(a.Options) == 0 {
		return b.String()
	}

	keys := make([]string, 0, len(a.Options))
	for k := range a.Options {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	b.WriteByte('!')
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(escape(k))
		b.WriteByte('=')
		b.WriteString(escape(a.Options[k]))
	}
	return b.String()
}

func escape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
