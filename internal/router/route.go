// Package router dispatches URL fragments to the home view or to one of the
// filtered catalog views.
package router

import (
	"net/url"
	"strings"
)

type Kind string

const (
	KindHome    Kind = ""
	KindGenre   Kind = "the-loai"
	KindCountry Kind = "quoc-gia"
	KindSearch  Kind = "tim-kiem"
	KindActor   Kind = "dien-vien"
)

// Route is a parsed fragment. Arg is already URL-decoded.
type Route struct {
	Kind Kind
	Arg  string
}

// Parse reads "#<kind>/<arg>". Unknown kinds and missing arguments fall
// back to home.
func Parse(fragment string) Route {
	f := strings.TrimLeft(strings.TrimSpace(fragment), "#/")
	name, rest, _ := strings.Cut(f, "/")
	arg, _, _ := strings.Cut(rest, "/")

	if decoded, err := url.PathUnescape(arg); err == nil {
		arg = decoded
	}
	arg = strings.TrimSpace(arg)

	switch k := Kind(name); k {
	case KindGenre, KindCountry, KindSearch, KindActor:
		if arg == "" {
			return Route{Kind: KindHome}
		}
		return Route{Kind: k, Arg: arg}
	}
	return Route{Kind: KindHome}
}

// Fragment renders the route back to its "#..." form.
func (r Route) Fragment() string {
	if r.Kind == KindHome {
		return "#"
	}
	return "#" + string(r.Kind) + "/" + url.PathEscape(r.Arg)
}

// Key identifies the result set a route produces.
func (r Route) Key() string {
	return string(r.Kind) + "/" + r.Arg
}
