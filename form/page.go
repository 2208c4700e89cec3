// Package form drives one registration form: it resolves logical fields to
// page elements, fills and submits them, and classifies the resulting page.
//
// The browser itself is reached only through the Page interface, so the whole
// flow can run against a real Chromium session (package browser) or an
// in-memory HTML fixture (package formtest).
package form

import (
	"context"
	"fmt"
)

// Page is the browser-control capability the registration flow needs.
//
// Every method is bounded by ctx; callers put deadlines on ctx rather than
// passing timeouts around.
type Page interface {
	// Navigate directs the page to url.
	Navigate(ctx context.Context, url string) error

	// WaitFor blocks until an element matching selector exists or ctx ends.
	WaitFor(ctx context.Context, selector string) error

	// Query looks up the first element matching q without waiting.
	// A missing element is reported with found == false and a nil error.
	Query(ctx context.Context, q Query) (el Element, found bool, err error)

	// HTML returns the rendered page source.
	HTML(ctx context.Context) (string, error)

	// URL returns the page's current location.
	URL(ctx context.Context) (string, error)

	// Screenshot returns a PNG of the current viewport.
	Screenshot(ctx context.Context) ([]byte, error)
}

// Element is a handle to one element found by Page.Query.
type Element interface {
	// Fill clears the element and types text into it.
	Fill(ctx context.Context, text string) error

	// Click performs a single left click.
	Click(ctx context.Context) error

	// SelectText selects the <option> whose visible text equals text.
	SelectText(ctx context.Context, text string) error
}

// Query describes one structural lookup: a CSS selector and, optionally, a
// substring the element's text must contain.
type Query struct {
	Selector string
	Text     string
}

func (q Query) String() string {
	if q.Text == "" {
		return q.Selector
	}
	return fmt.Sprintf("%s:text(%q)", q.Selector, q.Text)
}

// ByName matches any element whose name attribute equals name.
func ByName(name string) Query {
	return Query{Selector: fmt.Sprintf(`[name=%s]`, cssString(name))}
}

// cssString quotes s as a CSS string literal.
func cssString(s string) string {
	b := make([]byte, 0, len(s)+2)
	b = append(b, '"')
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '"', '\\':
			b = append(b, '\\', c)
		case '\n':
			b = append(b, `\a `...)
		default:
			b = append(b, c)
		}
	}
	b = append(b, '"')
	return string(b)
}
