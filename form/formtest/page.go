// Package formtest provides an in-memory form.Page backed by static HTML
// fixtures, for exercising the registration flow without a browser.
package formtest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"

	"github.com/use-agent/regbot/form"
)

// FakePNG is the screenshot payload returned by Page.
var FakePNG = []byte("\x89PNG\r\n\x1a\nfake")

// Call is one recorded element action.
type Call struct {
	Op     string // "fill", "select", "click" or "submit"
	Target string // name, id, value or tag of the element
	Value  string
}

// Page serves HTML fixtures keyed by URL. URLs without a fixture load an
// empty document, so waiting for a form there blocks until ctx ends.
//
// Clicking anything other than a radio or checkbox counts as submitting and
// loads SubmitURL, when set.
type Page struct {
	Pages     map[string]string
	SubmitURL string

	NavigateErr   error
	FillErr       map[string]error // keyed by element target
	SubmitErr     error
	HTMLErr       error
	ScreenshotErr error

	// OnSubmit runs when a submit control is clicked, before SubmitURL loads.
	OnSubmit func()

	mu      sync.Mutex
	current string
	doc     *html.Node
	calls   []Call
}

var _ form.Page = (*Page)(nil)

// New returns a Page serving pages.
func New(pages map[string]string) *Page {
	return &Page{Pages: pages}
}

// Calls returns the element actions performed so far, in order.
func (p *Page) Calls() []Call {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Call, len(p.calls))
	copy(out, p.calls)
	return out
}

// Did reports whether op was performed on target.
func (p *Page) Did(op, target string) bool {
	for _, c := range p.Calls() {
		if c.Op == op && c.Target == target {
			return true
		}
	}
	return false
}

func (p *Page) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if p.NavigateErr != nil {
		return p.NavigateErr
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.load(url)
}

func (p *Page) load(url string) error {
	doc, err := html.Parse(strings.NewReader(p.Pages[url]))
	if err != nil {
		return fmt.Errorf("parse fixture %s: %w", url, err)
	}
	p.current, p.doc = url, doc
	return nil
}

func (p *Page) WaitFor(ctx context.Context, selector string) error {
	m, err := cascadia.ParseGroup(selector)
	if err != nil {
		return err
	}
	p.mu.Lock()
	found := p.doc != nil && cascadia.Query(p.doc, m) != nil
	p.mu.Unlock()
	if found {
		return nil
	}
	<-ctx.Done()
	return ctx.Err()
}

func (p *Page) Query(ctx context.Context, q form.Query) (form.Element, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	m, err := cascadia.ParseGroup(q.Selector)
	if err != nil {
		return nil, false, fmt.Errorf("bad selector %q: %w", q.Selector, err)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.doc == nil {
		return nil, false, nil
	}
	for _, n := range cascadia.QueryAll(p.doc, m) {
		if q.Text != "" && !strings.Contains(goquery.NewDocumentFromNode(n).Text(), q.Text) {
			continue
		}
		return &element{page: p, node: n}, true, nil
	}
	return nil, false, nil
}

func (p *Page) HTML(ctx context.Context) (string, error) {
	if p.HTMLErr != nil {
		return "", p.HTMLErr
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.doc == nil {
		return "", errors.New("no page loaded")
	}
	var buf bytes.Buffer
	if err := html.Render(&buf, p.doc); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (p *Page) URL(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current, nil
}

func (p *Page) Screenshot(ctx context.Context) ([]byte, error) {
	if p.ScreenshotErr != nil {
		return nil, p.ScreenshotErr
	}
	return FakePNG, nil
}

func (p *Page) record(c Call) {
	p.mu.Lock()
	p.calls = append(p.calls, c)
	p.mu.Unlock()
}

// element is a node of the current fixture document.
type element struct {
	page *Page
	node *html.Node
}

func (e *element) target() string {
	for _, key := range []string{"name", "id", "value"} {
		if v := attr(e.node, key); v != "" {
			return v
		}
	}
	return e.node.Data
}

func (e *element) Fill(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t := e.target()
	if err := e.page.FillErr[t]; err != nil {
		return err
	}
	e.page.record(Call{Op: "fill", Target: t, Value: text})
	return nil
}

func (e *element) SelectText(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if e.node.Data != "select" {
		return fmt.Errorf("element <%s> is not a select", e.node.Data)
	}
	for _, opt := range goquery.NewDocumentFromNode(e.node).Find("option").Nodes {
		if strings.TrimSpace(goquery.NewDocumentFromNode(opt).Text()) == text {
			e.page.record(Call{Op: "select", Target: e.target(), Value: text})
			return nil
		}
	}
	return fmt.Errorf("no option with text %q", text)
}

func (e *element) Click(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	switch strings.ToLower(attr(e.node, "type")) {
	case "radio", "checkbox":
		e.page.record(Call{Op: "click", Target: e.target()})
		return nil
	}

	e.page.record(Call{Op: "submit", Target: e.target()})
	if e.page.SubmitErr != nil {
		return e.page.SubmitErr
	}
	if e.page.OnSubmit != nil {
		e.page.OnSubmit()
	}
	if e.page.SubmitURL == "" {
		return nil
	}
	e.page.mu.Lock()
	defer e.page.mu.Unlock()
	return e.page.load(e.page.SubmitURL)
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
