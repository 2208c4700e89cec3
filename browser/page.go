package browser

import (
	"context"
	"log/slog"
	"regexp"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"

	"github.com/use-agent/regbot/form"
)

// Page adapts a rod page to form.Page. Every call binds the caller's ctx to
// the rod page, so deadlines and cancellation reach the CDP calls.
type Page struct {
	page *rod.Page
}

var _ form.Page = (*Page)(nil)

// Navigate loads url and returns once the new document has fired its load
// event and its DOM has settled, so a later WaitFor cannot match the form of
// the previous document.
func (p *Page) Navigate(ctx context.Context, url string) error {
	return navigate(p.page.Context(ctx), url)
}

// domSettle is the quiet period WaitDOMStable waits for after load.
const domSettle = 300 * time.Millisecond

// loader is the part of *rod.Page navigation needs.
type loader interface {
	Navigate(url string) error
	WaitLoad() error
	WaitDOMStable(d time.Duration, diff float64) error
}

var _ loader = (*rod.Page)(nil)

func navigate(l loader, url string) error {
	if err := l.Navigate(url); err != nil {
		return err
	}
	if err := l.WaitLoad(); err != nil {
		return err
	}
	if err := l.WaitDOMStable(domSettle, 0.1); err != nil {
		slog.Debug("WaitDOMStable did not converge, proceeding with current DOM",
			"url", url,
			"error", err,
		)
	}
	return nil
}

// WaitFor polls until selector matches or ctx ends.
func (p *Page) WaitFor(ctx context.Context, selector string) error {
	_, err := p.page.Context(ctx).Element(selector)
	return err
}

func (p *Page) Query(ctx context.Context, q form.Query) (form.Element, bool, error) {
	rp := p.page.Context(ctx)

	var (
		found bool
		el    *rod.Element
		err   error
	)
	if q.Text == "" {
		found, el, err = rp.Has(q.Selector)
	} else {
		found, el, err = rp.HasR(q.Selector, regexp.QuoteMeta(q.Text))
	}
	if err != nil || !found {
		return nil, false, err
	}
	return &Element{el: el}, true, nil
}

func (p *Page) HTML(ctx context.Context) (string, error) {
	return p.page.Context(ctx).HTML()
}

func (p *Page) URL(ctx context.Context) (string, error) {
	res, err := p.page.Context(ctx).Eval(`() => window.location.href`)
	if err != nil {
		return "", err
	}
	return res.Value.Str(), nil
}

func (p *Page) Screenshot(ctx context.Context) ([]byte, error) {
	return p.page.Context(ctx).Screenshot(false, nil)
}

// Element adapts a rod element to form.Element.
type Element struct {
	el *rod.Element
}

var _ form.Element = (*Element)(nil)

// Fill replaces the element's current value with text.
func (e *Element) Fill(ctx context.Context, text string) error {
	el := e.el.Context(ctx)
	if err := el.SelectAllText(); err != nil {
		return err
	}
	return el.Input(text)
}

func (e *Element) Click(ctx context.Context) error {
	return e.el.Context(ctx).Click(proto.InputMouseButtonLeft, 1)
}

// SelectText selects the option whose visible text is exactly text.
func (e *Element) SelectText(ctx context.Context, text string) error {
	return e.el.Context(ctx).Select([]string{optionPattern(text)}, true, rod.SelectorTypeRegex)
}

// optionPattern matches option text equal to text.
func optionPattern(text string) string {
	return "^" + regexp.QuoteMeta(text) + "$"
}
