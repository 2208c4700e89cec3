// Package cleaner turns rendered page HTML into the plain forms the bot
// needs: visible text for result classification and Markdown for page
// transcripts.
package cleaner

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// invisible lists elements whose text never reaches the screen.
const invisible = "script, style, noscript, template, head"

// VisibleText returns the human-readable text of rawHTML with runs of
// whitespace collapsed to single spaces. Unparseable input is returned as is.
func VisibleText(rawHTML string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return rawHTML
	}
	doc.Find(invisible).Remove()

	// Input values and button labels are part of what the user sees.
	var extra []string
	doc.Find(`input[type="submit"][value], input[type="button"][value]`).Each(func(_ int, s *goquery.Selection) {
		if v, ok := s.Attr("value"); ok {
			extra = append(extra, v)
		}
	})

	text := doc.Text()
	if len(extra) > 0 {
		text += " " + strings.Join(extra, " ")
	}
	return strings.Join(strings.Fields(text), " ")
}
