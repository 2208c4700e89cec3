package cleaner

import (
	"net/url"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
)

// conv is goroutine-safe and shared by all transcripts.
var conv = newMarkdownConverter()

// newMarkdownConverter builds the converter used for page transcripts:
//
//   - base plugin: drops script, style, head and comments.
//   - commonmark plugin: headings, lists, links, emphasis.
//   - table plugin: keeps result tables readable with minimal padding.
func newMarkdownConverter() *converter.Converter {
	return converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(),
			table.NewTablePlugin(
				table.WithCellPaddingBehavior(table.CellPaddingBehaviorMinimal),
			),
		),
	)
}

// Markdown converts rendered page HTML to Markdown. pageURL resolves relative
// links; it may be empty.
func Markdown(rawHTML, pageURL string) (string, error) {
	return conv.ConvertString(rawHTML, converter.WithDomain(domainOf(pageURL)))
}

// domainOf returns scheme://host of u, or "" when u has no host.
func domainOf(u string) string {
	parsed, err := url.Parse(u)
	if err != nil || parsed.Host == "" {
		return ""
	}
	return parsed.Scheme + "://" + parsed.Host
}
