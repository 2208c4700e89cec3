package cleaner

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVisibleText_DropsScriptsAndStyles(t *testing.T) {
	page := `<html><head><title>Error page</title><style>.error{color:red}</style></head>
<body>
  <h1>Thank   you</h1>
  <script>var msg = "invalid";</script>
  <noscript>please enable javascript</noscript>
  <p>Your spot is
     reserved.</p>
</body></html>`

	got := VisibleText(page)
	assert.Equal(t, "Thank you Your spot is reserved.", got)
	assert.NotContains(t, got, "invalid")
	assert.NotContains(t, got, "please")
	assert.NotContains(t, got, "Error page")
}

func TestVisibleText_IncludesButtonLabels(t *testing.T) {
	got := VisibleText(`<form><input type="submit" value="Register now"></form>`)
	assert.Equal(t, "Register now", got)
}

func TestVisibleText_Empty(t *testing.T) {
	assert.Equal(t, "", VisibleText(""))
}

func TestMarkdown_ResolvesRelativeLinks(t *testing.T) {
	md, err := Markdown(`<h1>Registered</h1><p>See <a href="/events">events</a>.</p>`,
		"https://example.com/register?id=1")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(md, "# Registered"), md)
	assert.Contains(t, md, "[events](https://example.com/events)")
}

func TestDomainOf(t *testing.T) {
	cases := map[string]string{
		"https://example.com/a/b": "https://example.com",
		"http://localhost:8080/x": "http://localhost:8080",
		"":                        "",
		"not a url":               "",
	}
	for in, want := range cases {
		assert.Equal(t, want, domainOf(in), "domainOf(%q)", in)
	}
}
