package form_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/use-agent/regbot/form"
	"github.com/use-agent/regbot/models"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		url     string
		status  models.Status
		message string
	}{
		{"thank you", "<h1>Thank You for registering</h1>", "https://x.test/form", models.StatusSuccess, form.MsgSuccess},
		{"confirmation", "Your CONFIRMATION number is 42", "", models.StatusSuccess, form.MsgSuccess},
		{"error", "An error occurred", "https://x.test/form", models.StatusFailure, form.MsgError},
		{"required", "Email is required", "", models.StatusFailure, form.MsgError},
		{"redirect", "<p>ok</p>", "https://x.test/Thanks?id=1", models.StatusSuccess, form.MsgRedirect},
		{"confirm path", "", "https://x.test/confirm", models.StatusSuccess, form.MsgRedirect},
		{"unclear", "<p>ok</p>", "https://x.test/form", models.StatusUnknown, form.MsgUnclear},
		{"empty", "", "", models.StatusUnknown, form.MsgUnclear},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := form.Classify(tt.text, tt.url)
			assert.Equal(t, tt.status, got.Status)
			assert.Equal(t, tt.message, got.Message)
			assert.Empty(t, got.Code)
		})
	}
}

// A page that both thanks the user and mentions an error counts as a success:
// success keywords are checked first.
func TestClassify_SuccessBeatsFailure(t *testing.T) {
	got := form.Classify("Thank you! If you see an error, please contact us.", "")
	assert.Equal(t, models.StatusSuccess, got.Status)
	assert.Equal(t, form.MsgSuccess, got.Message)
}

// Keywords win over URL hints.
func TestClassify_TextBeatsURL(t *testing.T) {
	got := form.Classify("Invalid phone number", "https://x.test/success")
	assert.Equal(t, models.StatusFailure, got.Status)
}

func TestClassify_Pure(t *testing.T) {
	a := form.Classify("Registration received", "https://x.test/")
	b := form.Classify("Registration received", "https://x.test/")
	assert.Equal(t, a, b)
}

func TestClassifier_Source(t *testing.T) {
	page := `<html><head><script>var onError = function(){}</script></head>
<body><p>All set, see you there.</p></body></html>`

	html := form.Classifier{Source: form.SourceHTML}.Classify(page, "https://x.test/form")
	assert.Equal(t, models.StatusFailure, html.Status, "page source includes script text")

	text := form.Classifier{Source: form.SourceText}.Classify(page, "https://x.test/form")
	assert.Equal(t, models.StatusUnknown, text.Status)
}
