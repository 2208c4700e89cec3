package form

import (
	"strings"

	"github.com/use-agent/regbot/cleaner"
	"github.com/use-agent/regbot/models"
)

// Keyword sets, checked in order. Success keywords are checked before failure
// keywords, so a page carrying both is classified as a success.
var (
	SuccessKeywords = []string{
		"success", "thank you", "registered", "confirmation",
		"submitted", "complete", "received", "congratulations",
	}
	FailureKeywords = []string{
		"error", "invalid", "required", "missing", "failed",
		"incorrect", "please", "must", "cannot",
	}
	RedirectHints = []string{"success", "thank", "confirm"}
)

// Outcome messages.
const (
	MsgSuccess  = "Success"
	MsgError    = "Error detected"
	MsgRedirect = "Redirected to success page"
	MsgUnclear  = "Form submission result unclear"
)

// Classify derives the outcome of a submission from the page text and the
// current URL. It is a pure function of its inputs.
func Classify(pageText, currentURL string) models.Outcome {
	text := strings.ToLower(pageText)
	if containsAny(text, SuccessKeywords) {
		return models.Succeeded(MsgSuccess)
	}
	if containsAny(text, FailureKeywords) {
		return models.Failed(MsgError)
	}
	if containsAny(strings.ToLower(currentURL), RedirectHints) {
		return models.Succeeded(MsgRedirect)
	}
	return models.Undetermined(MsgUnclear)
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

// Text sources for Classifier.
const (
	SourceHTML = "html"
	SourceText = "text"
)

// Classifier feeds Classify with either the raw page source or only the
// visible text of the page.
type Classifier struct {
	Source string
}

// Classify reduces html according to c.Source and classifies it.
func (c Classifier) Classify(html, currentURL string) models.Outcome {
	text := html
	if c.Source == SourceText {
		text = cleaner.VisibleText(html)
	}
	return Classify(text, currentURL)
}
