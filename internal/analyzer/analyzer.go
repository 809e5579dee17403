// Package analyzer runs heuristic UX checks over a page's rendered HTML.
// Each finding carries a CSS selector so the crawler can resolve it to
// screenshot-space coordinates while the page is still open.
package analyzer

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/dubey22rohit/UX-Evaluator/internal/logging"
)

// Finding is one detected violation before coordinate resolution. Selector
// is empty for page-level findings that have no element to point at.
type Finding struct {
	Selector       string
	Heuristic      string
	Severity       string
	Description    string
	Recommendation string
}

// Analyzer evaluates pages against the built-in heuristic checks.
type Analyzer struct {
	logger logging.Logger
}

// New creates an Analyzer.
func New(logger logging.Logger) *Analyzer {
	if logger == nil {
		logger = logging.NopLogger{}
	}
	return &Analyzer{logger: logger.With(logging.Field{Key: "component", Value: "analyzer"})}
}

// Analyze parses the HTML and runs every check.
func (a *Analyzer) Analyze(pageHTML string) ([]Finding, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(pageHTML))
	if err != nil {
		return nil, fmt.Errorf("parse page html: %w", err)
	}

	var findings []Finding
	findings = append(findings, checkImagesAlt(doc)...)
	findings = append(findings, checkPageTitle(doc)...)
	findings = append(findings, checkHeadingStructure(doc)...)
	findings = append(findings, checkViewportMeta(doc)...)
	findings = append(findings, checkUnlabeledInputs(doc)...)
	findings = append(findings, checkVagueLinks(doc)...)

	a.logger.Debug("analysis pass complete", logging.Field{Key: "findings", Value: len(findings)})
	return findings, nil
}

const imgMissingAltSelector = "img:not([alt])"

func checkImagesAlt(doc *goquery.Document) []Finding {
	if doc.Find(imgMissingAltSelector).Length() == 0 {
		return nil
	}
	return []Finding{{
		Selector:       imgMissingAltSelector,
		Heuristic:      "Visibility of System Status",
		Severity:       "medium",
		Description:    "Image missing alt text",
		Recommendation: "Add descriptive alt text to all images",
	}}
}

func checkPageTitle(doc *goquery.Document) []Finding {
	if strings.TrimSpace(doc.Find("head title").Text()) != "" {
		return nil
	}
	return []Finding{{
		Heuristic:      "Visibility of System Status",
		Severity:       "high",
		Description:    "Page has no title",
		Recommendation: "Give every page a concise, descriptive <title>",
	}}
}

func checkHeadingStructure(doc *goquery.Document) []Finding {
	first := doc.Find("h1, h2, h3, h4, h5, h6").First()
	if first.Length() == 0 || goquery.NodeName(first) == "h1" {
		return nil
	}
	return []Finding{{
		Selector:       goquery.NodeName(first),
		Heuristic:      "Consistency and Standards",
		Severity:       "medium",
		Description:    "Page does not start with an H1 heading",
		Recommendation: "Ensure each page has a single H1 heading that describes the page content",
	}}
}

func checkViewportMeta(doc *goquery.Document) []Finding {
	if doc.Find(`head meta[name="viewport"]`).Length() > 0 {
		return nil
	}
	return []Finding{{
		Heuristic:      "Flexibility and Efficiency of Use",
		Severity:       "medium",
		Description:    "Page has no viewport meta tag",
		Recommendation: "Add a viewport meta tag so the page adapts to small screens",
	}}
}

const unlabeledInputSelector = `input:not([type="submit"]):not([type="button"]):not([type="hidden"]):not([id]):not([aria-label])`

func checkUnlabeledInputs(doc *goquery.Document) []Finding {
	if doc.Find(unlabeledInputSelector).Length() == 0 {
		return nil
	}
	return []Finding{{
		Selector:       unlabeledInputSelector,
		Heuristic:      "Help and Documentation",
		Severity:       "medium",
		Description:    "Form input missing ID for label association",
		Recommendation: "Add proper labels and IDs to all form fields",
	}}
}

var vagueLinkTexts = map[string]bool{
	"click here": true,
	"here":       true,
	"read more":  true,
	"learn more": true,
	"more":       true,
	"link":       true,
}

func checkVagueLinks(doc *goquery.Document) []Finding {
	var out []Finding
	seen := map[string]bool{}
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		text := strings.ToLower(strings.TrimSpace(s.Text()))
		if !vagueLinkTexts[text] {
			return
		}
		href, _ := s.Attr("href")
		sel := fmt.Sprintf(`a[href=%q]`, href)
		if seen[sel] {
			return
		}
		seen[sel] = true
		out = append(out, Finding{
			Selector:       sel,
			Heuristic:      "Match Between System and Real World",
			Severity:       "low",
			Description:    fmt.Sprintf("Link text %q does not describe its destination", text),
			Recommendation: "Use link text that makes sense out of context",
		})
	})
	return out
}
