package analyzer

import (
	"strings"
	"testing"
)

func analyze(t *testing.T, html string) []Finding {
	t.Helper()
	findings, err := New(nil).Analyze(html)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	return findings
}

func findByDescription(findings []Finding, substr string) *Finding {
	for i := range findings {
		if strings.Contains(findings[i].Description, substr) {
			return &findings[i]
		}
	}
	return nil
}

const cleanPage = `<!DOCTYPE html>
<html>
<head>
	<title>Clean Page</title>
	<meta name="viewport" content="width=device-width">
</head>
<body>
	<h1>Heading</h1>
	<img src="a.jpg" alt="described">
	<form><input type="text" id="name" name="name"><input type="submit" value="Go"></form>
	<a href="/pricing">See our pricing plans</a>
</body>
</html>`

func TestAnalyzeCleanPage(t *testing.T) {
	if findings := analyze(t, cleanPage); len(findings) != 0 {
		t.Errorf("clean page produced findings: %+v", findings)
	}
}

func TestMissingAltText(t *testing.T) {
	findings := analyze(t, `<html><head><title>t</title><meta name="viewport"></head>
		<body><h1>h</h1><img src="a.jpg"></body></html>`)
	f := findByDescription(findings, "alt text")
	if f == nil {
		t.Fatal("no alt-text finding")
	}
	if f.Selector != "img:not([alt])" {
		t.Errorf("Selector = %q", f.Selector)
	}
	if f.Severity != "medium" {
		t.Errorf("Severity = %q", f.Severity)
	}
}

func TestMissingTitle(t *testing.T) {
	findings := analyze(t, `<html><head><meta name="viewport"></head><body><h1>h</h1></body></html>`)
	f := findByDescription(findings, "no title")
	if f == nil {
		t.Fatal("no missing-title finding")
	}
	// Page-level: nothing to point at.
	if f.Selector != "" {
		t.Errorf("Selector = %q, want empty", f.Selector)
	}
	if f.Severity != "high" {
		t.Errorf("Severity = %q", f.Severity)
	}

	// Whitespace-only titles count as missing.
	findings = analyze(t, `<html><head><title>   </title><meta name="viewport"></head><body><h1>h</h1></body></html>`)
	if findByDescription(findings, "no title") == nil {
		t.Error("whitespace title not flagged")
	}
}

func TestHeadingStructure(t *testing.T) {
	findings := analyze(t, `<html><head><title>t</title><meta name="viewport"></head>
		<body><h3>starts at three</h3></body></html>`)
	f := findByDescription(findings, "H1 heading")
	if f == nil {
		t.Fatal("no heading-structure finding")
	}
	if f.Selector != "h3" {
		t.Errorf("Selector = %q, want h3", f.Selector)
	}

	// No headings at all is not a structure violation.
	findings = analyze(t, `<html><head><title>t</title><meta name="viewport"></head><body><p>text</p></body></html>`)
	if findByDescription(findings, "H1 heading") != nil {
		t.Error("headingless page flagged for structure")
	}
}

func TestMissingViewportMeta(t *testing.T) {
	findings := analyze(t, `<html><head><title>t</title></head><body><h1>h</h1></body></html>`)
	f := findByDescription(findings, "viewport")
	if f == nil {
		t.Fatal("no viewport finding")
	}
	if f.Heuristic != "Flexibility and Efficiency of Use" {
		t.Errorf("Heuristic = %q", f.Heuristic)
	}
}

func TestUnlabeledInputs(t *testing.T) {
	findings := analyze(t, `<html><head><title>t</title><meta name="viewport"></head>
		<body><h1>h</h1><form><input type="text" name="q"></form></body></html>`)
	if findByDescription(findings, "label association") == nil {
		t.Fatal("unlabeled input not flagged")
	}

	// Inputs with an id, aria-label, or non-data types are fine.
	for _, body := range []string{
		`<form><input type="text" id="q" name="q"></form>`,
		`<form><input type="text" aria-label="Search" name="q"></form>`,
		`<form><input type="submit" value="Go"></form>`,
		`<form><input type="hidden" name="csrf" value="x"></form>`,
	} {
		findings := analyze(t, `<html><head><title>t</title><meta name="viewport"></head><body><h1>h</h1>`+body+`</body></html>`)
		if findByDescription(findings, "label association") != nil {
			t.Errorf("labeled/ignorable input flagged: %s", body)
		}
	}
}

func TestVagueLinks(t *testing.T) {
	findings := analyze(t, `<html><head><title>t</title><meta name="viewport"></head>
		<body><h1>h</h1>
		<a href="/a">Click Here</a>
		<a href="/b">read more</a>
		<a href="/b">read more</a>
		<a href="/c">Detailed quarterly results</a>
		</body></html>`)

	var vague []Finding
	for _, f := range findings {
		if f.Heuristic == "Match Between System and Real World" {
			vague = append(vague, f)
		}
	}
	// Two distinct vague destinations; the duplicate href collapses.
	if len(vague) != 2 {
		t.Fatalf("got %d vague-link findings, want 2: %+v", len(vague), vague)
	}
	if vague[0].Selector != `a[href="/a"]` {
		t.Errorf("Selector = %q", vague[0].Selector)
	}
	if vague[0].Severity != "low" {
		t.Errorf("Severity = %q", vague[0].Severity)
	}
}

func TestEverythingWrongAtOnce(t *testing.T) {
	findings := analyze(t, `<html><head></head><body>
		<h2>h</h2>
		<img src="x.jpg">
		<form><input type="text" name="quantity"></form>
		<a href="/p">here</a>
		</body></html>`)

	if len(findings) != 6 {
		descs := make([]string, len(findings))
		for i, f := range findings {
			descs[i] = f.Description
		}
		t.Errorf("got %d findings, want 6: %v", len(findings), descs)
	}
}
