package crawler

import (
	"net/url"
	"reflect"
	"testing"

	"github.com/chromedp/cdproto/dom"
)

func TestExtractLinks(t *testing.T) {
	page := `<html><body>
		<a href="/about">About</a>
		<a href="https://example.com/pricing">Pricing</a>
		<a href="https://other.example/external">External</a>
		<a href="/about">Duplicate</a>
		<a href="/docs#section-2">Docs</a>
		<a href="mailto:hi@example.com">Mail</a>
		<a href="javascript:void(0)">JS</a>
		<a name="anchor-no-href">Anchor</a>
	</body></html>`

	got := ExtractLinks(page, "https://example.com/start")
	want := []string{
		"https://example.com/about",
		"https://example.com/pricing",
		"https://other.example/external",
		"https://example.com/docs",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ExtractLinks = %v, want %v", got, want)
	}
}

func TestExtractLinksRelativeResolution(t *testing.T) {
	page := `<a href="sibling">S</a><a href="../up">U</a><a href="?q=1">Q</a>`
	got := ExtractLinks(page, "https://example.com/a/b/page")
	want := []string{
		"https://example.com/a/b/sibling",
		"https://example.com/a/up",
		"https://example.com/a/b/page?q=1",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ExtractLinks = %v, want %v", got, want)
	}
}

func TestExtractLinksBadInput(t *testing.T) {
	if got := ExtractLinks("<a href='/x'>x</a>", "://not a url"); got != nil {
		t.Errorf("ExtractLinks with bad base = %v, want nil", got)
	}
	if got := ExtractLinks("", "https://example.com"); got != nil {
		t.Errorf("ExtractLinks on empty page = %v, want nil", got)
	}
}

func TestSameHost(t *testing.T) {
	start, err := url.Parse("https://example.com/start")
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		raw  string
		want bool
	}{
		{"https://example.com/other", true},
		{"http://example.com/other", true},
		{"https://sub.example.com/", false},
		{"https://other.example/", false},
		{"not a url at all\x7f", false},
	}
	for _, tt := range tests {
		if got := sameHost(start, tt.raw); got != tt.want {
			t.Errorf("sameHost(%q) = %v, want %v", tt.raw, got, tt.want)
		}
	}
}

func TestQuadFromContent(t *testing.T) {
	q := quadFromContent(dom.Quad{10, 20, 110, 20, 110, 60, 10, 60})
	if q.TopLeft.X != 10 || q.TopLeft.Y != 20 {
		t.Errorf("TopLeft = %+v", q.TopLeft)
	}
	if q.TopRight.X != 110 || q.TopRight.Y != 20 {
		t.Errorf("TopRight = %+v", q.TopRight)
	}
	if q.BottomRight.X != 110 || q.BottomRight.Y != 60 {
		t.Errorf("BottomRight = %+v", q.BottomRight)
	}
	if q.BottomLeft.X != 10 || q.BottomLeft.Y != 60 {
		t.Errorf("BottomLeft = %+v", q.BottomLeft)
	}
}

func TestNewAppliesDefaults(t *testing.T) {
	c := New(Config{}, nil)
	if c.cfg.MaxPages != DefaultConfig().MaxPages {
		t.Errorf("MaxPages = %d", c.cfg.MaxPages)
	}
	if c.cfg.IdleAfter <= 0 || c.cfg.PageTimeout <= 0 {
		t.Errorf("timeouts not defaulted: %+v", c.cfg)
	}
}
