// Package crawler drives a headless browser over a target site, capturing a
// full-page screenshot and the rendered HTML of each page. Issue coordinates
// are resolved against the live tab via the DevTools box model so they share
// the screenshot's pixel space.
package crawler

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"golang.org/x/net/html"

	"github.com/dubey22rohit/UX-Evaluator/internal/logging"
	"github.com/dubey22rohit/UX-Evaluator/internal/model"
)

// Config bounds a crawl.
type Config struct {
	MaxPages       int
	MaxDepth       int
	ViewportWidth  int64
	ViewportHeight int64
	UserAgent      string
	// IdleAfter is how long the network must stay quiet before a page is
	// considered settled.
	IdleAfter time.Duration
	// PageTimeout caps the time spent on a single page.
	PageTimeout time.Duration
	// JPEGQuality is passed to the full-page capture (1-99 selects JPEG).
	JPEGQuality int
}

// DefaultConfig mirrors the evaluation defaults: ten pages, two levels deep,
// a 1280x800 viewport and JPEG quality 80.
func DefaultConfig() Config {
	return Config{
		MaxPages:       10,
		MaxDepth:       2,
		ViewportWidth:  1280,
		ViewportHeight: 800,
		UserAgent:      "UX-Evaluation-Agent/1.0",
		IdleAfter:      2 * time.Second,
		PageTimeout:    30 * time.Second,
		JPEGQuality:    80,
	}
}

// Page is one captured page.
type Page struct {
	URL        string
	Title      string
	HTML       string
	Screenshot []byte
	Depth      int
	FetchedAt  time.Time
}

// Locator resolves CSS selectors against the page currently open in the tab.
// Quadrilaterals come from the DOM content box, in the same pixel space as
// the page screenshot.
type Locator interface {
	Locate(ctx context.Context, selector string) ([]model.Quadrilateral, error)
}

// VisitFunc runs once per captured page while its tab is still open, so the
// visitor can resolve selectors through loc.
type VisitFunc func(ctx context.Context, page *Page, loc Locator) error

// Crawler walks same-host links breadth-first from a start URL.
type Crawler struct {
	cfg    Config
	logger logging.Logger
}

// New creates a Crawler.
func New(cfg Config, logger logging.Logger) *Crawler {
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = DefaultConfig().MaxPages
	}
	if cfg.IdleAfter <= 0 {
		cfg.IdleAfter = DefaultConfig().IdleAfter
	}
	if cfg.PageTimeout <= 0 {
		cfg.PageTimeout = DefaultConfig().PageTimeout
	}
	if logger == nil {
		logger = logging.NopLogger{}
	}
	return &Crawler{
		cfg:    cfg,
		logger: logger.With(logging.Field{Key: "component", Value: "crawler"}),
	}
}

type queued struct {
	url   string
	depth int
}

// Crawl visits up to MaxPages pages reachable within MaxDepth of startURL,
// staying on the start host. Returns the number of pages visited.
func (c *Crawler) Crawl(ctx context.Context, startURL string, visit VisitFunc) (int, error) {
	start, err := url.Parse(startURL)
	if err != nil || start.Host == "" {
		return 0, fmt.Errorf("invalid start url %q: %v", startURL, err)
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.UserAgent(c.cfg.UserAgent),
	)
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	visited := map[string]bool{}
	queue := []queued{{url: startURL, depth: 0}}
	pages := 0

	for len(queue) > 0 && pages < c.cfg.MaxPages {
		if err := ctx.Err(); err != nil {
			return pages, err
		}
		next := queue[0]
		queue = queue[1:]
		if visited[next.url] {
			continue
		}
		visited[next.url] = true

		page, links, err := c.capture(browserCtx, next, visit)
		if err != nil {
			c.logger.Warn("page capture failed",
				logging.Field{Key: "url", Value: next.url},
				logging.Field{Key: "error", Value: err.Error()})
			continue
		}
		pages++
		c.logger.Info("captured page",
			logging.Field{Key: "url", Value: page.URL},
			logging.Field{Key: "depth", Value: page.Depth},
			logging.Field{Key: "links", Value: len(links)})

		if next.depth >= c.cfg.MaxDepth {
			continue
		}
		for _, l := range links {
			if sameHost(start, l) && !visited[l] {
				queue = append(queue, queued{url: l, depth: next.depth + 1})
			}
		}
	}

	return pages, nil
}

func (c *Crawler) capture(browserCtx context.Context, q queued, visit VisitFunc) (*Page, []string, error) {
	tabCtx, cancelTab := chromedp.NewContext(browserCtx)
	defer cancelTab()
	tabCtx, cancelTimeout := context.WithTimeout(tabCtx, c.cfg.PageTimeout)
	defer cancelTimeout()

	idle := waitNetworkIdle(tabCtx, c.cfg.IdleAfter)

	err := chromedp.Run(tabCtx,
		network.Enable(),
		emulation.SetDeviceMetricsOverride(c.cfg.ViewportWidth, c.cfg.ViewportHeight, 1, false),
		chromedp.Navigate(q.url),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("navigate %s: %w", q.url, err)
	}

	select {
	case <-idle:
	case <-tabCtx.Done():
		return nil, nil, fmt.Errorf("waiting for network idle on %s: %w", q.url, tabCtx.Err())
	}

	page := &Page{URL: q.url, Depth: q.depth, FetchedAt: time.Now().UTC()}
	err = chromedp.Run(tabCtx,
		chromedp.Title(&page.Title),
		chromedp.OuterHTML("html", &page.HTML),
		chromedp.FullScreenshot(&page.Screenshot, c.cfg.JPEGQuality),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("capture %s: %w", q.url, err)
	}

	if visit != nil {
		if err := visit(tabCtx, page, &tabLocator{tabCtx: tabCtx}); err != nil {
			return nil, nil, fmt.Errorf("visit %s: %w", q.url, err)
		}
	}

	links := ExtractLinks(page.HTML, q.url)
	return page, links, nil
}

// tabLocator resolves selectors in one open tab.
type tabLocator struct {
	tabCtx context.Context
}

func (t *tabLocator) Locate(ctx context.Context, selector string) ([]model.Quadrilateral, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var nodes []*cdp.Node
	if err := chromedp.Run(t.tabCtx,
		chromedp.Nodes(selector, &nodes, chromedp.ByQueryAll, chromedp.AtLeast(0)),
	); err != nil {
		return nil, fmt.Errorf("query %q: %w", selector, err)
	}
	if len(nodes) == 0 {
		return nil, nil
	}

	var quads []model.Quadrilateral
	err := chromedp.Run(t.tabCtx, chromedp.ActionFunc(func(ctx context.Context) error {
		for _, n := range nodes {
			box, err := dom.GetBoxModel().WithNodeID(n.NodeID).Do(ctx)
			if err != nil || box == nil || len(box.Content) < 8 {
				// Detached or zero-area nodes have no box; skip them.
				continue
			}
			quads = append(quads, quadFromContent(box.Content))
		}
		return nil
	}))
	if err != nil {
		return nil, fmt.Errorf("box model for %q: %w", selector, err)
	}
	return quads, nil
}

// quadFromContent maps a DevTools content quad (x1,y1 .. x4,y4 clockwise
// from the top left) onto the stored corner layout.
func quadFromContent(q dom.Quad) model.Quadrilateral {
	return model.Quadrilateral{
		TopLeft:     model.Point{X: q[0], Y: q[1]},
		TopRight:    model.Point{X: q[2], Y: q[3]},
		BottomRight: model.Point{X: q[4], Y: q[5]},
		BottomLeft:  model.Point{X: q[6], Y: q[7]},
	}
}

// waitNetworkIdle signals once no requests have been in flight for idleAfter.
// Adapted to also fire for pages that never issue a subresource request.
func waitNetworkIdle(ctx context.Context, idleAfter time.Duration) <-chan struct{} {
	idleChan := make(chan struct{})
	var (
		mu         sync.Mutex
		activeReqs int
		timer      *time.Timer
		done       bool
	)

	fire := func() {
		mu.Lock()
		defer mu.Unlock()
		if !done && activeReqs == 0 {
			done = true
			close(idleChan)
		}
	}
	restart := func() {
		mu.Lock()
		defer mu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(idleAfter, fire)
	}
	restart()

	chromedp.ListenTarget(ctx, func(ev any) {
		switch ev.(type) {
		case *network.EventRequestWillBeSent:
			mu.Lock()
			activeReqs++
			if timer != nil {
				timer.Stop()
			}
			mu.Unlock()
		case *network.EventLoadingFinished, *network.EventLoadingFailed:
			mu.Lock()
			if activeReqs > 0 {
				activeReqs--
			}
			idleNow := activeReqs == 0
			mu.Unlock()
			if idleNow {
				restart()
			}
		}
	})

	return idleChan
}

// ExtractLinks pulls href targets out of rendered HTML and resolves them
// against the page URL. Fragments and non-http(s) schemes are skipped.
func ExtractLinks(pageHTML, pageURL string) []string {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil
	}
	doc, err := html.Parse(strings.NewReader(pageHTML))
	if err != nil {
		return nil
	}

	seen := map[string]bool{}
	var out []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			for _, attr := range n.Attr {
				if attr.Key != "href" {
					continue
				}
				ref, err := url.Parse(strings.TrimSpace(attr.Val))
				if err != nil {
					continue
				}
				resolved := base.ResolveReference(ref)
				if resolved.Scheme != "http" && resolved.Scheme != "https" {
					continue
				}
				resolved.Fragment = ""
				s := resolved.String()
				if !seen[s] {
					seen[s] = true
					out = append(out, s)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return out
}

func sameHost(start *url.URL, raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return u.Host == start.Host
}
