package harness

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/roach88/driftbench/internal/locator"
)

// Browser owns a Chrome process shared by RodDrivers. Each driver runs in
// its own incognito context, so sessions do not leak between scenarios.
type Browser struct {
	mu      sync.Mutex
	browser *rod.Browser
	lnch    *launcher.Launcher
	timeout time.Duration
}

// BrowserConfig configures LaunchBrowser.
type BrowserConfig struct {
	// RemoteURL is the DevTools WebSocket URL of a running Chrome.
	// Empty launches a local headless Chrome.
	RemoteURL string

	// Timeout bounds every driver operation. Default: 10s.
	Timeout time.Duration
}

// LaunchBrowser starts or connects to Chrome.
func LaunchBrowser(ctx context.Context, cfg BrowserConfig) (*Browser, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	b := &Browser{timeout: cfg.Timeout}
	wsURL := cfg.RemoteURL
	if wsURL == "" {
		l := launcher.New().Context(ctx).Headless(true)
		u, err := l.Launch()
		if err != nil {
			return nil, fmt.Errorf("browser: launch: %w", err)
		}
		wsURL = u
		b.lnch = l
	}

	rb := rod.New().Context(ctx).ControlURL(wsURL)
	if err := rb.Connect(); err != nil {
		b.kill()
		return nil, fmt.Errorf("browser: connect: %w", err)
	}
	b.browser = rb
	return b, nil
}

// Factory returns a DriverFactory opening pages of baseURL.
func (b *Browser) Factory(baseURL string) DriverFactory {
	return func(ctx context.Context) (Driver, error) {
		return b.NewDriver(ctx, baseURL)
	}
}

// NewDriver opens a blank page in a fresh incognito context.
func (b *Browser) NewDriver(ctx context.Context, baseURL string) (*RodDriver, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.browser == nil {
		return nil, fmt.Errorf("browser: closed")
	}
	incognito, err := b.browser.Incognito()
	if err != nil {
		return nil, fmt.Errorf("browser: incognito: %w", err)
	}
	page, err := incognito.Page(proto.TargetCreateTarget{URL: ""})
	if err != nil {
		_ = incognito.Close()
		return nil, fmt.Errorf("browser: create tab: %w", err)
	}
	return &RodDriver{base: base, browser: incognito, page: page, timeout: b.timeout}, nil
}

// Close shuts the browser down.
func (b *Browser) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	var err error
	if b.browser != nil {
		err = b.browser.Close()
		b.browser = nil
	}
	b.kill()
	return err
}

func (b *Browser) kill() {
	if b.lnch != nil {
		b.lnch.Kill()
		b.lnch = nil
	}
}

// RodDriver drives a real browser page through go-rod.
type RodDriver struct {
	base    *url.URL
	browser *rod.Browser
	page    *rod.Page
	timeout time.Duration
}

func (d *RodDriver) bound(ctx context.Context) (*rod.Page, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	return d.page.Context(ctx), cancel
}

// Open implements Driver.
func (d *RodDriver) Open(ctx context.Context, path string) error {
	ref, err := url.Parse(path)
	if err != nil {
		return fmt.Errorf("parse path %q: %w", path, err)
	}
	target := d.base.ResolveReference(ref).String()

	page, cancel := d.bound(ctx)
	defer cancel()
	if err := page.Navigate(target); err != nil {
		return fmt.Errorf("navigate %s: %w", target, err)
	}
	if err := page.WaitLoad(); err != nil {
		return fmt.Errorf("wait load %s: %w", target, err)
	}
	return nil
}

// find resolves the nth match of n without waiting; the page is loaded
// before any step runs.
func (d *RodDriver) find(page *rod.Page, n locator.Name, nth int) (*rod.Element, error) {
	els, err := page.Elements(n.Selector())
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", n.Selector(), err)
	}
	if nth < len(els) {
		return els[nth], nil
	}
	info, _ := page.Info()
	current := ""
	if info != nil {
		current = info.URL
	}
	return nil, &LocatorResolutionFailure{Name: n, Nth: nth, Matches: len(els), URL: current}
}

// Fill implements Driver.
func (d *RodDriver) Fill(ctx context.Context, n locator.Name, nth int, value string) error {
	page, cancel := d.bound(ctx)
	defer cancel()
	el, err := d.find(page, n, nth)
	if err != nil {
		return err
	}
	if _, err := el.Eval(`() => { this.value = "" }`); err != nil {
		return fmt.Errorf("clear %s: %w", n, err)
	}
	if value == "" {
		return nil
	}
	if err := el.Input(value); err != nil {
		return fmt.Errorf("fill %s: %w", n, err)
	}
	return nil
}

// Click implements Driver. Links and submit controls wait for the
// resulting navigation to load.
func (d *RodDriver) Click(ctx context.Context, n locator.Name, nth int) error {
	page, cancel := d.bound(ctx)
	defer cancel()
	el, err := d.find(page, n, nth)
	if err != nil {
		return err
	}

	res, err := el.Eval(`() => {
		const t = this.tagName.toLowerCase();
		const type = (this.getAttribute("type") || "").toLowerCase();
		return (t === "a" && this.hasAttribute("href")) ||
			(t === "button" && (type === "" || type === "submit") && this.form !== null) ||
			(t === "input" && type === "submit" && this.form !== null);
	}`)
	if err != nil {
		return fmt.Errorf("inspect %s: %w", n, err)
	}
	navigates := res.Value.Bool()

	var wait func()
	if navigates {
		wait = page.WaitNavigation(proto.PageLifecycleEventNameLoad)
	}
	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("click %s: %w", n, err)
	}
	if wait != nil {
		wait()
	}
	return nil
}

// Text implements Driver.
func (d *RodDriver) Text(ctx context.Context, n locator.Name, nth int) (string, error) {
	page, cancel := d.bound(ctx)
	defer cancel()
	el, err := d.find(page, n, nth)
	if err != nil {
		return "", err
	}
	res, err := el.Eval(`() => this.textContent`)
	if err != nil {
		return "", fmt.Errorf("text %s: %w", n, err)
	}
	return strings.Join(strings.Fields(res.Value.Str()), " "), nil
}

// Value implements Driver.
func (d *RodDriver) Value(ctx context.Context, n locator.Name, nth int) (string, error) {
	page, cancel := d.bound(ctx)
	defer cancel()
	el, err := d.find(page, n, nth)
	if err != nil {
		return "", err
	}
	v, err := el.Property("value")
	if err != nil {
		return "", fmt.Errorf("value %s: %w", n, err)
	}
	return v.Str(), nil
}

// Visible implements Driver.
func (d *RodDriver) Visible(ctx context.Context, n locator.Name, nth int) (bool, error) {
	page, cancel := d.bound(ctx)
	defer cancel()
	el, err := d.find(page, n, nth)
	if err != nil {
		return false, err
	}
	return el.Visible()
}

// Close implements Driver. It disposes the incognito context.
func (d *RodDriver) Close() error {
	_ = d.page.Close()
	return d.browser.Close()
}
