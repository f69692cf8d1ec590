package harness

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/roach88/driftbench/internal/locator"
)

// HTTPDriver drives the application with plain HTTP requests. It parses
// each response into a DOM, resolves locators by exact attribute match and
// submits forms the way a browser would for the controls it supports
// (input, textarea, select, button).
//
// HTTPDriver is not safe for concurrent use.
type HTTPDriver struct {
	base    *url.URL
	client  *http.Client
	current *url.URL
	doc     *html.Node
}

// NewHTTPDriver creates a driver with an empty cookie jar.
// If client is nil a new one is created; its Jar is replaced either way.
func NewHTTPDriver(baseURL string, client *http.Client) (*HTTPDriver, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}
	c := &http.Client{}
	if client != nil {
		*c = *client
	}
	c.Jar = jar
	return &HTTPDriver{base: base, client: c}, nil
}

// HTTPDriverFactory returns a factory creating HTTPDrivers for baseURL.
func HTTPDriverFactory(baseURL string, client *http.Client) DriverFactory {
	return func(context.Context) (Driver, error) {
		return NewHTTPDriver(baseURL, client)
	}
}

// Open implements Driver.
func (d *HTTPDriver) Open(ctx context.Context, path string) error {
	ref, err := url.Parse(path)
	if err != nil {
		return fmt.Errorf("parse path %q: %w", path, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.base.ResolveReference(ref).String(), nil)
	if err != nil {
		return err
	}
	return d.do(req)
}

func (d *HTTPDriver) do(req *http.Request) error {
	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("%s %s: status %d", req.Method, req.URL, resp.StatusCode)
	}
	doc, err := html.Parse(resp.Body)
	if err != nil {
		return fmt.Errorf("parse %s: %w", resp.Request.URL, err)
	}
	d.doc = doc
	d.current = resp.Request.URL
	return nil
}

// URL returns the URL of the current page.
func (d *HTTPDriver) URL() string {
	if d.current == nil {
		return ""
	}
	return d.current.String()
}

// find returns the nth element whose data-testid equals n exactly.
func (d *HTTPDriver) find(n locator.Name, nth int) (*html.Node, error) {
	var matches []*html.Node
	if d.doc != nil {
		walk(d.doc, func(node *html.Node) {
			if node.Type == html.ElementNode {
				if v, ok := attr(node, locator.Attribute); ok && v == string(n) {
					matches = append(matches, node)
				}
			}
		})
	}
	if nth < len(matches) {
		return matches[nth], nil
	}
	return nil, &LocatorResolutionFailure{Name: n, Nth: nth, Matches: len(matches), URL: d.URL()}
}

// Fill implements Driver.
func (d *HTTPDriver) Fill(ctx context.Context, n locator.Name, nth int, value string) error {
	el, err := d.find(n, nth)
	if err != nil {
		return err
	}
	switch el.DataAtom {
	case atom.Input:
		setAttr(el, "value", value)
	case atom.Textarea:
		for c := el.FirstChild; c != nil; {
			next := c.NextSibling
			el.RemoveChild(c)
			c = next
		}
		el.AppendChild(&html.Node{Type: html.TextNode, Data: value})
	default:
		return fmt.Errorf("fill %s: <%s> is not a text control", n, el.Data)
	}
	return nil
}

// Click implements Driver. Clicking an element that is neither a link nor
// a submit control does nothing, as in a browser.
func (d *HTTPDriver) Click(ctx context.Context, n locator.Name, nth int) error {
	el, err := d.find(n, nth)
	if err != nil {
		return err
	}
	if el.DataAtom == atom.A {
		href, ok := attr(el, "href")
		if !ok {
			return nil
		}
		return d.Open(ctx, d.resolve(href))
	}
	if isSubmit(el) {
		form := ancestor(el, atom.Form)
		if form == nil {
			return nil
		}
		return d.submit(ctx, form, el)
	}
	return nil
}

func (d *HTTPDriver) resolve(ref string) string {
	u, err := url.Parse(ref)
	if err != nil || d.current == nil {
		return ref
	}
	return d.current.ResolveReference(u).String()
}

// submit sends form's successful controls, plus the submitter's name and
// value when it has one.
func (d *HTTPDriver) submit(ctx context.Context, form, submitter *html.Node) error {
	values := url.Values{}
	walk(form, func(node *html.Node) {
		if node.Type != html.ElementNode {
			return
		}
		name, ok := attr(node, "name")
		if !ok || name == "" {
			return
		}
		if _, disabled := attr(node, "disabled"); disabled {
			return
		}
		switch node.DataAtom {
		case atom.Input:
			typ, _ := attr(node, "type")
			switch strings.ToLower(typ) {
			case "submit", "button", "reset", "image", "file":
				return
			case "checkbox", "radio":
				if _, checked := attr(node, "checked"); !checked {
					return
				}
				v, ok := attr(node, "value")
				if !ok {
					v = "on"
				}
				values.Add(name, v)
				return
			}
			v, _ := attr(node, "value")
			values.Add(name, v)
		case atom.Textarea:
			values.Add(name, textContent(node))
		case atom.Select:
			values.Add(name, selectedOption(node))
		}
	})
	if name, ok := attr(submitter, "name"); ok && name != "" {
		v, _ := attr(submitter, "value")
		values.Add(name, v)
	}

	action, _ := attr(form, "action")
	target := d.resolve(action)
	if action == "" && d.current != nil {
		target = d.current.String()
	}
	method, _ := attr(form, "method")

	var req *http.Request
	var err error
	if strings.EqualFold(method, http.MethodPost) {
		req, err = http.NewRequestWithContext(ctx, http.MethodPost, target, strings.NewReader(values.Encode()))
		if err == nil {
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		}
	} else {
		u, perr := url.Parse(target)
		if perr != nil {
			return perr
		}
		u.RawQuery = values.Encode()
		req, err = http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	}
	if err != nil {
		return err
	}
	return d.do(req)
}

// Text implements Driver.
func (d *HTTPDriver) Text(ctx context.Context, n locator.Name, nth int) (string, error) {
	el, err := d.find(n, nth)
	if err != nil {
		return "", err
	}
	return collapseSpace(textContent(el)), nil
}

// Value implements Driver.
func (d *HTTPDriver) Value(ctx context.Context, n locator.Name, nth int) (string, error) {
	el, err := d.find(n, nth)
	if err != nil {
		return "", err
	}
	switch el.DataAtom {
	case atom.Textarea:
		return textContent(el), nil
	case atom.Select:
		return selectedOption(el), nil
	default:
		v, _ := attr(el, "value")
		return v, nil
	}
}

// Visible implements Driver. An element is hidden when it or an ancestor
// has the hidden attribute or an inline display:none, or when it is an
// input of type hidden.
func (d *HTTPDriver) Visible(ctx context.Context, n locator.Name, nth int) (bool, error) {
	el, err := d.find(n, nth)
	if err != nil {
		return false, err
	}
	if el.DataAtom == atom.Input {
		if typ, _ := attr(el, "type"); strings.EqualFold(typ, "hidden") {
			return false, nil
		}
	}
	for node := el; node != nil; node = node.Parent {
		if node.Type != html.ElementNode {
			continue
		}
		if _, hidden := attr(node, "hidden"); hidden {
			return false, nil
		}
		if style, ok := attr(node, "style"); ok {
			compact := strings.ReplaceAll(strings.ToLower(style), " ", "")
			if strings.Contains(compact, "display:none") {
				return false, nil
			}
		}
	}
	return true, nil
}

// Close implements Driver.
func (d *HTTPDriver) Close() error {
	d.client.CloseIdleConnections()
	d.doc = nil
	return nil
}

func walk(n *html.Node, fn func(*html.Node)) {
	fn(n)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, fn)
	}
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func setAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

func ancestor(n *html.Node, a atom.Atom) *html.Node {
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Type == html.ElementNode && p.DataAtom == a {
			return p
		}
	}
	return nil
}

func isSubmit(n *html.Node) bool {
	typ, _ := attr(n, "type")
	switch n.DataAtom {
	case atom.Button:
		return typ == "" || strings.EqualFold(typ, "submit")
	case atom.Input:
		return strings.EqualFold(typ, "submit") || strings.EqualFold(typ, "image")
	}
	return false
}

func textContent(n *html.Node) string {
	var b strings.Builder
	walk(n, func(node *html.Node) {
		if node.Type == html.TextNode {
			b.WriteString(node.Data)
		}
	})
	return b.String()
}

func selectedOption(sel *html.Node) string {
	var first, selected *html.Node
	walk(sel, func(node *html.Node) {
		if node.Type != html.ElementNode || node.DataAtom != atom.Option {
			return
		}
		if first == nil {
			first = node
		}
		if _, ok := attr(node, "selected"); ok && selected == nil {
			selected = node
		}
	})
	opt := selected
	if opt == nil {
		opt = first
	}
	if opt == nil {
		return ""
	}
	if v, ok := attr(opt, "value"); ok {
		return v
	}
	return collapseSpace(textContent(opt))
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
