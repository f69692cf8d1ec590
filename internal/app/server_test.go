package app

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/driftbench/internal/locator"
	"github.com/roach88/driftbench/internal/mutator"
)

type client struct {
	t    *testing.T
	base string
	http *http.Client
}

func newClient(t *testing.T, base string) *client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &client{t: t, base: base, http: &http.Client{Jar: jar}}
}

func (c *client) get(path string) (*http.Response, string) {
	c.t.Helper()
	resp, err := c.http.Get(c.base + path)
	require.NoError(c.t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(c.t, err)
	return resp, string(body)
}

func (c *client) post(path string, form url.Values) (*http.Response, string) {
	c.t.Helper()
	resp, err := c.http.PostForm(c.base+path, form)
	require.NoError(c.t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(c.t, err)
	return resp, string(body)
}

func (c *client) login() string {
	c.t.Helper()
	resp, body := c.post("/login", url.Values{"email": {"a@b.c"}, "password": {"x"}})
	require.Equal(c.t, "/cart", resp.Request.URL.Path)
	return body
}

func startServer(t *testing.T, opts ...Option) (*Server, string) {
	t.Helper()
	srv, err := New(opts...)
	require.NoError(t, err)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return srv, ts.URL
}

func TestServer_LoginPage(t *testing.T) {
	_, base := startServer(t)
	c := newClient(t, base)

	resp, body := c.get("/")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "/login", resp.Request.URL.Path)
	assert.Equal(t, "0", resp.Header.Get(VersionHeader))

	for _, n := range []locator.Name{locator.LoginForm, locator.EmailInput, locator.PasswordInput, locator.SubmitButton, locator.ForgotPasswordLink} {
		assert.Contains(t, body, `data-testid="`+string(n)+`"`)
	}
	assert.NotContains(t, body, `data-testid="login-error"`)
}

func TestServer_LoginValidation(t *testing.T) {
	_, base := startServer(t)
	c := newClient(t, base)

	resp, body := c.post("/login", url.Values{"email": {""}, "password": {"x"}})
	assert.Equal(t, "/login", resp.Request.URL.Path)
	assert.Contains(t, body, `data-testid="login-error"`)
	assert.Contains(t, body, "Email and password are required")

	// Still logged out.
	resp, _ = c.get("/cart")
	assert.Equal(t, "/login", resp.Request.URL.Path)
}

func TestServer_CartFlow(t *testing.T) {
	_, base := startServer(t)
	c := newClient(t, base)

	body := c.login()
	assert.Contains(t, body, "Welcome, a@b.c")
	assert.Contains(t, body, `<span data-testid="cart-count">3 items</span>`)
	assert.Contains(t, body, `<span data-testid="cart-total">$99.97</span>`)
	assert.Equal(t, 3, strings.Count(body, `data-testid="cart-item"`))

	_, body = c.post("/cart/items/1/remove", nil)
	assert.Contains(t, body, `<span data-testid="cart-count">2 items</span>`)
	assert.Contains(t, body, `<span data-testid="cart-total">$69.98</span>`)
	assert.NotContains(t, body, "Wireless Mouse")

	_, body = c.post("/cart/checkout", nil)
	assert.Contains(t, body, `data-testid="checkout-success"`)

	_, body = c.post("/logout", nil)
	assert.Contains(t, body, `data-testid="login-form"`)

	body = c.login()
	assert.Contains(t, body, "3 items", "logout resets the cart")
	assert.NotContains(t, body, `data-testid="checkout-success"`)
}

func TestServer_CheckoutEmptyCart(t *testing.T) {
	_, base := startServer(t)
	c := newClient(t, base)
	c.login()

	for _, id := range []string{"1", "2", "3"} {
		c.post("/cart/items/"+id+"/remove", nil)
	}
	_, body := c.post("/cart/checkout", nil)
	assert.Contains(t, body, `data-testid="empty-cart"`)
	assert.Contains(t, body, `data-testid="checkout-error"`)
	assert.Contains(t, body, "0 items")
	assert.NotContains(t, body, `data-testid="checkout-success"`)
}

func TestServer_RemoveRequiresLogin(t *testing.T) {
	_, base := startServer(t)
	c := newClient(t, base)

	resp, _ := c.post("/cart/items/1/remove", nil)
	assert.Equal(t, "/login", resp.Request.URL.Path)

	resp, _ = c.post("/cart/items/abc/remove", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestServer_SessionsAreIndependent(t *testing.T) {
	srv, base := startServer(t)
	a := newClient(t, base)
	b := newClient(t, base)

	a.login()
	a.post("/cart/items/1/remove", nil)

	body := b.login()
	assert.Contains(t, body, "3 items")
	assert.Equal(t, 2, srv.Sessions().Len())
}

func TestServer_SanitisesEmail(t *testing.T) {
	_, base := startServer(t)
	c := newClient(t, base)

	_, body := c.post("/login", url.Values{"email": {"<script>x</script>a@b.c"}, "password": {"x"}})
	assert.Contains(t, body, "Welcome, a@b.c")
	assert.NotContains(t, body, "<script>")
}

func TestServer_EmailEscapedOnce(t *testing.T) {
	_, base := startServer(t)
	c := newClient(t, base)

	_, body := c.post("/login", url.Values{"email": {"o'brien&co@shop.com"}, "password": {"x"}})
	assert.Contains(t, body, "Welcome, o&#39;brien&amp;co@shop.com")
	assert.NotContains(t, body, "&amp;#39;")
	assert.NotContains(t, body, "&amp;amp;")
}

func TestServer_RenderTimeDrift(t *testing.T) {
	srv, base := startServer(t)
	c := newClient(t, base)

	state, err := srv.ApplyDrift(locator.PageLogin, locator.ToDrifted)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), state.Version())

	resp, body := c.get("/login")
	assert.Equal(t, "1", resp.Header.Get(VersionHeader))
	assert.Contains(t, body, `data-testid="email-field"`)
	assert.Contains(t, body, `data-testid="password-field"`)
	assert.Contains(t, body, `data-testid="login-button"`)
	assert.NotContains(t, body, `data-testid="email-input"`)
	assert.Contains(t, body, `data-testid="forgot-password-link"`, "unmapped names keep their canonical value")

	// The cart page has no direction in the state and renders as authored.
	body = c.login()
	assert.Contains(t, body, `data-testid="cart-count"`)

	require.NoError(t, srv.SetDrift(locator.NewDriftState()))
	_, body = c.get("/login")
	assert.Contains(t, body, "Welcome", "logged in users are redirected to the cart")
	assert.Contains(t, body, `data-testid="cart-summary"`)
}

func TestServer_SetDriftRejectsUnmappedPage(t *testing.T) {
	loginOnly, err := locator.NewRenameMaps(locator.Default(), locator.RenameMap{
		Page:    locator.PageLogin,
		Entries: []locator.MapEntry{{Canonical: locator.EmailInput, Drifted: "email-field"}},
	})
	require.NoError(t, err)
	srv, _ := startServer(t, WithRenameMaps(loginOnly))

	err = srv.SetDrift(locator.NewDriftState().With(locator.PageCart, locator.ToDrifted))
	require.Error(t, err)
	assert.True(t, locator.IsConfigurationError(err))
	assert.Equal(t, uint64(0), srv.Drift().Version())

	_, err = New(WithRenameMaps(loginOnly), WithDrift(locator.NewDriftState().With(locator.PageCart, locator.ToDrifted)))
	assert.True(t, locator.IsConfigurationError(err))
}

func TestServer_ReloadsMutatedTemplatesFromDisk(t *testing.T) {
	dir := t.TempDir()
	_, err := ExportTemplates(dir, false)
	require.NoError(t, err)

	_, base := startServer(t, WithTemplates(os.DirFS(dir), true))
	c := newClient(t, base)

	_, body := c.get("/login")
	assert.Contains(t, body, `data-testid="email-input"`)

	m := mutator.New(dir, PageFiles(), locator.DefaultRenameMaps())
	res, err := m.Mutate(context.Background(), locator.PageLogin, locator.ToDrifted)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Substitutions)
	assert.Empty(t, res.Warnings)

	_, body = c.get("/login")
	assert.Contains(t, body, `data-testid="email-field"`)
	assert.NotContains(t, body, `data-testid="email-input"`)

	_, err = m.Restore(context.Background(), locator.PageLogin)
	require.NoError(t, err)
	_, body = c.get("/login")
	assert.Contains(t, body, `data-testid="email-input"`)
}

func TestServer_Healthz(t *testing.T) {
	_, base := startServer(t)
	resp, body := newClient(t, base).get("/healthz")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok\n", body)
}

func TestServer_ServeStopsOnCancel(t *testing.T) {
	srv, err := New()
	require.NoError(t, err)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
