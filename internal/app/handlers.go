package app

import (
	"errors"
	"html"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/roach88/driftbench/internal/locator"
	"github.com/roach88/driftbench/internal/shop"
)

type loginView struct {
	Email string
	Error string
}

type itemView struct {
	ID       int
	Name     string
	Price    string
	Quantity int
}

type cartView struct {
	User              string
	Items             []itemView
	Count             string
	Total             string
	CheckoutCompleted bool
	CheckoutError     string
}

func (s *Server) cartView(sess *shop.Session) cartView {
	items := sess.Items()
	v := cartView{
		User:              s.displayName(sess.User()),
		Items:             make([]itemView, len(items)),
		Count:             shop.CountLabel(sess.ItemCount()),
		Total:             sess.TotalPrice().String(),
		CheckoutCompleted: sess.CheckoutCompleted(),
	}
	for i, it := range items {
		v.Items[i] = itemView{ID: it.ID, Name: it.Name, Price: it.UnitPrice.String(), Quantity: it.Quantity}
	}
	return v
}

// displayName strips markup from user input. The policy escapes what it
// keeps, so the result is unescaped again and left to html/template.
func (s *Server) displayName(raw string) string {
	return html.UnescapeString(s.policy.Sanitize(raw))
}

// render writes a page. Rendering failures are logged and reported as 500.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, view string, page locator.Page, data any) {
	drift := s.Drift()
	body, err := s.renderer.Render(view, page, data, drift)
	if err != nil {
		s.logger.Error("render failed", "view", view, "page", page, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set(VersionHeader, strconv.FormatUint(drift.Version(), 10))
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func redirect(w http.ResponseWriter, r *http.Request, to string) {
	http.Redirect(w, r, to, http.StatusSeeOther)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.sessions.With(w, r, func(sess *shop.Session) {
		if sess.State() == shop.LoggedIn {
			redirect(w, r, "/cart")
			return
		}
		redirect(w, r, "/login")
	})
}

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	s.sessions.With(w, r, func(sess *shop.Session) {
		if sess.State() == shop.LoggedIn {
			redirect(w, r, "/cart")
			return
		}
		s.render(w, r, http.StatusOK, "login.html", locator.PageLogin, loginView{})
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	email := r.PostForm.Get("email")
	password := r.PostForm.Get("password")

	s.sessions.With(w, r, func(sess *shop.Session) {
		err := sess.Login(email, password)
		var ve *shop.ValidationError
		switch {
		case err == nil, errors.Is(err, shop.ErrAlreadyLoggedIn):
			redirect(w, r, "/cart")
		case errors.As(err, &ve):
			s.render(w, r, http.StatusOK, "login.html", locator.PageLogin, loginView{Email: email, Error: ve.Message})
		default:
			s.logger.Error("login failed", "error", err)
			http.Error(w, "internal server error", http.StatusInternalServerError)
		}
	})
}

func (s *Server) handleForgot(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "forgot.html", "", nil)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.sessions.With(w, r, func(sess *shop.Session) {
		// Logging out of a logged-out session lands on the login page too.
		_ = sess.Logout()
		redirect(w, r, "/login")
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Server) handleCart(w http.ResponseWriter, r *http.Request) {
	s.sessions.With(w, r, func(sess *shop.Session) {
		if sess.State() != shop.LoggedIn {
			redirect(w, r, "/login")
			return
		}
		s.render(w, r, http.StatusOK, "cart.html", locator.PageCart, s.cartView(sess))
	})
}

func (s *Server) handleRemoveItem(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid item id", http.StatusBadRequest)
		return
	}
	s.sessions.With(w, r, func(sess *shop.Session) {
		if err := sess.RemoveItem(id); err != nil {
			redirect(w, r, "/login")
			return
		}
		redirect(w, r, "/cart")
	})
}

func (s *Server) handleCheckout(w http.ResponseWriter, r *http.Request) {
	s.sessions.With(w, r, func(sess *shop.Session) {
		err := sess.Checkout()
		switch {
		case err == nil:
			redirect(w, r, "/cart")
		case errors.Is(err, shop.ErrEmptyCart):
			v := s.cartView(sess)
			v.CheckoutError = shop.MsgEmptyCart
			s.render(w, r, http.StatusOK, "cart.html", locator.PageCart, v)
		default:
			redirect(w, r, "/login")
		}
	})
}
