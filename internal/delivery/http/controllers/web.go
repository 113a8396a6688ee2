package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"

	"github.com/MohamedLahlami/EMSTUDY-sub000/internal/apiclient"
	"github.com/MohamedLahlami/EMSTUDY-sub000/internal/app_errors"
	"github.com/MohamedLahlami/EMSTUDY-sub000/internal/quiz"
	"github.com/MohamedLahlami/EMSTUDY-sub000/internal/session"
	"github.com/MohamedLahlami/EMSTUDY-sub000/pkg/logger"
)

const (
	sessionIDKey = "sid"
	cookieCtx    = "web_cookie"
	sessionCtx   = "web_session"

	flashSuccess = "success"
	flashError   = "error"

	msgExpired = "Your session expired, please sign in again."
)

// Flash is a one-shot toast carried in the cookie across a redirect.
type Flash struct {
	Kind    string
	Message string
}

type Options struct {
	CookieName string
	// Refresh is how often the quiz page reloads to show the countdown.
	Refresh time.Duration
	// Now stamps the start of quiz attempts. Defaults to time.Now.
	Now func() time.Time
}

// Web holds what every page handler needs: the API, the signed-in sessions,
// the running quiz attempts and the browser cookie.
type Web struct {
	log        logger.Log
	api        *apiclient.Client
	sessions   *session.Manager
	attempts   *quiz.Registry
	cookies    sessions.Store
	cookieName string
	refresh    time.Duration
	now        func() time.Time
}

func NewWeb(l logger.Log, api *apiclient.Client, m *session.Manager, attempts *quiz.Registry, cookies sessions.Store, opts Options) *Web {
	if opts.CookieName == "" {
		opts.CookieName = "emstudy_session"
	}
	if opts.Refresh <= 0 {
		opts.Refresh = 5 * time.Second
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Web{
		log:        l,
		api:        api,
		sessions:   m,
		attempts:   attempts,
		cookies:    cookies,
		cookieName: opts.CookieName,
		refresh:    opts.Refresh,
		now:        opts.Now,
	}
}

// SessionMiddleware loads the cookie and the session it points at. A session
// that expired is dropped and the browser gets a toast saying so.
func (w *Web) SessionMiddleware(c *gin.Context) {
	cs, err := w.cookies.Get(c.Request, w.cookieName)
	if err != nil {
		w.log.Debug("session cookie rejected", "error", err)
	}
	c.Set(cookieCtx, cs)

	if sid, ok := cs.Values[sessionIDKey].(string); ok && sid != "" {
		s, err := w.sessions.Current(c.Request.Context(), sid)
		switch {
		case err == nil:
			c.Set(sessionCtx, s)
		case errors.Is(err, app_errors.ErrTokenExpired), errors.Is(err, app_errors.ErrSessionNotFound):
			// stores drop sessions at their ttl, so an unknown id is an expired one
			w.attempts.EndSession(sid)
			delete(cs.Values, sessionIDKey)
			cs.AddFlash(msgExpired, flashError)
		default:
			w.log.ErrorErr("failed to load session", err)
		}
	}
	c.Next()
}

// RequireRole sends anonymous visitors to the login page and signed-in users
// of another role to their own home.
func (w *Web) RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		s := currentSession(c)
		if s == nil {
			next := ""
			if c.Request.Method == http.MethodGet {
				next = c.Request.URL.RequestURI()
			}
			w.redirect(c, loginPath(next))
			c.Abort()
			return
		}
		if !s.HasRole(role) {
			w.flash(c, flashError, fmt.Sprintf("That page is only for %ss.", role))
			w.redirect(c, session.HomePath(s.User.Role))
			c.Abort()
			return
		}
		c.Next()
	}
}

func (w *Web) NotFound(c *gin.Context) {
	w.render(c, http.StatusNotFound, "error", gin.H{"Message": "page not found"})
}

func currentSession(c *gin.Context) *session.Session {
	v, ok := c.Get(sessionCtx)
	if !ok {
		return nil
	}
	s, _ := v.(*session.Session)
	return s
}

func (w *Web) cookie(c *gin.Context) *sessions.Session {
	if v, ok := c.Get(cookieCtx); ok {
		if cs, ok := v.(*sessions.Session); ok {
			return cs
		}
	}
	cs, _ := w.cookies.Get(c.Request, w.cookieName)
	c.Set(cookieCtx, cs)
	return cs
}

// client is the API as the signed-in user.
func (w *Web) client(c *gin.Context) *apiclient.Client {
	if s := currentSession(c); s != nil {
		return w.api.WithToken(s.Token)
	}
	return w.api
}

func (w *Web) flash(c *gin.Context, kind, msg string) {
	w.cookie(c).AddFlash(msg, kind)
}

func (w *Web) saveCookie(c *gin.Context) {
	if err := w.cookie(c).Save(c.Request, c.Writer); err != nil {
		w.log.ErrorErr("failed to save session cookie", err)
	}
}

func (w *Web) takeFlashes(c *gin.Context) []Flash {
	cs := w.cookie(c)
	var out []Flash
	for _, kind := range []string{flashSuccess, flashError} {
		for _, v := range cs.Flashes(kind) {
			out = append(out, Flash{Kind: kind, Message: fmt.Sprint(v)})
		}
	}
	return out
}

// render writes page inside the layout. The cookie is saved first since it
// cannot be touched once the body is written.
func (w *Web) render(c *gin.Context, status int, page string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	if errs, ok := data["Errors"].(map[string]string); !ok || errs == nil {
		data["Errors"] = map[string]string{}
	}
	data["Session"] = currentSession(c)
	data["Flashes"] = w.takeFlashes(c)
	w.saveCookie(c)
	c.HTML(status, page, data)
}

func (w *Web) redirect(c *gin.Context, location string) {
	w.saveCookie(c)
	c.Redirect(http.StatusSeeOther, location)
}

// signOut forgets the session on both sides and stops its quiz attempts.
func (w *Web) signOut(c *gin.Context, msg string) {
	if s := currentSession(c); s != nil {
		if err := w.sessions.Close(c.Request.Context(), s.ID); err != nil {
			w.log.ErrorErr("failed to close session", err)
		}
		w.attempts.EndSession(s.ID)
		c.Set(sessionCtx, (*session.Session)(nil))
	}
	delete(w.cookie(c).Values, sessionIDKey)
	if msg != "" {
		w.flash(c, flashSuccess, msg)
	}
}

// actionFailed handles an API error after a form post: flash and go back.
func (w *Web) actionFailed(c *gin.Context, err error, back string) {
	if errors.Is(err, app_errors.ErrUnauthorized) {
		w.expire(c, back)
		return
	}
	w.log.Debug("api call failed", "path", c.Request.URL.Path, "error", err)
	w.flash(c, flashError, apiclient.Message(err))
	w.redirect(c, back)
}

// pageFailed handles an API error while loading a page.
func (w *Web) pageFailed(c *gin.Context, err error) {
	switch {
	case errors.Is(err, app_errors.ErrUnauthorized):
		w.expire(c, c.Request.URL.RequestURI())
	case errors.Is(err, app_errors.ErrNotFound):
		w.render(c, http.StatusNotFound, "error", gin.H{"Message": apiclient.Message(err)})
	case errors.Is(err, app_errors.ErrForbidden):
		w.render(c, http.StatusForbidden, "error", gin.H{"Message": apiclient.Message(err)})
	default:
		w.log.ErrorErr("failed to load page", err, "path", c.Request.URL.Path)
		w.render(c, http.StatusBadGateway, "error", gin.H{"Message": apiclient.Message(err)})
	}
}

// expire runs when the API no longer accepts the session token.
func (w *Web) expire(c *gin.Context, next string) {
	w.signOut(c, "")
	w.flash(c, flashError, msgExpired)
	w.redirect(c, loginPath(next))
}

func loginPath(next string) string {
	if next == "" || next == "/" {
		return "/login"
	}
	return "/login?next=" + url.QueryEscape(next)
}

// safeNext keeps only local paths so the login form cannot redirect off site.
func safeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return ""
	}
	return next
}
