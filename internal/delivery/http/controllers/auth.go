package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/MohamedLahlami/EMSTUDY-sub000/internal/apiclient"
	"github.com/MohamedLahlami/EMSTUDY-sub000/internal/app_errors"
	"github.com/MohamedLahlami/EMSTUDY-sub000/internal/forms"
	"github.com/MohamedLahlami/EMSTUDY-sub000/internal/models"
	"github.com/MohamedLahlami/EMSTUDY-sub000/internal/session"
)

const msgFixFields = "Please fix the highlighted fields."

type AuthPages struct {
	*Web
}

func NewAuthPages(w *Web) *AuthPages {
	return &AuthPages{Web: w}
}

func (h *AuthPages) Home(c *gin.Context) {
	if s := currentSession(c); s != nil {
		h.redirect(c, session.HomePath(s.User.Role))
		return
	}
	h.redirect(c, "/login")
}

func (h *AuthPages) LoginPage(c *gin.Context) {
	if s := currentSession(c); s != nil {
		h.redirect(c, session.HomePath(s.User.Role))
		return
	}
	h.render(c, http.StatusOK, "login", gin.H{"Form": forms.LoginForm{Next: safeNext(c.Query("next"))}})
}

func (h *AuthPages) Login(c *gin.Context) {
	var form forms.LoginForm
	if err := forms.Bind(c, &form); err != nil {
		form.Password = ""
		h.render(c, http.StatusUnprocessableEntity, "login", gin.H{"Form": form, "Errors": forms.Errors(err), "Alert": msgFixFields})
		return
	}
	resp, err := h.api.Login(c.Request.Context(), strings.TrimSpace(form.Email), form.Password)
	if err != nil {
		form.Password = ""
		h.render(c, failedStatus(err), "login", gin.H{"Form": form, "Alert": apiclient.Message(err)})
		return
	}
	h.begin(c, resp, form.Next, "Welcome back, "+resp.User.Name+".", "login", form)
}

func (h *AuthPages) RegisterPage(c *gin.Context) {
	if s := currentSession(c); s != nil {
		h.redirect(c, session.HomePath(s.User.Role))
		return
	}
	h.render(c, http.StatusOK, "register", gin.H{"Form": forms.RegisterForm{Role: models.StudentRole}})
}

func (h *AuthPages) Register(c *gin.Context) {
	var form forms.RegisterForm
	if err := forms.Bind(c, &form); err != nil {
		form.Password = ""
		h.render(c, http.StatusUnprocessableEntity, "register", gin.H{"Form": form, "Errors": forms.Errors(err), "Alert": msgFixFields})
		return
	}
	resp, err := h.api.Register(c.Request.Context(), apiclient.RegisterRequest{
		Name:     strings.TrimSpace(form.Name),
		Email:    strings.TrimSpace(form.Email),
		Password: form.Password,
		Role:     form.Role,
	})
	if err != nil {
		form.Password = ""
		h.render(c, failedStatus(err), "register", gin.H{"Form": form, "Alert": apiclient.Message(err)})
		return
	}
	h.begin(c, resp, "", "Welcome to EMStudy, "+resp.User.Name+".", "register", form)
}

// begin stores the session for a fresh token and sends the user on.
func (h *AuthPages) begin(c *gin.Context, resp *models.AuthResponse, next, greeting, page string, form interface{}) {
	s, err := h.sessions.Open(c.Request.Context(), resp.Token)
	if err != nil {
		h.log.ErrorErr("failed to open session", err)
		h.render(c, http.StatusBadGateway, page, gin.H{"Form": form, "Alert": "Could not start your session, try again later."})
		return
	}
	h.cookie(c).Values[sessionIDKey] = s.ID
	c.Set(sessionCtx, s)
	h.log.Info("user signed in", "user_id", s.User.ID, "role", s.User.Role)
	h.flash(c, flashSuccess, greeting)

	target := session.HomePath(s.User.Role)
	if n := safeNext(next); n != "" {
		target = n
	}
	h.redirect(c, target)
}

func (h *AuthPages) Logout(c *gin.Context) {
	h.signOut(c, "You have signed out.")
	h.redirect(c, "/login")
}

// failedStatus maps an API failure to the status of the re-rendered form.
func failedStatus(err error) int {
	var apiErr *apiclient.Error
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	if errors.Is(err, app_errors.ErrValidation) {
		return http.StatusUnprocessableEntity
	}
	return http.StatusBadGateway
}
