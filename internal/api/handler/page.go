package handler

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/text/language"

	"github.com/aquagraph/aquagraph/internal/api/response"
	"github.com/aquagraph/aquagraph/internal/chart"
	"github.com/aquagraph/aquagraph/internal/form"
	"github.com/aquagraph/aquagraph/internal/geo"
	"github.com/aquagraph/aquagraph/internal/i18n"
	"github.com/aquagraph/aquagraph/internal/session"
	"github.com/aquagraph/aquagraph/internal/submit"
)

// SessionCookie carries the session ID of a browser.
const SessionCookie = "aquagraph_session"

// Page form actions, sent as the "action" field.
const (
	ActionRegion  = "region"
	ActionCity    = "city"
	ActionSubmit  = "submit"
	ActionDismiss = "dismiss"
)

//go:embed web
var webFS embed.FS

var pageTemplate = template.Must(template.ParseFS(webFS, "web/templates/page.html"))

// Submitter runs the submit workflow against a session.
type Submitter interface {
	Submit(ctx context.Context, sessionID string, state form.State, tag language.Tag) (*submit.Outcome, error)
}

// PageConfig holds the dependencies of PageHandler.
type PageConfig struct {
	Sessions  *session.Store
	Workflow  Submitter
	Lookup    geo.Lookup
	Country   string
	Localizer *i18n.Localizer
	Projector *chart.Projector

	// CookieSecure marks cookies Secure. Enable behind TLS.
	CookieSecure bool

	// SessionTTL is the session cookie lifetime.
	SessionTTL time.Duration
}

// PageHandler serves the server-rendered form and chart.
type PageHandler struct {
	cfg PageConfig
}

// NewPageHandler creates a PageHandler.
func NewPageHandler(cfg PageConfig) *PageHandler {
	if cfg.SessionTTL == 0 {
		cfg.SessionTTL = 2 * time.Hour
	}
	return &PageHandler{cfg: cfg}
}

// Static serves the embedded stylesheet and scripts under /static/.
func Static() http.Handler {
	sub, err := fs.Sub(webFS, "web/static")
	if err != nil {
		panic(err)
	}
	return http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
}

// Show handles GET /.
func (h *PageHandler) Show(w http.ResponseWriter, r *http.Request) {
	tag := h.language(w, r)
	sess := h.session(w, r)

	view, err := h.view(r.Context(), sess, tag)
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("failed to build page")
		response.InternalError(w, r, "failed to build page")
		return
	}

	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, view); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("failed to render page")
		response.InternalError(w, r, "failed to render page")
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// Act handles POST /. Every action redirects back to the page.
func (h *PageHandler) Act(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBody)
	if err := r.ParseForm(); err != nil {
		response.BadRequest(w, r, "form body could not be parsed")
		return
	}

	tag := h.language(w, r)
	sess := h.session(w, r)
	state := form.Decode(r.PostForm)
	logger := zerolog.Ctx(r.Context())

	var err error
	switch action := r.PostForm.Get("action"); action {
	case ActionRegion:
		err = h.cfg.Sessions.Update(sess.ID, func(s *session.Session) {
			s.Form = form.SelectRegion(state, state.Region)
		})
	case ActionCity:
		state, err = h.selectCity(r.Context(), state)
		if err == nil {
			err = h.cfg.Sessions.Update(sess.ID, func(s *session.Session) {
				s.Form = state
			})
		}
	case ActionSubmit:
		var out *submit.Outcome
		out, err = h.cfg.Workflow.Submit(r.Context(), sess.ID, state, tag)
		if err == nil && out.Stale {
			logger.Debug().Msg("page submit superseded by a newer one")
		}
	case ActionDismiss:
		err = h.cfg.Sessions.Dismiss(sess.ID)
	default:
		response.BadRequest(w, r, fmt.Sprintf("unknown action %q", action))
		return
	}

	// The session can expire between lookup and use; the redirect starts a new one.
	if err != nil && !errors.Is(err, session.ErrSessionNotFound) {
		logger.Error().Err(err).Msg("page action failed")
		response.InternalError(w, r, "page action failed")
		return
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// ChartPNG handles GET /chart.png.
func (h *PageHandler) ChartPNG(w http.ResponseWriter, r *http.Request) {
	tag := h.cfg.Localizer.Negotiate(r)

	c, err := r.Cookie(SessionCookie)
	if err != nil {
		response.NotFound(w, r, "no chart yet")
		return
	}
	sess, err := h.cfg.Sessions.Snapshot(c.Value)
	if err != nil || sess.Series == nil {
		response.NotFound(w, r, "no chart yet")
		return
	}

	var buf bytes.Buffer
	if err := h.cfg.Projector.RenderPNG(&buf, sess.Series, tag); err != nil {
		if errors.Is(err, chart.ErrTooFewPoints) {
			response.NotFound(w, r, "series has too few points to plot")
			return
		}
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("failed to render chart")
		response.InternalError(w, r, "failed to render chart")
		return
	}
	response.PNG(w, r, buf.Bytes())
}

// selectCity copies the coordinates of the chosen city. A name missing from
// the dataset only sets the city field.
func (h *PageHandler) selectCity(ctx context.Context, state form.State) (form.State, error) {
	if state.Region == "" || state.City == "" {
		return state, nil
	}
	city, err := h.cfg.Lookup.City(ctx, h.cfg.Country, state.Region, state.City)
	switch {
	case err == nil:
		return form.ApplyCity(state, *city), nil
	case errors.Is(err, geo.ErrCityNotFound), errors.Is(err, geo.ErrRegionNotFound):
		return state, nil
	default:
		return state, fmt.Errorf("looking up city: %w", err)
	}
}

// session returns the browser's session, issuing a cookie for a new one.
func (h *PageHandler) session(w http.ResponseWriter, r *http.Request) *session.Session {
	var id string
	if c, err := r.Cookie(SessionCookie); err == nil {
		id = c.Value
	}

	sess, found := h.cfg.Sessions.Get(id)
	if !found {
		http.SetCookie(w, &http.Cookie{
			Name:     SessionCookie,
			Value:    sess.ID,
			Path:     "/",
			MaxAge:   int(h.cfg.SessionTTL.Seconds()),
			HttpOnly: true,
			Secure:   h.cfg.CookieSecure,
			SameSite: http.SameSiteLaxMode,
		})
	}
	return sess
}

// language negotiates the display language and pins an explicit ?lang=
// choice in a cookie.
func (h *PageHandler) language(w http.ResponseWriter, r *http.Request) language.Tag {
	tag := h.cfg.Localizer.Negotiate(r)
	if r.URL.Query().Get("lang") != "" {
		http.SetCookie(w, &http.Cookie{
			Name:     i18n.LangCookie,
			Value:    i18n.Base(tag),
			Path:     "/",
			MaxAge:   int((365 * 24 * time.Hour).Seconds()),
			HttpOnly: true,
			Secure:   h.cfg.CookieSecure,
			SameSite: http.SameSiteLaxMode,
		})
	}
	return tag
}
