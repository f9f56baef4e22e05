// Package dashboard serves the landing page, the home overview and the
// embedded risk reports.
package dashboard

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/denguechat/denguechat-admin/internal/crud"
	"github.com/denguechat/denguechat-admin/internal/i18n"
	"github.com/denguechat/denguechat-admin/internal/platform/api"
	"github.com/denguechat/denguechat-admin/internal/rbac"
	"github.com/denguechat/denguechat-admin/internal/shared"
)

const (
	// WelcomePath is the public landing page.
	WelcomePath = "/welcome"
	fanOutLimit = 4
)

// Report is an embedded external report.
type Report struct {
	Title string
	URL   string
}

// LandingPage is the data of pages/landing.html.
type LandingPage struct {
	Count     int
	NextURL   string
	NextLabel string
}

// Total is one counter card of the home page.
type Total struct {
	Label     string
	Value     int
	Available bool
	Href      string
}

// StatusCount is the number of visits with one status.
type StatusCount struct {
	Status string
	Count  int
}

// VisitSummary groups visit counts by status.
type VisitSummary struct {
	Available bool
	Counts    []StatusCount
}

// HomePage is the data of pages/home.html.
type HomePage struct {
	Greeting    string
	Totals      []Total
	Visits      *VisitSummary
	Unavailable string
}

// ReportsPage is the data of pages/reports.html.
type ReportsPage struct {
	Reports []Report
}

type counter struct {
	label string
	path  string
	perm  string
}

var counters = []counter{
	{label: "Users", path: "/users", perm: shared.PermUsersView},
	{label: "Teams", path: "/teams", perm: shared.PermTeamsView},
	{label: "Visits", path: "/visits", perm: shared.PermVisitsView},
	{label: "Posts", path: "/posts"},
}

// Handler serves the dashboard pages.
type Handler struct {
	logger   *slog.Logger
	renderer *crud.Renderer
	client   *api.Client
	statuses []string
	reports  []Report
}

// NewHandler builds the handler. Reports with an empty URL are skipped;
// statuses are the visit statuses summarized on the home page.
func NewHandler(logger *slog.Logger, renderer *crud.Renderer, client *api.Client, statuses []string, reports []Report) *Handler {
	configured := make([]Report, 0, len(reports))
	for _, rep := range reports {
		if rep.URL != "" {
			configured = append(configured, rep)
		}
	}
	return &Handler{logger: logger, renderer: renderer, client: client, statuses: statuses, reports: configured}
}

// MountPublic registers routes open to anonymous users.
func (h *Handler) MountPublic(r chi.Router) {
	r.Get(WelcomePath, h.landing)
	r.Post(WelcomePath+"/count", h.count)
}

// MountRoutes registers the signed-in pages.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.home)
	r.Get("/reports", h.reportsPage)
}

func (h *Handler) landing(w http.ResponseWriter, r *http.Request) {
	page := LandingPage{NextURL: crud.LoginPath, NextLabel: "Sign in"}
	sess := shared.SessionFromContext(r.Context())
	if sess != nil {
		page.Count = sess.Counter()
		if _, ok := sess.Profile(); ok {
			page.NextURL, page.NextLabel = "/", "Open dashboard"
		}
	}
	h.renderer.Render(w, r, "pages/landing.html", "DengueChat+", page, http.StatusOK)
}

func (h *Handler) count(w http.ResponseWriter, r *http.Request) {
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		sess.IncrementCounter()
	}
	http.Redirect(w, r, WelcomePath, http.StatusSeeOther)
}

func (h *Handler) home(w http.ResponseWriter, r *http.Request) {
	profile, _ := shared.ProfileFromContext(r.Context())
	page := HomePage{
		Greeting:    "Hello, " + profile.DisplayName(),
		Unavailable: h.renderer.T(r, i18n.CodeUnavailable),
	}

	var (
		mu       sync.Mutex
		unauthed error
		g        errgroup.Group
	)
	g.SetLimit(fanOutLimit)
	failed := func(err error) {
		if api.IsUnauthorized(err) {
			mu.Lock()
			unauthed = err
			mu.Unlock()
			return
		}
		h.logger.Warn("dashboard total unavailable", slog.Any("error", err))
	}

	for _, c := range counters {
		if c.perm != "" && !rbac.Can(profile, c.perm) {
			continue
		}
		page.Totals = append(page.Totals, Total{Label: c.label, Href: c.path})
	}
	for i := range page.Totals {
		total := &page.Totals[i]
		g.Go(func() error {
			n, err := h.total(r.Context(), total.Href, nil)
			if err != nil {
				failed(err)
				return nil
			}
			total.Value, total.Available = n, true
			return nil
		})
	}

	var statusOK []bool
	if rbac.Can(profile, shared.PermVisitsView) {
		page.Visits = &VisitSummary{Counts: make([]StatusCount, len(h.statuses))}
		statusOK = make([]bool, len(h.statuses))
		for i, status := range h.statuses {
			count := &page.Visits.Counts[i]
			count.Status = status
			g.Go(func() error {
				n, err := h.total(r.Context(), "/visits", url.Values{"filter[status]": {status}})
				if err != nil {
					failed(err)
					return nil
				}
				count.Count, statusOK[i] = n, true
				return nil
			})
		}
	}
	_ = g.Wait()
	if page.Visits != nil {
		page.Visits.Available = allTrue(statusOK)
	}

	if unauthed != nil {
		h.renderer.Fail(w, r, unauthed)
		return
	}
	h.renderer.Render(w, r, "pages/home.html", "Home", page, http.StatusOK)
}

// total asks the backend for a one-row page and reads the reported total.
func (h *Handler) total(ctx context.Context, path string, q url.Values) (int, error) {
	if q == nil {
		q = url.Values{}
	}
	q.Set("page[number]", "1")
	q.Set("page[size]", "1")
	doc, err := h.client.Do(ctx, http.MethodGet, path, q, nil)
	if err != nil {
		return 0, err
	}
	if doc == nil {
		return 0, nil
	}
	if n := doc.Meta.Total(); n >= 0 {
		return n, nil
	}
	return 0, errNoTotal(path)
}

type errNoTotal string

func (e errNoTotal) Error() string { return "no total reported for " + strconv.Quote(string(e)) }

func allTrue(vals []bool) bool {
	for _, v := range vals {
		if !v {
			return false
		}
	}
	return true
}

func (h *Handler) reportsPage(w http.ResponseWriter, r *http.Request) {
	h.renderer.Render(w, r, "pages/reports.html", "Reports", ReportsPage{Reports: h.reports}, http.StatusOK)
}
