package server

import (
	"context"
	stderrors "errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rohankatakam/rosterpulse/internal/errors"
	"github.com/rohankatakam/rosterpulse/internal/ingestion"
	"github.com/rohankatakam/rosterpulse/internal/metrics"
	"github.com/rohankatakam/rosterpulse/internal/models"
	"github.com/rohankatakam/rosterpulse/internal/roster"
	"github.com/rohankatakam/rosterpulse/internal/temporal"
)

// UserRow is one roster entry with its activity
type UserRow struct {
	Identity  string               `json:"identity"`
	Name      string               `json:"name"`
	RollNo    string               `json:"roll_no"`
	Branch    string               `json:"branch"`
	Section   string               `json:"section"`
	Repo      string               `json:"repo"`
	Commits   int                  `json:"commits"`
	InWindow  int                  `json:"in_window"`
	Reachable bool                 `json:"reachable"`
	Active    bool                 `json:"active"`
	Days      []models.DailyBucket `json:"days,omitempty"`
}

// SummaryResponse is the rollup flattened for clients
type SummaryResponse struct {
	RunID            string                `json:"run_id"`
	Window           []string              `json:"window"`
	TotalEntries     int                   `json:"total_entries"`
	TotalActiveUsers int                   `json:"total_active_users"`
	InvalidEntries   int                   `json:"invalid_entries"`
	Totals           models.GroupSummary   `json:"totals"`
	Groups           []models.GroupSummary `json:"groups"`
}

// CommitsResponse is one identity's commit history
type CommitsResponse struct {
	Identity string                `json:"identity"`
	Repo     string                `json:"repo"`
	Commits  []models.CommitRecord `json:"commits"`
}

func filterFrom(r *http.Request) roster.Filter {
	q := r.URL.Query()
	return roster.Filter{Branch: q.Get("branch"), Section: q.Get("section")}
}

// currentReport writes a 503 and returns nil when no run has completed yet
func (s *Server) currentReport(w http.ResponseWriter, r *http.Request) *models.Report {
	report := s.Latest()
	if report == nil {
		msg := "no report available yet"
		if err := s.LastError(); err != nil {
			msg = err.Error()
		}
		respondError(w, http.StatusServiceUnavailable, "NO_REPORT", msg)
		return nil
	}
	return ingestion.Narrow(report, filterFrom(r))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := map[string]interface{}{
		"status":     "ok",
		"has_report": s.Latest() != nil,
		"refreshing": s.Refreshing(),
	}
	if err := s.LastError(); err != nil {
		resp["last_error"] = err.Error()
	}
	respond(w, http.StatusOK, resp)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	report := s.currentReport(w, r)
	if report == nil {
		return
	}
	respond(w, http.StatusOK, report)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	report := s.currentReport(w, r)
	if report == nil {
		return
	}
	respond(w, http.StatusOK, summarize(report))
}

func summarize(report *models.Report) SummaryResponse {
	groups := metrics.SortedGroups(report.Rollup)
	if groups == nil {
		groups = []models.GroupSummary{}
	}
	return SummaryResponse{
		RunID:            report.RunID,
		Window:           report.Window,
		TotalEntries:     len(report.Roster),
		TotalActiveUsers: report.Rollup.TotalActiveUsers,
		InvalidEntries:   len(report.InvalidEntries),
		Totals:           metrics.Totals(report.Rollup),
		Groups:           groups,
	}
}

func (s *Server) handleUsers(w http.ResponseWriter, r *http.Request) {
	report := s.currentReport(w, r)
	if report == nil {
		return
	}

	rows := make([]UserRow, 0, len(report.Roster))
	for _, e := range report.Roster {
		days, reachable := report.Histograms[e.Identity]
		rows = append(rows, UserRow{
			Identity:  e.Identity,
			Name:      e.Name,
			RollNo:    e.RollNo,
			Branch:    e.Branch,
			Section:   e.Section,
			Repo:      e.Repo,
			Commits:   report.CommitCounts[e.Identity],
			InWindow:  temporal.WindowTotal(days),
			Reachable: reachable,
			Active:    temporal.IsActive(days),
			Days:      days,
		})
	}
	respond(w, http.StatusOK, rows)
}

func (s *Server) handleInvalid(w http.ResponseWriter, r *http.Request) {
	report := s.currentReport(w, r)
	if report == nil {
		return
	}
	respond(w, http.StatusOK, report.InvalidEntries)
}

func (s *Server) handleCommits(w http.ResponseWriter, r *http.Request) {
	identity := chi.URLParam(r, "identity")

	entry, ok := roster.Find(s.roster, identity)
	if !ok {
		respondError(w, http.StatusNotFound, "NOT_FOUND", "identity not in roster: "+identity)
		return
	}
	if s.source == nil {
		respondError(w, http.StatusNotImplemented, "NO_SOURCE", "commit history is not available")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), historyTimeout)
	defer cancel()

	commits, err := s.source.FetchCommits(ctx, entry.Identity, entry.Repo)
	if err != nil {
		s.logger.Warn("history lookup failed", "identity", entry.Identity, "error", err)
		status := http.StatusBadGateway
		if errors.IsTransport(err) && stderrors.Is(err, context.DeadlineExceeded) {
			status = http.StatusGatewayTimeout
		}
		respondError(w, status, "UPSTREAM_ERROR", err.Error())
		return
	}
	if commits == nil {
		commits = []models.CommitRecord{}
	}

	respond(w, http.StatusOK, CommitsResponse{
		Identity: entry.Identity,
		Repo:     entry.Repo,
		Commits:  commits,
	})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	// large rosters outlive the request timeout; clients poll /healthz
	if err := s.StartRefresh(context.WithoutCancel(r.Context())); err != nil {
		respondError(w, http.StatusConflict, "REFRESH_IN_PROGRESS", err.Error())
		return
	}
	respond(w, http.StatusAccepted, map[string]interface{}{
		"status": "refreshing",
	})
}
