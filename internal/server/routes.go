package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	ghtml "github.com/yuin/goldmark/renderer/html"

	"github.com/finagent-ir/finagent/internal/common"
	"github.com/finagent-ir/finagent/internal/render"
	"github.com/finagent-ir/finagent/internal/workflow"
	"github.com/finagent-ir/finagent/internal/workflow/nodes"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// Analysis lifecycle
	mux.HandleFunc("/api/analyses", s.handleAnalyses)  // POST (start), GET (n/a)
	mux.HandleFunc("/api/analyses/", s.handleAnalysis) // GET /{id}, POST /{id}/resume, GET /{id}/report

	// WebSocket progress stream
	mux.HandleFunc("/ws", s.handleProgressSocket)

	// System
	mux.HandleFunc("/api/version", s.versionHandler)
	mux.HandleFunc("/api/health", s.healthHandler)

	// 404 for unmatched API routes
	mux.HandleFunc("/api/", s.notFoundHandler)

	return mux
}

type startRequest struct {
	Message string `json:"message"`
	Symbol  string `json:"symbol"`
}

type resumeRequest struct {
	Message string `json:"message"`
}

// handleAnalyses starts a new analysis thread.
func (s *Server) handleAnalyses(w http.ResponseWriter, r *http.Request) {
	RouteByMethod(w, r, MethodRouter{
		"POST": func(w http.ResponseWriter, r *http.Request) {
			var req startRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, "Invalid request body", http.StatusBadRequest)
				return
			}
			message := strings.TrimSpace(req.Message)
			if message == "" {
				message = strings.TrimSpace(req.Symbol)
			}
			if message == "" {
				http.Error(w, "message or symbol is required", http.StatusBadRequest)
				return
			}

			threadID := s.hub.Start(message)
			writeJSON(w, http.StatusAccepted, map[string]string{
				"thread_id": threadID,
				"status":    StatusRunning,
			})
		},
	})
}

// handleAnalysis routes /api/analyses/{id} and its subpaths.
func (s *Server) handleAnalysis(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/analyses/")
	threadID, action, _ := strings.Cut(rest, "/")
	if threadID == "" {
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}

	switch action {
	case "":
		RouteByMethod(w, r, MethodRouter{"GET": func(w http.ResponseWriter, r *http.Request) {
			s.getAnalysisHandler(w, r, threadID)
		}})
	case "resume":
		RouteByMethod(w, r, MethodRouter{"POST": func(w http.ResponseWriter, r *http.Request) {
			s.resumeAnalysisHandler(w, r, threadID)
		}})
	case "report":
		RouteByMethod(w, r, MethodRouter{"GET": func(w http.ResponseWriter, r *http.Request) {
			s.reportHandler(w, r, threadID)
		}})
	default:
		http.Error(w, "Not found", http.StatusNotFound)
	}
}

// getAnalysisHandler returns the current position of a thread.
func (s *Server) getAnalysisHandler(w http.ResponseWriter, _ *http.Request, threadID string) {
	if run, ok := s.hub.Get(threadID); ok {
		run.mu.Lock()
		update := run.snapshotLocked("")
		update.Error = run.failure
		run.mu.Unlock()
		writeJSON(w, http.StatusOK, update)
		return
	}

	// Fall back to the checkpoint for threads from a previous process.
	snap, err := s.app.Graph.GetState(workflow.Config{ThreadID: threadID})
	if err != nil {
		http.Error(w, "Thread not found", http.StatusNotFound)
		return
	}
	status := StatusFailed
	switch {
	case snap.Interrupt != "":
		status = StatusWaitingInput
	case snap.Values.Has(nodes.KeyFinalReport):
		status = StatusCompleted
	}
	writeJSON(w, http.StatusOK, ProgressUpdate{
		ThreadID: threadID,
		Status:   status,
		Step:     nodes.TotalSteps,
		Total:    nodes.TotalSteps,
		Percent:  100,
		Question: snap.Interrupt,
	})
}

// resumeAnalysisHandler feeds the user's answer into a waiting thread.
func (s *Server) resumeAnalysisHandler(w http.ResponseWriter, r *http.Request, threadID string) {
	var req resumeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		http.Error(w, "message is required", http.StatusBadRequest)
		return
	}

	if err := s.hub.Resume(threadID, req.Message); err != nil {
		status := http.StatusConflict
		if err == errUnknownThread {
			status = http.StatusNotFound
		}
		http.Error(w, err.Error(), status)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{
		"thread_id": threadID,
		"status":    StatusRunning,
	})
}

// reportHandler serves the finished report as markdown, or as HTML when
// format=html is requested.
func (s *Server) reportHandler(w http.ResponseWriter, r *http.Request, threadID string) {
	snap, err := s.app.Graph.GetState(workflow.Config{ThreadID: threadID})
	if err != nil {
		http.Error(w, "Thread not found", http.StatusNotFound)
		return
	}
	memo := snap.Values.GetString(nodes.KeyFinalReport)
	if memo == "" {
		http.Error(w, "Report is not ready", http.StatusConflict)
		return
	}

	markdown, err := render.FullReport(
		snap.Values.GetString(nodes.KeySymbol),
		snap.Values[nodes.KeyTechnicalConsensus],
		snap.Values[nodes.KeyFundamentalConsensus],
		snap.Values[nodes.KeySocialConsensus],
		memo,
	)
	if err != nil {
		s.app.Logger.Error().Err(err).Str("thread_id", threadID).Msg("Failed to render report")
		http.Error(w, "Failed to render report", http.StatusInternalServerError)
		return
	}

	if r.URL.Query().Get("format") != "html" {
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		w.Write([]byte(markdown))
		return
	}

	md := goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(ghtml.WithHardWraps(), ghtml.WithXHTML()),
	)
	var buf bytes.Buffer
	if err := md.Convert([]byte(markdown), &buf); err != nil {
		s.app.Logger.Error().Err(err).Msg("Failed to convert report to HTML")
		http.Error(w, "Failed to render report", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(reportPageHeader))
	w.Write(buf.Bytes())
	w.Write([]byte(reportPageFooter))
}

func (s *Server) versionHandler(w http.ResponseWriter, r *http.Request) {
	RouteByMethod(w, r, MethodRouter{"GET": func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"version": common.GetVersion(),
			"build":   common.GetBuild(),
		})
	}})
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	RouteByMethod(w, r, MethodRouter{"GET": func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}})
}

func (s *Server) notFoundHandler(w http.ResponseWriter, _ *http.Request) {
	http.Error(w, "Not found", http.StatusNotFound)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

const reportPageHeader = `<!DOCTYPE html>
<html dir="rtl" lang="fa">
<head>
<meta charset="utf-8">
<title>Analysis Report</title>
<style>
body { font-family: Tahoma, sans-serif; max-width: 860px; margin: 2rem auto; padding: 0 1rem; line-height: 1.7; }
h1, h2, h3 { border-bottom: 1px solid #ddd; padding-bottom: .3rem; }
hr { border: none; border-top: 1px solid #ddd; margin: 2rem 0; }
</style>
</head>
<body>
`

const reportPageFooter = `
</body>
</html>
`
