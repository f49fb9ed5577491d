// Read-only web view over the history store.
package web

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"guildwatch/internal/presence"
)

// HistoryReader loads the full history, freshest state on every call.
type HistoryReader interface {
	ReadAll() ([]presence.SnapshotRow, error)
}

type Server struct {
	reader HistoryReader
	roster presence.Roster
	guild  string
	tpl    *template.Template
	mux    *http.ServeMux
}

//go:embed templates/index.html
var content embed.FS

func NewServer(reader HistoryReader, roster presence.Roster, guild string) *Server {
	tpl := template.Must(template.New("index.html").Funcs(template.FuncMap{
		"stamp": func(t time.Time) string {
			if t.IsZero() {
				return "never"
			}
			return t.Format("2006-01-02 15:04")
		},
		"pct": func(v float64) string {
			return fmt.Sprintf("%.0f%%", v*100)
		},
	}).ParseFS(content, "templates/index.html"))

	s := &Server{reader: reader, roster: roster, guild: guild, tpl: tpl, mux: http.NewServeMux()}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("/", s.handleIndex)
	s.mux.HandleFunc("/api/summary", s.handleSummary)
	s.mux.HandleFunc("/api/history", s.handleHistory)
}

// Start serves until ctx is cancelled.
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.mux}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	return srv.ListenAndServe()
}

// Handler exposes the mux, mainly for tests.
func (s *Server) Handler() http.Handler { return s.mux }

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	rows, err := s.reader.ReadAll()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	data := struct {
		Guild     string
		Summaries []presence.PlayerSummary
		Runs      int
	}{
		Guild:     s.guild,
		Summaries: presence.Summarize(rows, s.roster),
		Runs:      countRuns(rows),
	}
	if err := s.tpl.Execute(w, data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	rows, err := s.reader.ReadAll()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(presence.Summarize(rows, s.roster))
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	rows, err := s.reader.ReadAll()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(rows)
}

func countRuns(rows []presence.SnapshotRow) int {
	seen := make(map[string]struct{})
	for _, r := range rows {
		seen[r.RunID] = struct{}{}
	}
	return len(seen)
}
