package api

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"
)

// AuditExporter writes recorded assignment decisions as an Excel workbook.
type AuditExporter interface {
	WriteExcel(ctx context.Context, since time.Time, w io.Writer) error
}

// AuditServer exposes the assignment audit trail export for operators.
type AuditServer struct {
	exporter AuditExporter
	logger   *zerolog.Logger
}

// NewAuditServer creates the audit API server.
func NewAuditServer(exporter AuditExporter, logger *zerolog.Logger) *AuditServer {
	return &AuditServer{exporter: exporter, logger: logger}
}

// Register mounts the audit routes on the mux.
func (s *AuditServer) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/audit/export", s.handleExport)
}

// handleExport streams the assignment decisions of the last N days as an
// Excel workbook.
// GET /api/audit/export?days=N (default 7)
func (s *AuditServer) handleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed; use GET")
		return
	}

	days := 7
	if v := r.URL.Query().Get("days"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, "days must be a positive integer")
			return
		}
		days = parsed
	}
	since := time.Now().AddDate(0, 0, -days)

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=assignments_%s.xlsx", time.Now().Format("20060102")))

	// Headers are already out; a mid-stream failure can only be logged.
	if err := s.exporter.WriteExcel(r.Context(), since, w); err != nil {
		s.logger.Error().Err(err).Int("days", days).Msg("audit export failed")
	}
}
