package http

import (
	"fmt"
	"net/http"
	"time"
)

// maxImportSize caps uploaded CSV files at 10 MiB.
const maxImportSize = 10 << 20

type importResponse struct {
	Imported   int      `json:"imported"`
	Duplicates int      `json:"duplicates"`
	Errors     int      `json:"errors"`
	RowErrors  []string `json:"row_errors,omitempty"`
}

func (s *Server) handleImportCSV(w http.ResponseWriter, r *http.Request, accountID, userID int64) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImportSize)
	if err := r.ParseMultipartForm(maxImportSize); err != nil {
		respondStatus(w, http.StatusBadRequest, "malformed multipart upload")
		return
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		respondStatus(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	result, err := s.importer.ImportCSV(r.Context(), accountID, userID, file)
	if err != nil {
		respondStatus(w, http.StatusBadRequest, err.Error())
		return
	}
	if result.Imported > 0 {
		s.invalidateReportCaches(accountID)
	}

	respondJSON(w, http.StatusOK, importResponse{
		Imported:   result.Imported,
		Duplicates: result.Duplicates,
		Errors:     result.Errors,
		RowErrors:  result.RowErrors,
	})
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request, accountID, _ int64) {
	filename := fmt.Sprintf("expenses_%s.csv", time.Now().Format("2006-01-02"))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	if err := s.exporter.ExportCSV(r.Context(), w, accountID, expenseFilterFromQuery(r)); err != nil {
		// Headers may already be out; nothing better to do than log
		respondError(w, r, err)
	}
}
