package web

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/JonMunkholm/b2bconvert/internal/logging"
)

// handlePreview converts an upload and returns the first rows as JSON.
// Canonical files return them under "sample", mapped files under
// "rows_preview"; total_rows always counts the whole file.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	up, err := s.readUpload(w, r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	defer up.Close()

	result, err := s.service.Preview(r.Context(), up.file, up.opts)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	resp := map[string]any{
		"already_b2b": result.AlreadyB2B,
		"total_rows":  result.TotalRows,
		"warnings":    result.Warnings,
		"mapping":     result.Mapping,
	}
	if result.AlreadyB2B {
		resp["sample"] = result.Sample
	} else {
		resp["rows_preview"] = result.RowsPreview
	}
	writeJSON(w, r, http.StatusOK, resp)
}

// handleConvert converts an upload and streams the full canonical CSV as a
// download. The file is finished before the first byte is sent, so a failed
// conversion is always a JSON error and never a truncated CSV.
func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	up, err := s.readUpload(w, r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	defer up.Close()

	out, err := s.service.Convert(r.Context(), up.file, up.opts)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	defer out.Close()

	h := w.Header()
	h.Set("Content-Type", "text/csv; charset=utf-8")
	h.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", downloadName(up.opts.FileName)))
	h.Set(headerConversionRows, strconv.Itoa(out.Summary.TotalRows))
	h.Set(headerConversionWarnings, strconv.Itoa(out.Summary.Warnings.Count))
	h.Set(headerAlreadyB2B, strconv.FormatBool(out.Summary.AlreadyB2B))
	if size, err := out.Size(); err == nil {
		h.Set("Content-Length", strconv.FormatInt(size, 10))
	}
	w.WriteHeader(http.StatusOK)

	if _, err := out.WriteTo(w); err != nil {
		// Headers are gone; the client sees a short body.
		logging.FromContext(r.Context()).Warn("download interrupted", "error", err)
	}
}

// handleImportCSV converts an upload and stores every row.
func (s *Server) handleImportCSV(w http.ResponseWriter, r *http.Request) {
	up, err := s.readUpload(w, r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	defer up.Close()

	ctx := WithRequestMetadata(r.Context(), r)
	result, err := s.service.Import(ctx, up.file, up.opts)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, map[string]any{
		"status":      "B2B CSV imported successfully",
		"imported":    result.Imported,
		"merged":      result.Merged,
		"batch_id":    result.BatchID,
		"already_b2b": result.AlreadyB2B,
		"warnings":    result.Warnings,
	})
}
