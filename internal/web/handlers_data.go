package web

import "net/http"

// handleExportJSON returns every stored product as JSON.
func (s *Server) handleExportJSON(w http.ResponseWriter, r *http.Request) {
	products, err := s.service.ExportProducts(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, map[string]any{
		"count":    len(products),
		"products": products,
	})
}
