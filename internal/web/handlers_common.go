package web

// handlers_common.go holds the upload parsing and response helpers shared by
// the conversion handlers.

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/JonMunkholm/b2bconvert/internal/core"
	"github.com/JonMunkholm/b2bconvert/internal/logging"
	"github.com/gosimple/slug"
)

// Response headers carrying the conversion summary on CSV downloads.
const (
	headerConversionRows     = "X-Conversion-Rows"
	headerConversionWarnings = "X-Conversion-Warnings"
	headerAlreadyB2B         = "X-Already-B2B"
)

// defaultDownloadName is used when the upload name has no usable characters.
const defaultDownloadName = "converted_b2b.csv"

// conversionForm holds the optional multipart fields shared by the
// conversion endpoints.
type conversionForm struct {
	Manufacturer      string `validate:"max=255"`
	ForceManufacturer bool
	Layout            string `validate:"omitempty,oneof=canonical extended"`
}

// upload is an opened source file plus the parsed form options.
type upload struct {
	file io.ReadCloser
	opts core.Options
}

func (u *upload) Close() error {
	return u.file.Close()
}

// readUpload bounds the request body and opens the uploaded file. A
// multipart request carries the file in its "file" part and the options as
// form fields; any other body is taken as the file itself with options in the
// query string. The caller must Close the returned upload.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (*upload, error) {
	maxSize := s.cfg.Upload.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		q := r.URL.Query()
		opts, err := s.parseOptions(q.Get)
		if err != nil {
			return nil, err
		}
		opts.FileName = q.Get("filename")
		return &upload{file: r.Body, opts: opts}, nil
	}

	if err := r.ParseMultipartForm(min(maxSize, 32<<20)); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large") {
			return nil, fmt.Errorf("%w: limit is %d bytes", errFileTooLarge, maxSize)
		}
		return nil, fmt.Errorf("%w: %v", errInvalidRequest, err)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, core.ErrNoFile
	}

	opts, err := s.parseOptions(r.FormValue)
	if err != nil {
		file.Close()
		return nil, err
	}
	opts.FileName = header.Filename
	return &upload{file: file, opts: opts}, nil
}

// parseOptions reads and validates the conversion options.
func (s *Server) parseOptions(get func(string) string) (core.Options, error) {
	form := conversionForm{
		Manufacturer:      strings.TrimSpace(get("manufacturer")),
		ForceManufacturer: core.ParseBool(get("force_manufacturer")),
		Layout:            strings.ToLower(strings.TrimSpace(get("layout"))),
	}
	if err := s.validate.Struct(form); err != nil {
		return core.Options{}, fmt.Errorf("%w: %v", errInvalidRequest, err)
	}
	layout, err := core.ParseLayout(form.Layout)
	if err != nil {
		return core.Options{}, fmt.Errorf("%w: %v", errInvalidRequest, err)
	}

	return core.Options{
		ManufacturerOverride: form.Manufacturer,
		ForceManufacturer:    form.ForceManufacturer,
		Layout:               layout,
	}, nil
}

// downloadName derives the attachment name for a converted file:
// "Acme Price List (2024).csv" becomes "acme-price-list-2024_b2b.csv".
func downloadName(uploadName string) string {
	base := filepath.Base(strings.ReplaceAll(uploadName, `\`, "/"))
	base = strings.TrimSuffix(base, filepath.Ext(base))
	s := slug.Make(base)
	if s == "" {
		return defaultDownloadName
	}
	return s + "_b2b.csv"
}

// writeJSON encodes v as JSON and writes it to w.
// Logs encoding errors since headers are already sent.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.FromContext(r.Context()).Error("json encode error", "error", err)
	}
}

// handleHealth reports liveness and conversion slot usage.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]any{
		"status":      "ok",
		"conversions": s.service.Limiter().Status(),
	})
}
