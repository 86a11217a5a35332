package screenshot

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/zombor/screenstamp/internal/timestamp"
)

const previewSide = 480

// corsError writes an error response with CORS headers set
func corsError(w http.ResponseWriter, message string, code int) {
	setCORSHeaders(w)
	http.Error(w, message, code)
}

// jsonError writes a JSON error body
func jsonError(w http.ResponseWriter, message string, code int) {
	setCORSHeaders(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{
		"error": message,
	})
}

// setCORSHeaders sets CORS headers on a response
func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
	w.Header().Set("Access-Control-Max-Age", "3600")
}

// recordView is a Record as shown to users, with the instant at minute
// precision
type recordView struct {
	Source string `json:"source"`
	Text   string `json:"text"`
	UTC    string `json:"utc"`
}

func viewRecords(records []Record) []recordView {
	views := make([]recordView, 0, len(records))
	for _, r := range records {
		views = append(views, recordView{Source: r.Source, Text: r.Text, UTC: timestamp.FormatMinute(r.Instant)})
	}
	return views
}

// writeServiceError maps service errors to status codes
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrDirectoryNotFound):
		jsonError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ErrEmptyIndex):
		jsonError(w, "not indexed", http.StatusConflict)
	case errors.Is(err, ErrInvalidQuery):
		jsonError(w, err.Error(), http.StatusBadRequest)
	default:
		slog.Error("Request failed", "error", err)
		jsonError(w, "Internal server error", http.StatusInternalServerError)
	}
}

// handleIndex serves the HTML interface
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	setCORSHeaders(w)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(indexHTML)
}

// handleIndexFolder builds or reuses the index for a folder
func (s *Server) handleIndexFolder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Folder string `json:"folder"`
		Force  bool   `json:"force"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Folder == "" {
		jsonError(w, "folder is required", http.StatusBadRequest)
		return
	}

	idx, err := s.service.Index(r.Context(), req.Folder, req.Force)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response := map[string]interface{}{
		"folder":   idx.Folder,
		"timezone": idx.Timezone,
		"indexed":  len(idx.Records),
		"total":    idx.Total,
		"skipped":  idx.Skipped,
		"records":  viewRecords(idx.Records),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// handleMatches answers a match query
func (s *Server) handleMatches(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()

	folder := params.Get("folder")
	if folder == "" {
		jsonError(w, "folder is required", http.StatusBadRequest)
		return
	}

	q, err := ParseQuery(params.Get("date"), params.Get("hour"), params.Get("minute"), params.Get("meridiem"), params.Get("window"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	matches, _, err := s.service.Find(r.Context(), folder, q)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(viewRecords(matches)); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// handlePreview returns a JPEG thumbnail of one image
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	folder, name := r.URL.Query().Get("folder"), r.URL.Query().Get("name")
	if folder == "" || name == "" {
		corsError(w, "folder and name are required", http.StatusBadRequest)
		return
	}

	data, err := s.service.Preview(folder, name, previewSide)
	if err != nil {
		slog.Warn("Preview failed", "folder", folder, "name", name, "error", err)
		corsError(w, "Preview not available", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Write(data)
}
