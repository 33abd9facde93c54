package handlers

import (
	"context"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	middleware "github.com/RajKumaar123/langchain-rag-flask/internal/api/middlewares"
	"github.com/RajKumaar123/langchain-rag-flask/internal/services"
)

const maxUploadBytes = 64 << 20 // 64 MB across the whole form

type UploadHandler struct {
	index     *services.IndexService
	uploadDir string
}

func NewUploadHandler(index *services.IndexService, uploadDir string) *UploadHandler {
	return &UploadHandler{index: index, uploadDir: uploadDir}
}

type uploadResponse struct {
	Results []services.IndexResult `json:"results"`
}

// Upload accepts one or more files under the "files" form field and indexes
// each. A file that fails to index is reported in its result entry and does
// not abort the rest of the batch.
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		http.Error(w, "invalid multipart form", http.StatusBadRequest)
		return
	}
	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		http.Error(w, "no files provided", http.StatusBadRequest)
		return
	}

	if err := os.MkdirAll(h.uploadDir, 0o755); err != nil {
		http.Error(w, "upload dir unavailable", http.StatusInternalServerError)
		return
	}

	results := make([]services.IndexResult, 0, len(files))
	for _, fh := range files {
		// Strip any client-supplied path components.
		filename := filepath.Base(fh.Filename)
		if filename == "." || filename == "/" || filename == "" {
			results = append(results, services.IndexResult{File: fh.Filename, Status: "failed"})
			continue
		}

		res, err := h.indexOne(r, userID, filename, fh)
		if err != nil {
			log.Printf("upload: %s: %v", filename, err)
			results = append(results, services.IndexResult{File: filename, Status: "failed"})
			continue
		}
		results = append(results, *res)
	}

	writeJSON(w, http.StatusOK, uploadResponse{Results: results})
}

func (h *UploadHandler) indexOne(r *http.Request, userID, filename string, fh *multipart.FileHeader) (*services.IndexResult, error) {
	src, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return nil, err
	}

	savedPath := filepath.Join(h.uploadDir, filename)
	if err := os.WriteFile(savedPath, data, 0o644); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Minute)
	defer cancel()
	return h.index.Add(ctx, userID, filename, savedPath, data)
}

// Indexed lists the caller's documents and their indexing state.
func (h *UploadHandler) Indexed(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	docs, err := h.index.ListDocuments(r.Context(), userID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": docs})
}
