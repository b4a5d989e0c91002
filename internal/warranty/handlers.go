package warranty

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/Zikrig/garantee-datamatrix/internal/receipt"
	"github.com/Zikrig/garantee-datamatrix/internal/scanning"
)

const (
	maxUploadSize = int64(50 << 20)

	msgTooLarge       = "Файл слишком большой. Максимальный размер 50 МБ."
	msgNoFile         = "Файл не выбран."
	msgCodeNotFound   = "Код не найден. Сфотографируйте код ещё раз: ровно, без бликов, чтобы он занимал большую часть кадра."
	msgCodeForeign    = "Этот код не относится к нашей продукции."
	msgReceiptBad     = "Не удалось прочитать чек. Пришлите PDF файл чека."
	msgScanTimeout    = "Распознавание заняло слишком много времени. Попробуйте ещё раз."
	msgInternal       = "Internal server error"
	msgWarrantyAbsent = "Warranty not found"
	msgReceiptAbsent  = "Receipt not found"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

func writeError(w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, map[string]string{"error": message})
}

// readUpload reads the "file" form field. It writes the error response itself and returns ok=false on failure.
func readUpload(w http.ResponseWriter, r *http.Request) (filename string, data []byte, ok bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize+(1<<20))
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		slog.Error("Error parsing multipart form", "error", err)
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, msgTooLarge)
			return "", nil, false
		}
		writeError(w, http.StatusBadRequest, "Error parsing form")
		return "", nil, false
	}

	f, header, err := r.FormFile("file")
	if err != nil {
		slog.Error("Error getting file from form", "error", err)
		writeError(w, http.StatusBadRequest, msgNoFile)
		return "", nil, false
	}
	defer f.Close()

	if header.Size > maxUploadSize {
		writeError(w, http.StatusRequestEntityTooLarge, msgTooLarge)
		return "", nil, false
	}

	data, err = io.ReadAll(f)
	if err != nil {
		slog.Error("Error reading file data", "error", err, "filename", header.Filename)
		writeError(w, http.StatusInternalServerError, "Error reading file. Please try again.")
		return "", nil, false
	}
	return header.Filename, data, true
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	busy, size := s.service.Workers()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":       "ok",
		"workers":      size,
		"workers_busy": busy,
	})
}

// handleScanCode scans an uploaded product photo
func (s *Server) handleScanCode(w http.ResponseWriter, r *http.Request) {
	filename, data, ok := readUpload(w, r)
	if !ok {
		return
	}

	scan, err := s.service.ScanCode(r.Context(), filename, data)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			writeError(w, http.StatusGatewayTimeout, msgScanTimeout)
			return
		}
		slog.Error("Error scanning code", "filename", filename, "error", err)
		writeError(w, http.StatusInternalServerError, msgInternal)
		return
	}

	switch scan.Outcome {
	case scanning.NotFound:
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"outcome": scan.Outcome,
			"error":   msgCodeNotFound,
		})
	case scanning.Foreign:
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"outcome": scan.Outcome,
			"code":    scan.Codes[0],
			"error":   msgCodeForeign,
		})
	default:
		writeJSON(w, http.StatusOK, scan)
	}
}

// handleScanReceipt parses an uploaded receipt PDF
func (s *Server) handleScanReceipt(w http.ResponseWriter, r *http.Request) {
	filename, data, ok := readUpload(w, r)
	if !ok {
		return
	}

	scan, err := s.service.ScanReceipt(r.Context(), filename, data)
	switch {
	case errors.Is(err, receipt.ErrUnreadable):
		writeError(w, http.StatusBadRequest, msgReceiptBad)
	case errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusGatewayTimeout, msgScanTimeout)
	case err != nil:
		slog.Error("Error scanning receipt", "filename", filename, "error", err)
		writeError(w, http.StatusInternalServerError, msgInternal)
	default:
		writeJSON(w, http.StatusCreated, scan)
	}
}

// handleCreateWarranty registers a warranty
func (s *Server) handleCreateWarranty(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	warranty, err := s.service.CreateWarranty(req)
	switch {
	case errors.Is(err, ErrCodeTooShort), errors.Is(err, ErrInvalidRequest):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case err != nil:
		slog.Error("Error creating warranty", "error", err)
		writeError(w, http.StatusInternalServerError, msgInternal)
	default:
		writeJSON(w, http.StatusCreated, warranty)
	}
}

// handleListWarranties lists warranties, optionally for one customer
func (s *Server) handleListWarranties(w http.ResponseWriter, r *http.Request) {
	warranties, err := s.service.ListWarranties(r.URL.Query().Get("customer_id"))
	if err != nil {
		slog.Error("Error listing warranties", "error", err)
		writeError(w, http.StatusInternalServerError, msgInternal)
		return
	}
	writeJSON(w, http.StatusOK, warranties)
}

// handleGetWarranty returns a single warranty
func (s *Server) handleGetWarranty(w http.ResponseWriter, r *http.Request) {
	warranty, err := s.service.GetWarranty(r.PathValue("id"))
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			slog.Error("Error getting warranty", "error", err)
		}
		writeError(w, http.StatusNotFound, msgWarrantyAbsent)
		return
	}
	writeJSON(w, http.StatusOK, warranty)
}

// handleGetReceipt serves the receipt PDF stored with a warranty
func (s *Server) handleGetReceipt(w http.ResponseWriter, r *http.Request) {
	data, err := s.service.ReceiptFile(r.PathValue("id"))
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			slog.Error("Error reading receipt", "error", err)
		}
		writeError(w, http.StatusNotFound, msgReceiptAbsent)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		slog.Warn("Failed to write receipt", "error", err)
	}
}

// handleDeleteWarranty deletes a warranty
func (s *Server) handleDeleteWarranty(w http.ResponseWriter, r *http.Request) {
	if err := s.service.DeleteWarranty(r.PathValue("id")); err != nil {
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, msgWarrantyAbsent)
			return
		}
		slog.Error("Error deleting warranty", "error", err)
		writeError(w, http.StatusInternalServerError, "Error deleting warranty")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
