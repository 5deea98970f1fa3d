package batch

import (
	"encoding/json"
	"image"
	"net/http"
	"strconv"
	"strings"

	"print-packager/internal/domain"
	"print-packager/internal/usecase/processor"
	"print-packager/internal/usecase/processor/operations"

	"github.com/go-playground/validator/v10"
	"github.com/wb-go/wbf/zlog"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

type previewer interface {
	Preview(src image.Image, maxSize int, wm domain.WatermarkSpec) ([]byte, error)
}

// PreviewHandler renders a small watermarked JPEG of an upload so settings
// can be checked before a batch is queued.
type PreviewHandler struct {
	previewer     previewer
	watermark     domain.WatermarkSpec
	maxUploadSize int64
	validate      *validator.Validate
	logger        *zlog.Zerolog
}

func NewPreviewHandler(p previewer, watermark domain.WatermarkSpec, maxUploadSize int64, logger *zlog.Zerolog) *PreviewHandler {
	if maxUploadSize <= 0 {
		maxUploadSize = domain.DefaultMaxUploadSize
	}
	return &PreviewHandler{
		previewer:     p,
		watermark:     watermark,
		maxUploadSize: maxUploadSize,
		validate:      operations.NewValidator(),
		logger:        logger,
	}
}

func (h *PreviewHandler) Preview(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize+maxMemory)

	if err := r.ParseMultipartForm(maxMemory); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request format")
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "File is required")
		return
	}
	defer file.Close()

	wm := h.watermark
	if raw := strings.TrimSpace(r.FormValue("watermark")); raw != "" {
		if err := json.Unmarshal([]byte(raw), &wm); err != nil {
			h.respondError(w, http.StatusBadRequest, "Invalid watermark settings")
			return
		}
	}
	if err := h.validate.Struct(wm); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid watermark settings")
		return
	}

	maxSize := processor.PreviewMaxSize
	if v := r.FormValue("max_size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 16 || n > 2048 {
			h.respondError(w, http.StatusBadRequest, "Invalid max_size")
			return
		}
		maxSize = n
	}

	src, _, err := image.Decode(file)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "Unsupported file format")
		return
	}

	data, err := h.previewer.Preview(src, maxSize, wm)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to render preview")
		h.respondError(w, http.StatusInternalServerError, "Failed to render preview")
		return
	}

	w.Header().Set("Content-Type", domain.MimeJPEG)
	w.Header().Set("Cache-Control", "no-store")
	w.Write(data)
}

func (h *PreviewHandler) respondError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{
		"error":   http.StatusText(status),
		"message": message,
	})
}
