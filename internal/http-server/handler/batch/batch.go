package batch

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"print-packager/internal/domain"
	"print-packager/internal/http-server/handler/batch/dto"
	batch_uc "print-packager/internal/usecase/batch"
	"print-packager/internal/usecase/processor"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/websocket"
	"github.com/wb-go/wbf/zlog"
)

const (
	maxMemory    = 32 << 20
	defaultLimit = 20
	sniffLen     = 512
)

type BatchHandler struct {
	usecase       batchUsecase
	hub           progressHub
	maxUploadSize int64
	validate      *validator.Validate
	upgrader      websocket.Upgrader
	logger        *zlog.Zerolog
}

func NewBatchHandler(usecase batchUsecase, hub progressHub, maxUploadSize int64, logger *zlog.Zerolog) *BatchHandler {
	if maxUploadSize <= 0 {
		maxUploadSize = domain.DefaultMaxUploadSize
	}
	return &BatchHandler{
		usecase:       usecase,
		hub:           hub,
		maxUploadSize: maxUploadSize,
		validate:      validator.New(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		logger: logger,
	}
}

// CreateBatch accepts a multipart upload with the source in "file" and an
// optional JSON "settings" field.
func (h *BatchHandler) CreateBatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize+maxMemory)

	if err := r.ParseMultipartForm(maxMemory); err != nil {
		h.logger.Warn().Err(err).Msg("Failed to parse multipart form")
		h.respondError(w, http.StatusBadRequest, "Invalid request format", nil)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.logger.Warn().Err(err).Msg("File not found in request")
		h.respondError(w, http.StatusBadRequest, "File is required", nil)
		return
	}
	defer file.Close()

	settings, err := parseSettings(r)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid settings", err)
		return
	}

	contentType, err := detectContentType(file, header)
	if err != nil {
		h.logger.Error().Err(err).Str("filename", header.Filename).Msg("Failed to read file")
		h.respondError(w, http.StatusInternalServerError, "Failed to read file", err)
		return
	}

	b, err := h.usecase.Create(ctx, batch_uc.UploadRequest{
		File:        file,
		Filename:    header.Filename,
		ContentType: contentType,
		Size:        header.Size,
		Watermark:   settings.Watermark,
		Processing:  settings.Processing,
		Export:      settings.Export,
	})
	if err != nil {
		h.handleError(w, err, "Failed to create batch")
		return
	}

	h.logger.Info().
		Str("batch_id", b.ID).
		Str("filename", b.OriginalFilename).
		Msg("Batch accepted")

	h.respondJSON(w, http.StatusAccepted, dto.NewBatchResponse(b))
}

func (h *BatchHandler) ListBatches(w http.ResponseWriter, r *http.Request) {
	req := dto.ListRequest{Limit: defaultLimit}

	q := r.URL.Query()
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			h.respondError(w, http.StatusBadRequest, "Invalid limit", nil)
			return
		}
		req.Limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			h.respondError(w, http.StatusBadRequest, "Invalid offset", nil)
			return
		}
		req.Offset = n
	}
	if err := h.validate.Struct(req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid pagination", err)
		return
	}

	batches, err := h.usecase.List(r.Context(), req.Limit, req.Offset)
	if err != nil {
		h.handleError(w, err, "Failed to list batches")
		return
	}

	resp := dto.ListResponse{
		Batches: make([]dto.BatchResponse, 0, len(batches)),
		Limit:   req.Limit,
		Offset:  req.Offset,
	}
	for i := range batches {
		resp.Batches = append(resp.Batches, dto.NewBatchResponse(&batches[i]))
	}

	h.respondJSON(w, http.StatusOK, resp)
}

func (h *BatchHandler) GetBatch(w http.ResponseWriter, r *http.Request) {
	b, err := h.usecase.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.handleError(w, err, "Failed to get batch")
		return
	}

	h.respondJSON(w, http.StatusOK, dto.NewBatchResponse(b))
}

func (h *BatchHandler) ListImages(w http.ResponseWriter, r *http.Request) {
	batchID := chi.URLParam(r, "id")

	images, err := h.usecase.Images(r.Context(), batchID)
	if err != nil {
		h.handleError(w, err, "Failed to list images")
		return
	}

	resp := make([]dto.ImageResponse, 0, len(images))
	for _, img := range images {
		resp = append(resp, dto.ImageResponse{
			ID:          img.ID,
			RatioName:   img.RatioName,
			SizeName:    img.SizeName,
			Variant:     string(img.Variant),
			PixelWidth:  img.PixelWidth,
			PixelHeight: img.PixelHeight,
			AppliedDPI:  img.AppliedDPI,
			DPISource:   string(img.DPISource),
			FileName:    downloadName(&img),
			Size:        img.Size,
			URL:         fmt.Sprintf("/api/batches/%s/images/%s", batchID, img.ID),
		})
	}

	h.respondJSON(w, http.StatusOK, resp)
}

func (h *BatchHandler) GetImage(w http.ResponseWriter, r *http.Request) {
	batchID := chi.URLParam(r, "id")
	imageID := chi.URLParam(r, "imageID")

	img, reader, err := h.usecase.OpenImage(r.Context(), batchID, imageID)
	if err != nil {
		h.handleError(w, err, "Failed to get image")
		return
	}
	defer reader.Close()

	disposition := "inline"
	if r.URL.Query().Get("download") == "true" {
		disposition = "attachment"
	}

	w.Header().Set("Content-Type", img.MimeType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("%s; filename=\"%s\"", disposition, downloadName(img)))
	w.Header().Set("Cache-Control", "public, max-age=3600")
	if img.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(img.Size, 10))
	}

	if _, err := io.Copy(w, reader); err != nil {
		h.logger.Error().
			Err(err).
			Str("batch_id", batchID).
			Str("image_id", imageID).
			Msg("Failed to stream image")
	}
}

// Summary lists the ratios and sizes every batch is rendered into.
func (h *BatchHandler) Summary(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, h.usecase.Summary())
}

func (h *BatchHandler) BatchSummary(w http.ResponseWriter, r *http.Request) {
	if _, err := h.usecase.Get(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.handleError(w, err, "Failed to get batch")
		return
	}
	h.Summary(w, r)
}

func (h *BatchHandler) DeleteBatch(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.usecase.Delete(r.Context(), id); err != nil {
		h.handleError(w, err, "Failed to delete batch")
		return
	}

	h.logger.Info().Str("batch_id", id).Msg("Batch deleted")
	w.WriteHeader(http.StatusNoContent)
}

func parseSettings(r *http.Request) (dto.BatchSettings, error) {
	var settings dto.BatchSettings

	if raw := strings.TrimSpace(r.FormValue("settings")); raw != "" {
		dec := json.NewDecoder(strings.NewReader(raw))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&settings); err != nil {
			return settings, err
		}
	}

	shop, title := r.FormValue("shop_name"), r.FormValue("art_title")
	if shop != "" || title != "" {
		if settings.Export == nil {
			settings.Export = &domain.ExportOptions{}
		}
		if shop != "" {
			settings.Export.ShopName = shop
		}
		if title != "" {
			settings.Export.ArtTitle = title
		}
	}

	return settings, nil
}

// detectContentType trusts an image/* part header and sniffs the bytes
// otherwise. The file is rewound before returning.
func detectContentType(file multipart.File, header *multipart.FileHeader) (string, error) {
	ct := header.Header.Get("Content-Type")
	if strings.HasPrefix(ct, "image/") {
		return ct, nil
	}

	buf := make([]byte, sniffLen)
	n, err := io.ReadFull(file, buf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", err
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return "", err
	}

	return http.DetectContentType(buf[:n]), nil
}

func downloadName(img *domain.StoredImage) string {
	return img.FileBaseName + processor.VariantSuffix(img.Variant) + ".jpg"
}

func (h *BatchHandler) handleError(w http.ResponseWriter, err error, message string) {
	switch {
	case errors.Is(err, batch_uc.ErrInvalidFileFormat):
		h.logger.Warn().Err(err).Msg("Invalid file format")
		h.respondError(w, http.StatusBadRequest, "Unsupported file format", nil)
	case errors.Is(err, batch_uc.ErrFileTooLarge):
		h.respondError(w, http.StatusRequestEntityTooLarge, "File too large", nil)
	case errors.Is(err, batch_uc.ErrInvalidSettings):
		h.respondError(w, http.StatusBadRequest, "Invalid settings", err)
	case errors.Is(err, batch_uc.ErrBatchNotFound):
		h.respondError(w, http.StatusNotFound, "Batch not found", nil)
	case errors.Is(err, batch_uc.ErrImageNotFound):
		h.respondError(w, http.StatusNotFound, "Image not found", nil)
	case errors.Is(err, batch_uc.ErrMessageQueueError):
		h.logger.Error().Err(err).Msg(message)
		h.respondError(w, http.StatusServiceUnavailable, message, nil)
	default:
		h.logger.Error().Err(err).Msg(message)
		h.respondError(w, http.StatusInternalServerError, message, err)
	}
}

func (h *BatchHandler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error().Err(err).Msg("Failed to encode response")
	}
}

func (h *BatchHandler) respondError(w http.ResponseWriter, status int, message string, err error) {
	response := dto.ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
	}

	if err != nil {
		response.Details = err.Error()
	}

	h.respondJSON(w, status, response)
}
