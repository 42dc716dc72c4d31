package job

import (
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"image-labeler/internal/domain"
	"image-labeler/internal/http-server/handler/job/dto"
	job_uc "image-labeler/internal/usecase/job"
	"image-labeler/internal/usecase/render"

	"github.com/go-chi/chi/v5"
	"github.com/wb-go/wbf/zlog"
)

const maxMemory = 32 << 20

var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
	".bmp":  true,
	".tif":  true,
	".tiff": true,
}

type JobHandler struct {
	usecase       jobUsecase
	logger        *zlog.Zerolog
	maxUploadSize int64
}

func NewJobHandler(usecase jobUsecase, logger *zlog.Zerolog, maxUploadSize int64) *JobHandler {
	return &JobHandler{
		usecase:       usecase,
		logger:        logger,
		maxUploadSize: maxUploadSize,
	}
}

// StartJob accepts multipart form data with a "background" file and a "job"
// field holding the JSON job spec.
func (h *JobHandler) StartJob(w http.ResponseWriter, r *http.Request) {
	spec, background, ok := h.readJobForm(w, r)
	if !ok {
		return
	}
	defer background.Close()

	status, err := h.usecase.Start(r.Context(), spec, background)
	if err != nil {
		h.handleUsecaseError(w, err, spec.ID)
		return
	}

	h.logger.Info().
		Str("run_id", status.ID).
		Int("total", status.Total).
		Msg("Job started")

	h.respondJSON(w, http.StatusAccepted, toResponse(status))
}

func (h *JobHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		h.respondError(w, http.StatusBadRequest, "Job ID is required", nil)
		return
	}

	status, err := h.usecase.Status(r.Context(), id)
	if err != nil {
		h.handleUsecaseError(w, err, id)
		return
	}

	h.respondJSON(w, http.StatusOK, toResponse(status))
}

func (h *JobHandler) GetPreview(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		h.respondError(w, http.StatusBadRequest, "Job ID is required", nil)
		return
	}

	img, err := h.usecase.Preview(r.Context(), id)
	if err != nil {
		h.handleUsecaseError(w, err, id)
		return
	}

	h.respondPNG(w, img, id)
}

// GetFile streams one output file of a job.
func (h *JobHandler) GetFile(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	name := chi.URLParam(r, "name")
	if id == "" || name == "" {
		h.respondError(w, http.StatusBadRequest, "Job ID and file name are required", nil)
		return
	}

	rc, contentType, err := h.usecase.OpenFile(r.Context(), id, name)
	if err != nil {
		h.handleUsecaseError(w, err, id)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, rc); err != nil {
		h.logger.Error().Err(err).Str("run_id", id).Str("file", name).Msg("Failed to stream file")
	}
}

func (h *JobHandler) CancelJob(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		h.respondError(w, http.StatusBadRequest, "Job ID is required", nil)
		return
	}

	if err := h.usecase.Cancel(r.Context(), id); err != nil {
		h.handleUsecaseError(w, err, id)
		return
	}

	h.logger.Info().Str("run_id", id).Msg("Job cancellation requested")
	w.WriteHeader(http.StatusNoContent)
}

// RenderPreview renders the first value of a job spec and returns it as PNG.
func (h *JobHandler) RenderPreview(w http.ResponseWriter, r *http.Request) {
	spec, background, ok := h.readJobForm(w, r)
	if !ok {
		return
	}
	defer background.Close()

	img, err := h.usecase.RenderPreview(r.Context(), spec, background)
	if err != nil {
		h.handleUsecaseError(w, err, "preview")
		return
	}

	h.respondPNG(w, img, "preview")
}

func (h *JobHandler) readJobForm(w http.ResponseWriter, r *http.Request) (domain.JobSpec, io.ReadCloser, bool) {
	var spec domain.JobSpec

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	if err := r.ParseMultipartForm(maxMemory); err != nil {
		h.logger.Warn().Err(err).Msg("Failed to parse multipart form")
		h.respondError(w, http.StatusBadRequest, "Invalid request format", nil)
		return spec, nil, false
	}

	if raw := r.FormValue("job"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &spec); err != nil {
			h.respondError(w, http.StatusBadRequest, "Invalid job JSON", err)
			return spec, nil, false
		}
	}
	if msg := confineRemoteSpec(&spec); msg != "" {
		h.respondError(w, http.StatusBadRequest, msg, nil)
		return spec, nil, false
	}

	file, header, err := r.FormFile("background")
	if err != nil {
		h.logger.Warn().Err(err).Msg("Background not found in request")
		h.respondError(w, http.StatusBadRequest, "Background image is required", nil)
		return spec, nil, false
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !allowedExtensions[ext] {
		file.Close()
		h.respondError(w, http.StatusBadRequest, fmt.Sprintf("Unsupported background format %q", ext), nil)
		return spec, nil, false
	}

	return spec, file, true
}

// confineRemoteSpec keeps API clients inside the server's output root and away
// from server-side font files. The background always comes from the upload.
func confineRemoteSpec(spec *domain.JobSpec) string {
	if spec.FontPath != "" {
		return "font_path is not accepted over the API"
	}
	if dir := strings.TrimSpace(spec.OutputDir); dir != "" {
		dir = filepath.FromSlash(dir)
		if !filepath.IsLocal(dir) {
			return "output_dir must be a relative path inside the output root"
		}
		spec.OutputDir = filepath.ToSlash(filepath.Clean(dir))
	}
	spec.Background = ""
	return ""
}

func toResponse(s domain.JobStatus) dto.JobResponse {
	return dto.JobResponse{
		ID:         s.ID,
		State:      string(s.State),
		Processed:  s.Processed,
		Total:      s.Total,
		OutputDir:  s.OutputDir,
		Error:      s.Error,
		Logs:       s.Logs,
		StartedAt:  s.StartedAt,
		FinishedAt: s.FinishedAt,
		ETASeconds: s.ETASeconds,
	}
}

func (h *JobHandler) handleUsecaseError(w http.ResponseWriter, err error, id string) {
	switch {
	case errors.Is(err, job_uc.ErrJobNotFound):
		h.respondError(w, http.StatusNotFound, "Job not found", nil)
	case errors.Is(err, job_uc.ErrPreviewNotReady):
		h.respondError(w, http.StatusNotFound, "Preview not ready", nil)
	case errors.Is(err, job_uc.ErrJobFinished):
		h.respondError(w, http.StatusConflict, "Job already finished", nil)
	case errors.Is(err, job_uc.ErrInvalidSpec), errors.Is(err, job_uc.ErrBackgroundNeeded):
		h.respondError(w, http.StatusBadRequest, "Invalid job", err)
	case errors.Is(err, render.ErrTooManyValues), errors.Is(err, render.ErrCanvasTooLarge):
		h.respondError(w, http.StatusUnprocessableEntity, "Job exceeds limits", err)
	case errors.Is(err, job_uc.ErrInvalidFileName):
		h.respondError(w, http.StatusBadRequest, "Invalid file name", nil)
	case errors.Is(err, job_uc.ErrFileNotFound):
		h.respondError(w, http.StatusNotFound, "File not found", nil)
	case errors.Is(err, render.ErrBackgroundUnreadable):
		h.respondError(w, http.StatusUnprocessableEntity, "Background image unreadable", err)
	default:
		h.logger.Error().Err(err).Str("run_id", id).Msg("Job request failed")
		h.respondError(w, http.StatusInternalServerError, "Job request failed", err)
	}
}

func (h *JobHandler) respondPNG(w http.ResponseWriter, img image.Image, id string) {
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	if err := png.Encode(w, img); err != nil {
		h.logger.Error().Err(err).Str("run_id", id).Msg("Failed to stream preview")
	}
}

func (h *JobHandler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error().Err(err).Interface("data", data).Msg("Failed to encode response")
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

func (h *JobHandler) respondError(w http.ResponseWriter, status int, message string, err error) {
	response := dto.ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
	}

	if err != nil {
		response.Details = err.Error()
	}

	h.respondJSON(w, status, response)
}
