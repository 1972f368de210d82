package api

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/kdimtricp/leafscan/internal/catalog"
	"github.com/kdimtricp/leafscan/internal/detection"
	"github.com/kdimtricp/leafscan/internal/logging"
	"github.com/kdimtricp/leafscan/internal/models"
	"github.com/kdimtricp/leafscan/internal/storage"
	"github.com/mdobak/go-xerrors"
)

const DefaultMaxUploadSize = 20 << 20

const msgMissingInput = "Missing image data or crop type"

type Detector interface {
	Detect(ctx context.Context, image []byte, cropType string) detection.Result
	Describe(ctx context.Context, res detection.Result) []detection.DiseaseInfo
}

type CatalogReader interface {
	Datasets(ctx context.Context) ([]catalog.Dataset, error)
	Signatures(ctx context.Context, cropType string) ([]catalog.Signature, error)
}

type HistoryReader interface {
	Recent(ctx context.Context, limit int) ([]models.DetectionRecord, error)
}

type App struct {
	Detector Detector
	Catalog  CatalogReader
	History  HistoryReader
	Pool     *detection.Pool
	// Storage keeps a copy of every successfully scored upload. Nil disables it.
	Storage       storage.Storage
	MaxUploadSize int64
	Logger        *slog.Logger
}

func (app *App) logger() *slog.Logger {
	if app.Logger != nil {
		return app.Logger
	}
	return logging.Component("api")
}

type DetectResponse struct {
	Diseases            []string                `json:"diseases"`
	DiseaseInfo         []detection.DiseaseInfo `json:"disease_info"`
	FieldData           detection.FieldMap      `json:"field_data"`
	MultipleDetections  bool                    `json:"multiple_detections"`
	DetectionConfidence []float64               `json:"detection_confidence"`
	ImageHash           string                  `json:"image_hash,omitempty"`
	StoredImage         string                  `json:"stored_image,omitempty"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func PingHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("pong"))
}

// DetectHandler accepts either the JSON body {"image": "<data URL>",
// "cropType": "..."} or a multipart form with "file" and "cropType" fields.
// Pipeline failures still answer 200 with the error result; only malformed
// requests get a 4xx.
func (app *App) DetectHandler(w http.ResponseWriter, r *http.Request) {
	maxSize := app.MaxUploadSize
	if maxSize <= 0 {
		maxSize = DefaultMaxUploadSize
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	var data []byte
	var cropType string
	var err error
	if mediaType == "multipart/form-data" {
		data, cropType, err = readMultipart(r, maxSize)
	} else {
		data, cropType, err = readJSON(r)
	}

	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, "Image too large", http.StatusRequestEntityTooLarge)
			return
		}
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if len(data) == 0 || strings.TrimSpace(cropType) == "" {
		writeError(w, msgMissingInput, http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	res := app.Detector.Detect(ctx, data, cropType)

	resp := DetectResponse{
		Diseases:            res.Labels(),
		DiseaseInfo:         app.Detector.Describe(ctx, res),
		FieldData:           res.FieldMap,
		MultipleDetections:  len(res.Results) > 1,
		DetectionConfidence: res.Confidences(),
		ImageHash:           res.ImageHash,
	}

	if app.Storage != nil && res.Err == nil {
		name, err := app.Storage.SaveImage(data, storage.ImageInfo{
			Hash:        res.ImageHash,
			ContentType: http.DetectContentType(data),
			Size:        int64(len(data)),
		})
		if err != nil {
			app.logger().ErrorContext(ctx, "failed to store upload",
				slog.String("request_id", middleware.GetReqID(ctx)),
				slog.Any("error", xerrors.New(err)))
		} else {
			resp.StoredImage = name
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

func readJSON(r *http.Request) ([]byte, string, error) {
	var req struct {
		Image    string `json:"image"`
		CropType string `json:"cropType"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, "", nil
		}
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, "", err
		}
		return nil, "", fmt.Errorf("invalid JSON body: %w", err)
	}
	if req.Image == "" {
		return nil, req.CropType, nil
	}

	data, err := decodeDataURL(req.Image)
	if err != nil {
		return nil, "", err
	}
	return data, req.CropType, nil
}

func readMultipart(r *http.Request, maxSize int64) ([]byte, string, error) {
	if err := r.ParseMultipartForm(maxSize); err != nil {
		return nil, "", err
	}

	cropType := r.FormValue("cropType")

	file, _, err := r.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, cropType, nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("failed to get file: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read file: %w", err)
	}
	return data, cropType, nil
}

// decodeDataURL accepts "data:<type>;base64,<payload>" or a bare base64
// payload.
func decodeDataURL(s string) ([]byte, error) {
	payload := s
	if strings.HasPrefix(s, "data:") {
		header, rest, ok := strings.Cut(s, ",")
		if !ok || !strings.HasSuffix(header, ";base64") {
			return nil, errors.New("image must be a base64 data URL")
		}
		payload = rest
	}

	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(payload))
	if err != nil {
		return nil, fmt.Errorf("invalid base64 image: %w", err)
	}
	return data, nil
}

type datasetView struct {
	catalog.Dataset
	Samples []catalog.Signature `json:"samples"`
}

type datasetsResponse struct {
	Datasets         []datasetView            `json:"datasets"`
	RecentDetections []models.DetectionRecord `json:"recent_detections"`
}

func (app *App) DatasetsHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	datasets, err := app.Catalog.Datasets(ctx)
	if err != nil {
		app.internalError(w, r, "failed to load datasets", err)
		return
	}

	resp := datasetsResponse{
		Datasets:         make([]datasetView, 0, len(datasets)),
		RecentDetections: []models.DetectionRecord{},
	}
	for _, ds := range datasets {
		sigs, err := app.Catalog.Signatures(ctx, ds.CropType)
		if err != nil && !errors.Is(err, catalog.ErrNoCatalog) {
			app.internalError(w, r, "failed to load samples", err)
			return
		}
		if sigs == nil {
			sigs = []catalog.Signature{}
		}
		resp.Datasets = append(resp.Datasets, datasetView{Dataset: ds, Samples: sigs})
	}

	if app.History != nil {
		recent, err := app.History.Recent(ctx, models.DefaultHistoryLimit)
		if err != nil {
			app.internalError(w, r, "failed to load history", err)
			return
		}
		resp.RecentDetections = recent
	}

	writeJSON(w, http.StatusOK, resp)
}

func (app *App) HistoryHandler(w http.ResponseWriter, r *http.Request) {
	if app.History == nil {
		writeError(w, "History is not available", http.StatusNotFound)
		return
	}

	limit := models.DefaultHistoryLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			writeError(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = n
	}

	records, err := app.History.Recent(r.Context(), limit)
	if err != nil {
		app.internalError(w, r, "failed to load history", err)
		return
	}

	writeJSON(w, http.StatusOK, records)
}

// GetUploadHandler serves an image kept by DetectHandler under the
// stored_image name it returned.
func (app *App) GetUploadHandler(w http.ResponseWriter, r *http.Request) {
	if app.Storage == nil {
		writeError(w, "Upload storage is disabled", http.StatusNotFound)
		return
	}

	name := chi.URLParam(r, "name")
	file, err := app.Storage.OpenImage(name)
	if err != nil {
		app.storageError(w, r, err)
		return
	}
	defer file.Close()

	http.ServeContent(w, r, name, time.Time{}, file)
}

func (app *App) DeleteUploadHandler(w http.ResponseWriter, r *http.Request) {
	if app.Storage == nil {
		writeError(w, "Upload storage is disabled", http.StatusNotFound)
		return
	}

	if err := app.Storage.DeleteImage(chi.URLParam(r, "name")); err != nil {
		app.storageError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (app *App) storageError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, storage.ErrInvalidName):
		writeError(w, "Invalid image name", http.StatusBadRequest)
	case errors.Is(err, fs.ErrNotExist):
		writeError(w, "Image not found", http.StatusNotFound)
	default:
		app.internalError(w, r, "failed to access stored image", err)
	}
}

func (app *App) MetricsHandler(w http.ResponseWriter, r *http.Request) {
	var stats detection.PoolStats
	if app.Pool != nil {
		stats = app.Pool.Stats()
	}
	writeJSON(w, http.StatusOK, stats)
}

func (app *App) internalError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	app.logger().ErrorContext(r.Context(), msg,
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.Any("error", xerrors.New(err)))
	writeError(w, "Internal server error", http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, message string, status int) {
	writeJSON(w, status, ErrorResponse{Error: message})
}
