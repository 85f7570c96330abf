package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/sagarc03/cabinet"
)

// Service is the consistency-layer surface the transport depends on.
type Service interface {
	CreateFolder(ctx context.Context, displayName, parentUUID string) (cabinet.Folder, error)
	GetContent(ctx context.Context, folderUUID string) (cabinet.FolderContent, error)
	GetBreadcrumbs(ctx context.Context, folderUUID string) ([]cabinet.Breadcrumb, error)
	DeleteFolder(ctx context.Context, folderUUID string) (string, error)
	UploadViaServer(ctx context.Context, content io.Reader, originalName, mimeType string, sizeBytes int64, folderUUID string) (cabinet.FileRecord, error)
	RequestUploadURL(ctx context.Context, filename, mimeType, folderUUID string) (cabinet.PresignedUpload, error)
	ConfirmUpload(ctx context.Context, objectKey, originalName, mimeType string, sizeBytes int64, folderUUID string) (cabinet.FileRecord, error)
	StreamDownload(ctx context.Context, fileID int64) (io.ReadCloser, cabinet.FileRecord, error)
	PresignDownload(ctx context.Context, fileID int64) (cabinet.PresignedDownload, error)
	DeleteFile(ctx context.Context, fileID int64) (int64, error)
	ListAllFiles(ctx context.Context) ([]cabinet.FileRecord, error)
}

type CORSConfig struct {
	Enabled          bool     `mapstructure:"enabled"`
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	ExposedHeaders   []string `mapstructure:"exposed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

type HandlerConfig struct {
	// MaxUploadSize caps the body of server-proxied uploads in bytes.
	// Zero means no limit. Presigned uploads bypass the server and are
	// not subject to it.
	MaxUploadSize int64
	CORS          CORSConfig
}

// Handler provides HTTP handlers for the file-manager API.
type Handler struct {
	config  HandlerConfig
	service Service
}

// NewHandler creates a new Handler with the given configuration and service.
func NewHandler(config *HandlerConfig, service Service) *Handler {
	return &Handler{
		config:  *config,
		service: service,
	}
}

// Router returns an http.Handler with all file-manager routes mounted.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	if h.config.CORS.Enabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   h.config.CORS.AllowedOrigins,
			AllowedMethods:   h.config.CORS.AllowedMethods,
			AllowedHeaders:   h.config.CORS.AllowedHeaders,
			ExposedHeaders:   h.config.CORS.ExposedHeaders,
			AllowCredentials: h.config.CORS.AllowCredentials,
			MaxAge:           h.config.CORS.MaxAge,
		}))
	}

	r.Get("/", h.handleHealth)

	r.Route("/files", func(r chi.Router) {
		r.Post("/folders", h.handleCreateFolder)
		r.Get("/content", h.handleGetContent)
		r.Get("/breadcrumbs", h.handleGetBreadcrumbs)
		r.Delete("/folders/{uuid}", h.handleDeleteFolder)

		r.Post("/upload", h.handleUpload)
		r.Get("/download/{id}", h.handleDownload)

		r.Post("/presigned/upload-url", h.handleUploadURL)
		r.Post("/presigned/callback", h.handleUploadCallback)
		r.Get("/presigned/download/{id}", h.handleDownloadURL)

		r.Get("/", h.handleList)
		r.Delete("/{id}", h.handleDeleteFile)
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		WriteError(w, http.StatusNotFound, "not_found", "Endpoint not found")
	})

	return r
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	_ = WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type createFolderRequest struct {
	Name       string `json:"name"`
	ParentUUID string `json:"parent_uuid"`
}

func (h *Handler) handleCreateFolder(w http.ResponseWriter, r *http.Request) {
	var req createFolderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_input", "Invalid JSON body")
		return
	}

	folder, err := h.service.CreateFolder(r.Context(), req.Name, req.ParentUUID)
	if err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusCreated, folder)
}

func (h *Handler) handleGetContent(w http.ResponseWriter, r *http.Request) {
	content, err := h.service.GetContent(r.Context(), r.URL.Query().Get("folder_uuid"))
	if err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusOK, content)
}

func (h *Handler) handleGetBreadcrumbs(w http.ResponseWriter, r *http.Request) {
	crumbs, err := h.service.GetBreadcrumbs(r.Context(), r.URL.Query().Get("folder_uuid"))
	if err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusOK, crumbs)
}

func (h *Handler) handleDeleteFolder(w http.ResponseWriter, r *http.Request) {
	uuid, err := h.service.DeleteFolder(r.Context(), chi.URLParam(r, "uuid"))
	if err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusOK, map[string]string{"uuid": uuid})
}

func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	if h.config.MaxUploadSize > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.config.MaxUploadSize)
	}

	// Headers only; the file part streams from the multipart reader below.
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			WriteError(w, http.StatusRequestEntityTooLarge, "too_large", "Upload exceeds size limit")
			return
		}
		WriteError(w, http.StatusBadRequest, "invalid_input", "Invalid multipart body")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("file")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_input", "Missing file field")
		return
	}
	defer func() { _ = file.Close() }()

	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	record, err := h.service.UploadViaServer(
		r.Context(), file, header.Filename, mimeType, header.Size,
		r.FormValue("folder_uuid"),
	)
	if err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusCreated, record)
}

func (h *Handler) handleDownload(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	content, record, err := h.service.StreamDownload(r.Context(), id)
	if err != nil {
		HandleError(w, err)
		return
	}
	defer func() { _ = content.Close() }()

	w.Header().Set("Content-Type", record.MimeType)
	w.Header().Set("Content-Disposition", cabinet.AttachmentDisposition(record.OriginalName))
	if record.SizeBytes > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(record.SizeBytes, 10))
	}

	_, _ = io.Copy(w, content)
}

type uploadURLRequest struct {
	Filename   string `json:"filename"`
	MimeType   string `json:"mime_type"`
	FolderUUID string `json:"folder_uuid"`
}

func (h *Handler) handleUploadURL(w http.ResponseWriter, r *http.Request) {
	var req uploadURLRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_input", "Invalid JSON body")
		return
	}

	upload, err := h.service.RequestUploadURL(r.Context(), req.Filename, req.MimeType, req.FolderUUID)
	if err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusOK, upload)
}

type uploadCallbackRequest struct {
	ObjectKey    string `json:"object_key"`
	OriginalName string `json:"original_name"`
	MimeType     string `json:"mime_type"`
	SizeBytes    int64  `json:"size_bytes"`
	FolderUUID   string `json:"folder_uuid"`
}

func (h *Handler) handleUploadCallback(w http.ResponseWriter, r *http.Request) {
	var req uploadCallbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_input", "Invalid JSON body")
		return
	}

	record, err := h.service.ConfirmUpload(
		r.Context(), req.ObjectKey, req.OriginalName, req.MimeType, req.SizeBytes, req.FolderUUID,
	)
	if err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusCreated, record)
}

func (h *Handler) handleDownloadURL(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	download, err := h.service.PresignDownload(r.Context(), id)
	if err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusOK, download)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	files, err := h.service.ListAllFiles(r.Context())
	if err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusOK, files)
}

func (h *Handler) handleDeleteFile(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	deleted, err := h.service.DeleteFile(r.Context(), id)
	if err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusOK, map[string]int64{"id": deleted})
}

func parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_input", "Invalid file id")
		return 0, false
	}
	return id, true
}
