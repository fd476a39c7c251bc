package handler

import (
	"errors"
	"net/http"

	"github.com/woodcraft-crm/leadflow-api/internal/service"
	"github.com/woodcraft-crm/leadflow-api/internal/workflow"
	"go.uber.org/zap"
)

type DocumentHandler struct {
	documentService *service.DocumentService
	maxUploadBytes  int64
	logger          *zap.Logger
}

func NewDocumentHandler(documentService *service.DocumentService, maxUploadSizeMB int64, logger *zap.Logger) *DocumentHandler {
	if maxUploadSizeMB <= 0 {
		maxUploadSizeMB = 50
	}
	return &DocumentHandler{
		documentService: documentService,
		maxUploadBytes:  maxUploadSizeMB << 20,
		logger:          logger,
	}
}

// Upload godoc
// @Summary Upload a lead document
// @Description Stores the file under the lead's stage folder. Production files uploaded here satisfy the order-login readiness check.
// @Tags Documents
// @Accept multipart/form-data
// @Produce json
// @Param id path int true "Lead ID"
// @Param file formData file true "File to upload"
// @Param category formData string true "Document category, e.g. production-files"
// @Param stage formData string false "Stage folder, defaults to the lead's current stage"
// @Success 201 {object} domain.DocumentDTO
// @Failure 400 {object} domain.APIError
// @Failure 403 {object} domain.APIError
// @Failure 413 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /leads/{id}/documents [post]
func (h *DocumentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id, ok := leadIDParam(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondWithError(w, http.StatusRequestEntityTooLarge, "File exceeds the upload size limit")
			return
		}
		respondWithError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	in := service.UploadInput{
		LeadID:      id,
		Category:    r.FormValue("category"),
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Body:        file,
	}
	if s := r.FormValue("stage"); s != "" {
		stage, err := workflow.ParseStage(s)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		in.Stage = stage
	}

	doc, err := h.documentService.Upload(r.Context(), actor, in)
	if err != nil {
		respondError(w, h.logger, err, "upload document")
		return
	}
	respondJSON(w, http.StatusCreated, doc)
}

// List godoc
// @Summary List lead documents
// @Tags Documents
// @Produce json
// @Param id path int true "Lead ID"
// @Success 200 {array} domain.DocumentDTO
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /leads/{id}/documents [get]
func (h *DocumentHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id, ok := leadIDParam(w, r)
	if !ok {
		return
	}

	docs, err := h.documentService.List(r.Context(), actor, id)
	if err != nil {
		respondError(w, h.logger, err, "list documents")
		return
	}
	respondJSON(w, http.StatusOK, docs)
}
