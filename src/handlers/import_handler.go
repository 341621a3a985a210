package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/username/perfolio/src/logger"
	"github.com/username/perfolio/src/security/validation"
	"github.com/username/perfolio/src/services"
	"github.com/username/perfolio/src/utils"
)

type ImportHandler struct {
	importService  services.ImportService
	maxUploadBytes int64
}

func NewImportHandler(service services.ImportService, maxUploadBytes int64) *ImportHandler {
	return &ImportHandler{
		importService:  service,
		maxUploadBytes: maxUploadBytes,
	}
}

// HandleImport loads the multipart "file" field into the warehouse table named
// by the "table" query parameter.
func (h *ImportHandler) HandleImport(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	table := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("table")))
	if table == "" {
		utils.SendJSONError(w, "Query parameter 'table' is required", http.StatusBadRequest)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		log.Warn("Failed to parse multipart form or request too large", "error", err, "limit", h.maxUploadBytes)
		utils.SendJSONError(w, fmt.Sprintf("Failed to parse form or request too large (max %d MB)", h.maxUploadBytes/(1024*1024)), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		log.Warn("Failed to retrieve file from request", "error", err)
		utils.SendJSONError(w, "Failed to retrieve file from request. Ensure 'file' field is used.", http.StatusBadRequest)
		return
	}
	defer file.Close()

	clientContentType := fileHeader.Header.Get("Content-Type")
	if err := validation.ValidateClientContentType(clientContentType); err != nil {
		sendServiceError(w, r, err, "importing the file")
		return
	}

	detectedContentType, err := validation.ValidateFileContentByMagicBytes(file)
	if err != nil {
		sendServiceError(w, r, err, "importing the file")
		return
	}
	log.Info("Processing import request", "table", table, "filename", fileHeader.Filename,
		"clientType", clientContentType, "detectedType", detectedContentType)

	result, err := h.importService.Import(r.Context(), table, file)
	if err != nil {
		sendServiceError(w, r, err, "importing the file")
		return
	}
	utils.WriteJSON(w, result)
}
