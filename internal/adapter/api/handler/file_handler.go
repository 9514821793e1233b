package handler

import (
	"github.com/labstack/echo/v4"

	"tallerlink/internal/domain/service"
	"tallerlink/pkg/response"
)

type FileHandler struct {
	fileService service.FileUploadService
}

func NewFileHandler(fileService service.FileUploadService) *FileHandler {
	return &FileHandler{
		fileService: fileService,
	}
}

type uploadURLRequest struct {
	FileType string `json:"file_type" validate:"required"`
	Folder   string `json:"folder" validate:"required,oneof=chat-images cotizacion-images"`
}

// GenerateUploadURL returns a short-lived signed PUT URL so clients
// upload images straight to the bucket instead of through the API.
func (h *FileHandler) GenerateUploadURL(c echo.Context) error {
	var req uploadURLRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}

	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	uploadURL, publicURL, err := h.fileService.GenerateSignedUploadURL(c.Request().Context(), req.FileType, req.Folder)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]string{
		"upload_url": uploadURL,
		"public_url": publicURL,
	})
}
