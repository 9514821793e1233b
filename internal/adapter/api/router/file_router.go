package router

import (
	"github.com/labstack/echo/v4"

	"tallerlink/internal/adapter/api/handler"
	"tallerlink/internal/adapter/api/middleware"
)

func SetupFileRouter(e *echo.Echo, fileHandler *handler.FileHandler, authMiddleware *middleware.AuthMiddleware) {
	fileGroup := e.Group("/v1/files")
	fileGroup.Use(authMiddleware.Authenticate)

	fileGroup.POST("/upload-url", fileHandler.GenerateUploadURL) // POST /v1/files/upload-url - Signed PUT URL for image upload
}
