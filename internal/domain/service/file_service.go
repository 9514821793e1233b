package service

import "context"

// FileUploadService issues pre-signed upload URLs so clients send image
// bytes directly to object storage instead of through the API.
type FileUploadService interface {
	GenerateSignedUploadURL(ctx context.Context, fileType, folder string) (string, string, error)
	Close() error
}
