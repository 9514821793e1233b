package storage

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"google.golang.org/api/option"
)

type CloudStorageClient struct {
	client     *storage.Client
	bucketName string
	projectID  string
}

func NewCloudStorageClient(ctx context.Context, bucketName, projectID string, credentialsPath string) (*CloudStorageClient, error) {
	var opts []option.ClientOption
	if credentialsPath != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsPath))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %v", err)
	}

	return &CloudStorageClient{
		client:     client,
		bucketName: bucketName,
		projectID:  projectID,
	}, nil
}

// GenerateSignedUploadURL returns a short-lived PUT URL plus the public
// URL the object will have once uploaded. Image bytes go from the
// client straight to the bucket, never through the API.
func (c *CloudStorageClient) GenerateSignedUploadURL(ctx context.Context, fileType, folder string) (string, string, error) {
	filename := fmt.Sprintf("%s/%s-%s", folder, uuid.New().String(), time.Now().Format("20060102150405"))

	switch fileType {
	case "image/jpeg", "image/jpg":
		filename += ".jpg"
	case "image/png":
		filename += ".png"
	case "image/gif":
		filename += ".gif"
	case "image/webp":
		filename += ".webp"
	default:
		return "", "", fmt.Errorf("unsupported file type: %s", fileType)
	}

	opts := &storage.SignedURLOptions{
		Method:      http.MethodPut,
		ContentType: fileType,
		Expires:     time.Now().Add(15 * time.Minute),
	}

	uploadURL, err := c.client.Bucket(c.bucketName).SignedURL(filename, opts)
	if err != nil {
		return "", "", fmt.Errorf("failed to generate signed URL: %v", err)
	}

	publicURL := fmt.Sprintf("https://storage.googleapis.com/%s/%s", c.bucketName, filename)
	return uploadURL, publicURL, nil
}

func (c *CloudStorageClient) Close() error {
	return c.client.Close()
}
