package model

import "errors"

const (
	MaxPictureSizeBytes = 5 * 1024 * 1024 // 5MB
	PictureWidth        = 200
	PictureHeight       = 200
	PictureFolder       = "profile-pictures"
	PictureExt          = ".jpg"
	PictureCacheControl = "public, max-age=31536000"
)

// Supported image content types for upload validation
const (
	ContentTypeJPEG = "image/jpeg"
	ContentTypePNG  = "image/png"
	ContentTypeGIF  = "image/gif"
	ContentTypeWebP = "image/webp"
)

var allowedImageTypes = map[string]struct{}{
	ContentTypeJPEG: {},
	ContentTypePNG:  {},
	ContentTypeGIF:  {},
	ContentTypeWebP: {},
}

var (
	ErrFileTooLarge         = errors.New("file too large")
	ErrInvalidImageType     = errors.New("invalid image type")
	ErrStorageNotConfigured = errors.New("object storage is not configured")
)

// UploadResult is where an uploaded object landed.
// Key is kept so the previous picture can be removed on replacement.
type UploadResult struct {
	URL string `json:"url"`
	Key string `json:"key"`
}

// IsAllowedImageType reports if the provided content type is supported
func IsAllowedImageType(contentType string) bool {
	_, ok := allowedImageTypes[contentType]
	return ok
}
