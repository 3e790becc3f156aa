package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/disintegration/imaging"
	"github.com/google/uuid"

	"minitweet/internal/config"
	"minitweet/internal/model"
)

// ObjectStore is the subset of the S3 API used for profile pictures.
type ObjectStore interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// MediaService normalizes profile pictures and stores them in S3-compatible storage.
type MediaService struct {
	store     ObjectStore
	bucket    string
	publicURL string
}

func NewMediaService(store ObjectStore, bucket, publicURL string) *MediaService {
	return &MediaService{
		store:     store,
		bucket:    bucket,
		publicURL: strings.TrimSuffix(publicURL, "/"),
	}
}

// NewR2MediaService builds a MediaService on a Cloudflare R2 bucket.
// It returns (nil, nil) when R2 is not configured; uploads then report ErrStorageNotConfigured.
func NewR2MediaService(ctx context.Context, cfg *config.Config) (*MediaService, error) {
	if !cfg.StorageConfigured() {
		log.Println("[MediaService] R2 not configured, profile picture uploads disabled")
		return nil, nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(
		ctx,
		awsconfig.WithRegion("auto"),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.R2AccessKeyID, cfg.R2SecretAccessKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config for R2: %w", err)
	}

	endpoint := fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.R2AccountID)
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = true
	})

	return NewMediaService(client, cfg.R2BucketName, cfg.R2PublicURL), nil
}

// UploadProfilePicture checks size and type, crops to a 200x200 JPEG and uploads it.
// A nil receiver means storage is not configured.
func (s *MediaService) UploadProfilePicture(ctx context.Context, r io.Reader, size int64, contentType string) (*model.UploadResult, error) {
	if s == nil {
		return nil, model.ErrStorageNotConfigured
	}

	data, err := readImage(r, size, contentType, model.MaxPictureSizeBytes)
	if err != nil {
		return nil, err
	}

	jpegBytes, err := squareJPEG(data, model.PictureWidth, 85)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("%s/%s%s", model.PictureFolder, uuid.NewString(), model.PictureExt)

	_, err = s.store.PutObject(ctx, &s3.PutObjectInput{
		Bucket:       aws.String(s.bucket),
		Key:          aws.String(key),
		Body:         bytes.NewReader(jpegBytes),
		ContentType:  aws.String(model.ContentTypeJPEG),
		CacheControl: aws.String(model.PictureCacheControl),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload profile picture: %w", err)
	}

	return &model.UploadResult{URL: s.publicURL + "/" + key, Key: key}, nil
}

// DeleteObject removes a previously uploaded picture. Empty keys are a no-op.
func (s *MediaService) DeleteObject(ctx context.Context, key string) error {
	if s == nil || key == "" {
		return nil
	}
	_, err := s.store.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}

// readImage loads at most maxSize+1 bytes and sniffs the type when the client didn't send one.
func readImage(r io.Reader, size int64, contentType string, maxSize int64) ([]byte, error) {
	if size > maxSize {
		return nil, model.ErrFileTooLarge
	}

	data, err := io.ReadAll(io.LimitReader(r, maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if int64(len(data)) > maxSize {
		return nil, model.ErrFileTooLarge
	}

	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}
	if idx := strings.Index(contentType, ";"); idx != -1 {
		contentType = strings.TrimSpace(contentType[:idx])
	}
	if !model.IsAllowedImageType(contentType) {
		return nil, model.ErrInvalidImageType
	}

	return data, nil
}

func squareJPEG(data []byte, side, quality int) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrInvalidImageType, err)
	}

	out := imaging.Fill(img, side, side, imaging.Center, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, out, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, fmt.Errorf("failed to encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}
