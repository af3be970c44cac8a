package storage

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif" // Register GIF decoder
	"image/jpeg"
	_ "image/png" // Register PNG decoder
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"golang.org/x/image/draw"
)

// Config holds configuration for S3-compatible storage.
type Config struct {
	Provider        string // "aws" or any S3-compatible provider with Endpoint set
	AccessKeyID     string
	SecretAccessKey string
	Region          string
	Bucket          string
	Endpoint        string // custom endpoint, forces path-style addressing
}

// NewS3Client creates an S3 client supporting both AWS and S3-compatible
// providers (custom endpoint, path-style).
func NewS3Client(ctx context.Context, cfg Config) (*s3.Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	if cfg.Endpoint != "" {
		endpoint := cfg.Endpoint
		if !strings.HasPrefix(endpoint, "http") {
			endpoint = "https://" + endpoint
		}
		return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}), nil
	}

	return s3.NewFromConfig(awsCfg), nil
}

// maxAvatarEdge is the longest edge after downscaling; avatars never need
// more and the smaller payload keeps page loads fast.
const maxAvatarEdge = 512

// AvatarStore uploads profile images to an S3 bucket and hands back their
// public URL. Uploads are keyed by owner so retries overwrite rather than
// accumulate.
type AvatarStore struct {
	client *s3.Client
	cfg    Config
}

func NewAvatarStore(client *s3.Client, cfg Config) *AvatarStore {
	return &AvatarStore{client: client, cfg: cfg}
}

// Upload stores the image under profiles/<ownerID>_profile.<ext> and
// returns the public URL. JPEG and PNG content is downscaled and
// re-encoded as JPEG; GIFs are stored as-is to preserve animation.
func (s *AvatarStore) Upload(ctx context.Context, ownerID string, filename, mimeType string, data []byte) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	body := data
	contentType := mimeType

	if ext != ".gif" {
		resized, err := downscale(data)
		if err == nil {
			body = resized
			contentType = "image/jpeg"
			ext = ".jpg"
		}
		// On decode failure the original bytes go up unchanged; they already
		// passed magic-byte validation.
	}

	key := fmt.Sprintf("profiles/%s_profile%s", ownerID, ext)

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:       aws.String(s.cfg.Bucket),
		Key:          aws.String(key),
		Body:         bytes.NewReader(body),
		ContentType:  aws.String(contentType),
		CacheControl: aws.String("max-age=3600"),
	})
	if err != nil {
		return "", fmt.Errorf("avatar upload failed: %w", err)
	}

	return s.PublicURL(key), nil
}

// PublicURL builds the public object URL for a key.
func (s *AvatarStore) PublicURL(key string) string {
	if s.cfg.Endpoint != "" {
		endpoint := strings.TrimPrefix(s.cfg.Endpoint, "https://")
		endpoint = strings.TrimPrefix(endpoint, "http://")
		return fmt.Sprintf("https://%s/%s/%s", endpoint, s.cfg.Bucket, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.cfg.Bucket, s.cfg.Region, key)
}

// downscale decodes the image and scales it so the longest edge is at most
// maxAvatarEdge, re-encoding as JPEG.
func downscale(data []byte) ([]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= maxAvatarEdge && h <= maxAvatarEdge {
		// Still re-encode for a consistent format and stripped metadata.
		return encodeJPEG(src)
	}

	scale := float64(maxAvatarEdge) / float64(w)
	if h > w {
		scale = float64(maxAvatarEdge) / float64(h)
	}
	dst := image.NewRGBA(image.Rect(0, 0, int(float64(w)*scale), int(float64(h)*scale)))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)

	return encodeJPEG(dst)
}

func encodeJPEG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 85}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
