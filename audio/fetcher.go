// Package audio provides the audio collaborators of the audit pipeline:
// retrieval of remote recordings, transcoding to the canonical format the
// transcription engine requires, and transcription itself.
package audio

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// Fetcher retrieves a remote audio object into a local temporary file and
// returns its path. The caller owns removal of the returned file.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (string, error)
}

// FetcherConfig holds configuration for audio retrieval.
type FetcherConfig struct {
	TempDir      string
	Timeout      time.Duration
	AWSRegion    string
	AWSAccessKey string
	AWSSecretKey string
}

// URLFetcher dispatches on the URL scheme: s3:// URLs go to S3, everything
// else is fetched over HTTP.
type URLFetcher struct {
	http *HTTPFetcher
	s3   *S3Fetcher
}

// NewFetcher creates a fetcher for both HTTP(S) and s3:// audio URLs.
func NewFetcher(ctx context.Context, cfg FetcherConfig) (*URLFetcher, error) {
	s3Fetcher, err := NewS3Fetcher(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &URLFetcher{
		http: NewHTTPFetcher(cfg),
		s3:   s3Fetcher,
	}, nil
}

// Fetch retrieves the audio behind rawURL into a temporary file.
func (f *URLFetcher) Fetch(ctx context.Context, rawURL string) (string, error) {
	if strings.HasPrefix(rawURL, "s3://") {
		return f.s3.Fetch(ctx, rawURL)
	}
	return f.http.Fetch(ctx, rawURL)
}

// HTTPFetcher downloads audio over HTTP(S).
type HTTPFetcher struct {
	client  *http.Client
	tempDir string
}

// NewHTTPFetcher creates an HTTP audio fetcher.
func NewHTTPFetcher(cfg FetcherConfig) *HTTPFetcher {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	tempDir := cfg.TempDir
	if tempDir == "" {
		tempDir = os.TempDir()
	}
	return &HTTPFetcher{
		client:  &http.Client{Timeout: timeout},
		tempDir: tempDir,
	}
}

// Fetch downloads the audio into a temporary file. A non-2xx status is a
// download failure; no partial file is left behind.
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to download audio: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("failed to download audio: status %d", resp.StatusCode)
	}

	return saveToTemp(f.tempDir, rawURL, resp.Body)
}

// S3Fetcher downloads audio objects addressed as s3://bucket/key.
type S3Fetcher struct {
	client  *s3.Client
	tempDir string
}

// NewS3Fetcher creates an S3 audio fetcher. Explicit credentials are used
// when configured, otherwise the default chain (environment, IAM role).
func NewS3Fetcher(ctx context.Context, cfg FetcherConfig) (*S3Fetcher, error) {
	var awsCfg awssdk.Config
	var err error

	if cfg.AWSAccessKey != "" && cfg.AWSSecretKey != "" {
		awsCfg, err = awsconfig.LoadDefaultConfig(ctx,
			awsconfig.WithRegion(cfg.AWSRegion),
			awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
				cfg.AWSAccessKey,
				cfg.AWSSecretKey,
				"",
			)),
		)
	} else {
		awsCfg, err = awsconfig.LoadDefaultConfig(ctx,
			awsconfig.WithRegion(cfg.AWSRegion),
		)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	tempDir := cfg.TempDir
	if tempDir == "" {
		tempDir = os.TempDir()
	}

	return &S3Fetcher{
		client:  s3.NewFromConfig(awsCfg),
		tempDir: tempDir,
	}, nil
}

// Fetch downloads the object into a temporary file.
func (f *S3Fetcher) Fetch(ctx context.Context, rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid s3 URL %s: %w", rawURL, err)
	}
	bucket := u.Host
	key := strings.TrimPrefix(u.Path, "/")
	if bucket == "" || key == "" {
		return "", fmt.Errorf("invalid s3 URL %s: missing bucket or key", rawURL)
	}

	result, err := f.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: awssdk.String(bucket),
		Key:    awssdk.String(key),
	})
	if err != nil {
		return "", fmt.Errorf("failed to download from S3: %w", err)
	}
	defer result.Body.Close()

	return saveToTemp(f.tempDir, rawURL, result.Body)
}

// saveToTemp writes the stream to a uniquely named temp file, keeping the
// source extension so the transcoder can probe the container format.
func saveToTemp(tempDir, rawURL string, body io.Reader) (string, error) {
	ext := path.Ext(strippedPath(rawURL))
	dest := filepath.Join(tempDir, uuid.New().String()+ext)

	out, err := os.Create(dest)
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}

	if _, err := io.Copy(out, body); err != nil {
		out.Close()
		os.Remove(dest)
		return "", fmt.Errorf("failed to save audio: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(dest)
		return "", fmt.Errorf("failed to save audio: %w", err)
	}

	return dest, nil
}

// strippedPath returns the URL path without query or fragment, falling
// back to the raw string for non-URL inputs.
func strippedPath(rawURL string) string {
	if u, err := url.Parse(rawURL); err == nil && u.Path != "" {
		return u.Path
	}
	return rawURL
}
