package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"vidtube/pkg/config"
	"vidtube/pkg/logger"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/google/uuid"
	"github.com/sony/gobreaker"
)

// breakerTripAfter consecutive failed uploads open the circuit.
const breakerTripAfter = 5

var ErrEmptyPath = errors.New("no local file to upload")

// UploadResult describes a media upload. Failed results carry no URL.
type UploadResult struct {
	URL     string `json:"url"`
	AssetID string `json:"assetId"`
	Failed  bool   `json:"-"`
	Err     error  `json:"-"`
}

type ClientOptions struct {
	Bucket   string
	Region   string
	Endpoint string
	UseSSL   bool
	Prefix   string
}

type Client struct {
	api     s3iface.S3API
	opts    ClientOptions
	breaker *gobreaker.CircuitBreaker
	log     *logger.Logger
}

func NewClient(cfg *config.Config, log *logger.Logger) (*Client, error) {
	awsConfig := &aws.Config{
		Region: aws.String(cfg.AWSRegion),
		Credentials: credentials.NewStaticCredentials(
			cfg.AWSAccessKeyID,
			cfg.AWSSecretAccessKey,
			"",
		),
	}

	useSSL := cfg.S3UseSSL != "false"

	// Support MinIO for local development
	if cfg.AWSEndpoint != "" {
		awsConfig.Endpoint = aws.String(cfg.AWSEndpoint)
		awsConfig.S3ForcePathStyle = aws.Bool(true)
		awsConfig.DisableSSL = aws.Bool(!useSSL)
	}

	sess, err := session.NewSession(awsConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	client := NewClientWithAPI(s3.New(sess), ClientOptions{
		Bucket:   cfg.S3BucketName,
		Region:   cfg.AWSRegion,
		Endpoint: cfg.AWSEndpoint,
		UseSSL:   useSSL,
		Prefix:   "media",
	}, log)

	client.ensureBucket()

	return client, nil
}

func NewClientWithAPI(api s3iface.S3API, opts ClientOptions, log *logger.Logger) *Client {
	if opts.Region == "" {
		opts.Region = "us-east-1"
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "media-upload",
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breakerTripAfter
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("Circuit breaker %s changed from %s to %s", name, from, to)
		},
	})

	return &Client{
		api:     api,
		opts:    opts,
		breaker: breaker,
		log:     log,
	}
}

// Upload stores the file at localPath on the media host. The local file is
// removed whether or not the upload succeeds.
func (c *Client) Upload(ctx context.Context, localPath string) UploadResult {
	if localPath == "" {
		return UploadResult{Failed: true, Err: ErrEmptyPath}
	}
	defer c.removeLocal(localPath)

	file, err := os.Open(localPath)
	if err != nil {
		return c.failed("open local file", err)
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(localPath))
	key := fmt.Sprintf("%s/%s%s", c.opts.Prefix, uuid.NewString(), ext)

	contentType, err := detectContentType(file, ext)
	if err != nil {
		return c.failed("read local file", err)
	}

	_, err = c.breaker.Execute(func() (interface{}, error) {
		return c.api.PutObjectWithContext(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(c.opts.Bucket),
			Key:         aws.String(key),
			Body:        file,
			ContentType: aws.String(contentType),
		})
	})
	if err != nil {
		return c.failed("upload file to S3", err)
	}

	return UploadResult{URL: c.objectURL(key), AssetID: key}
}

func (c *Client) Delete(ctx context.Context, assetID string) error {
	if assetID == "" {
		return nil
	}
	_, err := c.api.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(c.opts.Bucket),
		Key:    aws.String(assetID),
	})
	if err != nil {
		return fmt.Errorf("failed to delete file from S3: %w", err)
	}
	return nil
}

func (c *Client) failed(op string, err error) UploadResult {
	wrapped := fmt.Errorf("failed to %s: %w", op, err)
	c.log.Error("Media upload failed: %v", wrapped)
	return UploadResult{Failed: true, Err: wrapped}
}

func (c *Client) removeLocal(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		c.log.Warn("Failed to remove temporary file %s: %v", path, err)
	}
}

func (c *Client) objectURL(key string) string {
	if c.opts.Endpoint != "" && !strings.Contains(c.opts.Endpoint, "amazonaws.com") {
		scheme := "https"
		if !c.opts.UseSSL {
			scheme = "http"
		}
		host := strings.TrimPrefix(strings.TrimPrefix(c.opts.Endpoint, "http://"), "https://")
		return fmt.Sprintf("%s://%s/%s/%s", scheme, strings.TrimSuffix(host, "/"), c.opts.Bucket, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", c.opts.Bucket, c.opts.Region, key)
}

// ensureBucket creates the bucket when it is missing (MinIO).
func (c *Client) ensureBucket() {
	_, err := c.api.HeadBucket(&s3.HeadBucketInput{Bucket: aws.String(c.opts.Bucket)})
	if err == nil {
		return
	}
	if _, err := c.api.CreateBucket(&s3.CreateBucketInput{Bucket: aws.String(c.opts.Bucket)}); err != nil {
		c.log.Warn("Could not create bucket %s: %v", c.opts.Bucket, err)
	}
}

func detectContentType(file *os.File, ext string) (string, error) {
	if byExt := mime.TypeByExtension(ext); byExt != "" {
		return byExt, nil
	}

	head := make([]byte, 512)
	n, err := file.Read(head)
	if err != nil && err != io.EOF {
		return "", err
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return "", err
	}
	return http.DetectContentType(head[:n]), nil
}
