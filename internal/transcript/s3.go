package transcript

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

type S3Config struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// S3 archives exchanges as JSON objects, one per exchange, keyed by day
// and exchange id.
type S3 struct {
	client   *minio.Client
	bucket   string
	region   string
	initOnce sync.Once
	initErr  error
}

func NewS3(cfg S3Config) (*S3, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("s3 endpoint is required")
	}
	access := strings.TrimSpace(cfg.AccessKey)
	secret := strings.TrimSpace(cfg.SecretKey)
	if access == "" || secret == "" {
		return nil, fmt.Errorf("s3 access key and secret key are required")
	}
	bucket := strings.TrimSpace(cfg.Bucket)
	if bucket == "" {
		bucket = "opsgate-transcripts"
	}
	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = "us-east-1"
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(access, secret, ""),
		Secure: cfg.UseSSL,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("init s3 client: %w", err)
	}
	return &S3{client: client, bucket: bucket, region: region}, nil
}

// NewFromEnv returns an S3 archive when TRANSCRIPT_S3_ENDPOINT is set
// and reachable config-wise, otherwise the Nop archive.
func NewFromEnv(logger *zap.Logger) Archive {
	if logger == nil {
		logger = zap.NewNop()
	}
	endpoint := strings.TrimSpace(os.Getenv("TRANSCRIPT_S3_ENDPOINT"))
	if endpoint == "" {
		return Nop{}
	}
	s, err := NewS3(S3Config{
		Endpoint:  endpoint,
		Region:    os.Getenv("TRANSCRIPT_S3_REGION"),
		AccessKey: os.Getenv("TRANSCRIPT_S3_ACCESS_KEY"),
		SecretKey: os.Getenv("TRANSCRIPT_S3_SECRET_KEY"),
		Bucket:    os.Getenv("TRANSCRIPT_S3_BUCKET"),
		UseSSL:    strings.EqualFold(os.Getenv("TRANSCRIPT_S3_USE_SSL"), "true"),
	})
	if err != nil {
		logger.Warn("transcript s3 unavailable, archiving disabled", zap.Error(err))
		return Nop{}
	}
	logger.Info("transcript archive on s3", zap.String("bucket", s.bucket))
	return s
}

func (s *S3) ensureBucket(ctx context.Context) error {
	s.initOnce.Do(func() {
		exists, err := s.client.BucketExists(ctx, s.bucket)
		if err != nil {
			s.initErr = err
			return
		}
		if exists {
			return
		}
		s.initErr = s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: s.region})
	})
	return s.initErr
}

func (s *S3) Save(ctx context.Context, ex Exchange) error {
	if err := s.ensureBucket(ctx); err != nil {
		return fmt.Errorf("ensure bucket: %w", err)
	}
	body, err := json.MarshalIndent(ex, "", "  ")
	if err != nil {
		return err
	}
	key := ex.At.Format("2006/01/02") + "/" + ex.ID + ".json"
	_, err = s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(body), int64(len(body)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	return err
}
