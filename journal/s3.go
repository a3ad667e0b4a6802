package journal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/google/uuid"

	"github.com/ruteri/encrypted-ticket-registry/interfaces"
)

// S3Sink writes one JSON object per event to an S3 (or compatible) bucket.
type S3Sink struct {
	client      *s3.S3
	bucketName  string
	prefix      string
	log         *slog.Logger
	locationURI string
}

// NewS3Sink creates an S3 sink. If accessKey and secretKey are empty the
// default credential chain is used, which may still work inside AWS.
func NewS3Sink(bucketName, prefix, region, endpoint, accessKey, secretKey string, log *slog.Logger) (*S3Sink, error) {
	uri := fmt.Sprintf("s3://%s/%s?region=%s", bucketName, prefix, region)
	if endpoint != "" {
		uri += fmt.Sprintf("&endpoint=%s", endpoint)
	}

	cfg := aws.Config{
		Region: aws.String(region),
	}
	if endpoint != "" {
		cfg.Endpoint = aws.String(endpoint)
	}
	if accessKey != "" && secretKey != "" {
		cfg.Credentials = credentials.NewStaticCredentials(accessKey, secretKey, "")
	}

	sess, err := session.NewSession(&cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	return &S3Sink{
		client:      s3.New(sess),
		bucketName:  bucketName,
		prefix:      strings.TrimSuffix(prefix, "/"),
		log:         log,
		locationURI: uri,
	}, nil
}

// Record uploads one event as a JSON object. The key embeds the event time
// and kind so the bucket listing reads as a chronological journal.
func (s *S3Sink) Record(ctx context.Context, event interfaces.Event) error {
	start := time.Now()

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	key := s.objectKey(event)
	_, err = s.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		s.log.Error("Failed to upload event to S3",
			slog.String("bucket", s.bucketName),
			slog.String("key", key),
			"err", err,
			slog.Duration("duration", time.Since(start)))
		return fmt.Errorf("failed to upload event to S3: %w", err)
	}

	s.log.Debug("Recorded event to S3",
		slog.String("bucket", s.bucketName),
		slog.String("key", key),
		slog.Duration("duration", time.Since(start)))

	return nil
}

// Available checks if the bucket is accessible.
func (s *S3Sink) Available(ctx context.Context) bool {
	start := time.Now()

	_, err := s.client.HeadBucketWithContext(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(s.bucketName),
	})
	if err != nil {
		s.log.Warn("S3 sink unavailable",
			slog.String("bucket", s.bucketName),
			"err", err,
			slog.Duration("duration", time.Since(start)))
		return false
	}

	return true
}

// Name returns a unique identifier for this sink.
func (s *S3Sink) Name() string {
	return fmt.Sprintf("s3-%s", s.bucketName)
}

// LocationURI returns the URI that identifies this sink.
func (s *S3Sink) LocationURI() string {
	return s.locationURI
}

func (s *S3Sink) objectKey(event interfaces.Event) string {
	name := fmt.Sprintf("%s-%s-%s.json",
		event.Time.UTC().Format("2006-01-02T15:04:05.000Z"),
		event.Kind,
		uuid.New().String())

	if s.prefix == "" {
		return name
	}
	return path.Join(s.prefix, name)
}
