package journal

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/ruteri/encrypted-ticket-registry/interfaces"
)

// Factory creates event sinks from location URIs.
type Factory struct {
	log *slog.Logger
}

// NewFactory creates a sink factory.
func NewFactory(log *slog.Logger) *Factory {
	return &Factory{log: log}
}

// SinkFor creates an event sink from a location URI.
//
// Supported schemes:
//   - file:///path/to/journal.jsonl - local JSON-lines file
//   - s3://[KEY:SECRET@]bucket/prefix?region=us-east-1&endpoint=... - S3 bucket
//
// Returns an error if the URI is invalid or the scheme is unsupported.
func (f *Factory) SinkFor(locationURI string) (interfaces.EventSink, error) {
	u, err := url.Parse(locationURI)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", interfaces.ErrInvalidLocationURI, err)
	}

	switch strings.ToLower(u.Scheme) {
	case "file":
		return f.createFileSink(u)
	case "s3":
		return f.createS3Sink(u)
	default:
		return nil, fmt.Errorf("%w: unsupported sink scheme %s", interfaces.ErrInvalidLocationURI, u.Scheme)
	}
}

// CreateMultiSink creates a fan-out sink from a list of location URIs,
// skipping URIs that fail to construct. Returns an error if no valid sink
// could be created.
func (f *Factory) CreateMultiSink(locationURIs []string) (interfaces.EventSink, error) {
	sinks := make([]interfaces.EventSink, 0, len(locationURIs))

	for _, uri := range locationURIs {
		sink, err := f.SinkFor(uri)
		if err != nil {
			f.log.Warn("Failed to create event sink",
				"err", err,
				slog.String("locationURI", uri))
			continue
		}
		sinks = append(sinks, sink)
	}

	if len(sinks) == 0 {
		return nil, fmt.Errorf("no valid event sinks created")
	}

	return NewMultiSink(sinks, f.log), nil
}

func (f *Factory) createFileSink(u *url.URL) (interfaces.EventSink, error) {
	path := u.Path
	if u.Host != "" {
		path = u.Host + "/" + strings.TrimPrefix(path, "/")
	}
	if path == "" {
		return nil, fmt.Errorf("%w: empty path in file URI %s", interfaces.ErrInvalidLocationURI, u.String())
	}

	return NewFileSink(path, f.log)
}

func (f *Factory) createS3Sink(u *url.URL) (interfaces.EventSink, error) {
	bucketName := u.Host
	if bucketName == "" {
		return nil, fmt.Errorf("%w: empty bucket in S3 URI %s", interfaces.ErrInvalidLocationURI, u.String())
	}

	prefix := strings.TrimPrefix(u.Path, "/")

	query := u.Query()
	region := query.Get("region")
	if region == "" {
		region = "us-east-1"
	}
	endpoint := query.Get("endpoint")

	var accessKey, secretKey string
	if u.User != nil {
		accessKey = u.User.Username()
		secretKey, _ = u.User.Password()
	}

	return NewS3Sink(bucketName, prefix, region, endpoint, accessKey, secretKey, f.log)
}
