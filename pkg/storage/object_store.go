package storage

import (
	"context"
	"errors"
	"github.com/minio/minio-go/v7"
	"github.com/rs/zerolog"
	"net/url"
	"regexp"
	"strings"
)

var errNotHosted = errors.New("url is not hosted by the configured object store")

// awsVirtualHost matches <bucket>.s3.<region>.amazonaws.com and <bucket>.s3.amazonaws.com.
var awsVirtualHost = regexp.MustCompile(`^(.+)\.s3[.-](?:[a-z0-9-]+\.)?amazonaws\.com$`)

type ObjectStore struct {
	client   *minio.Client
	endpoint string
	cleanup  bool
}

func NewObjectStore(client *minio.Client, cleanup bool) *ObjectStore {
	return &ObjectStore{
		client:   client,
		endpoint: client.EndpointURL().Host,
		cleanup:  cleanup,
	}
}

func (s *ObjectStore) Hosts(rawURL string) bool {
	_, _, ok := s.locate(rawURL)
	return ok
}

func (s *ObjectStore) ObjectSize(ctx context.Context, rawURL string) (int64, error) {
	bucket, key, ok := s.locate(rawURL)
	if !ok {
		return 0, &FetchError{URL: rawURL, Err: errNotHosted}
	}
	info, err := s.client.StatObject(ctx, bucket, key, minio.StatObjectOptions{})
	if err != nil {
		return 0, &FetchError{URL: rawURL, StatusCode: minio.ToErrorResponse(err).StatusCode, Err: err}
	}
	return info.Size, nil
}

func (s *ObjectStore) Remove(ctx context.Context, rawURL string) error {
	if !s.cleanup {
		return nil
	}
	bucket, key, ok := s.locate(rawURL)
	if !ok {
		return nil
	}
	zerolog.Ctx(ctx).Debug().Str("bucket", bucket).Str("key", key).Msg("removing compressed result")
	return s.client.RemoveObject(ctx, bucket, key, minio.RemoveObjectOptions{})
}

// locate maps a result URL to bucket and key, accepting path-style URLs on the
// configured endpoint and virtual-hosted ones under it.
func (s *ObjectStore) locate(rawURL string) (bucket, key string, ok bool) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return "", "", false
	}
	path := strings.TrimPrefix(u.Path, "/")

	switch {
	case u.Host == s.endpoint:
		bucket, key, _ = strings.Cut(path, "/")
	case strings.HasSuffix(u.Host, "."+s.endpoint):
		bucket, key = strings.TrimSuffix(u.Host, "."+s.endpoint), path
	case strings.HasSuffix(s.endpoint, "amazonaws.com") && awsVirtualHost.MatchString(u.Host):
		bucket, key = awsVirtualHost.FindStringSubmatch(u.Host)[1], path
	default:
		return "", "", false
	}

	if bucket == "" || key == "" {
		return "", "", false
	}
	return bucket, key, true
}
