package storage

import (
	"context"
	"errors"
	"fmt"
	"github.com/rs/zerolog"
	"io"
	"net/http"
)

var ErrFetch = errors.New("failed to fetch compressed result")

// FetchError reports a failed size lookup of a result URL. It always matches
// ErrFetch so it can be told apart from the upload's own failure.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

func (e *FetchError) Is(target error) bool {
	return target == ErrFetch
}

type HTTPFetcher struct {
	client *http.Client
}

func NewHTTPFetcher(client *http.Client) *HTTPFetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPFetcher{client: client}
}

// ObjectSize downloads rawURL and counts the body. Content-Length is not
// trusted since the size shown must be the materialized one.
func (f *HTTPFetcher) ObjectSize(ctx context.Context, rawURL string) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return 0, &FetchError{URL: rawURL, Err: err}
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return 0, &FetchError{URL: rawURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return 0, &FetchError{URL: rawURL, StatusCode: resp.StatusCode}
	}
	n, err := io.Copy(io.Discard, resp.Body)
	if err != nil {
		return 0, &FetchError{URL: rawURL, Err: err}
	}
	return n, nil
}

// Fetcher resolves result sizes, asking the object store directly for URLs it
// hosts and falling back to a plain download otherwise.
type Fetcher struct {
	http  *HTTPFetcher
	store *ObjectStore
}

func NewFetcher(httpClient *http.Client, store *ObjectStore) *Fetcher {
	return &Fetcher{http: NewHTTPFetcher(httpClient), store: store}
}

func (f *Fetcher) ResultSize(ctx context.Context, rawURL string) (int64, error) {
	if f.store != nil && f.store.Hosts(rawURL) {
		return f.store.ObjectSize(ctx, rawURL)
	}
	return f.http.ObjectSize(ctx, rawURL)
}

// Discard drops a result the session no longer shows. It is a no-op unless
// cleanup is enabled on the object store and the URL lives there.
func (f *Fetcher) Discard(ctx context.Context, rawURL string) error {
	if f.store == nil || !f.store.Hosts(rawURL) {
		return nil
	}
	if err := f.store.Remove(ctx, rawURL); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("url", rawURL).Msg("failed to remove compressed result")
		return err
	}
	return nil
}
