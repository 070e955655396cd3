package source

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"studycal/internal/log"
)

// Endpoint identifies one remote URL to fetch, with a stable ID for
// cache keying and logging.
type Endpoint struct {
	ID  string
	URL string
}

// FetchResult contains the outcome of fetching a single endpoint.
type FetchResult struct {
	Endpoint  Endpoint
	Body      []byte
	FromCache bool // true if the cached body was reused (304 or network failure)
}

// cacheEntry holds HTTP cache metadata for a single URL.
type cacheEntry struct {
	URL          string    `json:"url"`
	ETag         string    `json:"etag,omitempty"`
	LastModified string    `json:"last_modified,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Fetcher performs HTTP GETs with conditional-request caching
// (ETag / Last-Modified) backed by a disk cache. It is shared by the
// REST and ICS source adapters; both kinds of feed change rarely enough
// that a 304 is the common case.
type Fetcher struct {
	client   *http.Client
	cacheDir string
}

// NewFetcher creates a Fetcher whose cache lives under cacheDir.
func NewFetcher(cacheDir string) *Fetcher {
	if cacheDir == "" {
		// Caller should set this explicitly; fall back to a relative dir
		// so development runs without extra permissions.
		cacheDir = "./var/source-cache"
	}
	return &Fetcher{
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
		cacheDir: cacheDir,
	}
}

// Fetch retrieves one endpoint, honoring ETag and Last-Modified from the
// previous fetch. On network failure or a non-OK status the cached body,
// if any, is served stale rather than failing the refresh.
func (f *Fetcher) Fetch(ctx context.Context, ep Endpoint) (FetchResult, error) {
	if ep.URL == "" {
		return FetchResult{}, errors.New("endpoint URL is empty")
	}

	cachePath := f.cachePathForURL(ep.URL)
	if err := os.MkdirAll(cachePath, 0o700); err != nil {
		return FetchResult{}, err
	}

	meta, _ := loadCacheMeta(cachePath)
	cachedBody, _ := os.ReadFile(filepath.Join(cachePath, "body.dat"))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ep.URL, nil)
	if err != nil {
		return FetchResult{}, err
	}

	if meta.ETag != "" {
		req.Header.Set("If-None-Match", meta.ETag)
	}
	if meta.LastModified != "" {
		req.Header.Set("If-Modified-Since", meta.LastModified)
	}

	log.Debug("source fetch start", "id", ep.ID, "url", redactURL(ep.URL))

	resp, err := f.client.Do(req)
	if err != nil {
		if len(cachedBody) > 0 {
			log.Error("source fetch network error, using cached body", err, "id", ep.ID, "url", redactURL(ep.URL))
			return FetchResult{Endpoint: ep, Body: cachedBody, FromCache: true}, nil
		}
		return FetchResult{}, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		body, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return FetchResult{}, readErr
		}

		newMeta := cacheEntry{
			URL:          ep.URL,
			ETag:         resp.Header.Get("ETag"),
			LastModified: resp.Header.Get("Last-Modified"),
			UpdatedAt:    time.Now().UTC(),
		}
		if err := saveCache(cachePath, newMeta, body); err != nil {
			// Log but still return the freshly fetched body.
			log.Error("source cache save failed", err, "id", ep.ID, "url", redactURL(ep.URL))
		}

		log.Info("source fetch success", "id", ep.ID, "url", redactURL(ep.URL), "bytes", len(body))
		return FetchResult{Endpoint: ep, Body: body, FromCache: false}, nil

	case http.StatusNotModified:
		if len(cachedBody) == 0 {
			return FetchResult{}, errors.New("received 304 Not Modified but no cached body available")
		}
		log.Debug("source fetch not modified; using cache", "id", ep.ID, "url", redactURL(ep.URL))
		return FetchResult{Endpoint: ep, Body: cachedBody, FromCache: true}, nil

	default:
		if len(cachedBody) > 0 {
			log.Error("source fetch non-OK, using cached body", errors.New(resp.Status), "id", ep.ID, "url", redactURL(ep.URL), "status", resp.StatusCode)
			return FetchResult{Endpoint: ep, Body: cachedBody, FromCache: true}, nil
		}
		return FetchResult{}, errors.New(resp.Status)
	}
}

func (f *Fetcher) cachePathForURL(url string) string {
	sum := sha256.Sum256([]byte(url))
	// First 16 hex chars are plenty to avoid collisions between feeds.
	return filepath.Join(f.cacheDir, hex.EncodeToString(sum[:8]))
}

func loadCacheMeta(cachePath string) (cacheEntry, error) {
	var meta cacheEntry
	data, err := os.ReadFile(filepath.Join(cachePath, "meta.json"))
	if err != nil {
		return meta, err
	}
	if err := json.Unmarshal(data, &meta); err != nil {
		return cacheEntry{}, err
	}
	return meta, nil
}

func saveCache(cachePath string, meta cacheEntry, body []byte) error {
	// Write body first so meta never points at a missing body.
	if err := os.WriteFile(filepath.Join(cachePath, "body.dat"), body, 0o600); err != nil {
		return err
	}

	data, err := json.MarshalIndent(&meta, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(cachePath, "meta.json"), data, 0o600)
}

// redactURL hides sensitive parts of a source URL for logging. Feed URLs
// routinely embed access tokens in the path or query string.
func redactURL(u string) string {
	const redactedSuffix = "/...(redacted)"

	i := -1
	for idx := 0; idx+2 < len(u); idx++ {
		if u[idx:idx+3] == "://" {
			i = idx + 3
			break
		}
	}
	if i == -1 {
		return "source://...(redacted)"
	}

	j := i
	for j < len(u) && u[j] != '/' {
		j++
	}
	return u[:j] + redactedSuffix
}
