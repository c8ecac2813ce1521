package googlebooks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// DefaultBaseURL is the public volumes endpoint.
const DefaultBaseURL = "https://www.googleapis.com/books/v1/volumes"

// ErrUnexpectedStatus is wrapped by the decode error of a non-200 response
// whose body is not JSON. A JSON error body is returned as a response.
var ErrUnexpectedStatus = errors.New("unexpected status code")

// Client queries the Google Books volumes endpoint.
type Client struct {
	httpClient *http.Client
	userAgent  string
	baseURL    string
	apiKey     string
}

// NewClient builds a volumes API client. A zero timeout means requests are
// bounded only by the caller's context.
func NewClient(baseURL, apiKey, userAgent string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		userAgent: userAgent,
		baseURL:   baseURL,
		apiKey:    apiKey,
	}
}

// VolumesResponse matches GET /books/v1/volumes. Items is nil when the API
// omits the key. StatusCode is the HTTP status the body arrived with; an
// error body such as a 403 or 429 decodes with Error set and no items.
type VolumesResponse struct {
	Kind       string    `json:"kind"`
	TotalItems int       `json:"totalItems"`
	Items      []Volume  `json:"items"`
	Error      *APIError `json:"error,omitempty"`
	StatusCode int       `json:"-"`
}

// APIError is the error object Google returns for rejected requests.
type APIError struct {
	// Code mirrors the HTTP status, e.g. 403 or 429.
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Volume is one search result.
type Volume struct {
	ID         string     `json:"id"`
	VolumeInfo VolumeInfo `json:"volumeInfo"`
}

// VolumeInfo holds the fields the sampler reads. Missing or mistyped fields
// decode as zero values.
type VolumeInfo struct {
	Title         string      `json:"title"`
	Authors       []string    `json:"authors"`
	Description   string      `json:"description"`
	ImageLinks    *ImageLinks `json:"imageLinks"`
	Categories    []string    `json:"categories"`
	PublishedDate string      `json:"publishedDate"`
}

// ImageLinks are cover image URLs.
type ImageLinks struct {
	SmallThumbnail string `json:"smallThumbnail"`
	Thumbnail      string `json:"thumbnail"`
}

// SearchParams selects one page of a subject search.
type SearchParams struct {
	Subject    string
	StartIndex int
	MaxResults int
}

func (p SearchParams) values(apiKey string) url.Values {
	v := url.Values{}
	v.Set("q", "subject:"+p.Subject)
	v.Set("printType", "books")
	v.Set("langRestrict", "en")
	v.Set("startIndex", strconv.Itoa(p.StartIndex))
	v.Set("maxResults", strconv.Itoa(p.MaxResults))
	v.Set("key", apiKey)
	return v
}

// SearchVolumes fetches one page of English-language books for a subject.
// The body is decoded whatever the status; only transport failures and
// bodies that are not JSON are errors.
func (c *Client) SearchVolumes(ctx context.Context, p SearchParams) (*VolumesResponse, error) {
	u := c.baseURL + "?" + p.values(c.apiKey).Encode()

	var res VolumesResponse
	status, err := c.get(ctx, u, &res)
	if err != nil {
		return nil, err
	}
	res.StatusCode = status
	return &res, nil
}

func (c *Client) get(ctx context.Context, url string, target interface{}) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, fmt.Errorf("read response: %w", err)
	}

	if err := json.Unmarshal(body, target); err != nil {
		if resp.StatusCode != http.StatusOK {
			return resp.StatusCode, fmt.Errorf("%w %d: decode response: %w: %s", ErrUnexpectedStatus, resp.StatusCode, err, snippet(body))
		}
		return resp.StatusCode, fmt.Errorf("decode response: %w", err)
	}
	return resp.StatusCode, nil
}

func snippet(b []byte) string {
	const max = 512
	if len(b) > max {
		b = b[:max]
	}
	return string(b)
}
