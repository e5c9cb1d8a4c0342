// Package relief talks to the disaster-relief allocation service over HTTP.
package relief

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"os"
	"strings"
	"time"

	"reliefctl/internal/config"
	"reliefctl/internal/logging"
	"reliefctl/internal/session"
)

const (
	PathRegions = "/api/disaster/regions"
	PathPredict = "/api/disaster/predict"
	PathUpload  = "/api/disaster/upload"
	PathHealth  = "/api/health"

	// UploadField is the multipart field the service reads the CSV from.
	UploadField = "file"

	maxBody = 8 << 20
)

var quoteEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

// Client implements session.Transport against one base URL.
type Client struct {
	base      string
	sampleURL string
	hc        *http.Client
	ua        string
	log       *logging.Logger
}

var _ session.Transport = (*Client)(nil)

func New(cfg *config.Config, log *logging.Logger) *Client {
	if log == nil {
		log = logging.Discard()
	}
	return &Client{
		base:      strings.TrimRight(cfg.Service.BaseURL, "/"),
		sampleURL: cfg.SampleURL(),
		hc:        newHTTPClient(cfg),
		ua:        userAgent(cfg),
		log:       log,
	}
}

func (c *Client) BaseURL() string { return c.base }

// SampleURL is the direct link to the sample events CSV.
func (c *Client) SampleURL() string { return c.sampleURL }

// ListRegions fetches the full region collection in service order.
func (c *Client) ListRegions(ctx context.Context) ([]session.Region, error) {
	body, err := c.get(ctx, PathRegions, nil)
	if err != nil {
		return nil, fmt.Errorf("list regions: %w", err)
	}
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, errors.New("list regions: response is not a JSON array")
	}
	var regions []session.Region
	if err := json.Unmarshal(trimmed, &regions); err != nil {
		return nil, fmt.Errorf("list regions: %w", err)
	}
	return regions, nil
}

// Predict asks for the needs of region. The name is query-encoded as given.
func (c *Client) Predict(ctx context.Context, region string) (json.RawMessage, error) {
	body, err := c.get(ctx, PathPredict, url.Values{"region": []string{region}})
	if err != nil {
		return nil, fmt.Errorf("predict %q: %w", region, err)
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("predict %q: response is not valid JSON", region)
	}
	return json.RawMessage(body), nil
}

// Upload sends the selected CSV. The file is opened only for the duration
// of the request.
func (c *Client) Upload(ctx context.Context, file session.SelectedFile) (session.UploadOutcome, error) {
	f, err := os.Open(file.Path)
	if err != nil {
		return session.UploadOutcome{}, fmt.Errorf("upload %s: %w", file.Name, err)
	}
	defer f.Close()
	name := file.Name
	if name == "" {
		name = "upload.csv"
	}
	return c.UploadReader(ctx, name, f)
}

// UploadReader posts r as a single-part multipart form named "file".
func (c *Client) UploadReader(ctx context.Context, name string, r io.Reader) (session.UploadOutcome, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, UploadField, quoteEscaper.Replace(name)))
	h.Set("Content-Type", "text/csv")
	part, err := mw.CreatePart(h)
	if err != nil {
		return session.UploadOutcome{}, fmt.Errorf("upload %s: %w", name, err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return session.UploadOutcome{}, fmt.Errorf("upload %s: read: %w", name, err)
	}
	if err := mw.Close(); err != nil {
		return session.UploadOutcome{}, fmt.Errorf("upload %s: %w", name, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+PathUpload, &buf)
	if err != nil {
		return session.UploadOutcome{}, fmt.Errorf("upload %s: %w", name, err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	body, err := c.do(req)
	if err != nil {
		return session.UploadOutcome{}, fmt.Errorf("upload %s: %w", name, err)
	}
	var payload struct {
		Inserted *int64 `json:"inserted"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return session.UploadOutcome{}, fmt.Errorf("upload %s: %w", name, err)
	}
	if payload.Inserted == nil {
		return session.UploadOutcome{}, fmt.Errorf("upload %s: response has no inserted count", name)
	}
	return session.UploadOutcome{Inserted: *payload.Inserted}, nil
}

// Health is the service's liveness answer.
type Health struct {
	Status string `json:"status"`
	Time   string `json:"time"`
}

func (c *Client) Health(ctx context.Context) (Health, error) {
	var h Health
	body, err := c.get(ctx, PathHealth, nil)
	if err != nil {
		return h, fmt.Errorf("health: %w", err)
	}
	if err := json.Unmarshal(body, &h); err != nil {
		return h, fmt.Errorf("health: %w", err)
	}
	return h, nil
}

func (c *Client) get(ctx context.Context, path string, q url.Values) ([]byte, error) {
	u := c.base + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	return c.do(req)
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	req.Header.Set("User-Agent", c.ua)
	start := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		c.log.Debugf("%s %s: %v", req.Method, logging.SanitizeURL(req.URL.String()), err)
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	c.log.Debugf("%s %s -> %d in %s", req.Method, logging.SanitizeURL(req.URL.String()), resp.StatusCode, time.Since(start).Round(time.Millisecond))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, newStatusError(resp.StatusCode, resp.Status, body)
	}
	return body, nil
}
