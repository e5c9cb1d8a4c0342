package testutil

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

// MockHTTPServer serves canned responses and records what it was asked.
type MockHTTPServer struct {
	*httptest.Server

	mu        sync.Mutex
	responses map[string]MockResponse
	requests  []RecordedRequest
}

// MockResponse represents a canned HTTP response
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	// Gate, when set, is received from before the response is written.
	Gate <-chan struct{}
}

// RecordedRequest is what the server saw for one request. Upload fields are
// filled for multipart bodies carrying a "file" part.
type RecordedRequest struct {
	Method      string
	Path        string
	Query       string
	UserAgent   string
	ContentType string
	FileField   string
	FileName    string
	FileBody    string
}

// NewMockHTTPServer creates a new mock HTTP server
func NewMockHTTPServer() *MockHTTPServer {
	ms := &MockHTTPServer{responses: make(map[string]MockResponse)}
	ms.Server = httptest.NewServer(http.HandlerFunc(ms.serve))
	return ms
}

func (ms *MockHTTPServer) serve(w http.ResponseWriter, r *http.Request) {
	rec := RecordedRequest{
		Method:      r.Method,
		Path:        r.URL.Path,
		Query:       r.URL.RawQuery,
		UserAgent:   r.UserAgent(),
		ContentType: r.Header.Get("Content-Type"),
	}
	if strings.HasPrefix(rec.ContentType, "multipart/form-data") {
		if err := r.ParseMultipartForm(10 << 20); err == nil && r.MultipartForm != nil {
			for field, files := range r.MultipartForm.File {
				if len(files) == 0 {
					continue
				}
				rec.FileField = field
				rec.FileName = files[0].Filename
				if f, err := files[0].Open(); err == nil {
					b, _ := io.ReadAll(f)
					_ = f.Close()
					rec.FileBody = string(b)
				}
			}
		}
	}

	ms.mu.Lock()
	ms.requests = append(ms.requests, rec)
	resp, ok := ms.lookup(r)
	ms.mu.Unlock()

	if !ok {
		w.WriteHeader(http.StatusNotFound)
		_, _ = fmt.Fprintf(w, "No mock response configured for %s %s", r.Method, r.URL.RequestURI())
		return
	}
	if resp.Gate != nil {
		select {
		case <-resp.Gate:
		case <-r.Context().Done():
			return
		}
	}
	for k, v := range resp.Headers {
		w.Header().Set(k, v)
	}
	w.WriteHeader(resp.StatusCode)
	_, _ = fmt.Fprint(w, resp.Body)
}

// lookup tries "METHOD path?query", "path?query", then bare path.
func (ms *MockHTTPServer) lookup(r *http.Request) (MockResponse, bool) {
	key := r.URL.Path
	if r.URL.RawQuery != "" {
		key += "?" + r.URL.RawQuery
	}
	for _, k := range []string{r.Method + " " + key, key, r.Method + " " + r.URL.Path, r.URL.Path} {
		if resp, ok := ms.responses[k]; ok {
			return resp, true
		}
	}
	return MockResponse{}, false
}

// AddResponse adds a canned response for a path, optionally prefixed with a method.
func (ms *MockHTTPServer) AddResponse(path string, response MockResponse) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.responses[path] = response
}

// AddJSONResponse adds a JSON response for a specific path
func (ms *MockHTTPServer) AddJSONResponse(path string, statusCode int, body string) {
	ms.AddResponse(path, MockResponse{
		StatusCode: statusCode,
		Body:       body,
		Headers: map[string]string{
			"Content-Type": "application/json",
		},
	})
}

// Requests returns a copy of everything recorded so far.
func (ms *MockHTTPServer) Requests() []RecordedRequest {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return append([]RecordedRequest(nil), ms.requests...)
}

// CountPath returns how many requests hit path.
func (ms *MockHTTPServer) CountPath(path string) int {
	n := 0
	for _, r := range ms.Requests() {
		if r.Path == path {
			n++
		}
	}
	return n
}

// NewReliefService returns a mock seeded the way the demo backend answers.
func NewReliefService() *MockHTTPServer {
	ms := NewMockHTTPServer()
	ms.AddJSONResponse("/api/health", 200, `{"status":"ok","time":"2024-01-01T00:00:00"}`)
	ms.AddJSONResponse("/api/disaster/regions", 200,
		`[{"name":"Greenfield","population":3000},{"name":"Harborview","population":4500},{"name":"Riverside","population":6000}]`)
	ms.AddJSONResponse("/api/disaster/predict?region=Riverside", 200,
		`{"confidence":0.9,"food":1200,"medical":288,"model":"heuristic-v1","region":"Riverside","shelter":192}`)
	ms.AddJSONResponse("/api/disaster/predict?region=", 400, `{"error":"region param required"}`)
	ms.AddJSONResponse("/api/disaster/predict", 200, `{"food":250,"medical":60,"model":"heuristic-v1","shelter":40}`)
	ms.AddJSONResponse("POST /api/disaster/upload", 200, `{"inserted":2}`)
	ms.AddResponse("/sample/sample_disasters.csv", MockResponse{
		StatusCode: 200,
		Body:       "region,date,severity_score,casualties,displaced\nRiverside,2024-01-01,6.5,3,120\n",
		Headers:    map[string]string{"Content-Type": "text/csv"},
	})
	return ms
}

// TempFile creates a temporary file with content
func TempFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}

	return path
}

// EventsCSV is a two-row disaster events file in the backend's column layout.
const EventsCSV = "region,date,severity_score,casualties,displaced\n" +
	"Riverside,2024-03-01,7.5,4,300\n" +
	"Harborview,2024-03-02,3.0,0,40\n"
