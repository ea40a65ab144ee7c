package transfer

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

// recorder records reporter calls.
type recorder struct {
	mu       sync.Mutex
	name     string
	total    int64
	advanced int64
	finished bool
	failed   error
}

func (r *recorder) Start(total int64) { r.mu.Lock(); r.total = total; r.mu.Unlock() }
func (r *recorder) Advance(n int64)   { r.mu.Lock(); r.advanced += n; r.mu.Unlock() }
func (r *recorder) Finish()           { r.mu.Lock(); r.finished = true; r.mu.Unlock() }
func (r *recorder) Fail(err error)    { r.mu.Lock(); r.failed = err; r.mu.Unlock() }

func recordTo(rec *recorder) ReporterFunc {
	return func(name string) Reporter {
		rec.name = name
		return rec
	}
}

func TestDownload(t *testing.T) {
	payload := bytes.Repeat([]byte("kaleido"), 20000)

	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		_, _ = w.Write(payload)
	}))
	defer srv.Close()

	rec := &recorder{}
	m := NewManager(WithReporter(recordTo(rec)), WithUserAgent("kaleido-test"))

	dest := filepath.Join(t.TempDir(), "sub", "tool.tar.gz")
	if err := m.Download(context.Background(), srv.URL+"/tool.tar.gz", dest); err != nil {
		t.Fatalf("Download() error = %v", err)
	}

	got, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("read dest: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Errorf("downloaded %d bytes, want %d", len(got), len(payload))
	}

	if gotUA != "kaleido-test" {
		t.Errorf("User-Agent = %q", gotUA)
	}
	if rec.name != "tool.tar.gz" {
		t.Errorf("reporter name = %q", rec.name)
	}
	if rec.total != int64(len(payload)) {
		t.Errorf("reported total = %d, want %d", rec.total, len(payload))
	}
	if rec.advanced != int64(len(payload)) {
		t.Errorf("reported progress = %d, want %d", rec.advanced, len(payload))
	}
	if !rec.finished || rec.failed != nil {
		t.Errorf("reporter finished = %v, failed = %v", rec.finished, rec.failed)
	}
}

func TestDownload_UnknownLength(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		flusher := w.(http.Flusher)
		for i := 0; i < 3; i++ {
			_, _ = w.Write([]byte(strings.Repeat("x", 1024)))
			flusher.Flush()
		}
	}))
	defer srv.Close()

	rec := &recorder{}
	dest := filepath.Join(t.TempDir(), "tool")
	if err := NewManager(WithReporter(recordTo(rec))).Download(context.Background(), srv.URL, dest); err != nil {
		t.Fatalf("Download() error = %v", err)
	}
	if rec.total != -1 {
		t.Errorf("reported total = %d, want -1 for chunked response", rec.total)
	}
	if rec.advanced != 3*1024 {
		t.Errorf("reported progress = %d", rec.advanced)
	}
}

func TestDownload_UnexpectedStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	rec := &recorder{}
	dest := filepath.Join(t.TempDir(), "tool")
	err := NewManager(WithReporter(recordTo(rec))).Download(context.Background(), srv.URL, dest)
	if !errors.Is(err, ErrUnexpectedStatus) {
		t.Fatalf("Download() error = %v, want ErrUnexpectedStatus", err)
	}
	if rec.failed == nil {
		t.Error("reporter not told about failure")
	}
	if _, err := os.Stat(dest); !os.IsNotExist(err) {
		t.Error("destination created for failed request")
	}
}

func TestDownload_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	err := NewManager().Download(context.Background(), url, filepath.Join(t.TempDir(), "tool"))
	if !errors.Is(err, ErrTransport) {
		t.Fatalf("Download() error = %v, want ErrTransport", err)
	}
}

func TestProgressBarReporter(t *testing.T) {
	var out bytes.Buffer
	r := ProgressBar(&out)("tool.zip")
	r.Start(100)
	r.Advance(40)
	r.Advance(60)
	r.Finish()

	if !strings.Contains(out.String(), "tool.zip") {
		t.Errorf("progress output missing description: %q", out.String())
	}
}
