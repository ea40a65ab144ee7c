// Package transfer streams remote files to disk while reporting progress.
//
// A download runs as a producer goroutine that reads the response body,
// writes each chunk to the destination file and emits events onto a channel.
// The calling goroutine consumes the events, drives a Reporter, and returns
// once it sees a Complete or Error event. Downloads are not resumed; a retry
// starts from byte zero.
package transfer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"

	"github.com/ZebulonRouseFrantzich/kaleido/internal/logging"
)

const (
	// DefaultTimeout bounds a whole request, body included.
	DefaultTimeout = 30 * time.Minute
	// DefaultUserAgent is the User-Agent header sent with requests.
	DefaultUserAgent = "kaleido"
	// chunkSize is the read buffer for the producer loop.
	chunkSize = 32 * 1024
	// queueSize is the event channel capacity.
	queueSize = 64
)

var (
	// ErrTransport wraps network failures.
	ErrTransport = errors.New("transport error")

	// ErrUnexpectedStatus is returned for any non-200 response.
	ErrUnexpectedStatus = errors.New("unexpected status code")
)

// EventKind identifies a transfer event.
type EventKind int

const (
	EventStart EventKind = iota
	EventProgress
	EventComplete
	EventError
)

// Event is emitted by the producer. Total is the content length on Start, or
// -1 if unknown. Delta is the number of bytes written on Progress.
type Event struct {
	Kind  EventKind
	Total int64
	Delta int64
	Err   error
}

// Manager performs downloads.
type Manager struct {
	client    *http.Client
	userAgent string
	reporter  ReporterFunc
	logger    *log.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(m *Manager) {
		m.client = c
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(m *Manager) {
		m.userAgent = ua
	}
}

// WithReporter sets the factory creating one Reporter per download.
func WithReporter(f ReporterFunc) Option {
	return func(m *Manager) {
		m.reporter = f
	}
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(m *Manager) {
		m.logger = l
	}
}

// NewManager creates a transfer manager. Without WithReporter, progress is
// not displayed.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		client: &http.Client{
			Timeout: DefaultTimeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return fmt.Errorf("too many redirects")
				}
				return nil
			},
		},
		userAgent: DefaultUserAgent,
		reporter:  Quiet,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = logging.Or(m.logger)
	return m
}

// Download streams url into destPath and returns once the transfer has
// completed or failed. A partially written file is left in place on failure.
func (m *Manager) Download(ctx context.Context, url, destPath string) error {
	m.logger.Debug("downloading", "url", url, "dest", destPath)

	events := make(chan Event, queueSize)
	go m.produce(ctx, url, destPath, events)

	reporter := m.reporter(filepath.Base(destPath))
	for ev := range events {
		switch ev.Kind {
		case EventStart:
			reporter.Start(ev.Total)
		case EventProgress:
			reporter.Advance(ev.Delta)
		case EventComplete:
			reporter.Finish()
			m.logger.Debug("downloaded", "url", url, "dest", destPath)
			return nil
		case EventError:
			reporter.Fail(ev.Err)
			return ev.Err
		}
	}
	return fmt.Errorf("download %s: %w: stream ended without completion", url, ErrTransport)
}

// produce is the network read loop. It owns events and closes it on return.
func (m *Manager) produce(ctx context.Context, url, destPath string, events chan<- Event) {
	defer close(events)

	fail := func(err error) {
		events <- Event{Kind: EventError, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		fail(fmt.Errorf("create request: %w", err))
		return
	}
	req.Header.Set("User-Agent", m.userAgent)

	resp, err := m.client.Do(req)
	if err != nil {
		fail(fmt.Errorf("get %s: %w: %w", url, ErrTransport, err))
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		fail(fmt.Errorf("get %s: %w: %d", url, ErrUnexpectedStatus, resp.StatusCode))
		return
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		fail(fmt.Errorf("create dest dir: %w", err))
		return
	}

	out, err := os.Create(destPath)
	if err != nil {
		fail(fmt.Errorf("create file: %w", err))
		return
	}
	defer out.Close()

	total := resp.ContentLength
	if total < 0 {
		total = -1
	}
	events <- Event{Kind: EventStart, Total: total}

	buf := make([]byte, chunkSize)
	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			if _, err := out.Write(buf[:n]); err != nil {
				fail(fmt.Errorf("write file: %w", err))
				return
			}
			events <- Event{Kind: EventProgress, Delta: int64(n)}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			fail(fmt.Errorf("read %s: %w: %w", url, ErrTransport, readErr))
			return
		}
	}

	if err := out.Close(); err != nil {
		fail(fmt.Errorf("close file: %w", err))
		return
	}
	events <- Event{Kind: EventComplete}
}
