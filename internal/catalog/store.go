package catalog

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"

	"github.com/ZebulonRouseFrantzich/kaleido/internal/logging"
)

const (
	// DefaultURL is where the system catalog is published.
	DefaultURL = "https://raw.githubusercontent.com/jinyuli/sys-kaleido/master/kaleido.toml"

	// DefaultMaxAge is how old the system catalog may get before a refresh is offered.
	DefaultMaxAge = 7 * 24 * time.Hour
)

// Downloader fetches a URL into a file.
type Downloader interface {
	Download(ctx context.Context, url, destPath string) error
}

// Store keeps the system catalog file in dir up to date.
type Store struct {
	dir        string
	url        string
	maxAge     time.Duration
	downloader Downloader
	confirm    func(prompt string) bool
	clock      Clock
	logger     *log.Logger
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithURL overrides the catalog URL.
func WithURL(url string) StoreOption {
	return func(s *Store) {
		if url != "" {
			s.url = url
		}
	}
}

// WithMaxAge overrides the refresh age.
func WithMaxAge(d time.Duration) StoreOption {
	return func(s *Store) {
		if d > 0 {
			s.maxAge = d
		}
	}
}

// WithConfirm sets the function asking whether to refresh a stale catalog.
// Without it stale catalogs are kept.
func WithConfirm(f func(prompt string) bool) StoreOption {
	return func(s *Store) {
		s.confirm = f
	}
}

// WithClock sets the clock used for the age check.
func WithClock(c Clock) StoreOption {
	return func(s *Store) {
		s.clock = c
	}
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) StoreOption {
	return func(s *Store) {
		s.logger = l
	}
}

// NewStore creates a store for the catalog files in dir.
func NewStore(dir string, d Downloader, opts ...StoreOption) *Store {
	s := &Store{
		dir:        dir,
		url:        DefaultURL,
		maxAge:     DefaultMaxAge,
		downloader: d,
		confirm:    func(string) bool { return false },
		clock:      RealClock{},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = logging.Or(s.logger)
	return s
}

// Path returns the system catalog path.
func (s *Store) Path() string {
	return filepath.Join(s.dir, SystemFile)
}

// Ensure downloads the system catalog if it is missing and offers a refresh
// when it is older than the max age. A failed age check is logged and the
// existing file is kept.
func (s *Store) Ensure(ctx context.Context) error {
	info, err := os.Stat(s.Path())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.logger.Debug("catalog missing, downloading", "url", s.url)
			return s.Update(ctx)
		}
		s.logger.Error("failed to stat catalog", "path", s.Path(), "error", err)
		return nil
	}

	if info.IsDir() {
		return fmt.Errorf("catalog path %s is a directory", s.Path())
	}

	age := s.clock.Now().Sub(info.ModTime())
	if age <= s.maxAge {
		return nil
	}

	days := int(s.maxAge.Hours() / 24)
	prompt := fmt.Sprintf("It's been over %d days since you updated the catalog, would you like to update it now?", days)
	if !s.confirm(prompt) {
		return nil
	}
	return s.Update(ctx)
}

// Update downloads the system catalog next to the current one and renames it
// into place. A download that does not parse is discarded.
func (s *Store) Update(ctx context.Context) error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("create catalog dir: %w", err)
	}

	tmp := s.Path() + ".tmp"
	defer os.Remove(tmp)

	if err := s.downloader.Download(ctx, s.url, tmp); err != nil {
		return fmt.Errorf("download catalog: %w", err)
	}

	data, err := os.ReadFile(tmp)
	if err != nil {
		return fmt.Errorf("read downloaded catalog: %w", err)
	}
	if _, err := Parse(data); err != nil {
		return fmt.Errorf("downloaded catalog is invalid: %w", err)
	}

	if err := os.Rename(tmp, s.Path()); err != nil {
		return fmt.Errorf("replace catalog: %w", err)
	}
	s.logger.Info("catalog updated", "path", s.Path())
	return nil
}
