// Package catalog loads the declarative package catalog.
//
// The catalog is made of a system file (kaleido.toml), refreshed from a
// remote URL, and an optional user file (custom.toml) in the same format.
// Their package and bindle lists are concatenated with user entries last.
// Nothing is de-duplicated: lookups return the first match in scan order, so a
// user entry cannot shadow a system entry of the same name.
package catalog

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

const (
	// SystemFile is the catalog maintained upstream.
	SystemFile = "kaleido.toml"
	// CustomFile is the optional user catalog.
	CustomFile = "custom.toml"

	// LanguageRust is the only ecosystem that can be installed.
	LanguageRust = "rust"
)

var (
	// ErrPackageNotFound is returned when a package is not in the catalog.
	ErrPackageNotFound = errors.New("package not found")
	// ErrBindleNotFound is returned when a bindle is not in the catalog.
	ErrBindleNotFound = errors.New("bindle not found")
	// ErrNoCatalog is returned when the system catalog file is missing.
	ErrNoCatalog = errors.New("catalog file not found")
)

// GitHub holds the repository coordinates of a package.
type GitHub struct {
	Org  string `toml:"org"`
	Repo string `toml:"repo"`
}

// Package is one catalog entry.
type Package struct {
	Name             string  `toml:"name"`
	URL              string  `toml:"url"`
	Description      string  `toml:"description,omitempty"`
	Version          string  `toml:"version,omitempty"`
	Replace          string  `toml:"replace,omitempty"`
	Language         string  `toml:"language,omitempty"`
	BinName          string  `toml:"bin_name"`
	BinPath          string  `toml:"bin_path,omitempty"`
	RemoteFilePrefix string  `toml:"remote_file_prefix,omitempty"`
	GitHub           *GitHub `toml:"github,omitempty"`
}

// Installable reports whether the package's ecosystem is supported.
func (p *Package) Installable() bool {
	return strings.EqualFold(p.Language, LanguageRust)
}

// BindleMember is one package of a bindle, optionally published under an alias.
type BindleMember struct {
	Name  string `toml:"name"`
	Alias string `toml:"alias,omitempty"`
}

// Bindle is a named group of packages.
type Bindle struct {
	Name     string         `toml:"name"`
	Packages []BindleMember `toml:"packages"`
}

// Catalog is the merged catalog.
type Catalog struct {
	Packages []Package `toml:"packages"`
	Bindles  []Bindle  `toml:"bindles"`
}

// Request asks for one package to be installed.
type Request struct {
	Name    string
	Version string // empty: latest
	Alias   string // empty: no alias
}

// Parse decodes a catalog file. Unknown keys are ignored so an older binary
// can read a newer upstream catalog.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := toml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Catalog) validate() error {
	for i, p := range c.Packages {
		if p.Name == "" {
			return fmt.Errorf("package #%d: missing name", i+1)
		}
		if p.BinName == "" {
			return fmt.Errorf("package %s: missing bin_name", p.Name)
		}
	}
	for i, b := range c.Bindles {
		if b.Name == "" {
			return fmt.Errorf("bindle #%d: missing name", i+1)
		}
	}
	return nil
}

// Load reads the system catalog in dir and appends the user catalog if present.
func Load(dir string) (*Catalog, error) {
	sys, err := loadFile(filepath.Join(dir, SystemFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNoCatalog, filepath.Join(dir, SystemFile))
		}
		return nil, err
	}

	custom, err := loadFile(filepath.Join(dir, CustomFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return sys, nil
		}
		return nil, err
	}

	return Merge(sys, custom), nil
}

func loadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return c, nil
}

// Merge concatenates catalogs in order.
func Merge(catalogs ...*Catalog) *Catalog {
	merged := &Catalog{}
	for _, c := range catalogs {
		merged.Packages = append(merged.Packages, c.Packages...)
		merged.Bindles = append(merged.Bindles, c.Bindles...)
	}
	return merged
}

// Package returns the first package named name.
func (c *Catalog) Package(name string) (*Package, error) {
	for i := range c.Packages {
		if c.Packages[i].Name == name {
			return &c.Packages[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrPackageNotFound, name)
}

// Bindle returns the first bindle named name.
func (c *Catalog) Bindle(name string) (*Bindle, error) {
	for i := range c.Bindles {
		if c.Bindles[i].Name == name {
			return &c.Bindles[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrBindleNotFound, name)
}

// Expand turns a bindle into install requests at the latest version. Members
// missing from the catalog are returned separately and are not an error.
func (c *Catalog) Expand(name string) (requests []Request, missing []string, err error) {
	b, err := c.Bindle(name)
	if err != nil {
		return nil, nil, err
	}

	for _, m := range b.Packages {
		if _, err := c.Package(m.Name); err != nil {
			missing = append(missing, m.Name)
			continue
		}
		requests = append(requests, Request{Name: m.Name, Alias: m.Alias})
	}
	return requests, missing, nil
}

// Search returns packages whose name or replace field contains keyword.
func (c *Catalog) Search(keyword string) []Package {
	var found []Package
	for _, p := range c.Packages {
		if strings.Contains(p.Name, keyword) || (p.Replace != "" && strings.Contains(p.Replace, keyword)) {
			found = append(found, p)
		}
	}
	return found
}

// Requests builds install requests for names. Version and alias apply only
// when exactly one name is given; otherwise every name installs at latest
// with no alias.
func Requests(names []string, version, alias string) []Request {
	if len(names) == 1 {
		return []Request{{Name: names[0], Version: version, Alias: alias}}
	}
	requests := make([]Request, 0, len(names))
	for _, n := range names {
		requests = append(requests, Request{Name: n})
	}
	return requests
}
