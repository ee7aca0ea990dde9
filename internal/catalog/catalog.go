// Package catalog holds the read-only ship catalog. Owned ships reference
// catalog entries by display name.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var seedCatalog []byte

// DefaultPerPage is the catalog page size
const DefaultPerPage = 8

// Ship is one ship type offered by the catalog
type Ship struct {
	Name      string  `yaml:"name" json:"name"`
	Brand     string  `yaml:"brand" json:"brand"`
	Role      string  `yaml:"role" json:"role"`
	PriceUSD  float64 `yaml:"price_usd" json:"priceUsd"`
	PriceAUEC float64 `yaml:"price_auec" json:"priceAuec"`
	Image     string  `yaml:"image" json:"image"`
	CrewMax   int     `yaml:"crew_max" json:"crewMax"`
	Ingame    bool    `yaml:"ingame" json:"ingame"`
}

// Price returns the price matching the acquisition source
func (s Ship) Price(source string) float64 {
	if source == "INGAME" {
		return s.PriceAUEC
	}
	return s.PriceUSD
}

type catalogFile struct {
	HighValueUSD float64  `yaml:"high_value_usd"`
	Flagships    []string `yaml:"flagships"`
	Ships        []Ship   `yaml:"ships"`
}

// Catalog is immutable once loaded and safe for concurrent use.
type Catalog struct {
	ships        map[string]Ship
	names        []string
	flagships    map[string]bool
	highValueUSD float64
}

// Load reads a YAML catalog from path, or the embedded seed catalog when path is empty
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Parse(seedCatalog)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: read %s: %w", path, err)
	}
	cat, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("catalog: %s: %w", path, err)
	}
	return cat, nil
}

// Parse builds a catalog from YAML
func Parse(data []byte) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if len(f.Ships) == 0 {
		return nil, errors.New("catalog has no ships")
	}

	c := &Catalog{
		ships:        make(map[string]Ship, len(f.Ships)),
		flagships:    make(map[string]bool, len(f.Flagships)),
		highValueUSD: f.HighValueUSD,
	}
	for _, s := range f.Ships {
		s.Name = strings.TrimSpace(s.Name)
		if s.Name == "" {
			return nil, errors.New("ship without a name")
		}
		if _, dup := c.ships[s.Name]; dup {
			return nil, fmt.Errorf("duplicate ship %q", s.Name)
		}
		if s.CrewMax < 1 {
			s.CrewMax = 1
		}
		c.ships[s.Name] = s
		c.names = append(c.names, s.Name)
	}
	sort.Strings(c.names)
	for _, name := range f.Flagships {
		c.flagships[name] = true
	}
	return c, nil
}

// Lookup returns the catalog entry for a display name
func (c *Catalog) Lookup(name string) (Ship, bool) {
	s, ok := c.ships[name]
	return s, ok
}

// Names returns every ship name, sorted.
func (c *Catalog) Names() []string {
	return append([]string(nil), c.names...)
}

// Len returns the number of ships
func (c *Catalog) Len() int { return len(c.names) }

// Brands returns the distinct non-empty brands, sorted.
func (c *Catalog) Brands() []string {
	return c.distinct(func(s Ship) string { return s.Brand })
}

// Roles returns the distinct non-empty roles, sorted.
func (c *Catalog) Roles() []string {
	return c.distinct(func(s Ship) string { return s.Role })
}

func (c *Catalog) distinct(field func(Ship) string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, s := range c.ships {
		v := field(s)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// IngameNames returns the ships purchasable in game, sorted. These are the
// only valid acquisition targets.
func (c *Catalog) IngameNames() []string {
	var out []string
	for _, name := range c.names {
		if c.ships[name].Ingame {
			out = append(out, name)
		}
	}
	return out
}

// CurrentPrice returns today's catalog price for a ship, 0 when unknown
func (c *Catalog) CurrentPrice(name, source string) float64 {
	s, ok := c.ships[name]
	if !ok {
		return 0
	}
	return s.Price(source)
}

// IsHighValue reports whether a ship is a flagship: either listed as such or
// priced at or above the high-value threshold.
func (c *Catalog) IsHighValue(name string) bool {
	if c.flagships[name] {
		return true
	}
	return c.highValueUSD > 0 && c.CurrentPrice(name, "STORE") >= c.highValueUSD
}

// Query filters a catalog browse. Empty fields match everything.
type Query struct {
	Brand   string
	Role    string
	Names   []string
	Page    int
	PerPage int
}

// Page is one page of a catalog browse
type Page struct {
	Ships      []Ship `json:"ships"`
	Page       int    `json:"page"`
	TotalPages int    `json:"totalPages"`
	Total      int    `json:"total"`
}

// Browse filters the catalog and returns the requested page. A page past the
// end resets to the first one.
func (c *Catalog) Browse(q Query) Page {
	wanted := make(map[string]bool, len(q.Names))
	for _, n := range q.Names {
		wanted[n] = true
	}

	var matched []Ship
	for _, name := range c.names {
		s := c.ships[name]
		if q.Brand != "" && s.Brand != q.Brand {
			continue
		}
		if q.Role != "" && s.Role != q.Role {
			continue
		}
		if len(wanted) > 0 && !wanted[name] {
			continue
		}
		matched = append(matched, s)
	}

	perPage := q.PerPage
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	totalPages := (len(matched) + perPage - 1) / perPage
	if totalPages < 1 {
		totalPages = 1
	}
	page := q.Page
	if page < 0 || page >= totalPages {
		page = 0
	}

	start := page * perPage
	end := start + perPage
	if end > len(matched) {
		end = len(matched)
	}
	ships := []Ship{}
	if start < end {
		ships = append(ships, matched[start:end]...)
	}
	return Page{Ships: ships, Page: page, TotalPages: totalPages, Total: len(matched)}
}
