// Package config reads the institution settings from a daia.ini file. All
// keys live in the default section:
//
//	name = Universitätsbibliothek der TUHH
//	sigel = 830
//	infoUrl = https://www.tub.tuhh.de/
//	basicUrl = https://lhiai.gbv.de/DB=1/PPNSET?PPN=
//	picaPlusUrl = https://lhiai.gbv.de/DB=1/XMLPRS=Y/PPN?PPN=
//	locationsFile = locations.txt
package config

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/gbv/daia"
	"gopkg.in/ini.v1"
)

// ErrMissingKey is returned by Validate if a required key is empty.
var ErrMissingKey = errors.New("missing config key")

// Config for the availability service. Values are usually read from a file
// and may be overridden by flags.
type Config struct {
	// Name of the institution, shown in the institution element.
	Name string `ini:"name"`
	// Sigel is the library code, e.g. "830".
	Sigel string `ini:"sigel"`
	// InfoURL is the homepage of the institution.
	InfoURL string `ini:"infoUrl"`
	// BasicURL is the catalog link prefix, the document id is appended.
	BasicURL string `ini:"basicUrl"`
	// PicaPlusURL returns the PICA+ screen for an appended PPN.
	PicaPlusURL string `ini:"picaPlusUrl"`
	// ReservationURL is linked from items that can only be ordered.
	ReservationURL string `ini:"reservationUrl"`
	// CatalogPostfix is appended to item links, e.g. a language parameter.
	CatalogPostfix   string `ini:"catalogPostfix"`
	DocumentIDPrefix string `ini:"documentIdPrefix"`
	ItemIDPrefix     string `ini:"itemIdPrefix"`
	// LocationsFile is a storage code table, relative paths are resolved
	// against the directory of the config file.
	LocationsFile string `ini:"locationsFile"`
	// Z3950Host is host:port/database of the catalog Z39.50 target.
	Z3950Host     string `ini:"z3950Host"`
	Z3950User     string `ini:"z3950User"`
	Z3950Password string `ini:"z3950Password"`
	// RecordDir holds <ppn>.pica files for offline use.
	RecordDir string `ini:"recordDir"`
	// Filename the config was loaded from, if any.
	Filename string `ini:"-"`
}

// DefaultPath returns the config file location below XDG_CONFIG_HOME. The
// directory is created if it does not exist.
func DefaultPath() (string, error) {
	return xdg.ConfigFile(filepath.Join(daia.AppName, daia.AppName+".ini"))
}

// Load reads a config file.
func Load(filename string) (*Config, error) {
	f, err := ini.Load(filename)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	c := &Config{}
	if err := f.Section(ini.DefaultSection).MapTo(c); err != nil {
		return nil, fmt.Errorf("config %s: %w", filename, err)
	}
	c.Filename = filename
	if c.LocationsFile != "" && !filepath.IsAbs(c.LocationsFile) {
		c.LocationsFile = filepath.Join(filepath.Dir(filename), c.LocationsFile)
	}
	return c, nil
}

// Validate checks the keys required for a record retrieval method.
func (c *Config) Validate(method string) error {
	required := map[string]string{"name": c.Name}
	switch method {
	case "http":
		required["picaPlusUrl"] = c.PicaPlusURL
	case "z3950":
		required["z3950Host"] = c.Z3950Host
	case "file":
		required["recordDir"] = c.RecordDir
	}
	for _, key := range []string{"name", "picaPlusUrl", "z3950Host", "recordDir"} {
		if v, ok := required[key]; ok && v == "" {
			return fmt.Errorf("%w: %s", ErrMissingKey, key)
		}
	}
	return nil
}

// Institution returns the institution element of responses, identified by
// the sigel.
func (c *Config) Institution() *daia.Element {
	return &daia.Element{Content: c.Name, ID: c.Sigel, Href: c.InfoURL}
}

// DocumentID returns the document identifier for a PPN.
func (c *Config) DocumentID(ppn string) string {
	return c.DocumentIDPrefix + ppn
}

// DocumentHref links a PPN to the catalog, empty if no catalog is configured.
func (c *Config) DocumentHref(ppn string) string {
	if c.BasicURL == "" {
		return ""
	}
	return c.BasicURL + ppn
}
