// Package config loads the topicmap HCL configuration file.
//
//	store {
//	  driver = "sqlite"          # sqlite | postgres | memory
//	  dsn    = "topicmap.db"
//	}
//
//	import {
//	  map_identifier               = 3
//	  indent_width                 = 4
//	  tabs                         = "expand"   # expand | ignore | reject
//	  allow_duplicate_associations = false
//	}
//
//	log {
//	  mode = "development"       # development | production | quiet
//	}
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hashicorp/hcl/v2/hclsimple"
)

const DefaultPath = "topicmap.hcl"

type Config struct {
	Store  Store
	Import Import
	Log    Log
}

type Store struct {
	Driver string
	DSN    string
}

type Import struct {
	MapIdentifier              int
	IndentWidth                int
	Tabs                       string
	AllowDuplicateAssociations bool
}

type Log struct {
	Mode string
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Store:  Store{Driver: "sqlite", DSN: "topicmap.db"},
		Import: Import{MapIdentifier: 1, IndentWidth: 4, Tabs: "expand"},
		Log:    Log{Mode: "development"},
	}
}

// file mirrors the HCL layout. Every block and attribute is optional. Numeric
// and tab settings decode into pointers so an explicit zero reaches Validate
// instead of falling back to Default.
type file struct {
	Store  *storeBlock  `hcl:"store,block"`
	Import *importBlock `hcl:"import,block"`
	Log    *logBlock    `hcl:"log,block"`
}

type storeBlock struct {
	Driver string `hcl:"driver,optional"`
	DSN    string `hcl:"dsn,optional"`
}

type importBlock struct {
	MapIdentifier              *int    `hcl:"map_identifier,optional"`
	IndentWidth                *int    `hcl:"indent_width,optional"`
	Tabs                       *string `hcl:"tabs,optional"`
	AllowDuplicateAssociations bool    `hcl:"allow_duplicate_associations,optional"`
}

type logBlock struct {
	Mode string `hcl:"mode,optional"`
}

// Load reads path. A missing file yields Default when mustExist is false.
func Load(path string, mustExist bool) (Config, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !mustExist {
			return Default(), nil
		}
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	return Parse(path, src)
}

// Parse decodes src. filename selects the syntax: ".json" is HCL's JSON
// variant, anything else is native HCL.
func Parse(filename string, src []byte) (Config, error) {
	name := filename
	if filepath.Ext(name) != ".json" && filepath.Ext(name) != ".hcl" {
		name += ".hcl"
	}
	var f file
	if err := hclsimple.Decode(name, src, nil, &f); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", filename, err)
	}

	cfg := Default()
	if f.Store != nil {
		if f.Store.Driver != "" {
			cfg.Store.Driver = f.Store.Driver
			if f.Store.DSN == "" {
				cfg.Store.DSN = ""
			}
		}
		if f.Store.DSN != "" {
			cfg.Store.DSN = f.Store.DSN
		}
	}
	if f.Import != nil {
		if f.Import.MapIdentifier != nil {
			cfg.Import.MapIdentifier = *f.Import.MapIdentifier
		}
		if f.Import.IndentWidth != nil {
			cfg.Import.IndentWidth = *f.Import.IndentWidth
		}
		if f.Import.Tabs != nil {
			cfg.Import.Tabs = *f.Import.Tabs
		}
		cfg.Import.AllowDuplicateAssociations = f.Import.AllowDuplicateAssociations
	}
	if f.Log != nil && f.Log.Mode != "" {
		cfg.Log.Mode = f.Log.Mode
	}
	return cfg, cfg.Validate()
}

// Validate checks values that cannot be defaulted.
func (c Config) Validate() error {
	switch c.Store.Driver {
	case "sqlite", "postgres", "memory":
	default:
		return fmt.Errorf("config: unknown store driver %q", c.Store.Driver)
	}
	if c.Import.MapIdentifier < 1 {
		return fmt.Errorf("config: map_identifier must be positive, got %d", c.Import.MapIdentifier)
	}
	if c.Import.IndentWidth < 1 {
		return fmt.Errorf("config: indent_width must be positive, got %d", c.Import.IndentWidth)
	}
	switch c.Import.Tabs {
	case "expand", "ignore", "reject":
	default:
		return fmt.Errorf("config: tabs must be expand, ignore or reject, got %q", c.Import.Tabs)
	}
	return nil
}
