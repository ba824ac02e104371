package config

import (
	"fmt"
	"os"
	"time"

	"github.com/gyeh/refload/internal/model"

	"gopkg.in/yaml.v3"
)

// Config holds all runtime configuration for a refload run.
type Config struct {
	DSN        string
	RedisURL   string
	HTTPAddr   string
	LogFormat  string // "text" or "json"
	LogLevel   string
	ConfigPath string
	FilePath   string
	Truncate   bool
	DryRun     bool
	Pipeline   Pipeline
}

// Pipeline is the on-disk YAML structure controlling fetch and write.
type Pipeline struct {
	BatchSize int                     `yaml:"batch_size"`
	Timeout   time.Duration           `yaml:"timeout"`    // per HTTP call
	LockTTL   time.Duration           `yaml:"lock_ttl"`   // Redis run lock
	ReportTTL time.Duration           `yaml:"report_ttl"` // cached run report
	Entities  map[string]EntityConfig `yaml:"entities"`
}

// EntityConfig is the ordered adapter list and thresholds of one entity type.
type EntityConfig struct {
	Sufficient int             `yaml:"sufficient"` // stop fetching once reached; 0 fetches every primary source
	Minimum    int             `yaml:"minimum"`    // below this, fallback sources run
	Adapters   []AdapterConfig `yaml:"adapters"`
}

// AdapterConfig describes one source adapter. Kind is "rest", "html" or
// "static".
type AdapterConfig struct {
	Name         string            `yaml:"name"`
	Kind         string            `yaml:"kind"`
	URL          string            `yaml:"url"`
	Query        map[string]string `yaml:"query"`
	LimitParam   string            `yaml:"limit_param"`
	OffsetParam  string            `yaml:"offset_param"`
	PageSize     int               `yaml:"page_size"`
	MaxRecords   int               `yaml:"max_records"`
	Timeout      time.Duration     `yaml:"timeout"`
	RowSelector  string            `yaml:"row_selector"`
	CellSelector string            `yaml:"cell_selector"`
	Columns      []string          `yaml:"columns"` // canonical field per cell; empty uses the table header
}

const (
	DefaultBatchSize = 1000
	DefaultTimeout   = 30 * time.Second
	DefaultLockTTL   = 30 * time.Minute
	DefaultReportTTL = 7 * 24 * time.Hour

	// CUM records with registration in force, published by INVIMA on datos.gov.co.
	DefaultDrugsURL = "https://www.datos.gov.co/resource/i7cb-raxc.json"
)

// DefaultPipeline returns the built-in adapter lists and thresholds.
// Procedure and diagnosis origins have no stable public endpoint and stay
// unconfigured until a pipeline file names one; their minimums are sized so
// the bundled static tables alone satisfy them.
func DefaultPipeline() Pipeline {
	return Pipeline{
		BatchSize: DefaultBatchSize,
		Timeout:   DefaultTimeout,
		LockTTL:   DefaultLockTTL,
		ReportTTL: DefaultReportTTL,
		Entities: map[string]EntityConfig{
			model.Procedures.Name: {
				Sufficient: 0,
				Minimum:    20,
				Adapters: []AdapterConfig{
					{Name: "datos-abiertos", Kind: "rest", MaxRecords: 20000},
					{Name: "minsalud", Kind: "html"},
					{Name: "static", Kind: "static"},
				},
			},
			model.Diagnoses.Name: {
				Sufficient: 1000,
				Minimum:    10,
				Adapters: []AdapterConfig{
					{Name: "datos-abiertos", Kind: "rest", MaxRecords: 15000},
					{Name: "minsalud", Kind: "html"},
					{Name: "static", Kind: "static"},
				},
			},
			model.Drugs.Name: {
				Sufficient: 100,
				Minimum:    50,
				Adapters: []AdapterConfig{
					{Name: "invima-cum", Kind: "rest", URL: DefaultDrugsURL, MaxRecords: 10000},
					{Name: "static", Kind: "static"},
				},
			},
		},
	}
}

// LoadFromFile reads a YAML pipeline file and merges its values over the
// defaults. Entities named in the file replace the default entry whole.
func (c *Config) LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	var p Pipeline
	if err := yaml.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	if c.Pipeline.Entities == nil {
		c.Pipeline = DefaultPipeline()
	}
	if p.BatchSize != 0 {
		c.Pipeline.BatchSize = p.BatchSize
	}
	if p.Timeout != 0 {
		c.Pipeline.Timeout = p.Timeout
	}
	if p.LockTTL != 0 {
		c.Pipeline.LockTTL = p.LockTTL
	}
	if p.ReportTTL != 0 {
		c.Pipeline.ReportTTL = p.ReportTTL
	}
	for name, ec := range p.Entities {
		c.Pipeline.Entities[name] = ec
	}
	return c.validatePipeline()
}

// validatePipeline checks entity names, adapter kinds and thresholds.
func (c *Config) validatePipeline() error {
	p := &c.Pipeline
	if p.BatchSize < 0 {
		return fmt.Errorf("batch_size must be positive, got %d", p.BatchSize)
	}
	for name, ec := range p.Entities {
		et, ok := model.EntityTypeByName(name)
		if !ok {
			return fmt.Errorf("unknown entity %q in config", name)
		}
		if !et.Scrapeable && len(ec.Adapters) > 0 {
			return fmt.Errorf("entity %q is file-import only and takes no adapters", name)
		}
		if ec.Sufficient < 0 || ec.Minimum < 0 {
			return fmt.Errorf("entity %q: thresholds must not be negative", name)
		}
		for i, ac := range ec.Adapters {
			switch ac.Kind {
			case "rest", "html", "static":
			default:
				return fmt.Errorf("entity %q adapter %d: unknown kind %q", name, i, ac.Kind)
			}
			if ac.Name == "" {
				return fmt.Errorf("entity %q adapter %d: name is required", name, i)
			}
		}
	}
	return nil
}

// Entity returns the pipeline settings of et.
func (c *Config) Entity(et model.EntityType) EntityConfig {
	return c.Pipeline.Entities[et.Name]
}

// BatchSize returns the configured batch size or the default.
func (c *Config) BatchSize() int {
	if c.Pipeline.BatchSize > 0 {
		return c.Pipeline.BatchSize
	}
	return DefaultBatchSize
}

// Validate checks required fields for a file import.
func (c *Config) Validate() error {
	if c.FilePath == "" {
		return fmt.Errorf("--file is required")
	}
	if _, err := os.Stat(c.FilePath); err != nil {
		return fmt.Errorf("file not accessible: %w", err)
	}
	return nil
}

// ValidateWithDSN checks both file and DSN fields.
func (c *Config) ValidateWithDSN() error {
	if err := c.Validate(); err != nil {
		return err
	}
	return c.ValidateDSN()
}

// ValidateDSN checks that a database is configured.
func (c *Config) ValidateDSN() error {
	if c.DSN == "" {
		return fmt.Errorf("--dsn, REFLOAD_DSN or DATABASE_URL is required")
	}
	return nil
}
