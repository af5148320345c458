package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config models journalsync.yml.
type Config struct {
	Backend string `yaml:"backend"`

	Teable struct {
		APIURL   string `yaml:"api_url"`
		APIToken string `yaml:"api_token"`
		BaseID   string `yaml:"base_id"`
	} `yaml:"teable"`

	Grist struct {
		APIURL string `yaml:"api_url"`
		APIKey string `yaml:"api_key"`
		DocID  string `yaml:"doc_id"`
	} `yaml:"grist"`

	NocoDB struct {
		URL       string `yaml:"url"`
		APIToken  string `yaml:"api_token"`
		ProjectID string `yaml:"project_id"`
	} `yaml:"nocodb"`

	Archive struct {
		Path string `yaml:"path"`
	} `yaml:"archive"`
}

// Backends lists the destinations a config can select.
var Backends = []string{"teable", "grist", "nocodb", "archive"}

// Load reads and validates config from workspace.
func Load(workspace string) (*Config, error) {
	path := Path(workspace)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config %s not found; create one with jsync config init", path)
		}
		return nil, err
	}
	return FromYAML(data)
}

// LoadOptional returns nil,nil if the config file does not exist.
func LoadOptional(workspace string) (*Config, error) {
	path := Path(workspace)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	return FromYAML(data)
}

// Validate checks the selected backend is known.
func (c *Config) Validate() error {
	if c.Backend == "" {
		return nil
	}
	for _, b := range Backends {
		if c.Backend == b {
			return nil
		}
	}
	return fmt.Errorf("unknown backend %q (choose one of %v)", c.Backend, Backends)
}

// ValidateBackend checks that every parameter the named backend needs
// is present. Called once the backend choice is final, after env and
// flag overrides are applied.
func (c *Config) ValidateBackend(name string) error {
	switch name {
	case "teable":
		if c.Teable.APIURL == "" || c.Teable.APIToken == "" || c.Teable.BaseID == "" {
			return fmt.Errorf("teable backend requires teable.api_url, teable.api_token and teable.base_id")
		}
	case "grist":
		if c.Grist.APIURL == "" || c.Grist.APIKey == "" || c.Grist.DocID == "" {
			return fmt.Errorf("grist backend requires grist.api_url, grist.api_key and grist.doc_id")
		}
	case "nocodb":
		if c.NocoDB.URL == "" || c.NocoDB.APIToken == "" || c.NocoDB.ProjectID == "" {
			return fmt.Errorf("nocodb backend requires nocodb.url, nocodb.api_token and nocodb.project_id")
		}
	case "archive":
		if c.Archive.Path == "" {
			return fmt.Errorf("archive backend requires archive.path")
		}
	default:
		return fmt.Errorf("unknown backend %q (choose one of %v)", name, Backends)
	}
	return nil
}

// Path returns the config file path for a workspace.
func Path(workspace string) string {
	if workspace == "" {
		workspace = "."
	}
	return filepath.Join(workspace, "journalsync.yml")
}

// Default returns the default Config struct.
func Default() *Config {
	var cfg Config
	_ = yaml.Unmarshal([]byte(defaultTemplate), &cfg)
	return &cfg
}

// GenerateDefault returns default config YAML.
func GenerateDefault() string {
	return defaultTemplate
}

// FromYAML parses and validates config from raw YAML bytes.
func FromYAML(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid config yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// FromFile reads YAML config from the given path.
func FromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return FromYAML(data)
}

const defaultTemplate = `# Destination backend: teable, grist, nocodb or archive.
backend: archive

teable:
  api_url: https://app.teable.ai
  api_token: ""
  base_id: ""

grist:
  api_url: ""
  api_key: ""
  doc_id: ""

nocodb:
  url: http://localhost:8080
  api_token: ""
  project_id: ""

archive:
  path: journal.db
`
