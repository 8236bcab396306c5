package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// SourceConfig describes a single subscribed calendar feed.
type SourceConfig struct {
	// URL is the feed endpoint, usually an https .ics subscription URL.
	URL string `yaml:"url"`
	// Label, when set, is prefixed to every event summary from this
	// source as "[Label] ". When empty, the feed's own declared name
	// (X-WR-CALNAME, else PRODID) is used instead.
	Label string `yaml:"label,omitempty"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the serve mode.
type BasicAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// Config is the top-level application configuration. Values come from
// a YAML file, then environment variables override (ApplyEnv), then
// CLI flags override on top of that.
type Config struct {
	// Name is the display name (X-WR-CALNAME) of the merged calendar.
	Name string `yaml:"name"`

	// Output is the path the merged .ics document is written to.
	Output string `yaml:"output"`

	// Listen, when set, enables the HTTP server exposing the merged
	// calendar (e.g. "127.0.0.1:8080").
	Listen string `yaml:"listen,omitempty"`

	// RefreshCron is a cron-style schedule (e.g. "*/30 * * * *") for
	// re-merging in daemon mode. Empty means no schedule.
	RefreshCron string `yaml:"refresh,omitempty"`

	// CacheDir enables the fetcher's disk cache when non-empty.
	CacheDir string `yaml:"cache_dir,omitempty"`

	// Sources is the ordered feed list. Order matters: labels match by
	// position and duplicate UIDs keep the first-seen event.
	Sources []SourceConfig `yaml:"sources"`

	// BasicAuth, if non-nil, guards all HTTP endpoints except /health
	// and /metrics.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty"`
}

// DefaultConfig returns the in-memory defaults, matching the merger's
// historical behavior when run with environment variables only.
func DefaultConfig() *Config {
	return &Config{
		Name:    "Sammanslagen kalender",
		Output:  "combined.ics",
		Sources: []SourceConfig{},
	}
}

// Normalize fills in missing values so partially-filled configs still
// behave correctly.
func (c *Config) Normalize() {
	if c.Name == "" {
		c.Name = "Sammanslagen kalender"
	}
	if c.Output == "" {
		c.Output = "combined.ics"
	}
	if c.Sources == nil {
		c.Sources = []SourceConfig{}
	}
}

// Load reads configuration from the given YAML path. On first run
// (missing file) a default config is written to the path and returned,
// so users get a template to fill in; environment-only setups
// (ICS_URLS et al.) still work since env overrides apply on top.
func Load(path string) (*Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Return cfg anyway so the caller can decide.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()
	return &cfg, nil
}

// Save writes the given configuration to the specified path: parent
// directory created as needed, YAML marshaled, written atomically via
// a temp file + rename, final permissions 0600 (feed URLs and basic
// auth credentials are secrets).
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".familjekalender-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// Save is a convenience method delegating to the package-level Save.
func (c *Config) Save(path string) error {
	return Save(path, c)
}

// ApplyEnv overrides the config from the environment:
//
//	ICS_URLS    feed URLs, one per line; replaces the source list
//	CAL_LABELS  labels, one per line, matched to ICS_URLS by position
//	MERGE_NAME  merged calendar display name
//	OUT_ICS     output file path
func (c *Config) ApplyEnv() {
	if blob := strings.TrimSpace(os.Getenv("ICS_URLS")); blob != "" {
		labels := splitLines(os.Getenv("CAL_LABELS"))
		sources := make([]SourceConfig, 0)
		for i, u := range splitLines(blob) {
			src := SourceConfig{URL: u}
			if i < len(labels) {
				src.Label = labels[i]
			}
			sources = append(sources, src)
		}
		c.Sources = sources
	}
	if v := os.Getenv("MERGE_NAME"); v != "" {
		c.Name = v
	}
	if v := os.Getenv("OUT_ICS"); v != "" {
		c.Output = v
	}
}

// Validate rejects configs the merger cannot run with.
func (c *Config) Validate() error {
	if len(c.Sources) == 0 {
		return errors.New("no feed sources configured (set sources in the config file or ICS_URLS, one URL per line)")
	}
	for _, src := range c.Sources {
		if strings.TrimSpace(src.URL) == "" {
			return errors.New("feed source with empty URL")
		}
	}
	return nil
}

// splitLines returns the trimmed, non-empty lines of blob.
func splitLines(blob string) []string {
	var out []string
	for _, line := range strings.Split(blob, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}
