package config

import (
	"bytes"
	"os"
	"sync"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/ferraris/geometry_browser/geometry"
	"github.com/ferraris/geometry_browser/logger"
	"github.com/ferraris/geometry_browser/utils"
)

const DefaultFileName = "geometry_browser.yaml"

type Server struct {
	Addr string `yaml:"addr"`
}

type Thumbnail struct {
	// Size of the square icon in pixels
	Size int `yaml:"size"`
	// Icons are drawn Supersample times larger and scaled down
	Supersample int `yaml:"supersample"`
}

type Config struct {
	LogLevel     string                  `yaml:"log_level"`
	NameEncoding string                  `yaml:"name_encoding"`
	AssetsDir    string                  `yaml:"assets_dir"`
	OutputDir    string                  `yaml:"output_dir"`
	Import       geometry.ImportSettings `yaml:"import"`
	Server       Server                  `yaml:"server"`
	Thumbnail    Thumbnail               `yaml:"thumbnail"`
}

func Default() *Config {
	return &Config{
		LogLevel:  "info",
		AssetsDir: "assets",
		OutputDir: "assets",
		Import:    geometry.DefaultImportSettings(),
		Server:    Server{Addr: ":8000"},
		Thumbnail: Thumbnail{Size: 90, Supersample: 4},
	}
}

// Load reads path over the defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, errors.Wrapf(err, "Cannot read config %q", path)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "Config %q", path)
	}
	return c, nil
}

// Parse decodes yaml over the defaults. Unknown keys are rejected so typos
// do not silently fall back to defaults.
func Parse(data []byte) (*Config, error) {
	c := Default()
	if len(data) == 0 {
		return c, nil
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil {
		return nil, errors.Wrapf(err, "Unmarshaling error")
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) Validate() error {
	if c.Thumbnail.Size <= 0 {
		return errors.Errorf("thumbnail.size must be positive, got %d", c.Thumbnail.Size)
	}
	if c.Thumbnail.Supersample <= 0 {
		return errors.Errorf("thumbnail.supersample must be positive, got %d", c.Thumbnail.Supersample)
	}
	if c.Import.SmoothingAngle < 0 || c.Import.SmoothingAngle > 180 {
		return errors.Errorf("import.smoothing_angle must be within [0,180], got %v", c.Import.SmoothingAngle)
	}
	return nil
}

// Apply pushes process wide settings into the packages that own them.
func (c *Config) Apply() error {
	if err := logger.SetLevel(c.LogLevel); err != nil {
		return errors.Wrapf(err, "log_level")
	}
	if err := utils.SetNameEncoding(c.NameEncoding); err != nil {
		return errors.Wrapf(err, "name_encoding")
	}
	return nil
}

func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

var (
	currentMu sync.RWMutex
	current   = Default()
)

func Get() *Config {
	currentMu.RLock()
	defer currentMu.RUnlock()
	return current
}

func Set(c *Config) {
	currentMu.Lock()
	current = c
	currentMu.Unlock()
}
