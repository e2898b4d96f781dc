package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Canvas struct {
	MinSize    int     `yaml:"min_size"`
	MaxSize    int     `yaml:"max_size"`
	DebounceMs int     `yaml:"debounce_ms"`
	DPR        float64 `yaml:"dpr"`
	Compositor string  `yaml:"compositor"` // "max" | "sum"
	Saturation bool    `yaml:"saturation"`
}

// Debounce is the resize debounce as a duration.
func (c Canvas) Debounce() time.Duration {
	return time.Duration(c.DebounceMs) * time.Millisecond
}

type Posts struct {
	Dir       string   `yaml:"dir"`
	CacheSize int      `yaml:"cache_size"`
	Include   []string `yaml:"include,omitempty"` // restricts the listing to these slugs
}

type Site struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	URL         string   `yaml:"url"`
	OGImage     string   `yaml:"og_image,omitempty"`
	Keywords    []string `yaml:"keywords,omitempty"`
	Author      string   `yaml:"author,omitempty"`
}

type Lamp struct {
	Driver  string `yaml:"driver"`            // "none" | "sim" | "console" | "spi"
	SPIDev  string `yaml:"spi_dev,omitempty"` // e.g. /dev/spidev0.0, empty picks the first port
	Pixels  int    `yaml:"pixels"`
	FreqKHz int    `yaml:"freq_khz"`

	// WhiteCap limits r+g+b per pixel to WhiteCap*3*255; 0 or 1 disables it.
	WhiteCap float64 `yaml:"white_cap"`
}

type Config struct {
	Addr     string `yaml:"addr"`
	LogLevel string `yaml:"log_level"`

	Canvas Canvas `yaml:"canvas"`
	Posts  Posts  `yaml:"posts"`
	Site   Site   `yaml:"site"`
	Lamp   Lamp   `yaml:"lamp"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Addr:     ":8080",
		LogLevel: "info",
		Canvas: Canvas{
			MinSize:    140,
			MaxSize:    600,
			DebounceMs: 80,
			DPR:        1,
			Compositor: "max",
			Saturation: true,
		},
		Posts: Posts{Dir: "posts", CacheSize: 32},
		Site: Site{
			Name:        "RGB Color Mixer",
			Description: "Mix red, green and blue light and see how additive color works.",
			URL:         "http://localhost:8080",
			Keywords:    []string{"rgb", "color mixing", "additive color", "light"},
		},
		Lamp: Lamp{Driver: "none", Pixels: 30, FreqKHz: 800, WhiteCap: 0.85},
	}
}

// Load reads path over the defaults. Fields missing from the file keep their
// default value.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c := Default()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	c.normalize()
	return c, nil
}

func Save(path string, c *Config) error {
	b, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0644)
}

func (c *Config) normalize() {
	d := Default()
	if c.Canvas.MinSize <= 0 {
		c.Canvas.MinSize = d.Canvas.MinSize
	}
	if c.Canvas.MaxSize < c.Canvas.MinSize {
		c.Canvas.MaxSize = c.Canvas.MinSize
	}
	if c.Canvas.DebounceMs < 0 {
		c.Canvas.DebounceMs = 0
	}
	if c.Canvas.DPR <= 0 {
		c.Canvas.DPR = 1
	}
	if c.Canvas.Compositor == "" {
		c.Canvas.Compositor = d.Canvas.Compositor
	}
	if c.Posts.Dir == "" {
		c.Posts.Dir = d.Posts.Dir
	}
	if c.Posts.CacheSize <= 0 {
		c.Posts.CacheSize = d.Posts.CacheSize
	}
	if c.Lamp.Driver == "" {
		c.Lamp.Driver = "none"
	}
	if c.Lamp.Pixels <= 0 {
		c.Lamp.Pixels = d.Lamp.Pixels
	}
}
