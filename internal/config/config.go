package config

import (
	"time"

	"github.com/spf13/viper"

	"github.com/dygy/songforge/internal/engine"
	"github.com/dygy/songforge/internal/song"
)

type Config struct {
	Render RenderConfig
	Server ServerConfig
	Cache  CacheConfig
	Assets AssetsConfig
}

type RenderConfig struct {
	SampleRate int
	OutputDir  string
	Style      string
}

type ServerConfig struct {
	Port       int
	JobTimeout time.Duration
}

type CacheConfig struct {
	Enabled bool
	Dir     string
}

type AssetsConfig struct {
	DrumDir string
	Bass    string
	Keys    string
	Pads    string
}

// Load reads songforge.yaml from the working directory or ./config,
// with environment variable overrides and built-in defaults
func Load() (*Config, error) {
	viper.SetConfigName("songforge")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	viper.SetEnvPrefix("songforge")
	viper.AutomaticEnv()

	viper.SetDefault("render.sample_rate", 44100)
	viper.SetDefault("render.output_dir", "")
	viper.SetDefault("render.style", "default")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.job_timeout_s", 300)
	viper.SetDefault("cache.enabled", true)
	viper.SetDefault("cache.dir", "")
	viper.SetDefault("assets.drum_dir", "")
	viper.SetDefault("assets.bass", "")
	viper.SetDefault("assets.keys", "")
	viper.SetDefault("assets.pads", "")

	// Config file is optional
	_ = viper.ReadInConfig()

	cfg := &Config{
		Render: RenderConfig{
			SampleRate: viper.GetInt("render.sample_rate"),
			OutputDir:  viper.GetString("render.output_dir"),
			Style:      viper.GetString("render.style"),
		},
		Server: ServerConfig{
			Port:       viper.GetInt("server.port"),
			JobTimeout: time.Duration(viper.GetInt("server.job_timeout_s")) * time.Second,
		},
		Cache: CacheConfig{
			Enabled: viper.GetBool("cache.enabled"),
			Dir:     viper.GetString("cache.dir"),
		},
		Assets: AssetsConfig{
			DrumDir: viper.GetString("assets.drum_dir"),
			Bass:    viper.GetString("assets.bass"),
			Keys:    viper.GetString("assets.keys"),
			Pads:    viper.GetString("assets.pads"),
		},
	}

	return cfg, nil
}

// AssetConfig converts the configured asset paths into the engine's
// asset mapping, skipping unset entries
func (c *Config) AssetConfig() engine.AssetConfig {
	out := engine.AssetConfig{DrumDir: c.Assets.DrumDir}
	files := map[string]string{
		song.InstrBass: c.Assets.Bass,
		song.InstrKeys: c.Assets.Keys,
		song.InstrPads: c.Assets.Pads,
	}
	for instr, path := range files {
		if path == "" {
			continue
		}
		if out.InstrumentFiles == nil {
			out.InstrumentFiles = make(map[string]string)
		}
		out.InstrumentFiles[instr] = path
	}
	return out
}
