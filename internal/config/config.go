// Package config handles loading and saving of the build, classification and server settings.
package config

import "time"

// Config holds all settings, grouped by component
type Config struct {
	Atlas          AtlasConfig          `yaml:"atlas"`
	Classification ClassificationConfig `yaml:"classification"`
	Server         ServerConfig         `yaml:"server"`
	Logging        LoggingConfig        `yaml:"logging"`
}

// AtlasConfig holds the settings of the atlas builder
type AtlasConfig struct {
	TextureSize          int     `yaml:"texture_size"`
	Ordering             string  `yaml:"ordering"`
	ColourSampleSize     int     `yaml:"colour_sample_size"`
	RoadClasses          []uint8 `yaml:"road_classes"`
	HeightmapBlendRadius int     `yaml:"heightmap_blend_radius"`
	Srid                 int     `yaml:"srid"`
	TargetSrid           int     `yaml:"target_srid"`
	ZOffset              float64 `yaml:"z_offset"`
}

// ClassificationConfig holds the settings of the classification stage
type ClassificationConfig struct {
	SpatialFilter       string  `yaml:"spatial_filter"`
	MortonThreshold     uint64  `yaml:"morton_threshold"`
	SpatialOptimisation bool    `yaml:"spatial_optimisation"`
	DefaultRenderMode   string  `yaml:"default_render_mode"`
	ResampleSpacing     float32 `yaml:"resample_spacing"`
	Workers             int     `yaml:"workers"`
}

// ServerConfig holds the settings of the command server
type ServerConfig struct {
	Address       string        `yaml:"address"`
	FPSInterval   time.Duration `yaml:"fps_interval"`
	FrameInterval time.Duration `yaml:"frame_interval"`
	ReadLimit     int64         `yaml:"read_limit"`
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Verbosity int `yaml:"verbosity"`
}

// Default returns a Config with the default values of every component
func Default() *Config {
	return &Config{
		Atlas: AtlasConfig{
			TextureSize:          2048,
			Ordering:             "input",
			ColourSampleSize:     100,
			RoadClasses:          []uint8{2, 10, 11, 12},
			HeightmapBlendRadius: 16,
			Srid:                 4326,
		},
		Classification: ClassificationConfig{
			SpatialFilter:       "aabb",
			MortonThreshold:     4096,
			SpatialOptimisation: true,
			DefaultRenderMode:   "modified",
		},
		Server: ServerConfig{
			Address:       "127.0.0.1:8765",
			FPSInterval:   500 * time.Millisecond,
			FrameInterval: time.Second / 30,
			ReadLimit:     1 << 20,
		},
	}
}
