package config

import (
	"flag"
	"fmt"
	"strconv"

	"github.com/ecopia-map/pointcloud_atlas/internal/atlas"
	"github.com/ecopia-map/pointcloud_atlas/internal/classification"
	"github.com/ecopia-map/pointcloud_atlas/internal/rpc"
)

// Validate checks the values that have a closed set of choices
func (c *Config) Validate() error {
	if err := atlas.ValidateTextureSize(c.Atlas.TextureSize); err != nil {
		return err
	}
	if atlas.ParseOrdering(c.Atlas.Ordering) == "" {
		return fmt.Errorf("unknown atlas ordering %q", c.Atlas.Ordering)
	}
	if _, err := classification.NewProximityFilter(c.Classification.SpatialFilter, c.Classification.MortonThreshold); err != nil {
		return err
	}
	if _, err := classification.ParseRenderMode(c.Classification.DefaultRenderMode); err != nil {
		return err
	}
	return nil
}

// ApplyToAtlasOptions copies the atlas section into builder options
func (c *Config) ApplyToAtlasOptions(opts *atlas.Options) {
	opts.TextureSize = c.Atlas.TextureSize
	opts.Ordering = atlas.ParseOrdering(c.Atlas.Ordering)
	opts.ColourSampleSize = c.Atlas.ColourSampleSize
	opts.RoadClasses = append([]uint8(nil), c.Atlas.RoadClasses...)
	opts.HeightmapBlendRadius = c.Atlas.HeightmapBlendRadius
	opts.Srid = c.Atlas.Srid
	opts.TargetSrid = c.Atlas.TargetSrid
	opts.ZOffset = c.Atlas.ZOffset
	opts.Workers = c.Classification.Workers
}

func (c *Config) ProximityFilter() (classification.ProximityFilter, error) {
	return classification.NewProximityFilter(c.Classification.SpatialFilter, c.Classification.MortonThreshold)
}

// RenderState returns the render state a session starts with
func (c *Config) RenderState() (classification.RenderState, error) {
	mode, err := classification.ParseRenderMode(c.Classification.DefaultRenderMode)
	if err != nil {
		return classification.RenderState{}, err
	}
	return classification.RenderState{Mode: mode, SpatialOptimisation: c.Classification.SpatialOptimisation}, nil
}

func (c *Config) ApplyToServerOptions(opts *rpc.ServerOptions) {
	opts.Address = c.Server.Address
	opts.FPSInterval = c.Server.FPSInterval
	opts.FrameInterval = c.Server.FrameInterval
	opts.ReadLimit = c.Server.ReadLimit
}

// ApplyLogging raises the glog verbosity to the configured level unless -v was given on the command line
func (c *Config) ApplyLogging() {
	v := flag.Lookup("v")
	if v == nil || c.Logging.Verbosity <= 0 {
		return
	}
	set := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "v" {
			set = true
		}
	})
	if !set {
		v.Value.Set(strconv.Itoa(c.Logging.Verbosity))
	}
}
