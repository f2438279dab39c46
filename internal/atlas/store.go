package atlas

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/ecopia-map/pointcloud_atlas/internal/geometry"
	"github.com/ecopia-map/pointcloud_atlas/internal/spatial"
	"github.com/ecopia-map/pointcloud_atlas/internal/texture"
	"github.com/ecopia-map/pointcloud_atlas/tools"
)

// Writes the four textures, the metadata descriptor and the scene manifest of an atlas into folder
func Save(folder string, name string, a *Atlas, m *Metadata) (FileNames, error) {
	names := NewFileNames(name, a.Size)
	if err := tools.CreateDirectoryIfDoesNotExist(folder); err != nil {
		return names, err
	}

	textures := []struct {
		file   string
		format texture.Format
		data   []float32
	}{
		{names.Position, texture.FormatRGBA32F, a.Position},
		{names.ColourClass, texture.FormatRGBA32F, a.ColourClass},
		{names.SpatialIndex, texture.FormatRGBA32F, a.SpatialIndex},
		{names.Heightmap, texture.FormatR32F, a.Heightmap},
	}
	for _, t := range textures {
		if err := texture.WriteDDSFile(filepath.Join(folder, t.file), a.Size, t.format, t.data); err != nil {
			return names, err
		}
	}

	if err := m.WriteTo(filepath.Join(folder, names.Metadata)); err != nil {
		return names, err
	}
	if err := NewSceneManifest(names, m).WriteTo(filepath.Join(folder, names.Manifest)); err != nil {
		return names, err
	}
	return names, nil
}

// An atlas read back from disk together with its descriptor
type LoadedAtlas struct {
	Atlas    *Atlas
	Metadata *Metadata
	Names    FileNames
}

// Bounds used to denormalize the stored positions
func (l *LoadedAtlas) Bounds() geometry.Bounds {
	return l.Metadata.Bounds.Bounds()
}

// Engine space position of the point stored in cell i
func (l *LoadedAtlas) WorldPosition(i int) geometry.Coordinate {
	return l.Bounds().Denormalize(l.Atlas.NormalizedPosition(i))
}

// Loads the atlas named name of the given size from folder. Fails fast when the descriptor was produced
// with another spatial grid resolution or when the textures disagree with each other.
func Load(folder string, name string, size int) (*LoadedAtlas, error) {
	names := NewFileNames(name, size)

	m, err := ReadMetadata(filepath.Join(folder, names.Metadata))
	if err != nil {
		return nil, err
	}
	if err := spatial.ValidateResolution(m.SpatialIndex.GridResolution); err != nil {
		return nil, err
	}
	if m.TextureSize != size {
		return nil, fmt.Errorf("%w: metadata describes a %d texture, %d requested", ErrChannelMismatch, m.TextureSize, size)
	}

	a := &Atlas{Size: size}
	targets := []struct {
		file   string
		format texture.Format
		data   *[]float32
	}{
		{names.Position, texture.FormatRGBA32F, &a.Position},
		{names.ColourClass, texture.FormatRGBA32F, &a.ColourClass},
		{names.SpatialIndex, texture.FormatRGBA32F, &a.SpatialIndex},
		{names.Heightmap, texture.FormatR32F, &a.Heightmap},
	}
	for _, t := range targets {
		tex, err := texture.ReadDDSFile(filepath.Join(folder, t.file))
		if err != nil {
			return nil, err
		}
		if tex.Size != size || tex.Format != t.format {
			return nil, fmt.Errorf("%w: %s is %dx%d %v, expected %dx%d %v", ErrChannelMismatch, t.file, tex.Size, tex.Size, tex.Format, size, size, t.format)
		}
		*t.data = tex.Data
	}

	return &LoadedAtlas{Atlas: a, Metadata: m, Names: names}, nil
}

// Loads an atlas and checks it cell by cell
func LoadAndVerify(folder string, name string, size int) (*LoadedAtlas, error) {
	loaded, err := Load(folder, name, size)
	if err != nil {
		return nil, err
	}
	if err := Verify(loaded); err != nil {
		return loaded, err
	}
	return loaded, nil
}

// Checks channel consistency and that the descriptor agrees with the textures
func Verify(l *LoadedAtlas) error {
	var errs []error
	if err := l.Atlas.CheckConsistency(); err != nil {
		errs = append(errs, err)
	}
	if occupied := l.Atlas.Occupied(); occupied != l.Metadata.AcceptedPoints {
		errs = append(errs, fmt.Errorf("%w: %d occupied cells, metadata reports %d accepted points", ErrChannelMismatch, occupied, l.Metadata.AcceptedPoints))
	}
	if l.Metadata.AcceptedPoints+l.Metadata.DroppedPoints != l.Metadata.TotalPoints {
		errs = append(errs, fmt.Errorf("%w: accepted %d + dropped %d != total %d", ErrChannelMismatch, l.Metadata.AcceptedPoints, l.Metadata.DroppedPoints, l.Metadata.TotalPoints))
	}
	return errors.Join(errs...)
}
