package atlas

import (
	"fmt"
	"path/filepath"
)

// Names of the files written for one source file
type FileNames struct {
	Position     string `json:"position"`
	ColourClass  string `json:"colour_class"`
	SpatialIndex string `json:"spatial_index"`
	Heightmap    string `json:"heightmap"`
	Metadata     string `json:"-"`
	Manifest     string `json:"-"`
}

func NewFileNames(name string, size int) FileNames {
	suffix := fmt.Sprintf("%dx%d", size, size)
	return FileNames{
		Position:     fmt.Sprintf("%s_position_%s.dds", name, suffix),
		ColourClass:  fmt.Sprintf("%s_colour_class_%s.dds", name, suffix),
		SpatialIndex: fmt.Sprintf("%s_spatial_index_%s.dds", name, suffix),
		Heightmap:    fmt.Sprintf("%s_heightmap_%s.dds", name, suffix),
		Metadata:     fmt.Sprintf("%s_metadata_%s.json", name, suffix),
		Manifest:     fmt.Sprintf("%s_manifest.json", name),
	}
}

// Returns the file name of a path without directory and extension
func BaseName(filePath string) string {
	nameWext := filepath.Base(filePath)
	extension := filepath.Ext(nameWext)
	return nameWext[0 : len(nameWext)-len(extension)]
}
