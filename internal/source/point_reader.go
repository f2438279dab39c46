// Package source reads the raw point stream fed to the atlas builder.
package source

import (
	"path/filepath"
	"strings"

	"github.com/ecopia-map/pointcloud_atlas/internal/data"
)

// Extensions handled by the text reader
var SupportedExtensions = []string{".xyz", ".txt", ".csv", ".pts"}

type PointReader interface {
	Read(filePath string) (*ReadResult, error)
}

// Contains the points read from a file and the number of records that had to be skipped
type ReadResult struct {
	Points  []*data.Point
	Skipped int
	Layout  Layout
}

func IsSupported(filePath string) bool {
	ext := strings.ToLower(filepath.Ext(filePath))
	for _, e := range SupportedExtensions {
		if e == ext {
			return true
		}
	}
	return false
}
