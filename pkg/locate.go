package pkg

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ecopia-map/pointcloud_atlas/internal/atlas"
)

var ErrAtlasNotFound = errors.New("atlas not found")

const manifestSuffix = "_manifest.json"

// Fills in the atlas name and size when they are not given. The name is taken from the single manifest in
// folder, the size from the manifest of the named atlas.
func LocateAtlas(folder string, name string, size int) (string, int, error) {
	if name == "" {
		manifests, err := filepath.Glob(filepath.Join(folder, "*"+manifestSuffix))
		if err != nil {
			return "", 0, err
		}
		switch len(manifests) {
		case 0:
			return "", 0, fmt.Errorf("%w: no manifest in %s", ErrAtlasNotFound, folder)
		case 1:
			name = strings.TrimSuffix(filepath.Base(manifests[0]), manifestSuffix)
		default:
			return "", 0, fmt.Errorf("%w: %d manifests in %s, pick one with -name", ErrAtlasNotFound, len(manifests), folder)
		}
	}

	if size == 0 {
		manifest, err := atlas.ReadSceneManifest(filepath.Join(folder, name+manifestSuffix))
		if err != nil {
			return "", 0, fmt.Errorf("%w: %v", ErrAtlasNotFound, err)
		}
		size = manifest.Terrain.TextureSize
	}

	return name, size, nil
}
