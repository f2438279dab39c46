package atlas

import (
	"encoding/json"
	"os"

	"github.com/ecopia-map/pointcloud_atlas/internal/classes"
)

// Scene manifest linking the textures of an atlas with the data the runtime needs to show it
type SceneManifest struct {
	Terrain TerrainInfo                 `json:"terrain"`
	Classes *classes.ClassificationInfo `json:"classes"`
}

type TerrainInfo struct {
	TextureFiles FileNames        `json:"texture_files"`
	Metadata     string           `json:"metadata"`
	Bounds       BoundsDescriptor `json:"bounds"`
	PointCount   int              `json:"point_count"`
	HasColour    bool             `json:"has_colour"`
	TextureSize  int              `json:"texture_size"`
}

func NewSceneManifest(names FileNames, m *Metadata) *SceneManifest {
	return &SceneManifest{
		Terrain: TerrainInfo{
			TextureFiles: names,
			Metadata:     names.Metadata,
			Bounds:       m.Bounds,
			PointCount:   m.AcceptedPoints,
			HasColour:    m.HasColour,
			TextureSize:  m.TextureSize,
		},
		Classes: m.Classes,
	}
}

func (s *SceneManifest) WriteTo(filePath string) error {
	content, err := json.MarshalIndent(s, "", "\t")
	if err != nil {
		return err
	}
	return os.WriteFile(filePath, content, 0666)
}

func ReadSceneManifest(filePath string) (*SceneManifest, error) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	s := &SceneManifest{}
	if err := json.Unmarshal(content, s); err != nil {
		return nil, err
	}
	return s, nil
}
