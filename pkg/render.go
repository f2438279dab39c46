package pkg

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ecopia-map/pointcloud_atlas/internal/atlas"
	"github.com/ecopia-map/pointcloud_atlas/internal/classification"
	"github.com/ecopia-map/pointcloud_atlas/internal/texture"
	"github.com/ecopia-map/pointcloud_atlas/pkg/algorithm_manager"
	"github.com/ecopia-map/pointcloud_atlas/tools"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/golang/glog"
)

// Polygon as stored in a polygons file
type PolygonRecord struct {
	Vertices [][2]float32 `json:"vertices"`
	Mode     string       `json:"mode"`
	Target   uint8        `json:"target"`
	Masks    []MaskRecord `json:"masks"`
}

type MaskRecord struct {
	Class  uint32 `json:"class"`
	Object uint32 `json:"object"`
}

// Reads a JSON array of polygons, oldest first
func ReadPolygonsFile(filePath string) ([]classification.Polygon, error) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	var records []PolygonRecord
	if err := json.Unmarshal(content, &records); err != nil {
		return nil, fmt.Errorf("%s: %w", filePath, err)
	}

	polygons := make([]classification.Polygon, len(records))
	for i, r := range records {
		mode, err := classification.ParseMode(r.Mode)
		if err != nil {
			return nil, fmt.Errorf("polygon %d: %w", i, err)
		}
		vertices := make([]mgl32.Vec2, len(r.Vertices))
		for j, v := range r.Vertices {
			vertices[j] = mgl32.Vec2{v[0], v[1]}
		}
		masks := make([]classification.Mask, len(r.Masks))
		for j, m := range r.Masks {
			masks[j] = classification.Mask{Class: m.Class, Object: m.Object}
		}
		polygons[i] = classification.Polygon{Vertices: vertices, Target: r.Target, Mode: mode, Masks: masks}
	}
	return polygons, nil
}

type RenderOptions struct {
	Input           string
	Name            string
	TextureSize     int
	Polygons        string
	Output          string
	RenderState     classification.RenderState
	ResampleSpacing float32
}

// Outcome of an offline render
type RenderSummary struct {
	Result  *classification.Result
	Texture string
	Preview string
}

// Applies a polygons file to a built atlas and writes the classified render target
type AtlasRender struct {
	algorithmManager algorithm_manager.AlgorithmManager
}

func NewAtlasRender(algorithmManager algorithm_manager.AlgorithmManager) *AtlasRender {
	return &AtlasRender{algorithmManager: algorithmManager}
}

func (r *AtlasRender) RunRender(opts *RenderOptions) (*RenderSummary, error) {
	name, size, err := LocateAtlas(opts.Input, opts.Name, opts.TextureSize)
	if err != nil {
		return nil, err
	}
	loaded, err := atlas.Load(opts.Input, name, size)
	if err != nil {
		return nil, err
	}

	masks := classification.NewMaskSet()
	masks.ResampleSpacing = opts.ResampleSpacing
	if opts.Polygons != "" {
		polygons, err := ReadPolygonsFile(opts.Polygons)
		if err != nil {
			return nil, err
		}
		for i, p := range polygons {
			if _, err := masks.Add(p); err != nil {
				return nil, fmt.Errorf("polygon %d: %w", i, err)
			}
		}
	}
	tools.LogOutput("> applying", masks.Len(), "polygons with", masks.TotalVertices(), "vertices")

	stage := classification.NewStageFromLoaded(loaded, r.algorithmManager.GetProximityFilter(), r.algorithmManager.GetWorkerPool())
	result, err := stage.Dispatch(masks.Snapshot(), opts.RenderState)
	if err != nil {
		return nil, err
	}

	output := opts.Output
	if output == "" {
		output = opts.Input
	}
	if err := tools.CreateDirectoryIfDoesNotExist(output); err != nil {
		return nil, err
	}

	base := fmt.Sprintf("%s_classified_%s_%dx%d", name, opts.RenderState.Mode.String(), size, size)
	summary := &RenderSummary{
		Result:  result,
		Texture: filepath.Join(output, base+".dds"),
		Preview: filepath.Join(output, base+".tif"),
	}
	out := stage.Output()
	if err := texture.WriteDDSFile(summary.Texture, out.Size, texture.FormatRGBA32F, out.Data); err != nil {
		return nil, err
	}
	if err := texture.WritePreviewTIFF(summary.Preview, out.Texture()); err != nil {
		return nil, err
	}

	tools.LogOutput(fmt.Sprintf("> rendered %s: %d hidden, %d reclassified, %d tests, %d culled in %s",
		opts.RenderState.Mode, result.Hidden, result.Reclassified, result.Tested, result.Culled, result.Duration))
	glog.V(1).Infof("polygon matches: %v", result.PolygonMatches)

	return summary, nil
}
