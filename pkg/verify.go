package pkg

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/ecopia-map/pointcloud_atlas/internal/atlas"
	"github.com/ecopia-map/pointcloud_atlas/internal/classes"
	"github.com/ecopia-map/pointcloud_atlas/internal/engine"
	"github.com/ecopia-map/pointcloud_atlas/pkg/algorithm_manager"
	"github.com/ecopia-map/pointcloud_atlas/tools"
	"github.com/golang/glog"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

var ErrClassesMismatch = errors.New("class groups in the textures differ from the metadata")

// Summary of a verified atlas
type VerifyReport struct {
	Name            string
	TextureSize     int
	Occupied        int
	Categories      []classes.Category
	HeightmapMin    float64
	HeightmapMax    float64
	HeightmapMean   float64
	HeightmapStdDev float64
}

type AtlasVerify struct {
	algorithmManager algorithm_manager.AlgorithmManager
}

func NewAtlasVerify(algorithmManager algorithm_manager.AlgorithmManager) *AtlasVerify {
	return &AtlasVerify{algorithmManager: algorithmManager}
}

// Loads the atlas, checks it cell by cell and cross checks the class groups recorded in its metadata
func (v *AtlasVerify) RunVerify(folder string, name string, size int) (*VerifyReport, error) {
	name, size, err := LocateAtlas(folder, name, size)
	if err != nil {
		return nil, err
	}

	tools.LogOutput("> verifying atlas", name, "of size", size)
	loaded, err := atlas.LoadAndVerify(folder, name, size)
	if err != nil {
		return nil, err
	}

	info, err := engine.CollectClassificationInfo(loaded.Atlas, v.algorithmManager.GetWorkerPool())
	if err != nil {
		return nil, err
	}
	if err := compareClasses(info, loaded.Metadata.Classes); err != nil {
		return nil, err
	}

	report := &VerifyReport{
		Name:        name,
		TextureSize: size,
		Occupied:    loaded.Atlas.Occupied(),
		Categories:  info.Categories(),
	}
	heightmapStats(report, loaded.Atlas.Heightmap)

	tools.LogOutput(fmt.Sprintf("> atlas %s is consistent: %d occupied cells, %d classes, heightmap in [%.4f, %.4f] mean %.4f",
		name, report.Occupied, len(report.Categories), report.HeightmapMin, report.HeightmapMax, report.HeightmapMean))
	glog.V(1).Infof("categories: %s", tools.FmtJSONString(report.Categories))

	return report, nil
}

func compareClasses(collected *classes.ClassificationInfo, recorded *classes.ClassificationInfo) error {
	if recorded == nil {
		recorded = classes.NewClassificationInfo()
	}
	if !reflect.DeepEqual(collected.Categories(), recorded.Categories()) {
		return fmt.Errorf("%w: textures hold classes %v, metadata lists %v", ErrClassesMismatch, collected.ClassIDs(), recorded.ClassIDs())
	}
	return nil
}

func heightmapStats(report *VerifyReport, heightmap []float32) {
	if len(heightmap) == 0 {
		return
	}
	values := make([]float64, len(heightmap))
	for i, h := range heightmap {
		values[i] = float64(h)
	}
	report.HeightmapMin = floats.Min(values)
	report.HeightmapMax = floats.Max(values)
	report.HeightmapMean, report.HeightmapStdDev = stat.MeanStdDev(values, nil)
}
