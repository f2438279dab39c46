package pkg

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/ecopia-map/pointcloud_atlas/internal/atlas"
	"github.com/ecopia-map/pointcloud_atlas/internal/source"
	"github.com/ecopia-map/pointcloud_atlas/pkg/algorithm_manager"
	"github.com/ecopia-map/pointcloud_atlas/tools"
	"github.com/golang/glog"
)

var ErrNoInputFiles = errors.New("no point files to process")

type IBuilder interface {
	RunBuilder(opts *atlas.Options) ([]BuildSummary, error)
}

// Outcome of building the atlas of one point file
type BuildSummary struct {
	SourceFile string
	Name       string
	Names      atlas.FileNames
	Metadata   *atlas.Metadata
}

type Builder struct {
	fileFinder       tools.FileFinder
	reader           source.PointReader
	algorithmManager algorithm_manager.AlgorithmManager
}

func NewBuilder(fileFinder tools.FileFinder, reader source.PointReader, algorithmManager algorithm_manager.AlgorithmManager) IBuilder {
	return &Builder{
		fileFinder:       fileFinder,
		reader:           reader,
		algorithmManager: algorithmManager,
	}
}

// Builds one atlas per point file found in the input
func (b *Builder) RunBuilder(opts *atlas.Options) ([]BuildSummary, error) {
	defer b.algorithmManager.GetCoordinateConverterAlgorithm().Cleanup()

	tools.LogOutput("Preparing list of files to process...")
	pointFiles, err := b.fileFinder.GetPointFilesToProcess(opts.Input, opts.FolderProcessing, opts.Recursive)
	if err != nil {
		return nil, err
	}
	if len(pointFiles) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoInputFiles, opts.Input)
	}
	glog.V(1).Infof("point files: %s", tools.FmtJSONString(pointFiles))

	summaries := make([]BuildSummary, 0, len(pointFiles))
	for i, filePath := range pointFiles {
		tools.LogOutput("Processing file " + strconv.Itoa(i+1) + "/" + strconv.Itoa(len(pointFiles)))
		summary, err := b.processPointFile(filePath, opts)
		if err != nil {
			return summaries, fmt.Errorf("%s: %w", filePath, err)
		}
		summaries = append(summaries, *summary)
	}

	return summaries, nil
}

func (b *Builder) processPointFile(filePath string, opts *atlas.Options) (*BuildSummary, error) {
	tools.LogOutput("> reading points...", filepath.Base(filePath))
	read, err := b.reader.Read(filePath)
	if err != nil {
		return nil, err
	}
	tools.LogOutput("> read", len(read.Points), "points with layout", read.Layout.String(), "skipped", read.Skipped)

	tools.LogOutput("> packing atlas...")
	packer := atlas.NewPacker(opts, b.algorithmManager.GetFrameConverter(), b.algorithmManager.GetWorkerPool())
	result, err := packer.Pack(filePath, read.Points, read.Skipped)
	if err != nil {
		return nil, err
	}

	name := tools.OutputName(filePath)
	tools.LogOutput("> exporting textures...")
	names, err := atlas.Save(opts.Output, name, result.Atlas, result.Metadata)
	if err != nil {
		return nil, err
	}

	m := result.Metadata
	tools.LogOutput(fmt.Sprintf("> done processing %s: %d/%d points packed, %.2f%% of the atlas used, %d dropped, %d skipped",
		filepath.Base(filePath), m.AcceptedPoints, m.TotalPoints, m.UtilisationPercent, m.DroppedPoints, m.SkippedRecords))

	return &BuildSummary{
		SourceFile: filePath,
		Name:       name,
		Names:      names,
		Metadata:   m,
	}, nil
}
