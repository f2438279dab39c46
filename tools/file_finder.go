package tools

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/ecopia-map/pointcloud_atlas/internal/source"
)

type FileFinder interface {
	GetPointFilesToProcess(input string, folderProcessing bool, recursive bool) ([]string, error)
}

type StandardFileFinder struct{}

func NewStandardFileFinder() FileFinder {
	return &StandardFileFinder{}
}

func (f *StandardFileFinder) GetPointFilesToProcess(input string, folderProcessing bool, recursive bool) ([]string, error) {
	// If folder processing is not enabled then the point file is given by -input flag, otherwise look for point
	// files in -input folder eventually excluding nested folders if Recursive flag is disabled
	if !folderProcessing {
		return []string{input}, nil
	}

	return f.getPointFilesFromInputFolder(input, recursive)
}

func (f *StandardFileFinder) getPointFilesFromInputFolder(input string, recursive bool) ([]string, error) {
	var pointFiles = make([]string, 0)

	baseInfo, err := os.Stat(input)
	if err != nil {
		return nil, err
	}
	err = filepath.Walk(
		input,
		func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if info.IsDir() {
				if !recursive && !os.SameFile(info, baseInfo) {
					return filepath.SkipDir
				}
				return nil
			}
			if source.IsSupported(info.Name()) {
				pointFiles = append(pointFiles, path)
			}
			return nil
		},
	)
	if err != nil {
		return nil, err
	}

	sort.Strings(pointFiles)
	return pointFiles, nil
}
