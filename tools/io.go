package tools

import (
	"os"
	"path/filepath"

	"github.com/golang/glog"
)

func OpenFileOrFail(filePath string) *os.File {
	file, err := os.Open(filePath)
	if err != nil {
		glog.Fatal(err)
	}

	return file
}

// Folder relative paths are resolved against: POINTCLOUD_ATLAS_WORKDIR when set, the current directory otherwise
func GetRootFolder() string {
	if workdir := os.Getenv("POINTCLOUD_ATLAS_WORKDIR"); workdir != "" {
		return workdir
	}
	wd, err := os.Getwd()
	if err != nil {
		glog.Fatal("cannot retrieve working directory", err)
	}
	return wd
}

func ResolvePath(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(GetRootFolder(), path)
}

func CreateDirectoryIfDoesNotExist(directory string) error {
	if _, err := os.Stat(directory); os.IsNotExist(err) {
		err := os.MkdirAll(directory, 0777)
		if err != nil {
			return err
		}
	}
	return nil
}
