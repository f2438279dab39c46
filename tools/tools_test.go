package tools

import (
	"os"
	"path/filepath"
	"testing"
)

func TestOutputName(t *testing.T) {
	tests := []struct {
		path     string
		expected string
	}{
		{"/data/city_block-2.xyz", "CityBlock2"},
		{"scan.txt", "Scan"},
		{"already Pascal.csv", "AlreadyPascal"},
		{"/data/___.xyz", "Atlas"},
	}
	for _, tt := range tests {
		if got := OutputName(tt.path); got != tt.expected {
			t.Errorf("OutputName(%q): expected %q, got %q", tt.path, tt.expected, got)
		}
	}
}

func TestFileFinder(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "nested")
	if err := os.MkdirAll(sub, 0777); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"b.xyz", "a.TXT", "notes.md", filepath.Join("nested", "c.pts")} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("0 0 0 2\n"), 0666); err != nil {
			t.Fatal(err)
		}
	}

	finder := NewStandardFileFinder()

	files, err := finder.GetPointFilesToProcess(dir, true, false)
	if err != nil {
		t.Fatal(err)
	}
	expected := []string{filepath.Join(dir, "a.TXT"), filepath.Join(dir, "b.xyz")}
	if len(files) != len(expected) {
		t.Fatalf("expected %v, got %v", expected, files)
	}
	for i := range expected {
		if files[i] != expected[i] {
			t.Errorf("expected %s, got %s", expected[i], files[i])
		}
	}

	files, err = finder.GetPointFilesToProcess(dir, true, true)
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 3 {
		t.Errorf("expected 3 files with recursion, got %v", files)
	}

	single := filepath.Join(dir, "b.xyz")
	files, _ = finder.GetPointFilesToProcess(single, false, false)
	if len(files) != 1 || files[0] != single {
		t.Errorf("expected only %s, got %v", single, files)
	}

	if _, err := finder.GetPointFilesToProcess(filepath.Join(dir, "missing"), true, false); err == nil {
		t.Error("expected an error for a missing folder")
	}
}

func TestResolvePath(t *testing.T) {
	t.Setenv("POINTCLOUD_ATLAS_WORKDIR", "/work")
	if got := ResolvePath("atlas/out"); got != filepath.Join("/work", "atlas/out") {
		t.Errorf("expected path under /work, got %s", got)
	}
	if got := ResolvePath("/abs"); got != "/abs" {
		t.Errorf("expected absolute paths untouched, got %s", got)
	}
	if got := ResolvePath(""); got != "" {
		t.Errorf("expected empty path untouched, got %s", got)
	}
}
