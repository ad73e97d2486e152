package logging

import (
	"os"
	"path/filepath"
	"testing"
)

func TestResolveLogDir(t *testing.T) {
	cases := []struct {
		name       string
		logsFolder string
		dataPath   string
		exeDir     string
		want       string
	}{
		{"explicit folder wins", "/var/log/bd", "/data", "/bin", "/var/log/bd"},
		{"data path", "", "/data", "/bin", filepath.Join("/data", "logs")},
		{"binary directory", "", "", "/bin", filepath.Join("/bin", "logs")},
		{"relative fallback", "", "", "", "logs"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := resolveLogDir(tc.logsFolder, tc.dataPath, tc.exeDir); got != tc.want {
				t.Errorf("resolveLogDir() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestEnsureWritable(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "logs")
	if err := ensureWritable(dir); err != nil {
		t.Fatalf("ensureWritable failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, ".write-test")); !os.IsNotExist(err) {
		t.Errorf("probe file should be removed, stat err = %v", err)
	}
}

func TestEnsureWritableRejectsFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "not-a-dir")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := ensureWritable(file); err == nil {
		t.Fatal("expected an error when the log path is a regular file")
	}
}

func TestNewFileWriter(t *testing.T) {
	w := newFileWriter("/tmp/bd")
	if w.Filename != filepath.Join("/tmp/bd", LogFileName) {
		t.Errorf("Filename = %q", w.Filename)
	}
	if w.MaxSize != 16 || !w.Compress {
		t.Errorf("unexpected rotation settings: %+v", w)
	}
}
