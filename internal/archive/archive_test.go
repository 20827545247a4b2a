// SPDX-License-Identifier: MPL-2.0

package archive

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/klauspost/compress/gzip"
)

// writeZip creates a zip archive at path containing the given name→content
// entries. Entries with a trailing slash become directories.
func writeZip(t *testing.T, path string, entries map[string]string) {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, content := range entries {
		if name[len(name)-1] == '/' {
			if _, err := w.Create(name); err != nil {
				t.Fatal(err)
			}
			continue
		}
		f, err := w.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := f.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
}

func writeTarGz(t *testing.T, path string, entries map[string]string) {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	for name, content := range entries {
		hdr := &tar.Header{Name: name, Mode: 0o644, Size: int64(len(content))}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatal(err)
		}
		if _, err := tw.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := gz.Close(); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
}

// treeOf returns relative path → content for every file under root.
func treeOf(t *testing.T, root string) map[string]string {
	t.Helper()
	tree := map[string]string{}
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		tree[filepath.ToSlash(rel)] = string(data)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	return tree
}

func TestDetectFormat(t *testing.T) {
	dir := t.TempDir()

	zipPath := filepath.Join(dir, "mod.zip")
	writeZip(t, zipPath, map[string]string{"a.txt": "a"})

	tgzPath := filepath.Join(dir, "mod.tar.gz")
	writeTarGz(t, tgzPath, map[string]string{"a.txt": "a"})

	// Magic wins over a lying extension.
	lying := filepath.Join(dir, "mod.rar")
	data, err := os.ReadFile(zipPath)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(lying, data, 0o644); err != nil {
		t.Fatal(err)
	}

	unknown := filepath.Join(dir, "mod.bin")
	if err := os.WriteFile(unknown, []byte("not an archive at all"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		path    string
		want    Format
		wantErr bool
	}{
		{"zip by magic", zipPath, FormatZip, false},
		{"tar.gz by magic", tgzPath, FormatTarGz, false},
		{"magic beats extension", lying, FormatZip, false},
		{"unknown", unknown, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DetectFormat(tt.path)
			if tt.wantErr {
				if !errors.Is(err, ErrUnsupportedFormat) {
					t.Fatalf("want ErrUnsupportedFormat, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("DetectFormat() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestExtract_Deterministic(t *testing.T) {
	dir := t.TempDir()
	zipPath := filepath.Join(dir, "mod.zip")
	writeZip(t, zipPath, map[string]string{
		"Data/textures/rock.dds": "rock",
		"Data/meshes/rock.nif":   "mesh",
		"readme.txt":             "hello",
	})

	first := filepath.Join(dir, "out1")
	second := filepath.Join(dir, "out2")

	sum1, err := Extract(context.Background(), zipPath, first)
	if err != nil {
		t.Fatal(err)
	}
	sum2, err := Extract(context.Background(), zipPath, second)
	if err != nil {
		t.Fatal(err)
	}

	if sum1.Files != 3 || sum2.Files != 3 {
		t.Errorf("file counts = %d, %d, want 3", sum1.Files, sum2.Files)
	}
	if !reflect.DeepEqual(treeOf(t, first), treeOf(t, second)) {
		t.Error("re-extraction produced a different tree")
	}
	if !reflect.DeepEqual(sum1.TopLevel, []string{"Data", "readme.txt"}) {
		t.Errorf("TopLevel = %v", sum1.TopLevel)
	}
}

func TestExtract_TarGz(t *testing.T) {
	dir := t.TempDir()
	tgz := filepath.Join(dir, "mod.tar.gz")
	writeTarGz(t, tgz, map[string]string{"Data/a.esp": "plugin"})

	out := filepath.Join(dir, "out")
	sum, err := Extract(context.Background(), tgz, out)
	if err != nil {
		t.Fatal(err)
	}
	if sum.Files != 1 || sum.Bytes != int64(len("plugin")) {
		t.Errorf("summary = %+v", sum)
	}
	got := treeOf(t, out)
	if got["Data/a.esp"] != "plugin" {
		t.Errorf("tree = %v", got)
	}
}

func TestExtract_PathTraversal(t *testing.T) {
	tests := []struct {
		name  string
		entry string
	}{
		{"dotdot", "../escape.txt"},
		{"nested dotdot", "ok/../../escape.txt"},
		{"absolute", "/etc/passwd"},
		{"backslash dotdot", `..\escape.txt`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			zipPath := filepath.Join(dir, "evil.zip")
			writeZip(t, zipPath, map[string]string{tt.entry: "boom", "fine.txt": "ok"})

			dest := filepath.Join(dir, "out")
			_, err := Extract(context.Background(), zipPath, dest)
			if !errors.Is(err, ErrPathTraversal) {
				t.Fatalf("want ErrPathTraversal, got %v", err)
			}
			var pte *PathTraversalError
			if !errors.As(err, &pte) {
				t.Fatal("want *PathTraversalError")
			}
			if _, statErr := os.Stat(dest); !os.IsNotExist(statErr) {
				t.Error("destination should be removed after a failed extraction")
			}
		})
	}
}

func TestExtract_CorruptArchive(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.zip")
	// Valid magic, garbage body.
	if err := os.WriteFile(bad, append([]byte{0x50, 0x4b, 0x03, 0x04}, []byte("garbage")...), 0o644); err != nil {
		t.Fatal(err)
	}

	dest := filepath.Join(dir, "out")
	_, err := Extract(context.Background(), bad, dest)
	if !errors.Is(err, ErrCorruptArchive) {
		t.Fatalf("want ErrCorruptArchive, got %v", err)
	}
	if _, statErr := os.Stat(dest); !os.IsNotExist(statErr) {
		t.Error("destination should be removed after a failed extraction")
	}
}

func TestFlatten(t *testing.T) {
	tests := []struct {
		name      string
		layout    []string
		flattened bool
		wantTop   string
	}{
		{
			name:      "single wrapper dir",
			layout:    []string{"BetterRocks-1.2/Data/rock.dds", "BetterRocks-1.2/readme.txt"},
			flattened: true,
			wantTop:   "Data",
		},
		{
			name:      "content root is not a wrapper",
			layout:    []string{"Data/rock.dds"},
			flattened: false,
			wantTop:   "Data",
		},
		{
			name:      "multiple top-level entries",
			layout:    []string{"Data/rock.dds", "readme.txt"},
			flattened: false,
			wantTop:   "Data",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			for _, rel := range tt.layout {
				p := filepath.Join(dir, filepath.FromSlash(rel))
				if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
					t.Fatal(err)
				}
				if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
					t.Fatal(err)
				}
			}
			flattened, err := Flatten(dir)
			if err != nil {
				t.Fatal(err)
			}
			if flattened != tt.flattened {
				t.Errorf("Flatten() = %v, want %v", flattened, tt.flattened)
			}
			if _, err := os.Stat(filepath.Join(dir, tt.wantTop)); err != nil {
				t.Errorf("expected %s at top level: %v", tt.wantTop, err)
			}
		})
	}
}

func TestEntryPath_Valid(t *testing.T) {
	got, err := entryPath("a.zip", "/tmp/dest", `Data\textures\rock.dds`)
	if err != nil {
		t.Fatal(err)
	}
	want := filepath.Join("/tmp/dest", "Data", "textures", "rock.dds")
	if got != want {
		t.Errorf("entryPath() = %q, want %q", got, want)
	}
}
