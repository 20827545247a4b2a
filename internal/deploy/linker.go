// SPDX-License-Identifier: MPL-2.0

package deploy

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Technique is how a winning file gets materialized in the game directory.
type Technique string

const (
	// TechniqueAuto probes hardlink, then symlink, then falls back to copy.
	TechniqueAuto Technique = "auto"
	// TechniqueHardlink links store and game file to the same inode.
	TechniqueHardlink Technique = "hardlink"
	// TechniqueSymlink points the game file at the store file.
	TechniqueSymlink Technique = "symlink"
	// TechniqueCopy duplicates the file contents. Always available.
	TechniqueCopy Technique = "copy"
)

// ParseTechnique validates a configured link mode.
func ParseTechnique(s string) (Technique, error) {
	switch Technique(s) {
	case TechniqueAuto, TechniqueHardlink, TechniqueSymlink, TechniqueCopy:
		return Technique(s), nil
	}
	return "", fmt.Errorf("unknown link mode %q (auto, hardlink, symlink or copy)", s)
}

// linker places files using one settled technique.
type linker struct {
	technique Technique
}

// newLinker settles the technique for this deployment. Auto probes the
// cheapest technique the store/game pair supports, once, before any file is
// touched. A forced technique is verified the same way and fails fast with
// LinkUnsupportedError when the filesystems cannot honor it.
func newLinker(storeRoot, gameDir string, mode Technique) (*linker, error) {
	switch mode {
	case TechniqueCopy:
		return &linker{technique: TechniqueCopy}, nil
	case TechniqueHardlink, TechniqueSymlink:
		if err := probe(storeRoot, gameDir, mode); err != nil {
			return nil, &LinkUnsupportedError{Technique: mode, Cause: err}
		}
		return &linker{technique: mode}, nil
	case TechniqueAuto, "":
		for _, candidate := range []Technique{TechniqueHardlink, TechniqueSymlink} {
			if probe(storeRoot, gameDir, candidate) == nil {
				return &linker{technique: candidate}, nil
			}
		}
		return &linker{technique: TechniqueCopy}, nil
	}
	return nil, &LinkUnsupportedError{Technique: mode}
}

// probe links a throwaway store file into the game directory and cleans up.
func probe(storeRoot, gameDir string, technique Technique) error {
	src, err := os.CreateTemp(storeRoot, ".probe-*")
	if err != nil {
		return err
	}
	srcPath := src.Name()
	src.Close()
	defer os.Remove(srcPath)

	dst := filepath.Join(gameDir, filepath.Base(srcPath))
	defer os.Remove(dst)
	if technique == TechniqueHardlink {
		return os.Link(srcPath, dst)
	}
	return os.Symlink(srcPath, dst)
}

// place materializes source at target, which must not exist.
func (l *linker) place(source, target string) error {
	switch l.technique {
	case TechniqueHardlink:
		return os.Link(source, target)
	case TechniqueSymlink:
		abs, err := filepath.Abs(source)
		if err != nil {
			return err
		}
		return os.Symlink(abs, target)
	default:
		return copyFile(source, target)
	}
}

// same reports whether target is already the materialization of source, so
// a repeat deployment can leave it alone. Copies compare by content.
func (l *linker) same(source, target string) bool {
	switch l.technique {
	case TechniqueHardlink:
		si, err := os.Stat(source)
		if err != nil {
			return false
		}
		ti, err := os.Stat(target)
		if err != nil {
			return false
		}
		return os.SameFile(si, ti)
	case TechniqueSymlink:
		dest, err := os.Readlink(target)
		if err != nil {
			return false
		}
		abs, err := filepath.Abs(source)
		if err != nil {
			return false
		}
		return dest == abs
	default:
		return sameContent(source, target)
	}
}

// sameContent reports whether target is a regular file holding exactly the
// bytes of source. Size is checked first so unequal files rarely get read.
func sameContent(source, target string) bool {
	ti, err := os.Lstat(target)
	if err != nil || !ti.Mode().IsRegular() {
		return false
	}
	si, err := os.Stat(source)
	if err != nil || si.Size() != ti.Size() {
		return false
	}
	a, err := os.Open(source)
	if err != nil {
		return false
	}
	defer a.Close()
	b, err := os.Open(target)
	if err != nil {
		return false
	}
	defer b.Close()

	bufA := make([]byte, 32*1024)
	bufB := make([]byte, 32*1024)
	for {
		n, errA := io.ReadFull(a, bufA)
		m, errB := io.ReadFull(b, bufB)
		if n != m || !bytes.Equal(bufA[:n], bufB[:m]) {
			return false
		}
		if errA != nil || errB != nil {
			return errA == errB || (isEOF(errA) && isEOF(errB))
		}
	}
}

func isEOF(err error) bool {
	return err == io.EOF || err == io.ErrUnexpectedEOF
}

func copyFile(source, target string) error {
	in, err := os.Open(source)
	if err != nil {
		return err
	}
	defer in.Close()
	info, err := in.Stat()
	if err != nil {
		return err
	}
	out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_EXCL, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(target)
		return err
	}
	return out.Close()
}
