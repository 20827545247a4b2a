// SPDX-License-Identifier: MPL-2.0

package archive

import (
	"bytes"
	"io"
	"os"
	"strings"
)

// Format identifies an archive container format.
type Format string

const (
	// FormatZip is a PK-zip container.
	FormatZip Format = "zip"
	// FormatTar is an uncompressed tar container.
	FormatTar Format = "tar"
	// FormatTarGz is a gzip-compressed tar container.
	FormatTarGz Format = "tar.gz"
	// FormatTarXz is an xz/lzma-compressed tar container.
	FormatTarXz Format = "tar.xz"
	// FormatSevenZip is a 7z container.
	FormatSevenZip Format = "7z"
	// FormatRar is a rar container.
	FormatRar Format = "rar"
)

// Magic numbers for the supported container formats. Tar has no leading
// magic; it carries "ustar" at offset 257 instead.
var (
	magicZip      = []byte{0x50, 0x4b, 0x03, 0x04}
	magicSevenZip = []byte{0x37, 0x7a, 0xbc, 0xaf, 0x27, 0x1c}
	magicRar      = []byte{0x52, 0x61, 0x72, 0x21, 0x1a, 0x07}
	magicGzip     = []byte{0x1f, 0x8b}
	magicXz       = []byte{0xfd, 0x37, 0x7a, 0x58, 0x5a, 0x00}
	magicUstar    = []byte{0x75, 0x73, 0x74, 0x61, 0x72}
)

const tarMagicOffset = 257

// DetectFormat determines the container format of the file at path by
// examining its content signature first and falling back to the file
// extension when the signature is ambiguous. Returns an
// UnsupportedFormatError when neither yields a known codec.
func DetectFormat(path string) (Format, error) {
	header := make([]byte, tarMagicOffset+len(magicUstar))
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	n, err := io.ReadFull(f, header)
	_ = f.Close()
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", err
	}
	header = header[:n]

	if format, ok := formatFromMagic(header); ok {
		return format, nil
	}
	if format, ok := formatFromExtension(path); ok {
		return format, nil
	}
	return "", &UnsupportedFormatError{Archive: path}
}

func formatFromMagic(header []byte) (Format, bool) {
	switch {
	case bytes.HasPrefix(header, magicZip):
		return FormatZip, true
	case bytes.HasPrefix(header, magicSevenZip):
		return FormatSevenZip, true
	case bytes.HasPrefix(header, magicRar):
		return FormatRar, true
	case bytes.HasPrefix(header, magicGzip):
		// Assume a compressed tar; a bare .gz is not a mod container.
		return FormatTarGz, true
	case bytes.HasPrefix(header, magicXz):
		return FormatTarXz, true
	case len(header) >= tarMagicOffset+len(magicUstar) &&
		bytes.Equal(header[tarMagicOffset:tarMagicOffset+len(magicUstar)], magicUstar):
		return FormatTar, true
	}
	return "", false
}

func formatFromExtension(path string) (Format, bool) {
	name := strings.ToLower(path)
	switch {
	case strings.HasSuffix(name, ".tar.gz") || strings.HasSuffix(name, ".tgz"):
		return FormatTarGz, true
	case strings.HasSuffix(name, ".tar.xz") || strings.HasSuffix(name, ".txz"):
		return FormatTarXz, true
	case strings.HasSuffix(name, ".tar"):
		return FormatTar, true
	case strings.HasSuffix(name, ".zip"):
		return FormatZip, true
	case strings.HasSuffix(name, ".7z") || strings.HasSuffix(name, ".7zip"):
		return FormatSevenZip, true
	case strings.HasSuffix(name, ".rar"):
		return FormatRar, true
	}
	return "", false
}

// String returns the conventional extension for the format.
func (f Format) String() string { return string(f) }
