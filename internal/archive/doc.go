// SPDX-License-Identifier: MPL-2.0

// Package archive provides a uniform extraction interface over the container
// formats mod archives ship in: zip, tar (plain, gzip- or xz-compressed),
// 7z and rar.
//
// Extraction is total-or-nothing from the caller's point of view: on any
// mid-extraction failure the destination directory is removed and a typed
// error identifying the offending entry is returned. Entries naming absolute
// paths or ".." segments are rejected outright, and symbolic link entries are
// skipped rather than followed.
package archive
