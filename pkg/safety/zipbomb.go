/*
 *  MIT License
 *
 *  Copyright (c) 2026 docforge contributors
 *
 *  Permission is hereby granted, free of charge, to any person obtaining a copy
 *  of this software and associated documentation files (the "Software"), to deal
 *  in the Software without restriction, including without limitation the rights
 *  to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 *  copies of the Software, and to permit persons to whom the Software is
 *  furnished to do so, subject to the following conditions:
 *
 *  The above copyright notice and this permission notice shall be included in all
 *  copies or substantial portions of the Software.
 *
 *  THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 *  IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 *  FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 *  AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 *  LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 *  OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 *  SOFTWARE.
 *
 */

// Package safety holds the defensive utilities every archive-bearing
// decoder runs before trusting its input: the zip-bomb gate, the four
// encryption probes, encoding auto-detection, an OLE2 stream reader, and
// a best-effort image dimension probe (spec.md §4.2).
package safety

import (
	"archive/zip"

	"github.com/corvidlabs/docforge/pkg/xerrors"
)

// ZipBombLimits are the thresholds spec.md §4.2 defines, deliberately
// high so legitimate large exports pass.
type ZipBombLimits struct {
	MaxEntries                 int
	MaxSingleUncompressedBytes int64
	MaxTotalUncompressedBytes  int64
	MaxEntryCompressionRatio   int64
	MaxTotalCompressionRatio   int64
}

// DefaultZipBombLimits are the spec.md §4.2 defaults.
func DefaultZipBombLimits() ZipBombLimits {
	return ZipBombLimits{
		MaxEntries:                 50_000,
		MaxSingleUncompressedBytes: 1 << 30,       // 1 GiB
		MaxTotalUncompressedBytes:  4 << 30,       // 4 GiB
		MaxEntryCompressionRatio:   500,
		MaxTotalCompressionRatio:   200,
	}
}

// CheckZipBomb walks r's directory and enforces limits, without
// decompressing any entry. Directories are skipped from accounting.
func CheckZipBomb(r *zip.Reader, limits ZipBombLimits) error {
	if len(r.File) > limits.MaxEntries {
		return xerrors.ZipBomb("max_entries")
	}

	var totalUncompressed, totalCompressed int64

	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}

		uncompressed := int64(f.UncompressedSize64)
		compressed := int64(f.CompressedSize64)

		if uncompressed > 0 && compressed == 0 {
			return xerrors.ZipBomb("zero_compressed_nonzero_uncompressed")
		}

		if uncompressed > limits.MaxSingleUncompressedBytes {
			return xerrors.ZipBomb("max_single_uncompressed_bytes")
		}

		if compressed > 0 {
			ratio := uncompressed / compressed
			if ratio > limits.MaxEntryCompressionRatio {
				return xerrors.ZipBomb("max_entry_compression_ratio")
			}
		}

		totalUncompressed += uncompressed
		totalCompressed += compressed

		if totalUncompressed > limits.MaxTotalUncompressedBytes {
			return xerrors.ZipBomb("max_total_uncompressed_bytes")
		}
	}

	if totalCompressed > 0 {
		ratio := totalUncompressed / totalCompressed
		if ratio > limits.MaxTotalCompressionRatio {
			return xerrors.ZipBomb("max_total_compression_ratio")
		}
	}

	return nil
}
