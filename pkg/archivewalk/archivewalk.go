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

// Package archivewalk detects an archive's type by magic bytes and
// dispatches each supported member back through the caller's decoder,
// per spec.md §4.16. Detection and per-entry decompression happen
// in-memory the way every other decoder in this module works, following
// the teacher's own archive package's "detect compression, recurse,
// then detect archive, then walk" shape (archive.ExtractAll /
// archive.DetectCompression / archive.DetectArchive), generalized from a
// filesystem-extraction callback (fs.FileInfo, io.ReadCloser, dst,
// target) to a decode-and-collect callback that returns content
// objects instead of writing files.
package archivewalk

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/bzip2"
	"compress/gzip"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/ulikunitz/xz"

	"github.com/corvidlabs/docforge/pkg/archivewalk/sevenzip"
	"github.com/corvidlabs/docforge/pkg/model"
	"github.com/corvidlabs/docforge/pkg/xerrors"
	"github.com/corvidlabs/docforge/pkg/xlog"
)

// Dispatcher decodes one archive member's bytes into content objects.
// pkg/extract supplies this, routing pseudoPath back through
// router.LookupContent and the matching decoder; taking it as a
// parameter (rather than importing pkg/extract directly) avoids an
// import cycle between the two packages.
type Dispatcher func(pseudoPath string, data []byte) ([]model.ContentObject, error)

// Limits bounds per-entry memory use while walking an archive.
type Limits struct {
	MaxEntrySize int64
}

// DefaultLimits mirrors safety.DefaultZipBombLimits' single-entry
// ceiling, applied per-member instead of per-whole-zip.
func DefaultLimits() Limits {
	return Limits{MaxEntrySize: 1 << 30} // 1 GiB
}

// nestedArchiveSuffixes must mirror router's archiveSuffixes; duplicated
// here rather than imported so archivewalk can classify a member path
// without round-tripping through the router for every entry.
var nestedArchiveSuffixes = []string{
	".zip", ".7z", ".tar", ".tar.gz", ".tgz", ".tar.bz2", ".tbz2", ".tar.xz", ".txz",
}

func isNestedArchive(name string) bool {
	lower := strings.ToLower(name)
	for _, suf := range nestedArchiveSuffixes {
		if strings.HasSuffix(lower, suf) {
			return true
		}
	}
	return false
}

func isHidden(name string) bool {
	if strings.HasPrefix(name, "__MACOSX/") {
		return true
	}
	base := path.Base(name)
	return strings.HasPrefix(base, ".")
}

// Walk dispatches archivePath's bytes, detecting the archive (and any
// outer single-file compression layer) by magic bytes per spec.md
// §4.16, and forwards every supported, non-skipped member to dispatch.
func Walk(data []byte, archivePath string, limits Limits, dispatch Dispatcher) ([]model.ContentObject, error) {
	if decompressed, strippedPath, ok, err := decompressLayer(data, archivePath); err != nil {
		return nil, err
	} else if ok {
		return Walk(decompressed, strippedPath, limits, dispatch)
	}

	switch {
	case len(data) >= 4 && (bytes.Equal(data[:4], []byte("PK\x03\x04")) || bytes.Equal(data[:4], []byte("PK\x05\x06"))):
		return walkZip(data, archivePath, limits, dispatch)
	case len(data) >= 6 && bytes.Equal(data[:6], []byte{'7', 'z', 0xBC, 0xAF, 0x27, 0x1C}):
		return walkSevenZip(data, archivePath, limits, dispatch)
	case len(data) > 262 && string(data[257:262]) == "ustar":
		return walkTar(bytes.NewReader(data), archivePath, limits, dispatch)
	default:
		return nil, xerrors.LegacyParse("unrecognized archive signature")
	}
}

// decompressLayer peels a single outer compression layer (gzip, bzip2,
// xz) recognized by magic bytes, per spec.md §4.16's "tar.gz"/"tar.bz2"/
// "tar.xz" cases. It does not itself recognize an archive format
// underneath — the caller recurses into Walk to do that.
func decompressLayer(data []byte, archivePath string) ([]byte, string, bool, error) {
	switch {
	case len(data) >= 2 && data[0] == 0x1f && data[1] == 0x8b:
		gr, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, "", false, xerrors.LegacyParse("malformed gzip stream", err)
		}
		defer gr.Close()
		out, err := io.ReadAll(gr)
		if err != nil {
			return nil, "", false, xerrors.LegacyParse("malformed gzip stream", err)
		}
		return out, stripSuffix(archivePath, ".gz", ".tgz"), true, nil

	case len(data) >= 3 && data[0] == 'B' && data[1] == 'Z' && data[2] == 'h':
		out, err := io.ReadAll(bzip2.NewReader(bytes.NewReader(data)))
		if err != nil {
			return nil, "", false, xerrors.LegacyParse("malformed bzip2 stream", err)
		}
		return out, stripSuffix(archivePath, ".bz2", ".tbz2"), true, nil

	case len(data) >= 6 && bytes.Equal(data[:6], []byte{0xfd, '7', 'z', 'X', 'Z', 0x00}):
		xr, err := xz.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, "", false, xerrors.LegacyParse("malformed xz stream", err)
		}
		out, err := io.ReadAll(xr)
		if err != nil {
			return nil, "", false, xerrors.LegacyParse("malformed xz stream", err)
		}
		return out, stripSuffix(archivePath, ".xz", ".txz"), true, nil

	default:
		return nil, "", false, nil
	}
}

func stripSuffix(p string, suffixes ...string) string {
	lower := strings.ToLower(p)
	for _, suf := range suffixes {
		if strings.HasSuffix(lower, suf) {
			return p[:len(p)-len(suf)]
		}
	}
	return p
}

func pseudoPath(archivePath, inner string) string {
	return archivePath + "!/" + inner
}

func walkZip(data []byte, archivePath string, limits Limits, dispatch Dispatcher) ([]model.ContentObject, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, xerrors.LegacyParse("malformed zip archive", err)
	}

	for _, f := range zr.File {
		if f.Flags&0x1 != 0 {
			return nil, xerrors.Encrypted("zip")
		}
	}

	var out []model.ContentObject
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		name := f.Name
		if isHidden(name) || isNestedArchive(name) {
			continue
		}
		if int64(f.UncompressedSize64) > limits.MaxEntrySize {
			xlog.Debugf("archivewalk: skipping oversized zip entry %q (%d bytes)", name, f.UncompressedSize64)
			continue
		}

		rc, err := f.Open()
		if err != nil {
			xlog.Debugf("archivewalk: zip entry %q open failed: %v", name, err)
			continue
		}
		member, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			xlog.Debugf("archivewalk: zip entry %q read failed: %v", name, err)
			continue
		}

		objs, err := dispatch(pseudoPath(archivePath, name), member)
		if err != nil {
			xlog.Debugf("archivewalk: zip entry %q dispatch skipped: %v", name, err)
			continue
		}
		out = append(out, objs...)
	}
	return out, nil
}

func walkTar(r io.Reader, archivePath string, limits Limits, dispatch Dispatcher) ([]model.ContentObject, error) {
	tr := tar.NewReader(r)
	var out []model.ContentObject
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return out, xerrors.LegacyParse("malformed tar archive", err)
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}
		name := hdr.Name
		if isHidden(name) || isNestedArchive(name) {
			continue
		}
		if hdr.Size > limits.MaxEntrySize {
			xlog.Debugf("archivewalk: skipping oversized tar entry %q (%d bytes)", name, hdr.Size)
			continue
		}

		member, err := io.ReadAll(io.LimitReader(tr, hdr.Size))
		if err != nil {
			xlog.Debugf("archivewalk: tar entry %q read failed: %v", name, err)
			continue
		}

		objs, err := dispatch(pseudoPath(archivePath, name), member)
		if err != nil {
			xlog.Debugf("archivewalk: tar entry %q dispatch skipped: %v", name, err)
			continue
		}
		out = append(out, objs...)
	}
	return out, nil
}

// walkSevenZip stages the decoded archive through sevenzip.Open per
// spec.md §4.16/§4.17's 100 MiB file-size and 1 GiB working-memory
// ceilings and its needs_password rejection, reading entries back
// sequentially rather than all at once.
func walkSevenZip(data []byte, archivePath string, limits Limits, dispatch Dispatcher) ([]model.ContentObject, error) {
	const maxFileSize = 100 << 20
	const maxWorkingMemory = 1 << 30
	if len(data) > maxFileSize {
		return nil, xerrors.TooLarge(maxFileSize, int64(len(data)))
	}

	r, err := sevenzip.Open(data)
	if err != nil {
		return nil, xerrors.LegacyParse("malformed 7z archive", err)
	}
	if r.NeedsPassword() {
		return nil, xerrors.Encrypted("7z")
	}

	var out []model.ContentObject
	var workingMemory int64
	for _, e := range r.Entries() {
		if e.IsDir || isHidden(e.Name) || isNestedArchive(e.Name) {
			continue
		}

		member, err := r.Open(e)
		if err != nil {
			xlog.Debugf("archivewalk: 7z entry %q decode failed: %v", e.Name, err)
			continue
		}
		if int64(len(member)) > limits.MaxEntrySize {
			xlog.Debugf("archivewalk: skipping oversized 7z entry %q (%d bytes)", e.Name, len(member))
			continue
		}
		workingMemory += int64(len(member))
		if workingMemory > maxWorkingMemory {
			return out, fmt.Errorf("archivewalk: 7z working memory ceiling exceeded")
		}

		objs, err := dispatch(pseudoPath(archivePath, e.Name), member)
		if err != nil {
			xlog.Debugf("archivewalk: 7z entry %q dispatch skipped: %v", e.Name, err)
			continue
		}
		out = append(out, objs...)
	}
	return out, nil
}
