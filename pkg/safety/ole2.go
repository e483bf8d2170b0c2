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

package safety

import (
	"bytes"
	"io"
	"strings"

	"github.com/richardlehane/mscfb"

	"github.com/corvidlabs/docforge/pkg/xerrors"
)

// OLE2 wraps a compound file (CFBF) so DOC/XLS/PPT/MSG decoders can
// enumerate streams by name and read one fully into memory, without each
// decoder re-implementing sector-chasing.
type OLE2 struct {
	rdr     *mscfb.Reader
	streams map[string][]byte
	order   []string
}

// OpenOLE2 reads every stream of src into memory up front; CFBF files
// decoders care about (FIB-bearing main streams, SummaryInformation) are
// a few hundred KiB at most, so this trades a little memory for letting
// every caller do repeated, independent reads without re-walking.
func OpenOLE2(src io.ReadSeeker) (*OLE2, error) {
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return nil, xerrors.Failed(err)
	}

	ra, ok := src.(io.ReaderAt)
	if !ok {
		ra = &readSeekerAt{rs: src}
	}

	r, err := mscfb.New(ra)
	if err != nil {
		return nil, xerrors.LegacyParse("not a compound file", err)
	}

	o := &OLE2{rdr: r, streams: make(map[string][]byte)}

	for entry, err := r.Next(); err == nil; entry, err = r.Next() {
		if entry == nil {
			continue
		}
		buf := make([]byte, entry.Size)
		if entry.Size > 0 {
			if _, rErr := io.ReadFull(r, buf); rErr != nil && rErr != io.ErrUnexpectedEOF {
				continue
			}
		}
		name := normalizeStreamName(entry.Name)
		o.streams[name] = buf
		o.order = append(o.order, name)
	}

	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return nil, xerrors.Failed(err)
	}

	return o, nil
}

// normalizeStreamName strips the 0x05/0x06 special-stream prefix byte
// CFBF uses for property-set streams so callers can match on the plain
// name ("SummaryInformation" rather than "\x05SummaryInformation").
func normalizeStreamName(name string) string {
	if name == "" {
		return name
	}
	if b := name[0]; b == 0x05 || b == 0x06 {
		return name[1:]
	}
	return name
}

// HasStream reports whether a stream with exactly this name exists.
func (o *OLE2) HasStream(name string) bool {
	_, ok := o.streams[name]
	return ok
}

// HasStreamContaining reports whether any stream name contains sub
// (case-sensitive, matching the exact names spec.md's encryption probes
// name: EncryptionInfo, EncryptedPackage, DataSpaces, ...).
func (o *OLE2) HasStreamContaining(sub string) bool {
	for _, n := range o.order {
		if strings.Contains(n, sub) {
			return true
		}
	}
	return false
}

// Stream returns the full bytes of the named stream, or nil, false.
func (o *OLE2) Stream(name string) ([]byte, bool) {
	b, ok := o.streams[name]
	return b, ok
}

// readSeekerAt adapts an io.ReadSeeker to io.ReaderAt for callers (such as
// mscfb.New) that require random access but only have a seekable stream.
type readSeekerAt struct {
	rs io.ReadSeeker
}

func (r *readSeekerAt) ReadAt(p []byte, off int64) (int, error) {
	if _, err := r.rs.Seek(off, io.SeekStart); err != nil {
		return 0, err
	}
	return io.ReadFull(r.rs, p)
}

// StreamReader returns an io.Reader over the named stream's bytes.
func (o *OLE2) StreamReader(name string) (io.Reader, bool) {
	b, ok := o.streams[name]
	if !ok {
		return nil, false
	}
	return bytes.NewReader(b), true
}

// Names returns every stream name in traversal order (useful for a
// PPT-style "scan for any text atom anywhere" fallback).
func (o *OLE2) Names() []string { return o.order }
