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

// Package zipctx is the shared open-once ZIP+XML access layer every
// OOXML and ODF decoder builds on (spec.md §4.4): it opens the archive,
// runs the zip-bomb gate, caches the entry directory, and exposes
// existence checks, raw reads, text reads, and parsed-XML-root reads.
package zipctx

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"io/fs"

	"github.com/corvidlabs/docforge/pkg/safety"
	"github.com/corvidlabs/docforge/pkg/xerrors"
)

// Context is a read-only view over one opened zip archive, shared by a
// concrete decoder (DOCX/PPTX/XLSX/ODT/ODP/ODS) for the duration of one
// decode call.
type Context struct {
	reader  *zip.Reader
	closer  io.Closer
	entries map[string]*zip.File
}

// Open runs the zip-bomb gate over data and, if it passes, builds a
// Context. The caller owns data's lifetime; Context never mutates it.
func Open(data []byte, limits safety.ZipBombLimits) (*Context, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, xerrors.LegacyParse("not a zip archive", err)
	}

	if err := safety.CheckZipBomb(zr, limits); err != nil {
		return nil, err
	}

	entries := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		entries[f.Name] = f
	}

	return &Context{reader: zr, entries: entries}, nil
}

// Close releases any resources Open acquired beyond the in-memory byte
// slice (present for symmetry with decoders that stage to a temp file).
func (c *Context) Close() error {
	if c.closer != nil {
		return c.closer.Close()
	}
	return nil
}

// Has reports whether name exists as an entry in the archive.
func (c *Context) Has(name string) bool {
	_, ok := c.entries[name]
	return ok
}

// Names returns every entry path in the archive, in central-directory order.
func (c *Context) Names() []string {
	names := make([]string, 0, len(c.entries))
	for _, f := range c.reader.File {
		names = append(names, f.Name)
	}
	return names
}

// Info returns the fs.FileInfo for a named entry.
func (c *Context) Info(name string) (fs.FileInfo, error) {
	f, ok := c.entries[name]
	if !ok {
		return nil, fs.ErrNotExist
	}
	return f.FileInfo(), nil
}

// ReadBytes returns the fully inflated contents of a named entry.
func (c *Context) ReadBytes(name string) ([]byte, error) {
	f, ok := c.entries[name]
	if !ok {
		return nil, fmt.Errorf("zipctx: %w: %s", fs.ErrNotExist, name)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, xerrors.Failed(err)
	}
	defer rc.Close()

	b, err := io.ReadAll(rc)
	if err != nil {
		return nil, xerrors.Failed(err)
	}
	return b, nil
}

// ReadText returns a named entry decoded as UTF-8 text, recovering from
// non-UTF-8 bytes with safety.DecodeBytes.
func (c *Context) ReadText(name string) (string, error) {
	b, err := c.ReadBytes(name)
	if err != nil {
		return "", err
	}
	return safety.DecodeBytes(b, "").Text, nil
}

// ReadXML decodes a named entry's bytes into dest (a pointer to a
// caller-defined struct tagged for the part's schema).
func (c *Context) ReadXML(name string, dest any) error {
	b, err := c.ReadBytes(name)
	if err != nil {
		return err
	}
	dec := xml.NewDecoder(bytes.NewReader(b))
	dec.Strict = false
	if err := dec.Decode(dest); err != nil {
		return xerrors.LegacyParse(fmt.Sprintf("malformed XML part %q", name), err)
	}
	return nil
}

// ReadXMLRoot parses a named entry and returns its decoded generic
// element tree, for parts whose schema is walked structurally rather
// than unmarshaled into a fixed struct.
func (c *Context) ReadXMLRoot(name string) (*xml.Decoder, []byte, error) {
	b, err := c.ReadBytes(name)
	if err != nil {
		return nil, nil, err
	}
	dec := xml.NewDecoder(bytes.NewReader(b))
	dec.Strict = false
	return dec, b, nil
}
