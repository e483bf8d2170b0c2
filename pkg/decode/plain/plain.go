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

// Package plain decodes .txt/.csv/.tsv/.md/.json (spec.md §6's plain
// text row): the whole file is one Unit, its text recovered through
// safety's encoding-sniff chain the same way the legacy decoders
// recover text from an unlabeled byte stream.
package plain

import (
	"github.com/corvidlabs/docforge/pkg/model"
	"github.com/corvidlabs/docforge/pkg/safety"
)

// Metadata is the plain-text metadata surface — just the file facts,
// there is no document-level metadata to recover.
type Metadata struct {
	model.FileMetadata
}

// Content is the single Unit a plain text file produces.
type Content struct {
	Metadata Metadata
	Unit     model.Unit
}

func (c *Content) IterateUnits() []model.Unit   { return []model.Unit{c.Unit} }
func (c *Content) IterateImages() []model.Image { return nil }
func (c *Content) FullText() string             { return c.Unit.Text }
func (c *Content) TypeTag() model.TypeTag       { return model.TagPlain }

// Decode reads data as unstructured text per spec.md §6.
func Decode(data []byte, path string) (*Content, error) {
	meta := Metadata{}
	meta.PopulateFromPath(path)

	decoded := safety.DecodeBytes(data, "")
	meta.DetectedEncoding = decoded.Encoding

	return &Content{
		Metadata: meta,
		Unit:     model.Unit{Number: 1, Text: decoded.Text},
	}, nil
}
