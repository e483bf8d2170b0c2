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

// Package docx parses word/document.xml and its siblings directly
// (spec.md §4.5), per the newer of the two original implementations the
// spec's Open Questions name as the intended contract — no DOCX-writing
// library is imported; this only ever reads.
package docx

import (
	"sort"
	"strings"

	"github.com/corvidlabs/docforge/pkg/model"
	"github.com/corvidlabs/docforge/pkg/safety"
	"github.com/corvidlabs/docforge/pkg/xerrors"
	"github.com/corvidlabs/docforge/pkg/zipctx"
)

// Metadata is the DOCX-specific metadata surface (spec.md §3/§4.5).
type Metadata struct {
	model.OfficeMetadata
}

// Content is the single content object a DOCX produces.
type Content struct {
	Metadata     Metadata
	Paragraphs   []model.Paragraph
	Tables       []model.Table
	Images       []model.Image
	Hyperlinks   []model.Hyperlink
	Footnotes    []model.Note
	Endnotes     []model.Note
	Comments     []model.Comment
	Headers      []string
	Footers      []string
	Sections     []model.Section
	Formulas     []model.Formula
	FullTextVal  string
	BaseTextVal  string
}

func (c *Content) IterateUnits() []model.Unit {
	return []model.Unit{{
		Number:    1,
		Text:      c.FullTextVal,
		Tables:    c.Tables,
		Comments:  c.Comments,
		Images:    c.Images,
		Footnotes: append(append([]model.Note{}, c.Footnotes...), c.Endnotes...),
		Formulas:  c.Formulas,
	}}
}
func (c *Content) IterateImages() []model.Image { return c.Images }
func (c *Content) FullText() string             { return c.FullTextVal }
func (c *Content) TypeTag() model.TypeTag       { return model.TagDocx }

type relationship struct {
	ID     string `xml:"Id,attr"`
	Type   string `xml:"Type,attr"`
	Target string `xml:"Target,attr"`
}

type relationships struct {
	Relationship []relationship `xml:"Relationship"`
}

type coreProps struct {
	Title    string `xml:"title"`
	Creator  string `xml:"creator"`
	Subject  string `xml:"subject"`
	Keywords string `xml:"keywords"`
	Category string `xml:"category"`
	Comments string `xml:"description"`
	Created  string `xml:"created"`
	Modified string `xml:"modified"`
	Revision string `xml:"revision"`
}

// Decode parses DOCX bytes per spec.md §4.5.
func Decode(data []byte, path string) (*Content, error) {
	if safety.OOXMLEncrypted(newReadSeeker(data)) {
		return nil, xerrors.Encrypted("docx")
	}

	zc, err := zipctx.Open(data, safety.DefaultZipBombLimits())
	if err != nil {
		return nil, err
	}
	defer zc.Close()

	meta := Metadata{}
	meta.PopulateFromPath(path)
	if zc.Has("docProps/core.xml") {
		var cp coreProps
		if err := zc.ReadXML("docProps/core.xml", &cp); err == nil {
			meta.Title = cp.Title
			meta.Author = cp.Creator
			meta.Creator = cp.Creator
			meta.Subject = cp.Subject
			meta.Keywords = cp.Keywords
			meta.Category = cp.Category
			meta.Comments = cp.Comments
			meta.Created = cp.Created
			meta.Modified = cp.Modified
			meta.Revision = cp.Revision
		}
	}

	rels := map[string]relationship{}
	if zc.Has("word/_rels/document.xml.rels") {
		var rs relationships
		if err := zc.ReadXML("word/_rels/document.xml.rels", &rs); err == nil {
			for _, r := range rs.Relationship {
				rels[r.ID] = r
			}
		}
	}

	styles := loadStyleNames(zc)

	if !zc.Has("word/document.xml") {
		return nil, xerrors.LegacyParse("missing word/document.xml")
	}
	bodyXML, err := zc.ReadBytes("word/document.xml")
	if err != nil {
		return nil, err
	}

	tb := newTraversal(zc, rels, styles)
	if err := tb.walkBody(bodyXML); err != nil {
		return nil, xerrors.Failed(err)
	}

	var comments []model.Comment
	for _, part := range relTargetsByType(rels, "/comments") {
		if !zc.Has(part) {
			continue
		}
		if raw, err := zc.ReadBytes(part); err == nil {
			comments = append(comments, parseComments(raw)...)
		}
	}

	var headers []string
	for _, part := range relTargetsByType(rels, "/header") {
		if !zc.Has(part) {
			continue
		}
		if raw, err := zc.ReadBytes(part); err == nil {
			if text := extractPlainText(raw); text != "" {
				headers = append(headers, text)
			}
		}
	}

	var footers []string
	for _, part := range relTargetsByType(rels, "/footer") {
		if !zc.Has(part) {
			continue
		}
		if raw, err := zc.ReadBytes(part); err == nil {
			if text := extractPlainText(raw); text != "" {
				footers = append(footers, text)
			}
		}
	}

	c := &Content{
		Metadata:   meta,
		Paragraphs: tb.paragraphs,
		Tables:     tb.tables,
		Images:     tb.images,
		Hyperlinks: tb.hyperlinks,
		Footnotes:  tb.footnotes,
		Endnotes:   tb.endnotes,
		Comments:   comments,
		Headers:    headers,
		Footers:    footers,
		Formulas:   tb.formulas,
		Sections:   tb.sections,
	}
	c.FullTextVal = tb.fullText.String()
	c.BaseTextVal = tb.baseText.String()
	return c, nil
}

// relTargetsByType collects every relationship's resolved part path
// whose Type ends in typeSuffix (e.g. "/comments", "/header", "/footer"),
// reusing the document relationships map already built for hyperlinks
// and images (spec.md §4.5: headers/footers/comments resolved via
// relationships, same as images).
func relTargetsByType(rels map[string]relationship, typeSuffix string) []string {
	var out []string
	for _, r := range rels {
		if strings.HasSuffix(r.Type, typeSuffix) {
			out = append(out, resolvePartTarget(r.Target))
		}
	}
	sort.Strings(out)
	return out
}

func resolvePartTarget(target string) string {
	if strings.HasPrefix(target, "/") {
		return strings.TrimPrefix(target, "/")
	}
	return "word/" + target
}

// BaseFullText is the projection spec.md §4.5 names "base_full_text". It
// holds the same text as FullText: formula LaTeX is part of the paragraph
// text and is not removed from this projection.
func (c *Content) BaseFullText() string { return c.BaseTextVal }

func loadStyleNames(zc *zipctx.Context) map[string]string {
	out := map[string]string{}
	if !zc.Has("word/styles.xml") {
		return out
	}
	var doc struct {
		Style []struct {
			ID   string `xml:"styleId,attr"`
			Name struct {
				Val string `xml:"val,attr"`
			} `xml:"name"`
		} `xml:"style"`
	}
	if err := zc.ReadXML("word/styles.xml", &doc); err != nil {
		return out
	}
	for _, s := range doc.Style {
		out[s.ID] = s.Name.Val
	}
	return out
}

// twipsToInches converts WordprocessingML twips (1440/inch) to inches
// (spec.md §4.5).
func twipsToInches(twips int) float64 {
	return float64(twips) / 1440.0
}
