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

// Package pptx reads ppt/slideN.xml in presentation order (spec.md §4.6),
// one Unit per slide, text shapes walked in the same document-order
// token-stream style pkg/decode/docx uses for word/document.xml. Shapes
// within a slide carry no guaranteed token order of their own, so the
// walker records each shape's a:off position and re-sorts top-to-bottom,
// left-to-right before assembling the slide's text.
package pptx

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/corvidlabs/docforge/pkg/model"
	"github.com/corvidlabs/docforge/pkg/omml"
	"github.com/corvidlabs/docforge/pkg/safety"
	"github.com/corvidlabs/docforge/pkg/xerrors"
	"github.com/corvidlabs/docforge/pkg/zipctx"
)

// Metadata is the PPTX-specific metadata surface.
type Metadata struct {
	model.OfficeMetadata
	SlideCount int `json:"slide_count"`
}

// Slide is one Unit-bearing presentation slide.
type Slide struct {
	Number   int
	Title    string
	Text     string
	BaseText string
	Notes    string
	Tables   []model.Table
	Images   []model.Image
	Formulas []model.Formula
	Comments []model.Comment
}

// Content is a decoded PPTX deck.
type Content struct {
	Metadata Metadata
	Slides   []Slide
}

func (c *Content) IterateUnits() []model.Unit {
	units := make([]model.Unit, len(c.Slides))
	for i, s := range c.Slides {
		text := s.Text
		if s.Notes != "" {
			text += "\n" + s.Notes
		}
		units[i] = model.Unit{Number: s.Number, Text: text, Tables: s.Tables, Images: s.Images, Formulas: s.Formulas, Comments: s.Comments}
	}
	return units
}
func (c *Content) IterateImages() []model.Image {
	var out []model.Image
	for _, s := range c.Slides {
		out = append(out, s.Images...)
	}
	return out
}
func (c *Content) FullText() string       { return model.JoinUnitText(c.IterateUnits()) }
func (c *Content) TypeTag() model.TypeTag { return model.TagPptx }

// BaseFullText is the formula-excluding, title-inclusive projection
// spec.md §4.6 names "base_full_text" for presentations: each slide's
// title/content/other/table shapes in their on-slide reading order, with
// notes and embedded formula LaTeX left out.
func (c *Content) BaseFullText() string {
	var b strings.Builder
	for _, s := range c.Slides {
		if s.BaseText == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString(s.BaseText)
	}
	return b.String()
}

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
	Created  string `xml:"created"`
	Modified string `xml:"modified"`
	Revision string `xml:"revision"`
}

// Decode parses PPTX bytes per spec.md §4.6.
func Decode(data []byte, path string) (*Content, error) {
	if safety.OOXMLEncrypted(bytes.NewReader(data)) {
		return nil, xerrors.Encrypted("pptx")
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
			meta.Title, meta.Author, meta.Creator = cp.Title, cp.Creator, cp.Creator
			meta.Subject, meta.Keywords = cp.Subject, cp.Keywords
			meta.Created, meta.Modified, meta.Revision = cp.Created, cp.Modified, cp.Revision
		}
	}

	presRels := map[string]relationship{}
	if zc.Has("ppt/_rels/presentation.xml.rels") {
		var rs relationships
		if err := zc.ReadXML("ppt/_rels/presentation.xml.rels", &rs); err == nil {
			for _, r := range rs.Relationship {
				presRels[r.ID] = r
			}
		}
	}

	commentAuthors := loadCommentAuthors(zc)

	// Slide order comes from presentation.xml's sldIdLst, resolved through
	// the presentation-level relationships to the actual slideN.xml parts;
	// falling back to a numeric sort of ppt/slides/*.xml keeps decks with
	// a malformed or absent sldIdLst still readable.
	var slideParts []string
	if zc.Has("ppt/presentation.xml") {
		raw, _ := zc.ReadBytes("ppt/presentation.xml")
		slideParts = orderedSlideParts(raw, presRels)
	}
	if len(slideParts) == 0 {
		slideParts = fallbackSlideOrder(zc)
	}

	var slides []Slide
	imgIdx := 0
	for i, part := range slideParts {
		sl := decodeSlide(zc, part, i+1, commentAuthors)
		for j := range sl.Images {
			imgIdx++
			sl.Images[j].ImageIndex = imgIdx
		}
		slides = append(slides, sl)
	}
	meta.SlideCount = len(slides)

	return &Content{Metadata: meta, Slides: slides}, nil
}

func orderedSlideParts(presentationXMLBytes []byte, rels map[string]relationship) []string {
	dec := xml.NewDecoder(bytes.NewReader(presentationXMLBytes))
	dec.Strict = false
	var parts []string
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			break
		}
		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != "sldId" {
			continue
		}
		for _, a := range se.Attr {
			if a.Name.Local == "id" && a.Name.Space != "" {
				if r, ok := rels[a.Value]; ok {
					parts = append(parts, "ppt/"+r.Target)
				}
			}
		}
	}
	return parts
}

func fallbackSlideOrder(zc *zipctx.Context) []string {
	type numbered struct {
		n    int
		name string
	}
	var found []numbered
	for _, name := range zc.Names() {
		if strings.HasPrefix(name, "ppt/slides/slide") && strings.HasSuffix(name, ".xml") {
			base := strings.TrimSuffix(strings.TrimPrefix(name, "ppt/slides/slide"), ".xml")
			n, err := strconv.Atoi(base)
			if err != nil {
				continue
			}
			found = append(found, numbered{n, name})
		}
	}
	sort.Slice(found, func(i, j int) bool { return found[i].n < found[j].n })
	out := make([]string, len(found))
	for i, f := range found {
		out[i] = f.name
	}
	return out
}

// excludedPlaceholders are placeholder types that carry slide furniture
// (footer/date/slide-number/header text) rather than slide content;
// spec.md §4.6 keeps these out of a slide's text and base_full_text.
var excludedPlaceholders = map[string]bool{
	"ftr":    true,
	"dt":     true,
	"sldNum": true,
	"hdr":    true,
	"sldImg": true,
}

func decodeSlide(zc *zipctx.Context, part string, number int, commentAuthors map[string]string) Slide {
	sl := Slide{Number: number}
	if !zc.Has(part) {
		return sl
	}
	raw, err := zc.ReadBytes(part)
	if err != nil {
		return sl
	}

	slideRels := map[string]relationship{}
	relPart := relsPathFor(part)
	if zc.Has(relPart) {
		var rs relationships
		if err := zc.ReadXML(relPart, &rs); err == nil {
			for _, r := range rs.Relationship {
				slideRels[r.ID] = r
			}
		}
	}

	walker := &slideWalker{zc: zc, rels: slideRels}
	walker.walk(raw)
	sl.Title = walker.title
	sl.Text = walker.buildText(false)
	sl.BaseText = walker.buildText(true)
	sl.Tables = walker.tables
	sl.Images = walker.images
	sl.Formulas = walker.formulas

	for _, r := range slideRels {
		if !strings.HasSuffix(r.Type, "/comments") {
			continue
		}
		commentsPart := resolveSlideRelTarget(r.Target)
		if !zc.Has(commentsPart) {
			continue
		}
		if raw, err := zc.ReadBytes(commentsPart); err == nil {
			sl.Comments = append(sl.Comments, parseSlideComments(raw, commentAuthors)...)
		}
	}

	notesPart := fmt.Sprintf("ppt/notesSlides/notesSlide%d.xml", number)
	if zc.Has(notesPart) {
		if notesRaw, err := zc.ReadBytes(notesPart); err == nil {
			nw := &slideWalker{zc: zc}
			nw.walk(notesRaw)
			sl.Notes = nw.buildText(false)
		}
	}
	return sl
}

func resolveSlideRelTarget(target string) string {
	target = strings.TrimPrefix(target, "../")
	if !strings.HasPrefix(target, "ppt/") {
		target = "ppt/" + target
	}
	return target
}

func relsPathFor(part string) string {
	idx := strings.LastIndex(part, "/")
	dir, file := part[:idx], part[idx+1:]
	return dir + "/_rels/" + file + ".rels"
}

// shape is one text-bearing or tabular shape collected from a slide's
// token stream, still carrying enough position/placeholder information
// for sortedShapes to reconstruct on-slide reading order afterward.
type shape struct {
	order    int
	x, y     int
	hasPos   bool
	phType   string
	isTitle  bool
	isTable  bool
	excluded bool
	text     string
	baseText string
}

type slideWalker struct {
	zc       *zipctx.Context
	rels     map[string]relationship
	title    string
	shapes   []shape
	tables   []model.Table
	images   []model.Image
	formulas []model.Formula
	imgIdx   int
}

// sortKey places positioned shapes by (y, x) ahead of every unpositioned
// one, and within the unpositioned group falls back to a
// placeholder-derived rank — title, then body/content, then tables —
// per spec.md §4.6.
func (s shape) sortKey() int64 {
	if s.hasPos {
		return int64(s.y)*1_000_000 + int64(s.x)
	}
	rank := int64(2)
	switch {
	case s.isTitle:
		rank = 0
	case s.phType == "body" || s.phType == "subTitle" || s.phType == "":
		rank = 1
	case s.isTable:
		rank = 3
	}
	const unpositionedBase = int64(1) << 40
	return unpositionedBase + rank
}

func (w *slideWalker) sortedShapes() []shape {
	out := append([]shape(nil), w.shapes...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].sortKey() < out[j].sortKey() })
	return out
}

// buildText assembles the slide's shapes in on-slide order, excluding
// slide-furniture placeholders always. When base is false the title shape
// is left out (it is surfaced separately); when base is true the title is
// kept and each shape's baseText, which omits formula LaTeX, is used.
func (w *slideWalker) buildText(base bool) string {
	var b strings.Builder
	for _, s := range w.sortedShapes() {
		if s.excluded {
			continue
		}
		if !base && s.isTitle {
			continue // Title is surfaced separately in the non-base projection
		}
		text := s.text
		if base {
			text = s.baseText
		}
		if text == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString(text)
	}
	return b.String()
}

func (w *slideWalker) walk(raw []byte) {
	dec := xml.NewDecoder(bytes.NewReader(raw))
	dec.Strict = false

	const (
		kindNone = iota
		kindText
		kindTable
	)
	kind := kindNone
	var curText, curBase strings.Builder
	var curTable model.Table
	var curPhType string
	var curX, curY int
	var curHasPos bool
	var inTitlePh bool
	var phTypeStack []string
	order := 0

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			break
		}
		switch se := tok.(type) {
		case xml.StartElement:
			switch se.Name.Local {
			case "sp":
				kind = kindText
				curText.Reset()
				curBase.Reset()
				curPhType = ""
				curHasPos = false
				inTitlePh = false
			case "graphicFrame":
				kind = kindTable
				curTable = model.Table{}
				curPhType = "table"
				curHasPos = false
			case "off":
				if kind != kindNone && !curHasPos {
					x, xerr := strconv.Atoi(attrLocal(se, "x"))
					y, yerr := strconv.Atoi(attrLocal(se, "y"))
					if xerr == nil && yerr == nil {
						curX, curY = x, y
						curHasPos = true
					}
				}
			case "ph":
				phTypeStack = append(phTypeStack, phType(se))
			case "t":
				var s string
				dec.DecodeElement(&s, &se)
				curText.WriteString(s)
				curBase.WriteString(s)
				continue
			case "tbl":
				tbl, err := readTable(dec)
				if err == nil {
					curTable = tbl
				}
				continue
			case "blip":
				for _, a := range se.Attr {
					if a.Name.Local == "embed" {
						w.addImage(a.Value)
					}
				}
			case "oMath":
				rawMath, err := captureElement(dec, se)
				if err == nil {
					latex := omml.ConvertXML(rawMath)
					w.formulas = append(w.formulas, model.Formula{Latex: latex})
					curText.WriteString(" " + latex + " ")
				}
				continue
			}
		case xml.EndElement:
			switch se.Name.Local {
			case "ph":
				if len(phTypeStack) > 0 {
					last := phTypeStack[len(phTypeStack)-1]
					phTypeStack = phTypeStack[:len(phTypeStack)-1]
					curPhType = last
					if last == "title" || last == "ctrTitle" {
						inTitlePh = true
					}
				}
			case "sp":
				if kind == kindText {
					order++
					text := curText.String()
					if inTitlePh && w.title == "" {
						w.title = text
					}
					w.shapes = append(w.shapes, shape{
						order: order, x: curX, y: curY, hasPos: curHasPos,
						phType: curPhType, isTitle: inTitlePh,
						excluded: excludedPlaceholders[curPhType],
						text:     text, baseText: curBase.String(),
					})
				}
				kind = kindNone
			case "graphicFrame":
				if kind == kindTable && curTable.Rows != nil {
					order++
					w.tables = append(w.tables, curTable)
					tt := tableText(curTable)
					w.shapes = append(w.shapes, shape{
						order: order, x: curX, y: curY, hasPos: curHasPos,
						phType: "table", isTable: true,
						text: tt, baseText: tt,
					})
				}
				kind = kindNone
			}
		}
	}
}

func phType(se xml.StartElement) string {
	return attrLocal(se, "type")
}

func attrLocal(se xml.StartElement, local string) string {
	for _, a := range se.Attr {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}

func (w *slideWalker) addImage(rid string) {
	rel, ok := w.rels[rid]
	if !ok || w.zc == nil {
		return
	}
	target := resolveSlideRelTarget(rel.Target)
	w.imgIdx++
	img := model.Image{ImageIndex: w.imgIdx}
	data, err := w.zc.ReadBytes(target)
	if err != nil {
		img.Error = err.Error()
		w.images = append(w.images, img)
		return
	}
	img.Data = data
	img.Size = len(data)
	img.ContentType = safety.ImageContentType(data)
	if wi, h, ok := safety.ImageDimensions(data); ok {
		img.Width, img.Height = &wi, &h
	}
	w.images = append(w.images, img)
}

// loadCommentAuthors reads ppt/commentAuthors.xml's id->name map, used to
// resolve each p:cm's authorId when parsing a slide's comments part.
func loadCommentAuthors(zc *zipctx.Context) map[string]string {
	authors := map[string]string{}
	if !zc.Has("ppt/commentAuthors.xml") {
		return authors
	}
	raw, err := zc.ReadBytes("ppt/commentAuthors.xml")
	if err != nil {
		return authors
	}
	dec := xml.NewDecoder(bytes.NewReader(raw))
	dec.Strict = false
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			break
		}
		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != "cmAuthor" {
			continue
		}
		if id := attrLocal(se, "id"); id != "" {
			authors[id] = attrLocal(se, "name")
		}
	}
	return authors
}

// parseSlideComments reads a ppt/comments/commentN.xml part into one
// model.Comment per p:cm element (spec.md §4.6).
func parseSlideComments(raw []byte, authors map[string]string) []model.Comment {
	dec := xml.NewDecoder(bytes.NewReader(raw))
	dec.Strict = false
	var comments []model.Comment
	var cur *model.Comment
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			break
		}
		switch se := tok.(type) {
		case xml.StartElement:
			switch se.Name.Local {
			case "cm":
				authorID := attrLocal(se, "authorId")
				name := authors[authorID]
				if name == "" {
					name = authorID
				}
				c := model.Comment{Author: name, Date: attrLocal(se, "dt")}
				cur = &c
			case "text":
				if cur != nil {
					var s string
					if err := dec.DecodeElement(&s, &se); err == nil {
						cur.Text += s
					}
					continue
				}
			}
		case xml.EndElement:
			if se.Name.Local == "cm" && cur != nil {
				comments = append(comments, *cur)
				cur = nil
			}
		}
	}
	return comments
}

func readTable(dec *xml.Decoder) (model.Table, error) {
	var tbl model.Table
	var row []string
	var cell strings.Builder
	for {
		tok, err := dec.Token()
		if err != nil {
			return tbl, err
		}
		switch se := tok.(type) {
		case xml.StartElement:
			switch se.Name.Local {
			case "tr":
				row = nil
			case "tc":
				cell.Reset()
			case "t":
				var s string
				dec.DecodeElement(&s, &se)
				cell.WriteString(s)
			}
		case xml.EndElement:
			switch se.Name.Local {
			case "tc":
				row = append(row, cell.String())
			case "tr":
				tbl.Rows = append(tbl.Rows, row)
			case "graphicFrame", "tbl":
				return tbl, nil
			}
		}
	}
}

func tableText(tbl model.Table) string {
	var b strings.Builder
	for i, row := range tbl.Rows {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(strings.Join(row, "\t"))
	}
	return b.String()
}

func captureElement(dec *xml.Decoder, se xml.StartElement) ([]byte, error) {
	var buf bytes.Buffer
	enc := xml.NewEncoder(&buf)
	if err := enc.EncodeToken(se); err != nil {
		return nil, err
	}
	depth := 1
	for depth > 0 {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		if err := enc.EncodeToken(tok); err != nil {
			return nil, err
		}
		switch tok.(type) {
		case xml.StartElement:
			depth++
		case xml.EndElement:
			depth--
		}
	}
	enc.Flush()
	return buf.Bytes(), nil
}
