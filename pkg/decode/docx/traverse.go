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

package docx

import (
	"bytes"
	"encoding/xml"
	"io"
	"strconv"
	"strings"

	"github.com/corvidlabs/docforge/pkg/model"
	"github.com/corvidlabs/docforge/pkg/omml"
	"github.com/corvidlabs/docforge/pkg/safety"
	"github.com/corvidlabs/docforge/pkg/zipctx"
)

// newReadSeeker satisfies safety.OOXMLEncrypted's io.ReadSeeker argument
// over an in-memory byte slice.
func newReadSeeker(data []byte) io.ReadSeeker { return bytes.NewReader(data) }

// traversal walks word/document.xml's token stream directly rather than
// unmarshaling into a typed tree: WordprocessingML mixes w:p/w:tbl/w:sectPr
// siblings with mc:AlternateContent wrappers whose Fallback must be
// skipped in favor of the Choice branch, which a single xml.Unmarshal
// struct can't express cleanly. This mirrors the flat-token style
// pkg/decode/rtf already uses for its own hand-rolled grammar.
type traversal struct {
	zc     *zipctx.Context
	rels   map[string]relationship
	styles map[string]string

	paragraphs []model.Paragraph
	tables     []model.Table
	images     []model.Image
	hyperlinks []model.Hyperlink
	footnotes  []model.Note
	endnotes   []model.Note
	formulas   []model.Formula
	sections   []model.Section

	fullText strings.Builder
	baseText strings.Builder

	// pendingCaptionImages holds indices into images whose paragraph had
	// no preceding caption-styled paragraph to draw from; if the very
	// next paragraph turns out to be caption-styled, walkBody backfills
	// these from it (spec.md §4.5's preceding/following caption rule).
	pendingCaptionImages []int

	imgIdx int
	// alternateDepth and inFallback are not read by walkBody: it skips
	// mc:Fallback subtrees with its own local skipDepth counter and walks
	// mc:Choice content like any other element.
	alternateDepth int
	inFallback     int
}

func newTraversal(zc *zipctx.Context, rels map[string]relationship, styles map[string]string) *traversal {
	return &traversal{zc: zc, rels: rels, styles: styles}
}

func localName(name xml.Name) string { return name.Local }

func attr(se xml.StartElement, local string) string {
	for _, a := range se.Attr {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}

// walkBody decodes word/document.xml's w:body, emitting one Paragraph per
// w:p and one Table per w:tbl, in document order, plus footnotes/endnotes
// pulled from their sibling parts.
func (t *traversal) walkBody(bodyXML []byte) error {
	dec := xml.NewDecoder(bytes.NewReader(bodyXML))
	dec.Strict = false

	var curPara *model.Paragraph
	var curRun *model.Run
	var inHyperlink *model.Hyperlink
	var skipDepth int // depth inside an mc:Fallback we are actively skipping
	var paraImgStart int // index into t.images when the current paragraph opened

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}

		switch se := tok.(type) {
		case xml.StartElement:
			name := localName(se.Name)
			if skipDepth > 0 {
				if name == "Fallback" {
					skipDepth++
				}
				continue
			}
			switch name {
			case "Fallback":
				skipDepth = 1
				continue
			case "p":
				curPara = &model.Paragraph{}
				paraImgStart = len(t.images)
			case "pStyle":
				if curPara != nil {
					curPara.StyleName = t.styles[attr(se, "val")]
				}
			case "jc":
				if curPara != nil {
					curPara.Alignment = attr(se, "val")
				}
			case "ilvl":
				if curPara != nil {
					if lvl, err := strconv.Atoi(attr(se, "val")); err == nil {
						curPara.OutlineLevel = lvl
					}
				}
			case "hyperlink":
				inHyperlink = &model.Hyperlink{}
				if rid := attr(se, "id"); rid != "" {
					if r, ok := t.rels[rid]; ok {
						inHyperlink.URL = r.Target
					}
				}
			case "r":
				curRun = &model.Run{}
			case "b":
				if curRun != nil {
					curRun.Bold = true
				}
			case "i":
				if curRun != nil {
					curRun.Italic = true
				}
			case "u":
				if curRun != nil {
					curRun.Underline = true
				}
			case "t":
				var text string
				if err := dec.DecodeElement(&text, &se); err == nil {
					if curRun != nil {
						curRun.Text += text
					} else if curPara != nil {
						curPara.Text += text
					}
				}
				continue
			case "tab":
				if curRun != nil {
					curRun.Text += "\t"
				}
			case "br":
				if curRun != nil {
					curRun.Text += "\n"
				}
			case "tbl":
				tbl, err := t.readTable(dec)
				if err == nil {
					t.tables = append(t.tables, tbl)
					t.emit(tableText(tbl))
				}
				continue
			case "drawing", "pict":
				t.extractInlineImages(dec, &se)
				continue
			case "oMath":
				raw, err := captureElement(dec, se)
				if err == nil {
					latex := omml.ConvertXML(raw)
					t.formulas = append(t.formulas, model.Formula{Latex: latex, IsDisplay: false})
					if curRun != nil {
						curRun.Text += " " + latex + " "
					} else if curPara != nil {
						curPara.Text += " " + latex + " "
					}
				}
				continue
			case "sectPr":
				sec, err := t.readSectPr(dec)
				if err == nil {
					t.sections = append(t.sections, sec)
				}
				continue
			}

		case xml.EndElement:
			name := localName(se.Name)
			if skipDepth > 0 {
				if name == "Fallback" {
					skipDepth--
				}
				continue
			}
			switch name {
			case "r":
				if curRun != nil {
					if inHyperlink != nil {
						inHyperlink.Text += curRun.Text
					} else if curPara != nil {
						curPara.Text += curRun.Text
						curPara.Runs = append(curPara.Runs, *curRun)
					}
					curRun = nil
				}
			case "hyperlink":
				if inHyperlink != nil {
					t.hyperlinks = append(t.hyperlinks, *inHyperlink)
					if curPara != nil {
						curPara.Text += inHyperlink.Text
					}
					inHyperlink = nil
				}
			case "p":
				if curPara != nil {
					t.resolveImageCaptions(curPara, paraImgStart)
					t.paragraphs = append(t.paragraphs, *curPara)
					t.emit(curPara.Text)
					curPara = nil
				}
			}
		}
	}

	if err := t.loadNotes("word/footnotes.xml", "footnote", &t.footnotes); err != nil {
		return err
	}
	if err := t.loadNotes("word/endnotes.xml", "endnote", &t.endnotes); err != nil {
		return err
	}
	return nil
}

// emit appends a paragraph/table text block to both full-text projections.
// Inline formula LaTeX has already been folded into the run text (padded
// with spaces, without $ delimiters) before a paragraph reaches emit, so
// base_full_text receives the same string as full_text, formulas included.
func (t *traversal) emit(s string) {
	if t.fullText.Len() > 0 {
		t.fullText.WriteString("\n")
	}
	t.fullText.WriteString(s)
	if t.baseText.Len() > 0 {
		t.baseText.WriteString("\n")
	}
	t.baseText.WriteString(s)
}

// isCaptionStyle reports whether a paragraph style name marks a Word
// caption (the built-in "Caption" style, or a localized/custom variant
// that still carries the word, e.g. "Caption2" or "Image Caption").
func isCaptionStyle(styleName string) bool {
	return strings.Contains(strings.ToLower(styleName), "caption")
}

// resolveImageCaptions assigns the "preceding caption-styled paragraph"
// and "following caption-styled paragraph" sources of an image's caption
// (spec.md §4.5), ranked above the text-box and shape-name fallbacks
// addImageFromRel already applied when the image was first collected.
// curPara is the paragraph that just finished; paraImgStart is where in
// t.images that paragraph's own drawings started.
func (t *traversal) resolveImageCaptions(curPara *model.Paragraph, paraImgStart int) {
	if isCaptionStyle(curPara.StyleName) {
		for _, idx := range t.pendingCaptionImages {
			t.images[idx].Caption = curPara.Text
		}
		t.pendingCaptionImages = nil
	} else {
		t.pendingCaptionImages = nil
	}

	newImages := t.images[paraImgStart:]
	if len(newImages) == 0 {
		return
	}
	if len(t.paragraphs) > 0 && isCaptionStyle(t.paragraphs[len(t.paragraphs)-1].StyleName) {
		prevText := t.paragraphs[len(t.paragraphs)-1].Text
		for i := range newImages {
			newImages[i].Caption = prevText
		}
		return
	}
	for i := range newImages {
		t.pendingCaptionImages = append(t.pendingCaptionImages, paraImgStart+i)
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

func (t *traversal) readTable(dec *xml.Decoder) (model.Table, error) {
	var tbl model.Table
	var row []string
	var cellText strings.Builder
	depth := 0
	for {
		tok, err := dec.Token()
		if err != nil {
			return tbl, err
		}
		switch se := tok.(type) {
		case xml.StartElement:
			depth++
			switch localName(se.Name) {
			case "tr":
				row = nil
			case "tc":
				cellText.Reset()
			case "t":
				var text string
				dec.DecodeElement(&text, &se)
				cellText.WriteString(text)
				depth--
			}
		case xml.EndElement:
			depth--
			switch localName(se.Name) {
			case "tc":
				row = append(row, cellText.String())
			case "tr":
				tbl.Rows = append(tbl.Rows, row)
			case "tbl":
				return tbl, nil
			}
		}
		_ = depth
	}
}

func (t *traversal) readSectPr(dec *xml.Decoder) (model.Section, error) {
	var sec model.Section
	for {
		tok, err := dec.Token()
		if err != nil {
			return sec, err
		}
		switch se := tok.(type) {
		case xml.StartElement:
			switch localName(se.Name) {
			case "pgSz":
				if w, err := strconv.Atoi(attr(se, "w")); err == nil {
					sec.WidthInches = twipsToInches(w)
				}
				if h, err := strconv.Atoi(attr(se, "h")); err == nil {
					sec.HeightInches = twipsToInches(h)
				}
				if attr(se, "orient") == "landscape" {
					sec.Orientation = "landscape"
				}
			case "pgMar":
				if m, err := strconv.Atoi(attr(se, "top")); err == nil {
					sec.MarginTopInches = twipsToInches(m)
				}
			}
		case xml.EndElement:
			if localName(se.Name) == "sectPr" {
				return sec, nil
			}
		}
	}
}

// extractInlineImages finds r:embed relationship IDs inside a drawing/pict
// element and resolves them against the media relationships, consuming
// tokens up to the matching end element. It also collects the shape's
// wp:docPr name/descr and any sibling text-box content in the same
// drawing, both lower-priority caption sources than a caption-styled
// paragraph (spec.md §4.5).
func (t *traversal) extractInlineImages(dec *xml.Decoder, start *xml.StartElement) {
	depth := 1
	var shapeName, shapeDescr, textboxCaption string
	var rids []string
	var txbxText strings.Builder
	txbxDepth := 0
	for depth > 0 {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		switch se := tok.(type) {
		case xml.StartElement:
			depth++
			switch localName(se.Name) {
			case "docPr":
				if shapeName == "" {
					shapeName = attrNS(se, "name")
				}
				if shapeDescr == "" {
					shapeDescr = attrNS(se, "descr")
				}
			case "blip":
				if rid := attrNS(se, "embed"); rid != "" {
					rids = append(rids, rid)
				}
			case "txbxContent":
				txbxDepth++
			case "t":
				if txbxDepth > 0 {
					var s string
					if err := dec.DecodeElement(&s, &se); err == nil {
						txbxText.WriteString(s)
					}
					depth--
					continue
				}
			}
		case xml.EndElement:
			depth--
			if localName(se.Name) == "txbxContent" && txbxDepth > 0 {
				txbxDepth--
				if textboxCaption == "" {
					textboxCaption = strings.TrimSpace(txbxText.String())
				}
			}
		}
	}
	for _, rid := range rids {
		t.addImageFromRel(rid, shapeName, shapeDescr, textboxCaption)
	}
}

func attrNS(se xml.StartElement, local string) string {
	for _, a := range se.Attr {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}

// addImageFromRel resolves rid against the media relationships and
// records the image, with its Caption set from the lowest-priority
// sources available at collection time: the shape name, overridden by a
// sibling text box's text if present (spec.md §4.5). The higher-priority
// caption-styled-paragraph sources are applied afterward by
// resolveImageCaptions once the surrounding paragraph text is known.
func (t *traversal) addImageFromRel(rid, shapeName, shapeDescr, textboxCaption string) {
	rel, ok := t.rels[rid]
	if !ok {
		return
	}
	target := rel.Target
	if strings.HasPrefix(target, "/") {
		target = strings.TrimPrefix(target, "/")
	} else {
		target = "word/" + target
	}
	t.imgIdx++
	img := model.Image{ImageIndex: t.imgIdx, Description: shapeDescr}
	if shapeName != "" {
		img.Caption = shapeName
	}
	if textboxCaption != "" {
		img.Caption = textboxCaption
	}
	data, err := t.zc.ReadBytes(target)
	if err != nil {
		img.Error = err.Error()
		t.images = append(t.images, img)
		return
	}
	img.Data = data
	img.Size = len(data)
	img.ContentType = safety.ImageContentType(data)
	if w, h, ok := safety.ImageDimensions(data); ok {
		img.Width, img.Height = &w, &h
	}
	t.images = append(t.images, img)
}

func (t *traversal) loadNotes(part, class string, dest *[]model.Note) error {
	if !t.zc.Has(part) {
		return nil
	}
	raw, err := t.zc.ReadBytes(part)
	if err != nil {
		return err
	}
	dec := xml.NewDecoder(bytes.NewReader(raw))
	dec.Strict = false
	var curID string
	var curText strings.Builder
	open := false
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		switch se := tok.(type) {
		case xml.StartElement:
			switch localName(se.Name) {
			case "footnote", "endnote":
				id := attr(se, "id")
				if id == "-1" || id == "0" {
					continue // separator/continuation placeholders, not real notes
				}
				curID = id
				curText.Reset()
				open = true
			case "t":
				if open {
					var text string
					dec.DecodeElement(&text, &se)
					curText.WriteString(text)
				}
			}
		case xml.EndElement:
			if (localName(se.Name) == "footnote" || localName(se.Name) == "endnote") && open {
				*dest = append(*dest, model.Note{Text: curText.String(), Class: class})
				open = false
				_ = curID
			}
		}
	}
	return nil
}

// parseComments reads a word/comments.xml part into one model.Comment
// per w:comment element, concatenating its paragraphs' run text.
func parseComments(raw []byte) []model.Comment {
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
			switch localName(se.Name) {
			case "comment":
				c := model.Comment{Author: attr(se, "author"), Date: attr(se, "date")}
				cur = &c
			case "p":
				if cur != nil && cur.Text != "" {
					cur.Text += "\n"
				}
			case "t":
				if cur != nil {
					var s string
					if err := dec.DecodeElement(&s, &se); err == nil {
						cur.Text += s
					}
					continue
				}
			}
		case xml.EndElement:
			if localName(se.Name) == "comment" && cur != nil {
				comments = append(comments, *cur)
				cur = nil
			}
		}
	}
	return comments
}

// extractPlainText concatenates every w:t run's text in raw, inserting a
// newline between paragraphs — used for word/header*.xml and
// word/footer*.xml, which carry plain paragraphs with none of the
// structure walkBody tracks for the main body (styles, tables, notes).
func extractPlainText(raw []byte) string {
	dec := xml.NewDecoder(bytes.NewReader(raw))
	dec.Strict = false
	var b strings.Builder
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			break
		}
		se, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		switch localName(se.Name) {
		case "p":
			if b.Len() > 0 {
				b.WriteString("\n")
			}
		case "t":
			var s string
			if err := dec.DecodeElement(&s, &se); err == nil {
				b.WriteString(s)
			}
		}
	}
	return strings.TrimSpace(b.String())
}

// captureElement re-serializes se and everything up to its matching end
// element back into raw XML bytes, for subtrees (oMath) that a
// purpose-built converter (pkg/omml) parses independently.
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
