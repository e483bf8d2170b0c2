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

package pptx_test

import (
	"archive/zip"
	"bytes"
	"strings"
	"testing"

	"github.com/corvidlabs/docforge/pkg/decode/pptx"
)

func buildPPTX(t *testing.T, entries map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, content := range entries {
		f, err := w.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := f.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

const pptxPresentationXML = `<?xml version="1.0" encoding="UTF-8"?>
<p:presentation xmlns:p="pres" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships">
  <p:sldIdLst>
    <p:sldId id="256" r:id="rId2"/>
  </p:sldIdLst>
</p:presentation>`

const pptxPresentationRelsXML = `<?xml version="1.0" encoding="UTF-8"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
  <Relationship Id="rId2" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slide" Target="slides/slide1.xml"/>
</Relationships>`

const pptxSlide1XML = `<?xml version="1.0" encoding="UTF-8"?>
<p:sld xmlns:p="pres" xmlns:a="draw" xmlns:r="rel">
  <p:cSld>
    <p:spTree>
      <p:sp>
        <p:nvSpPr><p:nvPr><p:ph type="title"/></p:nvPr></p:nvSpPr>
        <p:spPr><a:xfrm><a:off x="0" y="50000"/></a:xfrm></p:spPr>
        <p:txBody><a:p><a:r><a:t>Quarterly Results</a:t></a:r></a:p></p:txBody>
      </p:sp>
      <p:sp>
        <p:nvSpPr><p:nvPr><p:ph type="body"/></p:nvPr></p:nvSpPr>
        <p:spPr><a:xfrm><a:off x="0" y="500000"/></a:xfrm></p:spPr>
        <p:txBody><a:p><a:r><a:t>Second body text</a:t></a:r></a:p></p:txBody>
      </p:sp>
      <p:sp>
        <p:nvSpPr><p:nvPr><p:ph type="body"/></p:nvPr></p:nvSpPr>
        <p:spPr><a:xfrm><a:off x="0" y="100000"/></a:xfrm></p:spPr>
        <p:txBody><a:p><a:r><a:t>First body text</a:t></a:r></a:p></p:txBody>
      </p:sp>
      <p:sp>
        <p:nvSpPr><p:nvPr><p:ph type="ftr"/></p:nvPr></p:nvSpPr>
        <p:spPr><a:xfrm><a:off x="0" y="6500000"/></a:xfrm></p:spPr>
        <p:txBody><a:p><a:r><a:t>Page 1 of 1</a:t></a:r></a:p></p:txBody>
      </p:sp>
      <p:graphicFrame>
        <p:xfrm><a:off x="0" y="900000"/></p:xfrm>
        <a:graphic><a:graphicData>
          <a:tbl>
            <a:tr><a:tc><a:txBody><a:p><a:r><a:t>A1</a:t></a:r></a:p></a:txBody></a:tc>
                  <a:tc><a:txBody><a:p><a:r><a:t>B1</a:t></a:r></a:p></a:txBody></a:tc></a:tr>
          </a:tbl>
        </a:graphicData></a:graphic>
      </p:graphicFrame>
      <p:pic>
        <p:blipFill><a:blip r:embed="rId3"/></p:blipFill>
      </p:pic>
    </p:spTree>
  </p:cSld>
</p:sld>`

const pptxSlide1RelsXML = `<?xml version="1.0" encoding="UTF-8"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
  <Relationship Id="rId3" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/image" Target="../media/image1.png"/>
  <Relationship Id="rId4" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/comments" Target="../comments/comment1.xml"/>
</Relationships>`

const pptxCommentAuthorsXML = `<?xml version="1.0" encoding="UTF-8"?>
<p:cmAuthorLst xmlns:p="pres"><p:cmAuthor id="0" name="Alice" initials="A"/></p:cmAuthorLst>`

const pptxComment1XML = `<?xml version="1.0" encoding="UTF-8"?>
<p:cmLst xmlns:p="pres">
  <p:cm authorId="0" dt="2024-01-01T00:00:00.000">
    <p:text>Looks good</p:text>
  </p:cm>
</p:cmLst>`

const pptxNotesSlide1XML = `<?xml version="1.0" encoding="UTF-8"?>
<p:notes xmlns:p="pres" xmlns:a="draw">
  <p:cSld><p:spTree>
    <p:sp><p:txBody><a:p><a:r><a:t>Speaker note here</a:t></a:r></a:p></p:txBody></p:sp>
  </p:spTree></p:cSld>
</p:notes>`

func buildBasicPPTX(t *testing.T) []byte {
	return buildPPTX(t, map[string]string{
		"ppt/presentation.xml":                pptxPresentationXML,
		"ppt/_rels/presentation.xml.rels":     pptxPresentationRelsXML,
		"ppt/slides/slide1.xml":               pptxSlide1XML,
		"ppt/slides/_rels/slide1.xml.rels":    pptxSlide1RelsXML,
		"ppt/commentAuthors.xml":              pptxCommentAuthorsXML,
		"ppt/comments/comment1.xml":           pptxComment1XML,
		"ppt/notesSlides/notesSlide1.xml":     pptxNotesSlide1XML,
		"ppt/media/image1.png":                "not-a-real-png-but-thats-fine",
	})
}

func TestDecodeOrdersShapesByOnSlidePosition(t *testing.T) {
	c, err := pptx.Decode(buildBasicPPTX(t), "deck.pptx")
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(c.Slides) != 1 {
		t.Fatalf("expected 1 slide, got %d", len(c.Slides))
	}
	sl := c.Slides[0]

	if sl.Title != "Quarterly Results" {
		t.Errorf("unexpected title: %q", sl.Title)
	}

	wantText := "First body text\nSecond body text\nA1\tB1"
	if sl.Text != wantText {
		t.Errorf("Text = %q, want %q", sl.Text, wantText)
	}
	if strings.Contains(sl.Text, "Page 1 of 1") {
		t.Errorf("Text should exclude footer placeholder text, got %q", sl.Text)
	}
}

func TestDecodeBaseTextIncludesTitleButNotFooter(t *testing.T) {
	c, err := pptx.Decode(buildBasicPPTX(t), "deck.pptx")
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	sl := c.Slides[0]

	wantBase := "Quarterly Results\nFirst body text\nSecond body text\nA1\tB1"
	if sl.BaseText != wantBase {
		t.Errorf("BaseText = %q, want %q", sl.BaseText, wantBase)
	}
}

func TestDecodeSlideCommentsAndNotes(t *testing.T) {
	c, err := pptx.Decode(buildBasicPPTX(t), "deck.pptx")
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	sl := c.Slides[0]

	if sl.Notes != "Speaker note here" {
		t.Errorf("Notes = %q, want %q", sl.Notes, "Speaker note here")
	}
	if len(sl.Comments) != 1 {
		t.Fatalf("expected 1 comment, got %d", len(sl.Comments))
	}
	if sl.Comments[0].Author != "Alice" || sl.Comments[0].Text != "Looks good" {
		t.Errorf("unexpected comment: %#v", sl.Comments[0])
	}
}

func TestDecodeSlideImage(t *testing.T) {
	c, err := pptx.Decode(buildBasicPPTX(t), "deck.pptx")
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	sl := c.Slides[0]
	if len(sl.Images) != 1 {
		t.Fatalf("expected 1 image, got %d", len(sl.Images))
	}
	if len(sl.Images[0].Data) == 0 {
		t.Errorf("expected image data to be populated")
	}
}
