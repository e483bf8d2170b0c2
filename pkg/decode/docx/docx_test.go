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

package docx_test

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/corvidlabs/docforge/pkg/decode/docx"
)

func buildDOCX(t *testing.T, entries map[string]string) []byte {
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

const docxDocumentXML = `<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="x" xmlns:r="y" xmlns:wp="z" xmlns:a="q" xmlns:pic="p">
  <w:body>
    <w:p><w:r><w:t>Intro paragraph.</w:t></w:r></w:p>
    <w:p>
      <w:r>
        <w:drawing>
          <wp:inline>
            <wp:docPr id="1" name="Picture 1" descr="a sample photo"/>
            <a:graphic>
              <a:graphicData>
                <pic:pic>
                  <pic:blipFill>
                    <a:blip r:embed="rId1"/>
                  </pic:blipFill>
                </pic:pic>
              </a:graphicData>
            </a:graphic>
          </wp:inline>
        </w:drawing>
      </w:r>
    </w:p>
    <w:p>
      <w:pPr><w:pStyle w:val="Caption1"/></w:pPr>
      <w:r><w:t>Figure 1: Demo</w:t></w:r>
    </w:p>
  </w:body>
</w:document>`

const docxStylesXML = `<?xml version="1.0" encoding="UTF-8"?>
<w:styles xmlns:w="x">
  <w:style w:styleId="Caption1"><w:name w:val="Caption"/></w:style>
</w:styles>`

const docxDocumentRelsXML = `<?xml version="1.0" encoding="UTF-8"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
  <Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/image" Target="media/image1.png"/>
  <Relationship Id="rId2" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/comments" Target="comments.xml"/>
  <Relationship Id="rId3" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/header" Target="header1.xml"/>
  <Relationship Id="rId4" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/footer" Target="footer1.xml"/>
</Relationships>`

const docxCommentsXML = `<?xml version="1.0" encoding="UTF-8"?>
<w:comments xmlns:w="x">
  <w:comment w:id="0" w:author="Jane" w:date="2024-01-01T00:00:00Z">
    <w:p><w:r><w:t>Needs review</w:t></w:r></w:p>
  </w:comment>
</w:comments>`

const docxHeaderXML = `<?xml version="1.0" encoding="UTF-8"?>
<w:hdr xmlns:w="x"><w:p><w:r><w:t>Header text</w:t></w:r></w:p></w:hdr>`

const docxFooterXML = `<?xml version="1.0" encoding="UTF-8"?>
<w:ftr xmlns:w="x"><w:p><w:r><w:t>Footer text</w:t></w:r></w:p></w:ftr>`

func buildBasicDOCX(t *testing.T) []byte {
	return buildDOCX(t, map[string]string{
		"word/document.xml":        docxDocumentXML,
		"word/styles.xml":          docxStylesXML,
		"word/_rels/document.xml.rels": docxDocumentRelsXML,
		"word/comments.xml":        docxCommentsXML,
		"word/header1.xml":         docxHeaderXML,
		"word/footer1.xml":         docxFooterXML,
		"word/media/image1.png":    "\x89PNG-not-really-but-bytes-are-enough",
	})
}

func TestDecodeHeadersFootersAndComments(t *testing.T) {
	c, err := docx.Decode(buildBasicDOCX(t), "report.docx")
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	if len(c.Headers) != 1 || c.Headers[0] != "Header text" {
		t.Errorf("expected one header %q, got %#v", "Header text", c.Headers)
	}
	if len(c.Footers) != 1 || c.Footers[0] != "Footer text" {
		t.Errorf("expected one footer %q, got %#v", "Footer text", c.Footers)
	}
	if len(c.Comments) != 1 {
		t.Fatalf("expected 1 comment, got %d", len(c.Comments))
	}
	if c.Comments[0].Author != "Jane" || c.Comments[0].Text != "Needs review" {
		t.Errorf("unexpected comment: %#v", c.Comments[0])
	}
}

func TestDecodeImageCaptionFromFollowingCaptionStyledParagraph(t *testing.T) {
	c, err := docx.Decode(buildBasicDOCX(t), "report.docx")
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	if len(c.Images) != 1 {
		t.Fatalf("expected 1 image, got %d", len(c.Images))
	}
	img := c.Images[0]
	if img.Description != "a sample photo" {
		t.Errorf("expected description from docPr descr, got %q", img.Description)
	}
	if img.Caption != "Figure 1: Demo" {
		t.Errorf("expected caption from the following Caption-styled paragraph, got %q", img.Caption)
	}
}

func TestDecodeImageCaptionFallsBackToShapeName(t *testing.T) {
	data := buildDOCX(t, map[string]string{
		"word/document.xml": `<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="x" xmlns:r="y" xmlns:wp="z" xmlns:a="q" xmlns:pic="p">
  <w:body>
    <w:p>
      <w:r>
        <w:drawing>
          <wp:inline>
            <wp:docPr id="1" name="Logo"/>
            <a:graphic><a:graphicData><pic:pic><pic:blipFill>
              <a:blip r:embed="rId1"/>
            </pic:blipFill></pic:pic></a:graphicData></a:graphic>
          </wp:inline>
        </w:drawing>
      </w:r>
    </w:p>
  </w:body>
</w:document>`,
		"word/_rels/document.xml.rels": `<?xml version="1.0" encoding="UTF-8"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
  <Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/image" Target="media/image1.png"/>
</Relationships>`,
		"word/media/image1.png": "not-a-real-png-but-thats-fine",
	})

	c, err := docx.Decode(data, "logo.docx")
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(c.Images) != 1 {
		t.Fatalf("expected 1 image, got %d", len(c.Images))
	}
	if c.Images[0].Caption != "Logo" {
		t.Errorf("expected caption fallback to shape name %q, got %q", "Logo", c.Images[0].Caption)
	}
}
