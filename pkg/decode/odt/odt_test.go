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

package odt_test

import (
	"archive/zip"
	"bytes"
	"strings"
	"testing"

	"github.com/corvidlabs/docforge/pkg/decode/odt"
)

func buildODT(t *testing.T, entries map[string]string) []byte {
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

const odtContentXML = `<?xml version="1.0" encoding="UTF-8"?>
<office:document-content xmlns:office="urn:oasis:names:tc:opendocument:xmlns:office:1.0" xmlns:text="urn:oasis:names:tc:opendocument:xmlns:text:1.0" xmlns:table="urn:oasis:names:tc:opendocument:xmlns:table:1.0">
  <office:body>
    <office:text>
      <text:h text:outline-level="1">Title</text:h>
      <text:p>Hello <text:span>world</text:span>.</text:p>
      <table:table>
        <table:table-row><table:table-cell><text:p>A1</text:p></table:table-cell><table:table-cell><text:p>B1</text:p></table:table-cell></table:table-row>
      </table:table>
    </office:text>
  </office:body>
</office:document-content>`

const odtMetaXML = `<?xml version="1.0" encoding="UTF-8"?>
<office:document-meta xmlns:office="urn:oasis:names:tc:opendocument:xmlns:office:1.0" xmlns:dc="http://purl.org/dc/elements/1.1/">
  <office:meta>
    <dc:title>Report</dc:title>
    <dc:creator>Jane</dc:creator>
  </office:meta>
</office:document-meta>`

func TestDecodeParagraphsAndTable(t *testing.T) {
	data := buildODT(t, map[string]string{
		"content.xml": odtContentXML,
		"meta.xml":    odtMetaXML,
	})

	c, err := odt.Decode(data, "report.odt")
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	if len(c.Paragraphs) != 2 {
		t.Fatalf("expected 2 paragraphs, got %d: %#v", len(c.Paragraphs), c.Paragraphs)
	}
	if c.Paragraphs[0].OutlineLevel != 1 {
		t.Errorf("expected heading outline level 1, got %d", c.Paragraphs[0].OutlineLevel)
	}
	if !strings.Contains(c.Paragraphs[1].Text, "Hello") || !strings.Contains(c.Paragraphs[1].Text, "world") {
		t.Errorf("expected paragraph text to contain Hello/world, got %q", c.Paragraphs[1].Text)
	}

	if len(c.Tables) != 1 || len(c.Tables[0].Rows) != 1 {
		t.Fatalf("expected 1 table with 1 row, got %#v", c.Tables)
	}
	if c.Tables[0].Rows[0][0] != "A1" || c.Tables[0].Rows[0][1] != "B1" {
		t.Errorf("unexpected row contents: %#v", c.Tables[0].Rows[0])
	}

	if c.Metadata.Title != "Report" || c.Metadata.Author != "Jane" {
		t.Errorf("expected meta.xml title/author to populate, got %+v", c.Metadata)
	}

	full := c.FullText()
	if !strings.Contains(full, "Title") || !strings.Contains(full, "Hello") {
		t.Errorf("FullText missing expected content: %q", full)
	}
}

func TestDecodeMissingContentXML(t *testing.T) {
	data := buildODT(t, map[string]string{"meta.xml": odtMetaXML})
	if _, err := odt.Decode(data, "report.odt"); err == nil {
		t.Fatal("expected an error when content.xml is absent")
	}
}

func TestDecodeRejectsNonZip(t *testing.T) {
	if _, err := odt.Decode([]byte("not a zip"), "report.odt"); err == nil {
		t.Fatal("expected an error decoding non-zip data")
	}
}
