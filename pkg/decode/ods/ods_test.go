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

package ods_test

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/corvidlabs/docforge/pkg/decode/ods"
)

func buildODS(t *testing.T, entries map[string]string) []byte {
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

const odsContentXML = `<?xml version="1.0" encoding="UTF-8"?>
<office:document-content xmlns:office="urn:oasis:names:tc:opendocument:xmlns:office:1.0" xmlns:table="urn:oasis:names:tc:opendocument:xmlns:table:1.0" xmlns:text="urn:oasis:names:tc:opendocument:xmlns:text:1.0">
  <office:body>
    <office:spreadsheet>
      <table:table table:name="Sheet1">
        <table:table-row>
          <table:table-cell><text:p>Name</text:p></table:table-cell>
          <table:table-cell><text:p>Age</text:p></table:table-cell>
        </table:table-row>
        <table:table-row>
          <table:table-cell><text:p>Ann</text:p></table:table-cell>
          <table:table-cell><text:p>30</text:p></table:table-cell>
        </table:table-row>
        <table:table-row table:number-rows-repeated="5">
          <table:table-cell/>
          <table:table-cell/>
        </table:table-row>
      </table:table>
    </office:spreadsheet>
  </office:body>
</office:document-content>`

func TestDecodeSheetAndTrimsBlankRows(t *testing.T) {
	data := buildODS(t, map[string]string{"content.xml": odsContentXML})

	c, err := ods.Decode(data, "book.ods")
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	if len(c.Sheets) != 1 {
		t.Fatalf("expected 1 sheet, got %d", len(c.Sheets))
	}
	sh := c.Sheets[0]
	if sh.Name != "Sheet1" {
		t.Errorf("expected sheet name %q, got %q", "Sheet1", sh.Name)
	}
	if len(sh.Table.Rows) != 2 {
		t.Fatalf("expected trailing blank repeated rows trimmed to 2 rows, got %d: %#v", len(sh.Table.Rows), sh.Table.Rows)
	}
	if sh.Table.Rows[0][0] != "Name" || sh.Table.Rows[1][0] != "Ann" {
		t.Errorf("unexpected row contents: %#v", sh.Table.Rows)
	}
}

func TestDecodeMissingContentXML(t *testing.T) {
	data := buildODS(t, map[string]string{"meta.xml": `<office:document-meta/>`})
	if _, err := ods.Decode(data, "book.ods"); err == nil {
		t.Fatal("expected an error when content.xml is absent")
	}
}
