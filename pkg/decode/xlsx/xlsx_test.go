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

package xlsx_test

import (
	"archive/zip"
	"bytes"
	"reflect"
	"testing"

	"github.com/corvidlabs/docforge/pkg/decode/xlsx"
)

func buildXLSX(t *testing.T, entries map[string]string) []byte {
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

const xlsxContentTypesXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
  <Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
  <Default Extension="xml" ContentType="application/xml"/>
  <Override PartName="/xl/workbook.xml" ContentType="application/vnd.openxmlformats-officedocument.spreadsheetml.sheet.main+xml"/>
  <Override PartName="/xl/worksheets/sheet1.xml" ContentType="application/vnd.openxmlformats-officedocument.spreadsheetml.worksheet+xml"/>
  <Override PartName="/xl/styles.xml" ContentType="application/vnd.openxmlformats-officedocument.spreadsheetml.styles+xml"/>
</Types>`

const xlsxRootRelsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
  <Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="xl/workbook.xml"/>
</Relationships>`

const xlsxWorkbookXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<workbook xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships">
  <sheets>
    <sheet name="Sales" sheetId="1" r:id="rId1"/>
  </sheets>
</workbook>`

const xlsxWorkbookRelsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
  <Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/worksheet" Target="worksheets/sheet1.xml"/>
  <Relationship Id="rId2" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/styles" Target="styles.xml"/>
</Relationships>`

const xlsxStylesXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<styleSheet xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main">
  <fonts count="1"><font><sz val="11"/><name val="Calibri"/></font></fonts>
  <fills count="1"><fill><patternFill patternType="none"/></fill></fills>
  <borders count="1"><border><left/><right/><top/><bottom/><diagonal/></border></borders>
  <cellStyleXfs count="1"><xf numFmtId="0" fontId="0" fillId="0" borderId="0"/></cellStyleXfs>
  <cellXfs count="1"><xf numFmtId="0" fontId="0" fillId="0" borderId="0"/></cellXfs>
</styleSheet>`

const xlsxSheet1XML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<worksheet xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main">
  <dimension ref="A1:C3"/>
  <sheetData>
    <row r="1">
      <c r="A1" t="inlineStr"><is><t>Name</t></is></c>
      <c r="B1" t="inlineStr"><is><t></t></is></c>
      <c r="C1" t="inlineStr"><is><t>Amount</t></is></c>
    </row>
    <row r="2">
      <c r="A2" t="inlineStr"><is><t>Widget</t></is></c>
      <c r="B2" t="inlineStr"><is><t>Red</t></is></c>
      <c r="C2"><v>10</v></c>
    </row>
    <row r="3"/>
  </sheetData>
</worksheet>`

func buildBasicXLSX(t *testing.T) []byte {
	return buildXLSX(t, map[string]string{
		"[Content_Types].xml":           xlsxContentTypesXML,
		"_rels/.rels":                   xlsxRootRelsXML,
		"xl/workbook.xml":                xlsxWorkbookXML,
		"xl/_rels/workbook.xml.rels":    xlsxWorkbookRelsXML,
		"xl/styles.xml":                  xlsxStylesXML,
		"xl/worksheets/sheet1.xml":       xlsxSheet1XML,
	})
}

func TestDecodeHeadersAndTrailingBlankTrim(t *testing.T) {
	c, err := xlsx.Decode(buildBasicXLSX(t), "report.xlsx")
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if c.Metadata.SheetCount != 1 {
		t.Fatalf("expected 1 sheet, got %d", c.Metadata.SheetCount)
	}
	sh := c.Sheets[0]
	if sh.Name != "Sales" {
		t.Errorf("unexpected sheet name: %q", sh.Name)
	}

	wantHeaders := []string{"Name", "Unnamed: 1", "Amount"}
	if !reflect.DeepEqual(sh.Headers, wantHeaders) {
		t.Errorf("Headers = %#v, want %#v", sh.Headers, wantHeaders)
	}

	wantRows := [][]string{{"Widget", "Red", "10"}}
	if !reflect.DeepEqual(sh.Table.Rows, wantRows) {
		t.Errorf("Rows = %#v, want %#v (trailing blank row should be trimmed)", sh.Table.Rows, wantRows)
	}
}

func TestDecodeHeaderKeyedRecords(t *testing.T) {
	c, err := xlsx.Decode(buildBasicXLSX(t), "report.xlsx")
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	sh := c.Sheets[0]
	if len(sh.Data) != 1 {
		t.Fatalf("expected 1 record, got %d", len(sh.Data))
	}
	want := map[string]string{"Name": "Widget", "Unnamed: 1": "Red", "Amount": "10"}
	if !reflect.DeepEqual(sh.Data[0], want) {
		t.Errorf("Data[0] = %#v, want %#v", sh.Data[0], want)
	}
}
