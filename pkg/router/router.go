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

// Package router maps a file path to a decoder format (spec.md §4.1): an
// extension/MIME table with extension as the authoritative signal and a
// content-sniffed MIME guess only as a fallback when the extension alone
// yields nothing.
package router

import (
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/corvidlabs/docforge/pkg/xerrors"
)

// Format names the concrete decoder a path routes to.
type Format string

const (
	FormatDOC     Format = "doc"
	FormatDOCX    Format = "docx"
	FormatXLS     Format = "xls"
	FormatXLSX    Format = "xlsx"
	FormatPPT     Format = "ppt"
	FormatPPTX    Format = "pptx"
	FormatRTF     Format = "rtf"
	FormatODT     Format = "odt"
	FormatODP     Format = "odp"
	FormatODS     Format = "ods"
	FormatPDF     Format = "pdf"
	FormatPlain   Format = "plain"
	FormatHTML    Format = "html"
	FormatMHTML   Format = "mhtml"
	FormatEPUB    Format = "epub"
	FormatEML     Format = "eml"
	FormatMBOX    Format = "mbox"
	FormatMSG     Format = "msg"
	FormatArchive Format = "archive"
)

type entry struct {
	mime   string
	format Format
}

// extTable is the authoritative extension -> (MIME, Format) mapping from
// spec.md §6. Extensions are matched case-insensitively and without the
// leading dot.
var extTable = map[string]entry{
	"doc":  {"application/msword", FormatDOC},
	"dot":  {"application/msword", FormatDOC},
	"docx": {"application/vnd.openxmlformats-officedocument.wordprocessingml.document", FormatDOCX},
	"docm": {"application/vnd.ms-word.document.macroEnabled.12", FormatDOCX},
	"xls":  {"application/vnd.ms-excel", FormatXLS},
	"xlsx": {"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", FormatXLSX},
	"xlsm": {"application/vnd.ms-excel.sheet.macroEnabled.12", FormatXLSX},
	"ppt":  {"application/vnd.ms-powerpoint", FormatPPT},
	"pptx": {"application/vnd.openxmlformats-officedocument.presentationml.presentation", FormatPPTX},
	"pptm": {"application/vnd.ms-powerpoint.presentation.macroEnabled.12", FormatPPTX},
	"rtf":  {"application/rtf", FormatRTF},
	"odt":  {"application/vnd.oasis.opendocument.text", FormatODT},
	"odp":  {"application/vnd.oasis.opendocument.presentation", FormatODP},
	"ods":  {"application/vnd.oasis.opendocument.spreadsheet", FormatODS},
	"pdf":  {"application/pdf", FormatPDF},
	"txt":  {"text/plain", FormatPlain},
	"csv":  {"text/csv", FormatPlain},
	"tsv":  {"text/tab-separated-values", FormatPlain},
	"md":   {"text/markdown", FormatPlain},
	"json": {"text/json", FormatPlain},
	"html": {"text/html", FormatHTML},
	"htm":  {"text/html", FormatHTML},
	"mht":  {"", FormatMHTML},
	"mhtml": {"", FormatMHTML},
	"epub": {"application/epub+zip", FormatEPUB},
	"eml":  {"message/rfc822", FormatEML},
	"mbox": {"application/mbox", FormatMBOX},
	"msg":  {"application/vnd.ms-outlook", FormatMSG},
}

// archiveSuffixes are matched against the whole lowercased filename since
// several (.tar.gz, .tar.bz2, .tar.xz) are compound extensions that
// filepath.Ext alone can't isolate.
var archiveSuffixes = []string{
	".zip", ".7z", ".tar", ".tar.gz", ".tgz", ".tar.bz2", ".tbz2", ".tar.xz", ".txz",
}

func ext(path string) string {
	lower := strings.ToLower(path)
	i := strings.LastIndexByte(lower, '.')
	if i < 0 {
		return ""
	}
	return lower[i+1:]
}

// Lookup dispatches path to a Format, per spec.md §4.1's algorithm:
// extension is authoritative, MIME guess is only a fallback, and .mht/
// .mhtml always win over a message/rfc822 MIME guess a generic sniffer
// might produce.
func Lookup(path string) (Format, error) {
	lower := strings.ToLower(path)

	for _, suf := range archiveSuffixes {
		if strings.HasSuffix(lower, suf) {
			return FormatArchive, nil
		}
	}

	e := ext(path)
	if e == "mht" || e == "mhtml" {
		return FormatMHTML, nil
	}

	if entry, ok := extTable[e]; ok {
		return entry.format, nil
	}

	return "", xerrors.NotSupported(path)
}

// LookupContent is the MIME-sniff fallback spec.md §4.1 step (2)/(3)
// describes: used when the extension alone yields no mapping (e.g. a
// path with no extension, or one the router doesn't recognize) but the
// caller already has the file's bytes in hand.
func LookupContent(path string, data []byte) (Format, error) {
	if f, err := Lookup(path); err == nil {
		return f, nil
	}

	mt := mimetype.Detect(data)
	for mt != nil {
		for _, e := range extTable {
			if e.mime != "" && strings.EqualFold(e.mime, mt.String()) {
				return e.format, nil
			}
		}
		mt = mt.Parent()
	}

	return "", xerrors.NotSupported(path)
}

// MIME returns the fixed-table MIME guess for path's extension, or ""
// if unknown.
func MIME(path string) string {
	if entry, ok := extTable[ext(path)]; ok {
		return entry.mime
	}
	return ""
}

// IsSupported reports whether path routes to a known decoder or the
// archive walker.
func IsSupported(path string) bool {
	_, err := Lookup(path)
	return err == nil
}
