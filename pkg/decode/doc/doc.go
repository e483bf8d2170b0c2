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

// Package doc reads a legacy binary Word document (spec.md §4.8): the FIB's
// fWhichTblStm flag picks 0Table or 1Table, the CLX piece table in that
// stream locates text runs in WordDocument, and a printable-byte scan is
// the fallback when the piece table can't be read.
package doc

import (
	"bytes"
	"encoding/binary"
	"strings"
	"unicode/utf16"

	"github.com/corvidlabs/docforge/pkg/model"
	"github.com/corvidlabs/docforge/pkg/safety"
	"github.com/corvidlabs/docforge/pkg/xerrors"
)

// Metadata is the DOC-specific metadata surface.
type Metadata struct {
	model.OfficeMetadata
}

// Content is a decoded legacy DOC file; legacy binary documents have no
// native pagination docforge recovers cheaply, so the whole body is one
// Unit per spec.md §4.8's Non-goals.
type Content struct {
	Metadata Metadata
	Text     string
	Images   []model.Image
}

func (c *Content) IterateUnits() []model.Unit {
	return []model.Unit{{Number: 1, Text: c.Text, Images: c.Images}}
}
func (c *Content) IterateImages() []model.Image { return c.Images }
func (c *Content) FullText() string              { return c.Text }
func (c *Content) TypeTag() model.TypeTag        { return model.TagDoc }

// Decode parses legacy DOC bytes per spec.md §4.8.
func Decode(data []byte, path string) (*Content, error) {
	ole, err := safety.OpenOLE2(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	wordDoc, ok := ole.Stream("WordDocument")
	if !ok || len(wordDoc) < 12 {
		return nil, xerrors.LegacyParse("missing WordDocument stream")
	}
	if !safety.DocValidFIB(wordDoc) {
		return nil, xerrors.LegacyParse("WordDocument stream has no valid FIB")
	}
	if safety.DocEncrypted(wordDoc) {
		return nil, xerrors.Encrypted("doc")
	}

	var tableData []byte
	flags := binary.LittleEndian.Uint16(wordDoc[0x0A:0x0C])
	whichTable := (flags >> 9) & 1
	tableName := "0Table"
	if whichTable == 1 {
		tableName = "1Table"
	}
	tableData, _ = ole.Stream(tableName)

	text := extractWordText(wordDoc, tableData)
	text = filterFieldCodes(text)
	text = strings.TrimSpace(text)

	meta := Metadata{}
	meta.PopulateFromPath(path)

	var images []model.Image
	if dataStream, ok := ole.Stream("Data"); ok {
		images = extractImages(dataStream)
	}

	return &Content{Metadata: meta, Text: text, Images: images}, nil
}

// extractWordText tries the CLX piece-table route first, falling back to a
// printable-byte scan of the raw stream when the table is missing or
// malformed — legacy producers vary widely in how faithfully they write
// the documented layout.
func extractWordText(wordDoc, tableData []byte) string {
	if len(tableData) > 0 {
		if text := extractFromPieceTable(wordDoc, tableData); text != "" {
			return text
		}
	}
	return extractDirectText(wordDoc)
}

func extractFromPieceTable(wordDoc, tableData []byte) string {
	if len(wordDoc) < 0x01A2+8 {
		return ""
	}
	fcClx := binary.LittleEndian.Uint32(wordDoc[0x01A2:0x01A6])
	lcbClx := binary.LittleEndian.Uint32(wordDoc[0x01A6:0x01AA])
	if fcClx == 0 || lcbClx == 0 || int(fcClx+lcbClx) > len(tableData) {
		return ""
	}
	clx := tableData[fcClx : fcClx+lcbClx]

	pos := 0
	for pos < len(clx) {
		if clx[pos] == 0x01 {
			if pos+3 > len(clx) {
				break
			}
			cbGrpprl := int(binary.LittleEndian.Uint16(clx[pos+1 : pos+3]))
			pos += 3 + cbGrpprl
		} else if clx[pos] == 0x02 {
			pos++
			break
		} else {
			break
		}
	}
	if pos >= len(clx) || pos+4 > len(clx) {
		return ""
	}

	lcb := int(binary.LittleEndian.Uint32(clx[pos : pos+4]))
	pos += 4
	if lcb < 12 || pos+lcb > len(clx) {
		return ""
	}
	plcPcd := clx[pos : pos+lcb]

	const pcdSize = 8
	n := (lcb - 4) / (4 + pcdSize)
	if n <= 0 {
		return ""
	}
	cpArraySize := (n + 1) * 4
	if cpArraySize+n*pcdSize > lcb {
		return ""
	}

	var sb strings.Builder
	for i := 0; i < n; i++ {
		cpStart := binary.LittleEndian.Uint32(plcPcd[i*4 : i*4+4])
		cpEnd := binary.LittleEndian.Uint32(plcPcd[(i+1)*4 : (i+1)*4+4])
		pcdOffset := cpArraySize + i*pcdSize
		if pcdOffset+8 > len(plcPcd) {
			break
		}
		fcCompressed := binary.LittleEndian.Uint32(plcPcd[pcdOffset+2 : pcdOffset+6])
		isUnicode := (fcCompressed & 0x40000000) == 0
		fc := fcCompressed & 0x3FFFFFFF

		charCount := cpEnd - cpStart
		if charCount == 0 || charCount > 1_000_000 {
			continue
		}
		if isUnicode {
			byteLen := charCount * 2
			if int(fc+byteLen) > len(wordDoc) {
				continue
			}
			chunk := wordDoc[fc : fc+byteLen]
			u16s := make([]uint16, charCount)
			for j := uint32(0); j < charCount; j++ {
				u16s[j] = binary.LittleEndian.Uint16(chunk[j*2 : j*2+2])
			}
			writeRunes(&sb, utf16.Decode(u16s))
		} else {
			byteOffset := fc / 2
			if int(byteOffset+charCount) > len(wordDoc) {
				continue
			}
			writeBytes(&sb, wordDoc[byteOffset:byteOffset+charCount])
		}
	}
	return sb.String()
}

func writeRunes(sb *strings.Builder, runes []rune) {
	for _, r := range runes {
		switch {
		case r == 0x0D || r == 0x0B:
			sb.WriteByte('\n')
		case r == 0x07:
			sb.WriteByte('\t')
		case r >= 0x20 || r == 0x09:
			sb.WriteRune(r)
		}
	}
}

func writeBytes(sb *strings.Builder, b []byte) {
	for _, c := range b {
		switch {
		case c == 0x0D || c == 0x0B:
			sb.WriteByte('\n')
		case c == 0x07:
			sb.WriteByte('\t')
		case c >= 0x20 || c == 0x09:
			sb.WriteByte(c)
		}
	}
}

// extractDirectText scans for printable byte runs when the piece table
// can't be trusted.
func extractDirectText(wordDoc []byte) string {
	var sb strings.Builder
	inText := false
	for _, b := range wordDoc {
		if (b >= 0x20 && b < 0x7F) || b == 0x0A || b == 0x0D || b == 0x09 {
			if b == 0x0D {
				sb.WriteByte('\n')
			} else {
				sb.WriteByte(b)
			}
			inText = true
		} else {
			if inText && sb.Len() > 0 {
				if s := sb.String(); s[len(s)-1] != '\n' {
					sb.WriteByte('\n')
				}
			}
			inText = false
		}
	}
	return sb.String()
}

var fieldCodeMarkers = []string{"HYPERLINK", "PAGEREF", "MERGEFORMAT", "TOC \\o", "TOC \\h", "\\l \"", " \\h"}

// filterFieldCodes drops lines carrying Word field-code markers that leak
// through piece-table extraction as noise.
func filterFieldCodes(text string) string {
	lines := strings.Split(text, "\n")
	out := lines[:0]
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		noise := false
		for _, m := range fieldCodeMarkers {
			if strings.Contains(trimmed, m) {
				noise = true
				break
			}
		}
		if !noise {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}

const minImageSize = 1024

var (
	jpegMagic = []byte{0xFF, 0xD8, 0xFF}
	jpegEOI   = []byte{0xFF, 0xD9}
	pngMagic  = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}
	pngIEND   = []byte{0x00, 0x00, 0x00, 0x00, 0x49, 0x45, 0x4E, 0x44, 0xAE, 0x42, 0x60, 0x82}
)

// extractImages finds embedded JPEG/PNG images in the Data stream by magic
// number, discarding anything under minImageSize as a likely bullet/icon.
func extractImages(dataStream []byte) []model.Image {
	var images []model.Image
	idx := 1
	pos := 0
	for pos < len(dataStream) {
		switch {
		case pos+3 <= len(dataStream) && bytes.Equal(dataStream[pos:pos+3], jpegMagic):
			boundary := len(dataStream)
			for scan := pos + 3; scan < len(dataStream); scan++ {
				if scan+3 <= len(dataStream) && bytes.Equal(dataStream[scan:scan+3], jpegMagic) {
					boundary = scan
					break
				}
				if scan+8 <= len(dataStream) && bytes.Equal(dataStream[scan:scan+8], pngMagic) {
					boundary = scan
					break
				}
			}
			region := dataStream[pos+3 : boundary]
			if last := bytes.LastIndex(region, jpegEOI); last >= 0 {
				end := pos + 3 + last + 2
				if img, ok := buildImage(dataStream[pos:end], idx); ok {
					images = append(images, img)
					idx++
				}
				pos = end
				continue
			}
			pos++
		case pos+8 <= len(dataStream) && bytes.Equal(dataStream[pos:pos+8], pngMagic):
			if iend := bytes.Index(dataStream[pos+8:], pngIEND); iend >= 0 {
				end := pos + 8 + iend + len(pngIEND)
				if img, ok := buildImage(dataStream[pos:end], idx); ok {
					images = append(images, img)
					idx++
				}
				pos = end
				continue
			}
			pos++
		default:
			pos++
		}
	}
	return images
}

func buildImage(raw []byte, idx int) (model.Image, bool) {
	if len(raw) < minImageSize {
		return model.Image{}, false
	}
	data := append([]byte(nil), raw...)
	img := model.Image{ImageIndex: idx, Data: data, Size: len(data), ContentType: safety.ImageContentType(data)}
	if w, h, ok := safety.ImageDimensions(data); ok {
		img.Width, img.Height = &w, &h
	}
	return img, true
}
