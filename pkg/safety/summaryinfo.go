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

package safety

import (
	"encoding/binary"
	"time"
)

// SummaryInfo is the subset of a compound file's \x05SummaryInformation
// property set that maps onto the shared OfficeMetadata surface.
type SummaryInfo struct {
	Title       string
	Subject     string
	Author      string
	Keywords    string
	Comments    string
	LastAuthor  string
	RevNumber   string
	Created     string // RFC3339
	LastSaved   string // RFC3339
	PageCount   int
	WordCount   int
	CharCount   int
}

// PIDSI_* property IDs within a SummaryInformation property set, per
// [MS-OLEPS].
const (
	pidTitle      = 0x02
	pidSubject    = 0x03
	pidAuthor     = 0x04
	pidKeywords   = 0x05
	pidComments   = 0x06
	pidLastAuthor = 0x08
	pidRevNumber  = 0x09
	pidCreateDTM  = 0x0C
	pidLastSaveDTM = 0x0D
	pidPageCount  = 0x0E
	pidWordCount  = 0x0F
	pidCharCount  = 0x10
)

// Variant type codes this reader handles; everything else is skipped.
const (
	vtI2      = 2
	vtI4      = 3
	vtLPSTR   = 30
	vtFileTime = 64
)

// ReadSummaryInfo parses a \x05SummaryInformation stream's property-set
// header (no example in the pack exercises richardlehane/msoleps
// directly — only its /types subpackage arrives transitively — so this
// follows the documented PropertySetStream layout by hand rather than
// pull in a library nothing here actually imports).
func ReadSummaryInfo(raw []byte) (SummaryInfo, bool) {
	var info SummaryInfo
	if len(raw) < 28 {
		return info, false
	}
	// Header: byteOrder(2) version(2) osVersion(4) classID(16)
	// numPropertySets(4), then FMTID0(16) offset0(4).
	numSets := binary.LittleEndian.Uint32(raw[24:28])
	if numSets == 0 || len(raw) < 48 {
		return info, false
	}
	offset0 := binary.LittleEndian.Uint32(raw[44:48])
	if int(offset0) >= len(raw) {
		return info, false
	}
	set := raw[offset0:]
	if len(set) < 8 {
		return info, false
	}
	numProps := binary.LittleEndian.Uint32(set[4:8])
	codepage := 1252 // ANSI default when PIDSI_CODEPAGE is absent/unreadable
	type propOffset struct {
		id  uint32
		off uint32
	}
	var props []propOffset
	for i := uint32(0); i < numProps; i++ {
		base := 8 + i*8
		if int(base+8) > len(set) {
			break
		}
		props = append(props, propOffset{
			id:  binary.LittleEndian.Uint32(set[base : base+4]),
			off: binary.LittleEndian.Uint32(set[base+4 : base+8]),
		})
	}
	readAt := func(off uint32) ([]byte, uint32, bool) {
		if int(off+4) > len(set) {
			return nil, 0, false
		}
		typ := binary.LittleEndian.Uint32(set[off : off+4])
		return set, typ, true
	}
	readString := func(off uint32) string {
		body, typ, ok := readAt(off)
		if !ok || typ != vtLPSTR {
			return ""
		}
		if int(off+8) > len(body) {
			return ""
		}
		size := binary.LittleEndian.Uint32(body[off+4 : off+8])
		start := off + 8
		if int(start+size) > len(body) {
			return ""
		}
		b := body[start : start+size]
		// Length includes a trailing NUL the caller doesn't want.
		for len(b) > 0 && b[len(b)-1] == 0 {
			b = b[:len(b)-1]
		}
		return decodeCodepageBytes(b, codepage)
	}
	readInt := func(off uint32) int {
		body, typ, ok := readAt(off)
		if !ok {
			return 0
		}
		switch typ {
		case vtI2:
			if int(off+6) > len(body) {
				return 0
			}
			return int(int16(binary.LittleEndian.Uint16(body[off+4 : off+6])))
		case vtI4:
			if int(off+8) > len(body) {
				return 0
			}
			return int(int32(binary.LittleEndian.Uint32(body[off+4 : off+8])))
		}
		return 0
	}
	readTime := func(off uint32) string {
		body, typ, ok := readAt(off)
		if !ok || typ != vtFileTime {
			return ""
		}
		if int(off+12) > len(body) {
			return ""
		}
		ft := binary.LittleEndian.Uint64(body[off+4 : off+12])
		if ft == 0 {
			return ""
		}
		// FILETIME: 100ns intervals since 1601-01-01.
		const epochDiff = 116444736000000000
		unixNano := (int64(ft) - epochDiff) * 100
		return time.Unix(0, unixNano).UTC().Format(time.RFC3339)
	}

	// A first pass for PIDSI_CODEPAGE (VT_I2, property ID 1) would refine
	// string decoding for non-ANSI documents; absent that property, ANSI
	// (cp1252) is assumed, matching the historical Office default.
	for _, p := range props {
		if p.id == 1 {
			if cp := readInt(p.off); cp > 0 {
				codepage = cp
			}
		}
	}

	for _, p := range props {
		switch p.id {
		case pidTitle:
			info.Title = readString(p.off)
		case pidSubject:
			info.Subject = readString(p.off)
		case pidAuthor:
			info.Author = readString(p.off)
		case pidKeywords:
			info.Keywords = readString(p.off)
		case pidComments:
			info.Comments = readString(p.off)
		case pidLastAuthor:
			info.LastAuthor = readString(p.off)
		case pidRevNumber:
			info.RevNumber = readString(p.off)
		case pidCreateDTM:
			info.Created = readTime(p.off)
		case pidLastSaveDTM:
			info.LastSaved = readTime(p.off)
		case pidPageCount:
			info.PageCount = readInt(p.off)
		case pidWordCount:
			info.WordCount = readInt(p.off)
		case pidCharCount:
			info.CharCount = readInt(p.off)
		}
	}
	return info, true
}

// decodeCodepageBytes handles the two codepages Office actually writes
// into legacy SummaryInformation streams in practice; anything else is
// passed through as Latin-1-ish raw bytes rather than mojibake-proofed,
// which this reader doesn't claim to solve in general.
func decodeCodepageBytes(b []byte, codepage int) string {
	if codepage == 65001 { // CP_UTF8
		return string(b)
	}
	// cp1252/Latin-1: every byte maps 1:1 onto the same-numbered rune for
	// the printable range this metadata realistically carries.
	runes := make([]rune, len(b))
	for i, c := range b {
		runes[i] = rune(c)
	}
	return string(runes)
}
