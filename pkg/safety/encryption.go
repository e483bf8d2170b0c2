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
	"archive/zip"
	"bytes"
	"encoding/binary"
	"io"
)

// OOXMLEncrypted reports whether a zip container is actually an OOXML
// "Compound File Binary" encryption wrapper rather than a package: Office
// stores password-protected docx/xlsx/pptx as an OLE2 file (streams
// EncryptionInfo + EncryptedPackage) wearing no zip signature at all, so
// this should be checked before attempting zip.NewReader.
func OOXMLEncrypted(src io.ReadSeeker) bool {
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return false
	}
	defer src.Seek(0, io.SeekStart)

	sig := make([]byte, 8)
	if _, err := io.ReadFull(src, sig); err != nil {
		return false
	}
	// CFBF signature: D0 CF 11 E0 A1 B1 1A E1
	cfbfSig := []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}
	if !bytes.Equal(sig, cfbfSig) {
		return false
	}

	ole, err := OpenOLE2(src)
	if err != nil {
		return false
	}
	return ole.HasStream("EncryptionInfo") || ole.HasStream("EncryptedPackage") || ole.HasStream("DataSpaces")
}

// odfEncryptionMarkers are the manifest.xml substrings spec.md §4.2
// names as sufficient evidence of an encrypted ODF entry.
var odfEncryptionMarkers = [][]byte{
	[]byte("encryption-data"),
	[]byte("manifest:encrypted"),
	[]byte("manifest:algorithm"),
}

// ODFEncrypted reports whether an ODF zip package's manifest.xml declares
// any entry encrypted, by a plain substring search rather than a full XML
// parse since the probe only needs to know yes/no before the real
// decoder runs.
func ODFEncrypted(r *zip.Reader) bool {
	for _, f := range r.File {
		if f.Name != "META-INF/manifest.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return false
		}
		defer rc.Close()
		b, err := io.ReadAll(io.LimitReader(rc, 4<<20))
		if err != nil {
			return false
		}
		for _, marker := range odfEncryptionMarkers {
			if bytes.Contains(b, marker) {
				return true
			}
		}
		return false
	}
	return false
}

// XLSEncrypted scans a BIFF8 workbook stream for a FILEPASS record
// (opcode 0x002F), which BIFF uses to mark the whole stream as RC4 or
// CryptoAPI encrypted.
func XLSEncrypted(workbookStream []byte) bool {
	const filepassOpcode = 0x002F
	pos := 0
	for pos+4 <= len(workbookStream) {
		opcode := binary.LittleEndian.Uint16(workbookStream[pos:])
		size := int(binary.LittleEndian.Uint16(workbookStream[pos+2:]))
		if opcode == filepassOpcode {
			return true
		}
		pos += 4 + size
	}
	return false
}

// PPTEncrypted mirrors the OOXML probe for the legacy binary PPT
// container: PowerPoint 97-2003 flags a password-protected deck via any
// of these stream names.
func PPTEncrypted(ole *OLE2) bool {
	for _, name := range []string{
		"EncryptionInfo", "EncryptedPackage", "DataSpaces",
		"EncryptedSummary", "EncryptedSummaryInformation",
	} {
		if ole.HasStream(name) {
			return true
		}
	}
	return false
}

// docFIBMagic is the wIdent field every FIB (File Information Block)
// begins with; anything else means the WordDocument stream isn't really
// a binary Word document.
const docFIBMagic = 0xA5EC

// DocValidFIB reports whether wordDoc opens with the FIB's wIdent magic.
func DocValidFIB(wordDoc []byte) bool {
	if len(wordDoc) < 2 {
		return false
	}
	return binary.LittleEndian.Uint16(wordDoc[0:2]) == docFIBMagic
}

// DocEncrypted reports whether the FIB's base flags word (offset 0x0A)
// sets fEncrypted (bit 8, 0x0100) — the binary Word document's own
// encryption flag, distinct from the OOXML/PPT container probes.
func DocEncrypted(wordDoc []byte) bool {
	if len(wordDoc) < 0x0C {
		return false
	}
	flags := binary.LittleEndian.Uint16(wordDoc[0x0A:0x0C])
	return flags&0x0100 != 0
}
