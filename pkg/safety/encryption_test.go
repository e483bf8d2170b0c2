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

package safety_test

import (
	"archive/zip"
	"bytes"
	"encoding/binary"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/corvidlabs/docforge/pkg/safety"
)

var _ = Describe("Encryption probes", func() {
	It("reports no OOXML encryption for a plain zip signature", func() {
		var buf bytes.Buffer
		w := zip.NewWriter(&buf)
		f, _ := w.Create("[Content_Types].xml")
		_, _ = f.Write([]byte("<Types/>"))
		_ = w.Close()

		Expect(safety.OOXMLEncrypted(bytes.NewReader(buf.Bytes()))).To(BeFalse())
	})

	It("reports no ODF encryption when manifest.xml has no encryption-data element", func() {
		r := buildZip(map[string]string{
			"META-INF/manifest.xml": `<manifest:manifest><manifest:file-entry manifest:full-path="content.xml"/></manifest:manifest>`,
		})
		Expect(safety.ODFEncrypted(r)).To(BeFalse())
	})

	It("detects ODF encryption from manifest.xml", func() {
		r := buildZip(map[string]string{
			"META-INF/manifest.xml": `<manifest:manifest><manifest:file-entry manifest:full-path="content.xml"><manifest:encryption-data/></manifest:file-entry></manifest:manifest>`,
		})
		Expect(safety.ODFEncrypted(r)).To(BeTrue())
	})

	It("detects a FILEPASS record in a BIFF workbook stream", func() {
		var buf bytes.Buffer
		// BOF record (opcode 0x0809), arbitrary small size
		writeBIFFRecord(&buf, 0x0809, make([]byte, 16))
		// FILEPASS record
		writeBIFFRecord(&buf, 0x002F, make([]byte, 4))
		Expect(safety.XLSEncrypted(buf.Bytes())).To(BeTrue())
	})

	It("reports no FILEPASS record for a plain workbook stream", func() {
		var buf bytes.Buffer
		writeBIFFRecord(&buf, 0x0809, make([]byte, 16))
		writeBIFFRecord(&buf, 0x0042, make([]byte, 2)) // CODEPAGE
		Expect(safety.XLSEncrypted(buf.Bytes())).To(BeFalse())
	})
})

func writeBIFFRecord(buf *bytes.Buffer, opcode uint16, payload []byte) {
	var hdr [4]byte
	binary.LittleEndian.PutUint16(hdr[0:], opcode)
	binary.LittleEndian.PutUint16(hdr[2:], uint16(len(payload)))
	buf.Write(hdr[:])
	buf.Write(payload)
}
