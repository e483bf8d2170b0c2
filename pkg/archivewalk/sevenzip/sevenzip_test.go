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

package sevenzip_test

import (
	"testing"

	"github.com/corvidlabs/docforge/pkg/archivewalk/sevenzip"
)

func TestOpenRejectsTruncatedSignature(t *testing.T) {
	if _, err := sevenzip.Open(make([]byte, 10)); err == nil {
		t.Fatal("expected an error opening data shorter than the 32-byte start header")
	}
}

func TestOpenRejectsBadMagic(t *testing.T) {
	data := make([]byte, 32)
	copy(data, []byte("NOT-7Z!!"))
	if _, err := sevenzip.Open(data); err == nil {
		t.Fatal("expected an error opening data with the wrong magic bytes")
	}
}

func TestOpenRejectsUnsupportedVersion(t *testing.T) {
	data := make([]byte, 32)
	copy(data, []byte{'7', 'z', 0xBC, 0xAF, 0x27, 0x1C})
	data[6] = 1 // major version 1, unsupported
	if _, err := sevenzip.Open(data); err == nil {
		t.Fatal("expected an error opening an unsupported major version")
	}
}

func TestOpenRejectsStartHeaderCRCMismatch(t *testing.T) {
	data := make([]byte, 32)
	copy(data, []byte{'7', 'z', 0xBC, 0xAF, 0x27, 0x1C})
	data[6], data[7] = 0, 4
	// Leave the CRC field (bytes 8:12) zero and the header fields
	// (bytes 12:32) non-zero, guaranteeing a CRC mismatch.
	data[12] = 0xFF
	if _, err := sevenzip.Open(data); err == nil {
		t.Fatal("expected an error on start header CRC mismatch")
	}
}
