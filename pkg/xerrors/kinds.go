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

package xerrors

import "fmt"

// NotSupported builds a FormatNotSupported error naming the offending path.
func NotSupported(path string) *Error {
	return Newf(FormatNotSupported, "no decoder for %q", path)
}

// Encrypted builds an EncryptedFile error naming which format's probe fired.
func Encrypted(format string) *Error {
	return Newf(EncryptedFile, "%s reports password protection", format)
}

// LegacyParse builds a LegacyParseError describing what was malformed.
func LegacyParse(reason string, parents ...error) *Error {
	e := New(LegacyParseError, parents...)
	e.msg = fmt.Sprintf("%s: %s", LegacyParseError.String(), reason)
	return e
}

// TooLarge builds a FileTooLarge error carrying the ceiling and the
// actual size observed.
func TooLarge(maxSize, actualSize int64) *Error {
	e := New(FileTooLarge)
	e.msg = fmt.Sprintf("%s: max %d bytes, got %d", FileTooLarge.String(), maxSize, actualSize)
	return e
}

// ZipBomb builds a ZipBombDetected error naming which limit was violated.
func ZipBomb(limit string) *Error {
	return Newf(ZipBombDetected, "limit %q violated", limit)
}

// Failed builds an ExtractionFailed error wrapping cause.
func Failed(cause error) *Error {
	return New(ExtractionFailed, cause)
}
