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

// Package xerrors provides the error taxonomy used across docforge's
// decoders: a small CodeError space (spec.md §7) with stack capture and
// parent-error chaining, compatible with errors.Is/errors.As.
package xerrors

import (
	"fmt"
	"runtime"
	"strings"
)

// CodeError classifies a failure the way spec.md §7 names it.
type CodeError uint16

const (
	UnknownError CodeError = iota
	FormatNotSupported
	EncryptedFile
	LegacyParseError
	FileTooLarge
	ZipBombDetected
	ExtractionFailed
)

var messages = map[CodeError]string{
	UnknownError:       "unknown error",
	FormatNotSupported: "format not supported",
	EncryptedFile:      "encrypted file",
	LegacyParseError:   "legacy format parse error",
	FileTooLarge:       "file too large",
	ZipBombDetected:    "zip bomb detected",
	ExtractionFailed:   "extraction failed",
}

func (c CodeError) String() string {
	if m, ok := messages[c]; ok {
		return m
	}
	return "unknown error"
}

// Error is a CodeError-classified error carrying an optional parent chain
// and the call site that raised it.
type Error struct {
	code   CodeError
	msg    string
	parent []error
	file   string
	line   int
	fn     string
}

// New builds an Error for code, wrapping any non-nil parents and
// capturing the caller's file/line/function.
func New(code CodeError, parents ...error) *Error {
	e := &Error{code: code, msg: code.String()}
	for _, p := range parents {
		if p != nil {
			e.parent = append(e.parent, p)
		}
	}
	if pc, file, line, ok := runtime.Caller(1); ok {
		e.file = file
		e.line = line
		if f := runtime.FuncForPC(pc); f != nil {
			e.fn = f.Name()
		}
	}
	return e
}

// Newf builds an Error with a formatted message appended to the code's
// default message.
func Newf(code CodeError, format string, args ...any) *Error {
	e := New(code)
	e.msg = fmt.Sprintf("%s: %s", code.String(), fmt.Sprintf(format, args...))
	return e
}

func (e *Error) Code() CodeError { return e.code }

func (e *Error) Error() string {
	if len(e.parent) == 0 {
		return e.msg
	}
	parts := make([]string, 0, len(e.parent)+1)
	parts = append(parts, e.msg)
	for _, p := range e.parent {
		parts = append(parts, p.Error())
	}
	return strings.Join(parts, ": ")
}

// Unwrap exposes the first parent so errors.Is/errors.As can walk the
// chain with the standard library.
func (e *Error) Unwrap() error {
	if len(e.parent) == 0 {
		return nil
	}
	return e.parent[0]
}

// Is reports whether target is an *Error of the same CodeError — this is
// what lets callers write `errors.Is(err, xerrors.New(xerrors.EncryptedFile))`.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.code == t.code
}

// IsCode reports whether err is (or wraps, one level) an Error of code.
func IsCode(err error, code CodeError) bool {
	e, ok := err.(*Error)
	if !ok {
		if u, isWrapper := err.(interface{ Unwrap() error }); isWrapper {
			e, ok = u.Unwrap().(*Error)
		}
	}
	if !ok {
		return false
	}
	return e.code == code
}

// Location renders "file:line (func)" for logging; empty if unavailable.
func (e *Error) Location() string {
	if e.file == "" {
		return ""
	}
	return fmt.Sprintf("%s:%d (%s)", e.file, e.line, e.fn)
}

// Wrap is the top-level extract() boundary helper (spec.md §7): taxonomy
// errors pass through unchanged, anything else is wrapped as
// ExtractionFailed.
func Wrap(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := err.(*Error); ok {
		return err
	}
	return New(ExtractionFailed, err)
}
