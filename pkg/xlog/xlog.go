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

// Package xlog is a small leveled wrapper around logrus used by every
// decoder to log best-effort sub-element failures at debug level
// (spec.md §7 "Propagation policy") without aborting the whole decode.
package xlog

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

var std = newDefault()

func newDefault() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetLevel(logrus.InfoLevel)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return l
}

// SetOutput redirects the package logger's output.
func SetOutput(w io.Writer) { std.SetOutput(w) }

// SetLevel parses level ("debug", "info", "warn", "error") and applies it,
// defaulting to info on an unrecognized value.
func SetLevel(level string) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	std.SetLevel(lvl)
}

// Fields is a structured-field map attached to one log entry.
type Fields = logrus.Fields

// Debugf logs a best-effort, non-fatal decode detail (a single image or
// row that failed and was skipped).
func Debugf(format string, args ...any) { std.Debugf(format, args...) }

// Warnf logs a condition the caller should know about but that does not
// abort the decode.
func Warnf(format string, args ...any) { std.Warnf(format, args...) }

// Errorf logs a condition that aborted one decoder call.
func Errorf(format string, args ...any) { std.Errorf(format, args...) }

// WithFields returns an entry carrying structured context (e.g. the
// source path and format) for one decode call.
func WithFields(f Fields) *logrus.Entry { return std.WithFields(f) }
