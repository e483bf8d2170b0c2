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

// Command docforge is the CLI surface spec.md §6 describes: extract
// text (or a JSON projection) from a single document. It wraps
// spf13/cobra the way the teacher wraps it in its own cobra package, but
// directly — this binary's flag surface is three booleans and a
// positional path, too small to need the teacher's Cobra{} lifecycle
// wrapper (Init/SetVersion/Execute) that cobra/ builds for its own
// multi-command, config-driven tools.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/corvidlabs/docforge/pkg/extract"
	"github.com/corvidlabs/docforge/pkg/model"
	"github.com/corvidlabs/docforge/pkg/serialize"
)

var (
	flagJSON     bool
	flagJSONUnit bool
	flagBinary   bool
)

func main() {
	root := &cobra.Command{
		Use:           "docforge <path>",
		Short:         "Extract text and structure from office documents, PDFs, mail, and archives",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          run,
	}
	root.Flags().BoolVar(&flagJSON, "json", false, "print one JSON value instead of plain text")
	root.Flags().BoolVar(&flagJSONUnit, "json-unit", false, "print a JSON array of unit objects instead of plain text")
	root.Flags().BoolVar(&flagBinary, "binary", false, "keep binary payloads base64-encoded in JSON output (requires --json or --json-unit)")

	if err := root.Execute(); err != nil {
		fail(err)
	}
}

func run(cmd *cobra.Command, args []string) error {
	path := args[0]

	if flagBinary && !flagJSON && !flagJSONUnit {
		return fmt.Errorf("--binary requires --json or --json-unit")
	}

	objs, err := extract.Extract(path, extract.DefaultMaxFileSize)
	if err != nil {
		return err
	}

	switch {
	case flagJSONUnit:
		return printJSONUnits(objs)
	case flagJSON:
		return printJSON(objs)
	default:
		return printText(objs)
	}
}

func printText(objs []model.ContentObject) error {
	texts := make([]string, len(objs))
	for i, o := range objs {
		texts[i] = o.FullText()
	}
	fmt.Println(strings.Join(texts, "\n\n"))
	return nil
}

func printJSON(objs []model.ContentObject) error {
	var v any
	if len(objs) == 1 {
		v = serialize.Serialize(objs[0], flagBinary)
	} else {
		arr := make([]any, len(objs))
		for i, o := range objs {
			arr[i] = serialize.Serialize(o, flagBinary)
		}
		v = arr
	}
	return encodeJSON(v)
}

func printJSONUnits(objs []model.ContentObject) error {
	var units []any
	for _, o := range objs {
		for _, u := range o.IterateUnits() {
			units = append(units, serialize.Serialize(u, flagBinary))
		}
	}
	return encodeJSON(units)
}

func encodeJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// fail prints an error to stderr in the teacher's console-color
// convention (a dedicated color for a message class, falling back to
// plain print when color is unavailable) and exits 1, per spec.md §6.
func fail(err error) {
	msg := err.Error()
	if strings.Contains(msg, "unknown flag") || strings.Contains(msg, "unknown shorthand flag") {
		warn := color.New(color.FgYellow)
		_, _ = warn.Fprintf(os.Stderr, "docforge: %s\n", msg)
	} else {
		fatal := color.New(color.FgRed)
		_, _ = fatal.Fprintf(os.Stderr, "docforge: %s\n", msg)
	}
	os.Exit(1)
}
