// Package dumputil provides output helpers for the pptext inspection
// commands. It renders record trees and text block listings and extracts
// opaque record payloads into files.
package dumputil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"hslf/record"
	"hslf/utils/debug"
)

// DumpTree renders the record tree as indented text, one record per
// line. maxDepth of 0 means no limit.
func DumpTree(records []record.Record, maxDepth int) string {
	tw := debug.NewTreeWriter(maxDepth)
	dumpLevel(tw, records, 0)
	return tw.String()
}

func dumpLevel(tw *debug.TreeWriter, records []record.Record, depth int) {
	if !tw.Visible(depth) {
		return
	}
	for _, r := range records {
		head := r.RecType().String()
		if inst := r.Instance(); inst != 0 {
			head += fmt.Sprintf(" instance=%d", inst)
		}
		switch rec := r.(type) {
		case *record.Unknown:
			tw.Line(depth, "%s size=%d", head, len(rec.Data()))
		case *record.TextHeaderAtom:
			tw.Line(depth, "%s textType=%d", head, rec.TextType())
		case *record.TextBytesAtom:
			tw.Line(depth, "%s chars=%d", head, len(rec.Text()))
		case *record.TextCharsAtom:
			tw.Line(depth, "%s chars=%d", head, len(rec.Text()))
		case *record.OutlineTextRefAtom:
			tw.Line(depth, "%s ref=%d", head, rec.TextIndex())
		case *record.TextRulerAtom:
			if size, ok := rec.DefaultTabSize(); ok {
				tw.Line(depth, "%s defaultTab=%d tabs=%d", head, size, len(rec.TabStops()))
			} else {
				tw.Line(depth, "%s tabs=%d", head, len(rec.TabStops()))
			}
		case *record.Textbox:
			tw.Line(depth, "%s children=%d", head, len(rec.Children()))
			dumpLevel(tw, rec.Children(), depth+1)
		case *record.Container:
			tw.Line(depth, "%s children=%d", head, len(rec.Children()))
			dumpLevel(tw, rec.Children(), depth+1)
		default:
			tw.Line(depth, "%s", head)
		}
	}
}

// WriteOutput writes data to <stem><suffix> in either the input file's directory or outDir.
func WriteOutput(inPath, outDir, suffix string, data []byte, overwrite bool) error {
	base := filepath.Base(inPath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	dir := filepath.Dir(inPath)
	if outDir != "" {
		dir = outDir
	}
	outPath := filepath.Join(dir, stem+suffix)

	if _, err := os.Stat(outPath); err == nil {
		if !overwrite {
			return fmt.Errorf("output file already exists: %s (use --overwrite)", outPath)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return err
	}

	if err := os.WriteFile(outPath, data, 0o644); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "wrote %s\n", outPath)
	return nil
}
