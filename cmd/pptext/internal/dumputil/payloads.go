package dumputil

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"text/template"

	"github.com/gosimple/slug"
	"github.com/h2non/filetype"
	"github.com/maruel/natural"

	"hslf/config"
	"hslf/record"
)

type payloadName struct {
	Seq  int
	Name string
}

// ExtractPayloads walks the record tree and writes the payload of every
// untyped record into dir, one file per record. File names follow
// nameTemplate (fields Seq and Name) plus an extension sniffed from the
// payload magic bytes. Returns the written names in natural order.
func ExtractPayloads(records []record.Record, dir, nameTemplate string, overwrite bool) ([]string, error) {
	tmpl, err := template.New("payload").Parse(nameTemplate)
	if err != nil {
		return nil, fmt.Errorf("invalid payload name template %q: %w", nameTemplate, err)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	var written []string
	seq := 0
	err = walkRecords(records, func(r record.Record) error {
		u, ok := r.(*record.Unknown)
		if !ok || len(u.Data()) == 0 {
			return nil
		}
		seq++

		var buf bytes.Buffer
		if err := tmpl.Execute(&buf, payloadName{Seq: seq, Name: slug.Make(u.RecType().String())}); err != nil {
			return fmt.Errorf("payload name template: %w", err)
		}
		// the template is user supplied, keep its output inside dir
		name := config.CleanFileName(buf.String()) + extFromPayload(u.Data())

		outPath := filepath.Join(dir, name)
		if !overwrite {
			if _, err := os.Stat(outPath); err == nil {
				return fmt.Errorf("output file already exists: %s (use --overwrite)", outPath)
			}
		}
		if err := os.WriteFile(outPath, u.Data(), 0o644); err != nil {
			return err
		}
		written = append(written, name)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Sort(natural.StringSlice(written))
	return written, nil
}

func walkRecords(records []record.Record, fn func(record.Record) error) error {
	for _, r := range records {
		if err := fn(r); err != nil {
			return err
		}
		if c, ok := r.(interface{ Children() []record.Record }); ok {
			if err := walkRecords(c.Children(), fn); err != nil {
				return err
			}
		}
	}
	return nil
}

// extFromPayload detects the file extension from magic bytes.
func extFromPayload(b []byte) string {
	kind, err := filetype.Match(b)
	if err == nil && kind != filetype.Unknown && kind.Extension != "" {
		return "." + kind.Extension
	}
	return ".bin"
}
