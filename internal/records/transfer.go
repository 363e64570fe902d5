package records

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/dbsim/internal/codec"
	"github.com/roach88/dbsim/internal/model"
)

// Format is an import/export file format.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat accepts "json", "yaml" and "yml".
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(s, ".")) {
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported format %q (want json or yaml)", s)
	}
}

// Export writes a table's rows as an array of flat objects.
func (s *Store) Export(ctx context.Context, ref model.TableRef, w io.Writer, format Format) error {
	t, data, err := s.load(ctx, ref)
	if err != nil {
		return err
	}

	raw, err := codec.EncodeRows(data.Rows, t.ColumnNames())
	if err != nil {
		return fmt.Errorf("export %s: %w", ref, err)
	}

	switch format {
	case FormatJSON:
		raw = append(raw, '\n')
		_, err = w.Write(raw)
	case FormatYAML:
		err = jsonToYAML(w, raw)
	default:
		err = fmt.Errorf("unsupported format %q", format)
	}
	if err != nil {
		return fmt.Errorf("export %s: %w", ref, err)
	}
	return nil
}

// Import replaces a table's rows with the rows read from r. Keys that are
// not declared columns, and values that do not match their column's type,
// are kept as extra keys. Rows without an id get fresh ones.
func (s *Store) Import(ctx context.Context, ref model.TableRef, r io.Reader, format Format) (int, error) {
	t, err := s.tables.Table(ctx, ref)
	if err != nil {
		return 0, err
	}

	in, err := io.ReadAll(r)
	if err != nil {
		return 0, fmt.Errorf("import %s: %w", ref, err)
	}

	switch format {
	case FormatJSON:
	case FormatYAML:
		if in, err = yamlToJSON(in); err != nil {
			return 0, fmt.Errorf("import %s: %w", ref, err)
		}
	default:
		return 0, fmt.Errorf("import %s: unsupported format %q", ref, format)
	}

	rows, err := codec.DecodeRows(in, t.Columns)
	if err != nil {
		return 0, fmt.Errorf("import %s: %w", ref, err)
	}
	if err := s.ReplaceAll(ctx, ref, rows); err != nil {
		return 0, err
	}
	return len(rows), nil
}

// jsonToYAML re-encodes JSON as block-style YAML, keeping key order.
func jsonToYAML(w io.Writer, data []byte) error {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return err
	}
	clearStyle(&doc)

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return err
	}
	return enc.Close()
}

func clearStyle(n *yaml.Node) {
	n.Style = 0
	for _, c := range n.Content {
		clearStyle(c)
	}
}

// yamlToJSON converts a YAML row list into a JSON array.
func yamlToJSON(data []byte) ([]byte, error) {
	var rows []map[string]any
	if err := yaml.Unmarshal(data, &rows); err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []map[string]any{}
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(rows); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
