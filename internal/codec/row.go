package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"math"
	"slices"
	"strconv"

	"github.com/roach88/dbsim/internal/model"
)

// EncodeRow writes a row as a flat JSON object: "id", then the fields named
// in order, then remaining fields and extra keys sorted.
func EncodeRow(r model.Row, order []string) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"id":`)
	buf.WriteString(strconv.FormatInt(r.ID, 10))

	written := map[string]bool{model.IDField: true}
	writeKey := func(k string) error {
		kb, err := json.Marshal(k)
		if err != nil {
			return err
		}
		buf.WriteByte(',')
		buf.Write(kb)
		buf.WriteByte(':')
		written[k] = true
		return nil
	}

	writeField := func(k string) error {
		v, ok := r.Fields[k]
		if !ok || written[k] {
			return nil
		}
		vb, err := model.MarshalValue(v)
		if err != nil {
			return fmt.Errorf("field %q: %w", k, err)
		}
		if err := writeKey(k); err != nil {
			return err
		}
		buf.Write(vb)
		return nil
	}

	for _, k := range order {
		if err := writeField(k); err != nil {
			return nil, err
		}
	}
	for _, k := range slices.Sorted(maps.Keys(r.Fields)) {
		if err := writeField(k); err != nil {
			return nil, err
		}
	}
	for _, k := range slices.Sorted(maps.Keys(r.Extra)) {
		if written[k] {
			continue
		}
		if err := writeKey(k); err != nil {
			return nil, err
		}
		if err := json.Compact(&buf, r.Extra[k]); err != nil {
			return nil, fmt.Errorf("extra %q: %w", k, err)
		}
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// DecodeRow parses a flat JSON row object. Keys matching a column are typed
// by it; undeclared keys, and values whose JSON kind does not match their
// column, are kept verbatim in Extra. hasID reports whether the object
// carried an id.
func DecodeRow(data []byte, columns []model.Column) (r model.Row, hasID bool, err error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return model.Row{}, false, err
	}
	if obj == nil {
		return model.Row{}, false, fmt.Errorf("row is not an object")
	}

	r = model.NewRow(0, nil)
	if raw, ok := obj[model.IDField]; ok && string(bytes.TrimSpace(raw)) != "null" {
		id, err := parseID(raw)
		if err != nil {
			return model.Row{}, false, err
		}
		r.ID, hasID = id, true
	}
	delete(obj, model.IDField)

	types := make(map[string]model.Type, len(columns))
	for _, c := range columns {
		types[c.Name] = c.Type
	}

	for k, raw := range obj {
		if t, ok := types[k]; ok {
			if v, err := model.UnmarshalValue(raw, t); err == nil {
				r.Fields[k] = v
				continue
			}
		}
		if r.Extra == nil {
			r.Extra = make(map[string]json.RawMessage)
		}
		var compact bytes.Buffer
		if err := json.Compact(&compact, raw); err != nil {
			return model.Row{}, false, fmt.Errorf("key %q: %w", k, err)
		}
		r.Extra[k] = compact.Bytes()
	}
	return r, hasID, nil
}

// parseID accepts integral JSON numbers.
func parseID(raw json.RawMessage) (int64, error) {
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0, fmt.Errorf("row id must be an integer, got %s", raw)
	}
	if id, err := n.Int64(); err == nil {
		return id, nil
	}
	f, err := n.Float64()
	if err != nil || f != math.Trunc(f) {
		return 0, fmt.Errorf("row id must be an integer, got %s", raw)
	}
	return int64(f), nil
}

// EncodeRows writes rows as an indented JSON array, as used for export.
func EncodeRows(rows []model.Row, order []string) ([]byte, error) {
	raws := make([]json.RawMessage, len(rows))
	for i, r := range rows {
		raw, err := EncodeRow(r, order)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", r.ID, err)
		}
		raws[i] = raw
	}
	return json.MarshalIndent(raws, "", "  ")
}

// DecodeRows parses a JSON array of row objects. Rows without an id are
// returned with ID 0.
func DecodeRows(data []byte, columns []model.Column) ([]model.Row, error) {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, fmt.Errorf("decode rows: %w", err)
	}
	rows := make([]model.Row, 0, len(raws))
	for i, raw := range raws {
		r, _, err := DecodeRow(raw, columns)
		if err != nil {
			return nil, fmt.Errorf("decode rows: row %d: %w", i, err)
		}
		rows = append(rows, r)
	}
	return rows, nil
}
