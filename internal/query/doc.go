// Package query derives filtered, searched and sorted views of a row set.
//
// Every function is pure: inputs are never modified and the result is always
// a new slice, even when nothing was filtered out.
//
// Matching compares the text form of values (see model.Value.Text) after
// Unicode case folding, so "A1" matches "a1" and "STRASSE" matches "straße".
// An empty field or value makes a filter a pass-through.
package query
