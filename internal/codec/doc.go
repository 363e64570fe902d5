// Package codec maps workspace entities to the string values held in the
// key-value store.
//
// Key patterns:
//
//	projects                               JSON array of Project
//	tables_<projectId>                     JSON array of Table (no rows)
//	tableData_<projectId>_<tableName>      {"columns":[...],"rows":[...],"lastInsertId":N}
//	tableStructure_<projectId>_<tableName> JSON array of Column
//
// Rows are flat JSON objects. Encoding is deterministic: "id" first, then
// declared columns in column order, then any remaining keys sorted. This
// keeps stored values and exported files byte-stable across runs.
package codec
