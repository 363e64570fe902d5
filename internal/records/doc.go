// Package records reads and writes the rows of a table.
//
// Every row has a stable integer id. Ids come from the table's persisted
// high-water mark, so an id is never issued twice within a table's
// lifetime, even after deletes or a truncate. Rows are addressed by id only,
// never by position.
//
// Each mutation loads the row data, applies the change in memory and writes
// the whole value back with one Set.
package records
