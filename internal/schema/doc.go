// Package schema manages the tables of a project: their ordered column
// definitions, the structure view, and the empty row set a new table starts
// with.
//
// Storage per project:
//
//	tables_<pid>                table list, insertion ordered
//	tableStructure_<pid>_<name> column list of one table
//	tableData_<pid>_<name>      rows of one table (owned by package records)
//
// On create the row data and structure keys are written before the table
// list, and on drop the table list is rewritten first, so the table list
// never names a table whose keys are missing.
//
// Tables can also be declared in CUE and applied with LoadCUE and Apply:
//
//	table: users: columns: [
//		{name: "id", type: "number", key: "PK"},
//		{name: "email", type: "string"},
//	]
package schema
