// Package harness runs workspace scenarios described in YAML.
//
// A scenario drives a fresh in-memory workspace through a list of steps
// (create a project, create a table, insert rows, filter, bind a
// connection, ...) and checks each step's outcome and the final store
// state. Every run uses fixed project ids, a fixed clock and an instant
// connector, so the same scenario always produces the same trace.
//
// # Scenario format
//
//	name: inventory_filter
//	description: Filter matches case-insensitively
//	ids: [inv]
//	flow:
//	  - op: project.create
//	    args: {name: Inventory}
//	  - op: table.create
//	    args: {project: inv, name: items, columns: ["sku:string", "qty:number"]}
//	  - op: row.insert
//	    args: {project: inv, table: items, fields: {sku: A1, qty: 5}}
//	  - op: query.filter
//	    args: {project: inv, table: items, field: sku, value: a1}
//	    expect: {case: ok, result: {count: 1}}
//	assertions:
//	  - type: rows
//	    project: inv
//	    table: items
//	    count: 1
//
// Steps without an expect clause must succeed. The case of a failing step
// is its error code (VALIDATION, NOT_FOUND, SIMULATED_FAILURE).
//
// # Golden files
//
// RunWithGolden compares the trace against testdata/golden/<name>.golden.
// Regenerate with:
//
//	go test ./internal/harness -update
package harness
