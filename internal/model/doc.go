// Package model defines the entities of the simulated database workspace.
//
// This package contains type definitions only. All other internal packages
// import model; model imports nothing internal.
//
// Hierarchy: a Project owns Tables, a Table owns an ordered Column list and
// a Row set. Rows carry typed values (see Value) keyed by column name plus an
// explicit, stable ID. Keys a table does not declare are kept apart in
// Row.Extra so imported data survives a round trip without being typed.
//
// JSON tags mirror the storage shapes written to the key-value store, so a
// store populated by an older client decodes without migration.
package model
