// Package connect attaches simulated database connections to projects.
//
// Nothing here opens a network connection. Binding only checks that the
// parameters required by the chosen kind are present and records them on
// the project. Connect additionally runs a SimulatedConnector first, which
// stands in for connection latency and failure.
//
// Kinds come in two spellings: the generic families (relational, document,
// document-cloud, document-cloud-alt) and the engine names offered by the
// database picker (postgresql, mysql, mongodb, firebase, supabase), each of
// which requires the same fields as its family.
package connect
