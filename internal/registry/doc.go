// Package registry owns the list of projects stored under the "projects" key.
//
// The first List (or any other read) against a store with no "projects"
// key writes the fixed demo set before returning it, so a fresh session
// always starts from the same five projects.
//
// Removing a project cascades through the Cascader, which deletes the
// project's tables and row data before the project list is rewritten.
package registry
