// Package database provides the SQLite copyright catalog for creditline.
//
// The Catalog stores:
//   - Copyright records keyed by image identifier
//   - A log of imports, one row per table written into the catalog
//
// The catalog is a source the CLI and server merge into an Annotator's
// metadata table; annotators never write back to it.
//
// SQLite via modernc.org/sqlite keeps the catalog a single CGO-free file.
// WAL mode lets the server read while the CLI writes.
package database
