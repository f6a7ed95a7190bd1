// Package model defines the core data structures used throughout creditline.
//
// This package contains the following main types:
//   - DisplayConfig: how annotation labels look and where they sit
//   - ConfigPatch: a partial DisplayConfig applied by shallow merge
//   - CopyrightRecord: attribution metadata for one image identifier
//   - Table: the identifier to CopyrightRecord mapping with its default record
//
// It also holds the reserved class names, attribute names and element ids
// that make up the DOM contract between creditline and the host page.
//
// The models are serializable to JSON (export/import, HTTP API) and YAML
// (configuration file).
package model
