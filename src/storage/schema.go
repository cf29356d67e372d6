package storage

import _ "embed"

// Schema is the full DDL applied by Migrate. Embedding it keeps the schema
// versioned alongside the code that depends on it rather than as a
// separately-deployed migration artifact.
//
//go:embed schema.sql
var Schema string
