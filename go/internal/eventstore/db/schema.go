package db

import _ "embed"

// Schema creates the event store tables. It is safe to apply repeatedly.
//
//go:embed schema.sql
var Schema string
