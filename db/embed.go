// Package db embeds the database schema and the demo catalog.
package db

import _ "embed"

// Schema contains the idempotent DDL for every table the service uses.
//
//go:embed migrations/001_schema.sql
var Schema string

// SeedCatalog is a JSON array of catalog items loaded by cmd/seed-db.
//
//go:embed seed/catalog.json
var SeedCatalog []byte
