// Package db embeds the database schema applied on startup.
package db

import _ "embed"

// Schema contains the DDL for the menu catalog and order tables, including
// the menu change notification trigger.
//
//go:embed migrations/001_schema.sql
var Schema string
