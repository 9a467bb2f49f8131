// Package db embeds the SQL schema applied at startup.
package db

import _ "embed"

// Schema holds the DDL for the products, promo_codes, and orders tables.
// Every statement is idempotent so it can run on each boot.
//
//go:embed migrations/001_schema.sql
var Schema string
