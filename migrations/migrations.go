// Package migrations embebe los scripts SQL del esquema en formato goose.
package migrations

import "embed"

// FS scripts NNN_nombre.sql con secciones -- +goose Up / -- +goose Down.
//
//go:embed *.sql
var FS embed.FS
