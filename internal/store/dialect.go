// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package store

import (
	"strings"

	"github.com/samber/oops"
)

// Dialect names a supported database backend.
type Dialect string

// Supported dialects. The values double as migration directory names.
const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

// DialectOf picks the dialect from a database URL scheme.
func DialectOf(databaseURL string) (Dialect, error) {
	switch {
	case hasAnyPrefix(databaseURL, "postgres://", "postgresql://", "pgx5://"):
		return DialectPostgres, nil
	case hasAnyPrefix(databaseURL, "sqlite://", "sqlite3://"):
		return DialectSQLite, nil
	default:
		scheme, _, _ := strings.Cut(databaseURL, "://")
		return "", oops.Code("UNSUPPORTED_DIALECT").
			With("scheme", scheme).
			Errorf("unsupported database URL scheme %q", scheme)
	}
}

func hasAnyPrefix(s string, prefixes ...string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
