package database

import (
	"database/sql/driver"
	"strings"

	"modernc.org/sqlite"
)

// UnicodeLower is registered on every SQLite connection. SQLite's built-in
// LOWER folds ASCII only; this one folds the same way as strings.ToLower.
const UnicodeLower = "go_lower"

func init() {
	sqlite.MustRegisterDeterministicScalarFunction(UnicodeLower, 1, goLower)
}

func goLower(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	switch v := args[0].(type) {
	case nil:
		return nil, nil
	case string:
		return strings.ToLower(v), nil
	case []byte:
		return strings.ToLower(string(v)), nil
	default:
		return v, nil
	}
}

// LowerFunc names the SQL function that lower-cases text for the dialect.
// PostgreSQL's LOWER is Unicode-aware unless the database uses the C locale;
// see CaseFoldingLocale.
func (d Dialect) LowerFunc() string {
	if d == SQLite {
		return UnicodeLower
	}
	return "LOWER"
}
