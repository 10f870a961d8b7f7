package ddl

import gddl "movieload/internal/ddl"

// MapType maps a logical kind onto a SQLite column type.
//
// SQLite is dynamically typed, so the mapping picks canonical affinities:
//   - int   -> INTEGER (a single INTEGER primary key aliases the rowid, so
//     store-generated keys need no extra keyword)
//   - bool  -> INTEGER (0/1)
//   - float -> REAL
//   - date  -> TEXT (ISO-8601)
//   - text  -> TEXT
func MapType(k gddl.Kind) string {
	switch k {
	case gddl.KindInt, gddl.KindBool:
		return "INTEGER"
	case gddl.KindFloat:
		return "REAL"
	default:
		return "TEXT"
	}
}
