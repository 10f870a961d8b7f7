package ddl

import gddl "movieload/internal/ddl"

// MapType maps a logical kind onto a Postgres column type.
//
//	int   -> INTEGER (SERIAL when store-generated)
//	float -> REAL
//	bool  -> BOOLEAN
//	date  -> DATE
//	text  -> TEXT
func MapType(k gddl.Kind, serial bool) string {
	switch k {
	case gddl.KindInt:
		if serial {
			return "SERIAL"
		}
		return "INTEGER"
	case gddl.KindFloat:
		return "REAL"
	case gddl.KindBool:
		return "BOOLEAN"
	case gddl.KindDate:
		return "DATE"
	default:
		return "TEXT"
	}
}
