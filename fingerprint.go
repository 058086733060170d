package dupdetect

import (
	"database/sql"
	"strings"
)

// FieldSeparator follows every field in a fingerprint, null fields included.
const FieldSeparator = " "

// Fingerprint concatenates the string form of each field, each followed by
// FieldSeparator. Null fields contribute only the separator.
func Fingerprint(fields []sql.NullString) string {
	var b strings.Builder
	for _, f := range fields {
		if f.Valid {
			b.WriteString(f.String)
		}
		b.WriteString(FieldSeparator)
	}
	return b.String()
}
