package dataset

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/zeebo/xxh3"
)

// Fingerprint returns an xxh3 digest of the table's columns and values in
// order. Two runs over identical inputs produce identical fingerprints, which
// makes it cheap to tell from the logs whether a rerun saw the same data.
func (t *Table) Fingerprint() uint64 {
	h := xxh3.New()
	var buf []byte
	for _, c := range t.Columns {
		buf = append(buf[:0], c...)
		buf = append(buf, 0x1f)
		_, _ = h.Write(buf)
	}
	_, _ = h.Write([]byte{0x1e})
	for _, r := range t.Records {
		for _, c := range t.Columns {
			buf = appendValue(buf[:0], r[c])
			buf = append(buf, 0x1f)
			_, _ = h.Write(buf)
		}
		_, _ = h.Write([]byte{0x1e})
	}
	return h.Sum64()
}

func appendValue(b []byte, v any) []byte {
	switch x := v.(type) {
	case nil:
		return append(b, 0x00)
	case string:
		return append(b, x...)
	case int64:
		return strconv.AppendInt(b, x, 10)
	case int:
		return strconv.AppendInt(b, int64(x), 10)
	case float64:
		return strconv.AppendUint(b, math.Float64bits(x), 16)
	case bool:
		return strconv.AppendBool(b, x)
	case time.Time:
		return x.UTC().AppendFormat(b, time.RFC3339Nano)
	default:
		return fmt.Append(b, x)
	}
}
