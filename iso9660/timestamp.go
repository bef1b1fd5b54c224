package iso9660

import (
	"fmt"
	"time"
)

// longDateTime is the 17-byte ASCII-digit timestamp format used in the
// Primary Volume Descriptor (ECMA-119 8.4.26.1): 16 ASCII digits
// "YYYYMMDDHHMMSSss" followed by a signed GMT-offset byte in 15-minute
// units.
type longDateTime [17]byte

func newLongDateTime(t time.Time) longDateTime {
	var b longDateTime
	s := fmt.Sprintf("%04d%02d%02d%02d%02d%02d%02d",
		t.Year(), int(t.Month()), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond()/10_000_000)
	copy(b[:16], s)
	_, offsetSec := t.Zone()
	b[16] = byte(offsetSec / (15 * 60))
	return b
}

// shortDateTime is the 7-byte binary timestamp used in directory
// records (ECMA-119 9.1.5): years-since-1900, month, day, hour, minute,
// second, GMT offset in 15-minute units.
type shortDateTime [7]byte

func newShortDateTime(t time.Time) shortDateTime {
	var b shortDateTime
	year := t.Year() - 1900
	if year < 0 {
		year = 0
	}
	b[0] = byte(year)
	b[1] = byte(t.Month())
	b[2] = byte(t.Day())
	b[3] = byte(t.Hour())
	b[4] = byte(t.Minute())
	b[5] = byte(t.Second())
	_, offsetSec := t.Zone()
	b[6] = byte(offsetSec / (15 * 60))
	return b
}

func (b shortDateTime) Time() time.Time {
	loc := time.FixedZone("", int(int8(b[6]))*15*60)
	return time.Date(1900+int(b[0]), time.Month(b[1]), int(b[2]), int(b[3]), int(b[4]), int(b[5]), 0, loc)
}
