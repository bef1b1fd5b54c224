package fat32

import (
	"time"

	"github.com/hadrisrs/diskimg/clock"
)

// datetime is the FAT on-disk date/time/fine-resolution triple (spec.md
// §3.2 "FAT time"): date packs year-since-1980/month/day, time packs
// hour/minute/half-seconds, and fine adds up to 199 hundredths of a second
// of sub-second precision used only by creation time.
type datetime struct {
	date uint16
	tyme uint16
	fine uint8
}

// newDatetime converts a wall-clock time to the FAT on-disk triple. Years
// outside [1980, 2107] are clamped to the nearest bound, since the FAT date
// field only reserves 7 bits for year-since-1980.
func newDatetime(t time.Time) datetime {
	year := t.Year()
	if year < 1980 {
		year = 1980
	} else if year > 2107 {
		year = 2107
	}
	hour, min, sec := t.Clock()
	return datetime{
		date: uint16(year-1980)<<9 | uint16(t.Month())<<5 | uint16(t.Day()),
		tyme: uint16(hour)<<11 | uint16(min)<<5 | uint16(sec/2),
		fine: uint8(t.Nanosecond()/10_000_000) + 100*uint8(sec%2),
	}
}

// epochDatetime is the "time unknown" sentinel written when no clock.Source
// is supplied (spec.md §6.4).
func epochDatetime() datetime {
	return newDatetime(clock.Epoch{}.Now())
}

func (dt datetime) Date() (year int, month time.Month, day int) {
	year = 1980 + int(dt.date>>9)
	month = time.Month((dt.date >> 5) & 0xF)
	day = int(dt.date & 0x1F)
	return year, month, day
}

func (dt datetime) Clock() (hour, min, sec int) {
	hour = int(dt.tyme >> 11)
	min = int((dt.tyme >> 5) & 0x3F)
	sec = 2 * int(dt.tyme&0x1F)
	if dt.fine >= 100 {
		sec++
	}
	return hour, min, sec
}

func (dt datetime) Milliseconds() int {
	if dt.fine >= 100 {
		return 10 * int(dt.fine-100)
	}
	return 10 * int(dt.fine)
}

func (dt datetime) Time() time.Time {
	year, month, day := dt.Date()
	hour, min, sec := dt.Clock()
	return time.Date(year, month, day, hour, min, sec, 1_000_000*dt.Milliseconds(), time.UTC)
}
