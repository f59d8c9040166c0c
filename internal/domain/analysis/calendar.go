package analysis

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/hesabdari/backend/internal/domain/shared"
)

// Source spreadsheets carry Jalali (Solar Hijri) dates as "YYYY/MM/DD"
// strings. All date arithmetic in the engine happens on Gregorian
// time.Time values, so conversion is the first thing that happens to a
// row and the last thing that happens to a payload date.
//
// The conversion uses the arithmetic 33-year leap cycle, which agrees
// with the official Iranian calendar for all years this system will
// ever see. Both directions are pure functions and safe for concurrent
// use.

// JalaliDateLayout documents the only accepted source date shape.
const JalaliDateLayout = "YYYY/MM/DD"

// ParseJalaliDate converts a strict "YYYY/MM/DD" Jalali date string to a
// Gregorian date at midnight UTC. It returns an error wrapping
// shared.ErrDateFormat when the string does not match the layout or
// decodes to a nonexistent calendar date (e.g. Esfand 30 in a common
// year). There is no clamping.
func ParseJalaliDate(s string) (time.Time, error) {
	parts := strings.Split(strings.TrimSpace(s), "/")
	if len(parts) != 3 {
		return time.Time{}, fmt.Errorf("%w: %q does not match %s", shared.ErrDateFormat, s, JalaliDateLayout)
	}

	jy, errY := atoiStrict(parts[0], 4)
	jm, errM := atoiStrict(parts[1], 2)
	jd, errD := atoiStrict(parts[2], 2)
	if errY != nil || errM != nil || errD != nil {
		return time.Time{}, fmt.Errorf("%w: %q does not match %s", shared.ErrDateFormat, s, JalaliDateLayout)
	}

	if jm < 1 || jm > 12 || jd < 1 || jd > jalaliMonthMax(jm) {
		return time.Time{}, fmt.Errorf("%w: %q is out of range", shared.ErrDateFormat, s)
	}

	gy, gm, gd := jalaliToGregorian(jy, jm, jd)

	// Esfand 30 converts cleanly in leap years only; a round trip exposes
	// the invalid common-year case without a separate leap table.
	ry, rm, rd := gregorianToJalali(gy, gm, gd)
	if ry != jy || rm != jm || rd != jd {
		return time.Time{}, fmt.Errorf("%w: %q is out of range", shared.ErrDateFormat, s)
	}

	return time.Date(gy, time.Month(gm), gd, 0, 0, 0, 0, time.UTC), nil
}

// ParseReferenceDate parses an as-of date from request input. Payloads
// emit dates in both ISO "2006-01-02" and Jalali "YYYY/MM/DD" form, so
// callers may echo either back; both shapes are accepted here. Anything
// else wraps shared.ErrDateFormat.
func ParseReferenceDate(s string) (time.Time, error) {
	trimmed := strings.TrimSpace(s)
	if t, err := time.ParseInLocation("2006-01-02", trimmed, time.UTC); err == nil {
		return t, nil
	}
	t, err := ParseJalaliDate(trimmed)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q is neither an ISO 2006-01-02 nor a Jalali %s date", shared.ErrDateFormat, s, JalaliDateLayout)
	}
	return t, nil
}

// FormatJalali renders a Gregorian date as a zero-padded Jalali
// "YYYY/MM/DD" string for payload consumers.
func FormatJalali(t time.Time) string {
	jy, jm, jd := gregorianToJalali(t.Year(), int(t.Month()), t.Day())
	return fmt.Sprintf("%04d/%02d/%02d", jy, jm, jd)
}

// atoiStrict parses a plain decimal field of at most maxDigits digits.
// Rejects signs, spaces and empty fields that strconv would otherwise
// tolerate in combination.
func atoiStrict(s string, maxDigits int) (int, error) {
	if len(s) == 0 || len(s) > maxDigits {
		return 0, strconv.ErrSyntax
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, strconv.ErrSyntax
		}
	}
	return strconv.Atoi(s)
}

// jalaliMonthMax returns the largest possible day for a Jalali month,
// ignoring leap years. Esfand 30 passes here and is settled by the
// round-trip check in ParseJalaliDate.
func jalaliMonthMax(jm int) int {
	if jm <= 6 {
		return 31
	}
	return 30
}

func jalaliToGregorian(jy, jm, jd int) (gy, gm, gd int) {
	jy += 1595
	days := -355668 + 365*jy + (jy/33)*8 + ((jy%33)+3)/4 + jd
	if jm < 7 {
		days += (jm - 1) * 31
	} else {
		days += (jm-7)*30 + 186
	}

	gy = 400 * (days / 146097)
	days %= 146097
	if days > 36524 {
		days--
		gy += 100 * (days / 36524)
		days %= 36524
		if days >= 365 {
			days++
		}
	}
	gy += 4 * (days / 1461)
	days %= 1461
	if days > 365 {
		gy += (days - 1) / 365
		days = (days - 1) % 365
	}
	gd = days + 1

	leap := 0
	if (gy%4 == 0 && gy%100 != 0) || gy%400 == 0 {
		leap = 1
	}
	monthDays := [13]int{0, 31, 28 + leap, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}
	for gm = 1; gm <= 12 && gd > monthDays[gm]; gm++ {
		gd -= monthDays[gm]
	}
	return gy, gm, gd
}

func gregorianToJalali(gy, gm, gd int) (jy, jm, jd int) {
	gdm := [12]int{0, 31, 59, 90, 120, 151, 181, 212, 243, 273, 304, 334}
	gy2 := gy
	if gm > 2 {
		gy2 = gy + 1
	}
	days := 355666 + 365*gy + (gy2+3)/4 - (gy2+99)/100 + (gy2+399)/400 + gd + gdm[gm-1]

	jy = -1595 + 33*(days/12053)
	days %= 12053
	jy += 4 * (days / 1461)
	days %= 1461
	if days > 365 {
		jy += (days - 1) / 365
		days = (days - 1) % 365
	}
	if days < 186 {
		jm = 1 + days/31
		jd = 1 + days%31
	} else {
		jm = 7 + (days-186)/30
		jd = 1 + (days-186)%30
	}
	return jy, jm, jd
}
