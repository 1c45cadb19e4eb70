// Package jalali renders instants in the Solar Hijri calendar and parses
// user-entered Jalali dates. Stored values are always Gregorian instants.
package jalali

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	ptime "github.com/yaa110/go-persian-calendar"
)

var digitFolder = strings.NewReplacer(
	"۰", "0", "۱", "1", "۲", "2", "۳", "3", "۴", "4",
	"۵", "5", "۶", "6", "۷", "7", "۸", "8", "۹", "9",
	"٠", "0", "١", "1", "٢", "2", "٣", "3", "٤", "4",
	"٥", "5", "٦", "6", "٧", "7", "٨", "8", "٩", "9",
)

// NormalizeDigits folds Persian and Arabic-Indic digits to ASCII.
func NormalizeDigits(value string) string {
	return digitFolder.Replace(value)
}

// Calendar converts between Gregorian instants and Jalali display strings in
// a fixed display location.
type Calendar struct {
	loc *time.Location
}

func New(loc *time.Location) Calendar {
	if loc == nil {
		loc = time.UTC
	}
	return Calendar{loc: loc}
}

func (c Calendar) Location() *time.Location {
	if c.loc == nil {
		return time.UTC
	}
	return c.loc
}

func (c Calendar) convert(t time.Time) ptime.Time {
	return ptime.New(t.In(c.Location()))
}

// FormatDate renders t as YYYY/MM/DD. Zero times render as "".
func (c Calendar) FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	pt := c.convert(t)
	return fmt.Sprintf("%04d/%02d/%02d", pt.Year(), int(pt.Month()), pt.Day())
}

// FormatDateTime renders t as YYYY/MM/DD - HH:MM.
func (c Calendar) FormatDateTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	pt := c.convert(t)
	return fmt.Sprintf("%04d/%02d/%02d - %02d:%02d", pt.Year(), int(pt.Month()), pt.Day(), pt.Hour(), pt.Minute())
}

// FormatDatePtr is FormatDate for optional values.
func (c Calendar) FormatDatePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return c.FormatDate(*t)
}

func (c Calendar) FormatDateTimePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return c.FormatDateTime(*t)
}

func (c Calendar) Year(t time.Time) int {
	return c.convert(t).Year()
}

// MonthName returns the Persian name of t's Jalali month.
func (c Calendar) MonthName(t time.Time) string {
	return c.convert(t).Month().String()
}

// FormatBirthDate renders a calendar date stored at UTC midnight without
// shifting it into the display zone.
func FormatBirthDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	d := time.Date(t.Year(), t.Month(), t.Day(), 12, 0, 0, 0, time.UTC)
	pt := ptime.New(d)
	return fmt.Sprintf("%04d/%02d/%02d", pt.Year(), int(pt.Month()), pt.Day())
}

// ParseDate converts a Jalali YYYY/MM/DD string, in Persian or Latin digits,
// to the Gregorian calendar date at UTC midnight. Other separators are rejected.
func ParseDate(value string) (time.Time, error) {
	raw := strings.TrimSpace(NormalizeDigits(value))
	if raw == "" {
		return time.Time{}, fmt.Errorf("empty jalali date")
	}
	parts := strings.Split(raw, "/")
	if len(parts) != 3 {
		return time.Time{}, fmt.Errorf("jalali date %q must be YYYY/MM/DD", value)
	}

	nums := make([]int, 3)
	for i, part := range parts {
		if part == "" || strings.Trim(part, "0123456789") != "" {
			return time.Time{}, fmt.Errorf("jalali date %q has invalid component %q", value, part)
		}
		n, err := strconv.Atoi(part)
		if err != nil || n <= 0 {
			return time.Time{}, fmt.Errorf("jalali date %q has invalid component %q", value, part)
		}
		nums[i] = n
	}
	year, month, day := nums[0], nums[1], nums[2]
	if year < 1000 || month > 12 || day > 31 {
		return time.Time{}, fmt.Errorf("jalali date %q out of range", value)
	}

	if month <= 6 && day > 31 || month > 6 && day > 30 {
		return time.Time{}, fmt.Errorf("jalali date %q does not exist", value)
	}

	g := ptime.Date(year, ptime.Month(month), day, 12, 0, 0, 0, time.UTC).Time().UTC()
	// Esfand 30 only exists in leap years; the round trip catches overflow.
	back := ptime.New(g)
	if back.Year() != year || int(back.Month()) != month || back.Day() != day {
		return time.Time{}, fmt.Errorf("jalali date %q does not exist", value)
	}

	return time.Date(g.Year(), g.Month(), g.Day(), 0, 0, 0, 0, time.UTC), nil
}

// IsValidDate reports whether ParseDate would accept value.
func IsValidDate(value string) bool {
	_, err := ParseDate(value)
	return err == nil
}
