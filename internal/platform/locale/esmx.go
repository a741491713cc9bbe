// Package locale formats dates and times the way es-MX readers expect them.
package locale

import (
	"fmt"
	"time"
)

var monthNames = [...]string{
	"enero", "febrero", "marzo", "abril", "mayo", "junio",
	"julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre",
}

var weekdayNames = [...]string{
	"domingo", "lunes", "martes", "miércoles", "jueves", "viernes", "sábado",
}

// LongDate renders t as "19 de enero de 2026" in t's location.
func LongDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return fmt.Sprintf("%d de %s de %d", t.Day(), monthNames[t.Month()-1], t.Year())
}

// WeekdayDate renders t as "lunes 19 de enero de 2026".
func WeekdayDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return weekdayNames[t.Weekday()] + " " + LongDate(t)
}

// Time renders the 12-hour clock time, e.g. "3:04 p.m.".
func Time(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	suffix := "a.m."
	if t.Hour() >= 12 {
		suffix = "p.m."
	}
	hour := t.Hour() % 12
	if hour == 0 {
		hour = 12
	}
	return fmt.Sprintf("%d:%02d %s", hour, t.Minute(), suffix)
}

// DateTime joins LongDate and Time with an em dash, the separator used on
// report cards.
func DateTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return LongDate(t) + " — " + Time(t)
}

// In converts t to loc, leaving t untouched when loc is nil.
func In(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		return t
	}
	return t.In(loc)
}
