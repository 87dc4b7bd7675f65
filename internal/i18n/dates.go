package i18n

import (
	"fmt"
	"time"

	"golang.org/x/text/language"
)

var (
	frWeekdays = [7]string{"dim.", "lun.", "mar.", "mer.", "jeu.", "ven.", "sam."}
	frMonths   = [12]string{
		"janv.", "févr.", "mars", "avr.", "mai", "juin",
		"juil.", "août", "sept.", "oct.", "nov.", "déc.",
	}
)

// DayLabel formats a date as a short weekday, day and month label, e.g.
// "dim. 1 janv." in French or "Sun, Jan 1" in English.
func DayLabel(tag language.Tag, t time.Time) string {
	if Base(tag) == "fr" {
		return fmt.Sprintf("%s %d %s", frWeekdays[t.Weekday()], t.Day(), frMonths[t.Month()-1])
	}
	return t.Format("Mon, Jan 2")
}
