package trigger

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Spec defines a recurring wall-clock trigger: fire at Hour:Minute in
// Location on each weekday in Weekdays. Weekdays use 0=Monday..6=Sunday.
type Spec struct {
	Hour     int
	Minute   int
	Weekdays []int
	Location *time.Location
}

var weekdayNames = [...]string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

// cronDow converts a Monday-first weekday index to cron's Sunday-first one.
func cronDow(d int) int {
	return (d + 1) % 7
}

// specWeekday converts a time.Weekday to the Monday-first index.
func specWeekday(wd time.Weekday) int {
	return (int(wd) + 6) % 7
}

// CronExpr renders the spec as a standard 5-field cron expression.
func (sp Spec) CronExpr() string {
	days := make([]int, 0, len(sp.Weekdays))
	for _, d := range sp.Weekdays {
		days = append(days, cronDow(d))
	}
	sort.Ints(days)
	parts := make([]string, len(days))
	for i, d := range days {
		parts[i] = strconv.Itoa(d)
	}
	return fmt.Sprintf("%d %d * * %s", sp.Minute, sp.Hour, strings.Join(parts, ","))
}

// Next returns the earliest instant at or after t that matches the spec.
// It scans forward day by day (at most 7 days) from t's date in the spec's
// location. A slot equal to t at minute granularity counts as due, so a
// schedule registered exactly at its firing time reports that occurrence.
func (sp Spec) Next(t time.Time) time.Time {
	loc := sp.Location
	if loc == nil {
		loc = time.Local
	}
	allowed := make(map[int]bool, len(sp.Weekdays))
	for _, d := range sp.Weekdays {
		allowed[d] = true
	}

	local := t.In(loc)
	floor := local.Truncate(time.Minute)
	for i := 0; i <= 7; i++ {
		day := local.AddDate(0, 0, i)
		slot := time.Date(day.Year(), day.Month(), day.Day(), sp.Hour, sp.Minute, 0, 0, loc)
		if allowed[specWeekday(slot.Weekday())] && !slot.Before(floor) {
			return slot
		}
	}
	// Unreachable for any non-empty weekday set.
	return time.Time{}
}

// String renders a human-readable trigger description, e.g.
// "Mon,Wed,Fri at 09:00 (Asia/Seoul)".
func (sp Spec) String() string {
	days := append([]int(nil), sp.Weekdays...)
	sort.Ints(days)
	names := make([]string, len(days))
	for i, d := range days {
		names[i] = weekdayNames[d]
	}
	zone := "Local"
	if sp.Location != nil {
		zone = sp.Location.String()
	}
	return fmt.Sprintf("%s at %02d:%02d (%s)", strings.Join(names, ","), sp.Hour, sp.Minute, zone)
}
