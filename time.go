package main

import (
	"time"
	_ "time/tzdata"
)

var timezone *time.Location

func init() {
	var err error
	timezone, err = time.LoadLocation("Europe/Minsk")
	if err != nil {
		panic(err)
	}
}

// StripTime returns the calendar day of t as UTC midnight, the form dates
// have in parsed records.
func StripTime(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

const dbDateLayout = "2006-01-02"
