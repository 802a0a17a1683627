// Package ride models a single city-bike rental as stored in the warehouse.
package ride

import "time"

// OutsideStation marks a bike returned somewhere other than a designated station.
const OutsideStation = "Poza stacją"

const dayLayout = "2006-01-02"

// RideEvent represents one rental transaction. Nil pointers are missing values.
type RideEvent struct {
	UID         string    `json:"uid"`
	BikeNumber  string    `json:"bike_number"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	RentalPlace string    `json:"rental_place"`
	ReturnPlace string    `json:"return_place"`
	Duration    *int      `json:"duration,omitempty"`
	LatStart    *float64  `json:"lat_start,omitempty"`
	LonStart    *float64  `json:"lon_start,omitempty"`
	LatEnd      *float64  `json:"lat_end,omitempty"`
	LonEnd      *float64  `json:"lon_end,omitempty"`
	Distance    *float64  `json:"distance,omitempty"`
}

// ReturnedOutside reports whether the bike was left outside any station.
func (r RideEvent) ReturnedOutside() bool {
	return r.ReturnPlace == OutsideStation
}

// DayKey returns the wall-clock date of t as YYYY-MM-DD.
func DayKey(t time.Time) string {
	return t.Format(dayLayout)
}

// ParseDay parses a YYYY-MM-DD date at midnight UTC.
func ParseDay(s string) (time.Time, error) {
	return time.Parse(dayLayout, s)
}

// Window returns the inclusive range covering the day before date and date itself.
func Window(date time.Time) (time.Time, time.Time) {
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	start := day.AddDate(0, 0, -1)
	end := day.Add(24*time.Hour - time.Second)
	return start, end
}
