// Package pricing holds the city-bike tariff used to estimate revenue and fines.
package pricing

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const minutesPerHour = 60

// Policy is the tariff in whole currency units and minutes.
type Policy struct {
	FreeMinutes           int `yaml:"free_minutes" json:"free_minutes"`
	BaseFee               int `yaml:"base_fee" json:"base_fee"`
	FirstHourlyMinute     int `yaml:"first_hourly_minute" json:"first_hourly_minute"`
	HourlyFee             int `yaml:"hourly_fee" json:"hourly_fee"`
	SurchargeAfterMinutes int `yaml:"surcharge_after_minutes" json:"surcharge_after_minutes"`
	Surcharge             int `yaml:"surcharge" json:"surcharge"`
	OutsideStationFine    int `yaml:"outside_station_fine" json:"outside_station_fine"`
}

// DefaultPolicy is the Wrocław City Bike price list (PLN).
var DefaultPolicy = Policy{
	FreeMinutes:           20,
	BaseFee:               2,
	FirstHourlyMinute:     61,
	HourlyFee:             4,
	SurchargeAfterMinutes: 720,
	Surcharge:             300,
	OutsideStationFine:    5,
}

// Revenue returns the fee for a ride of the given duration in minutes.
func (p Policy) Revenue(duration int) int {
	switch {
	case duration > p.FreeMinutes && duration < p.FirstHourlyMinute:
		return p.BaseFee
	case duration >= p.FirstHourlyMinute:
		fee := p.BaseFee + (duration/minutesPerHour)*p.HourlyFee
		if duration > p.SurchargeAfterMinutes {
			fee += p.Surcharge
		}
		return fee
	default:
		return 0
	}
}

// RideRevenue is Revenue for an optional duration; a missing duration earns nothing.
func (p Policy) RideRevenue(duration *int) int {
	if duration == nil {
		return 0
	}
	return p.Revenue(*duration)
}

// Fine returns the total penalty for bikes returned outside a station.
func (p Policy) Fine(outsideCount int) int {
	return outsideCount * p.OutsideStationFine
}

// Validate checks that fees are non-negative and the tiers are ordered.
func (p Policy) Validate() error {
	switch {
	case p.BaseFee < 0 || p.HourlyFee < 0 || p.Surcharge < 0 || p.OutsideStationFine < 0:
		return errors.New("fees must not be negative")
	case p.FreeMinutes < 0:
		return errors.New("free_minutes must not be negative")
	case p.FirstHourlyMinute <= p.FreeMinutes:
		return errors.New("first_hourly_minute must be greater than free_minutes")
	case p.SurchargeAfterMinutes < p.FirstHourlyMinute:
		return errors.New("surcharge_after_minutes must not be less than first_hourly_minute")
	}
	return nil
}

// LoadPolicy reads a YAML tariff. Keys missing from the file keep their default values.
func LoadPolicy(path string) (Policy, error) {
	policy := DefaultPolicy
	if path == "" {
		return policy, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return policy, fmt.Errorf("reading pricing policy: %w", err)
	}
	if err := yaml.Unmarshal(data, &policy); err != nil {
		return policy, fmt.Errorf("parsing pricing policy: %w", err)
	}
	if err := policy.Validate(); err != nil {
		return policy, fmt.Errorf("invalid pricing policy: %w", err)
	}
	return policy, nil
}
