package models

import (
	"fmt"
	"math"
)

// InputMessage is shown to the user when form values are rejected.
const InputMessage = "Inputs have to be positive numbers"

// ValidationError reports a numeric input that is not finite or out of range.
type ValidationError struct {
	Field  string
	Value  float64
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "invalid input: " + e.Reason
	}
	return fmt.Sprintf("invalid %s %v: %s", e.Field, e.Value, e.Reason)
}

// UserMessage is the alert text for the form.
func (e *ValidationError) UserMessage() string {
	return InputMessage
}

// AllFinite reports whether every value is a finite number.
func AllFinite(values ...float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// AllPositive reports whether every value is strictly greater than zero.
func AllPositive(values ...float64) bool {
	for _, v := range values {
		if !(v > 0) {
			return false
		}
	}
	return true
}

type field struct {
	name  string
	value float64
}

// ValidateRunning requires distance, duration and cadence to be finite and positive.
func ValidateRunning(distanceKm, durationMin, cadenceSpm float64) error {
	fields := []field{{"distance", distanceKm}, {"duration", durationMin}, {"cadence", cadenceSpm}}
	if err := checkFinite(fields...); err != nil {
		return err
	}
	return checkPositive(fields...)
}

// ValidateCycling requires finite inputs, positive distance and duration and a
// non-negative elevation gain.
func ValidateCycling(distanceKm, durationMin, elevationGainM float64) error {
	if err := checkFinite(field{"distance", distanceKm}, field{"duration", durationMin}, field{"elevation", elevationGainM}); err != nil {
		return err
	}
	if err := checkPositive(field{"distance", distanceKm}, field{"duration", durationMin}); err != nil {
		return err
	}
	if elevationGainM < 0 {
		return &ValidationError{Field: "elevation", Value: elevationGainM, Reason: "must not be negative"}
	}
	return nil
}

func checkFinite(fields ...field) error {
	for _, f := range fields {
		if !AllFinite(f.value) {
			return &ValidationError{Field: f.name, Value: f.value, Reason: "must be a finite number"}
		}
	}
	return nil
}

func checkPositive(fields ...field) error {
	for _, f := range fields {
		if !AllPositive(f.value) {
			return &ValidationError{Field: f.name, Value: f.value, Reason: "must be greater than zero"}
		}
	}
	return nil
}

// CheckCoords requires a finite latitude in [-90, 90] and longitude in [-180, 180].
func CheckCoords(c Coords) error {
	if !AllFinite(c.Lat) || c.Lat < -90 || c.Lat > 90 {
		return &ValidationError{Field: "lat", Value: c.Lat, Reason: "must be between -90 and 90"}
	}
	if !AllFinite(c.Lng) || c.Lng < -180 || c.Lng > 180 {
		return &ValidationError{Field: "lng", Value: c.Lng, Reason: "must be between -180 and 180"}
	}
	return nil
}
