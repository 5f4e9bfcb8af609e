package services

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingPeriodData is returned when the previous period needed for a
	// consumption delta is absent and the fallback for it is disabled.
	ErrMissingPeriodData = errors.New("missing period data")

	// ErrInvalidCatalogRow marks a catalog row whose rate does not parse.
	// Rows like that are dropped while loading, never surfaced to the user.
	ErrInvalidCatalogRow = errors.New("invalid catalog row")

	// ErrIndexOutOfRange is returned by DeleteAt for positions outside [1, count].
	ErrIndexOutOfRange = errors.New("index out of range")

	// ErrFileProcessing wraps any failure reading an uploaded file.
	ErrFileProcessing = errors.New("file processing error")

	// ErrTariffRatesRequired is returned when T1 or T2 rates are zero.
	ErrTariffRatesRequired = errors.New("both T1 and T2 tariff rates are required")

	// ErrInvalidInput marks form values that fail validation.
	ErrInvalidInput = errors.New("invalid input")

	// ErrAbsentReading is returned under AbsentFails when a department has
	// no reading in a column the computation needs.
	ErrAbsentReading = errors.New("absent meter reading")
)

// MissingPeriodDataError names the purpose, period and tier that could not
// be resolved. Current is set when the selected period itself has no column.
type MissingPeriodDataError struct {
	Purpose string // "billing" or "FPA"
	Period  string // empty when no previous period exists
	Tier    Tier
	Current bool
}

func (e *MissingPeriodDataError) Error() string {
	if e.Current {
		return fmt.Sprintf("missing %s month reading: %s %s", e.Purpose, e.Period, e.Tier)
	}
	period := e.Period
	if period == "" {
		period = "none"
	}
	return fmt.Sprintf("missing previous month reading for %s: %s %s", e.Purpose, period, e.Tier)
}

func (e *MissingPeriodDataError) Unwrap() error { return ErrMissingPeriodData }

// FileProcessingError reports which step of reading an upload failed.
type FileProcessingError struct {
	Op  string
	Err error
}

func (e *FileProcessingError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *FileProcessingError) Unwrap() []error { return []error{ErrFileProcessing, e.Err} }

func fileError(op string, err error) error {
	return &FileProcessingError{Op: op, Err: err}
}

// AbsentReadingError identifies the department and column with no value.
type AbsentReadingError struct {
	Department string
	Key        ReadingKey
}

func (e *AbsentReadingError) Error() string {
	return fmt.Sprintf("department %q has no reading for %s", e.Department, e.Key.Column())
}

func (e *AbsentReadingError) Unwrap() error { return ErrAbsentReading }
