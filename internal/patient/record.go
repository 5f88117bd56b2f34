// Package patient holds the patient record captured by the upload form and the
// pre-network validation rules applied before any submission.
package patient

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Record is an immutable patient snapshot created at submission time.
type Record struct {
	Name                  string
	DateOfBirth           string // YYYY-MM-DD, may be empty when Age was entered directly
	Age                   int
	Mobile                string
	Gender                string
	DiabetesDurationYears float64
	ImagePath             string
}

// ValidationError blocks a submission before any network call is made. Field
// names the offending input so the form can point at it.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Input is the raw form state, all fields as typed by the user.
type Input struct {
	Name             string
	DateOfBirth      string
	Age              string
	Mobile           string
	Gender           string
	DiabetesDuration string
	ImagePath        string
}

var mobilePattern = regexp.MustCompile(`^[0-9]{10}$`)

const (
	minAge = 0
	maxAge = 120
)

// Validate checks the form state and builds the immutable record. The age may
// be entered directly or derived from a date of birth that is not in the
// future. Gender and diabetes duration are optional.
func Validate(in Input, now time.Time) (Record, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return Record{}, &ValidationError{Field: "name", Reason: "required"}
	}

	age, err := resolveAge(in, now)
	if err != nil {
		return Record{}, err
	}

	mobile := strings.TrimSpace(in.Mobile)
	if !mobilePattern.MatchString(mobile) {
		return Record{}, &ValidationError{Field: "mobile", Reason: "must be exactly 10 numeric digits"}
	}

	var duration float64
	if s := strings.TrimSpace(in.DiabetesDuration); s != "" {
		duration, err = strconv.ParseFloat(s, 64)
		if err != nil || duration < 0 {
			return Record{}, &ValidationError{Field: "diabetes duration", Reason: "must be a non-negative number of years"}
		}
	}

	if in.ImagePath == "" {
		return Record{}, &ValidationError{Field: "image", Reason: "an image file is required"}
	}

	return Record{
		Name:                  name,
		DateOfBirth:           strings.TrimSpace(in.DateOfBirth),
		Age:                   age,
		Mobile:                mobile,
		Gender:                strings.TrimSpace(in.Gender),
		DiabetesDurationYears: duration,
		ImagePath:             in.ImagePath,
	}, nil
}

func resolveAge(in Input, now time.Time) (int, error) {
	ageStr := strings.TrimSpace(in.Age)
	dobStr := strings.TrimSpace(in.DateOfBirth)

	if ageStr == "" && dobStr == "" {
		return 0, &ValidationError{Field: "age", Reason: "enter an age or a date of birth"}
	}

	if ageStr != "" {
		age, err := strconv.Atoi(ageStr)
		if err != nil {
			return 0, &ValidationError{Field: "age", Reason: "must be a whole number"}
		}
		if age < minAge || age > maxAge {
			return 0, &ValidationError{Field: "age", Reason: fmt.Sprintf("must be between %d and %d", minAge, maxAge)}
		}
		return age, nil
	}

	return AgeFromDOB(dobStr, now)
}

// AgeFromDOB derives the age in whole years from a YYYY-MM-DD date of birth.
// A date in the future is rejected.
func AgeFromDOB(dob string, now time.Time) (int, error) {
	d, err := time.Parse("2006-01-02", dob)
	if err != nil {
		return 0, &ValidationError{Field: "date of birth", Reason: "use the format YYYY-MM-DD"}
	}
	if d.After(now) {
		return 0, &ValidationError{Field: "date of birth", Reason: "cannot be in the future"}
	}

	age := now.Year() - d.Year()
	if now.Month() < d.Month() || (now.Month() == d.Month() && now.Day() < d.Day()) {
		age--
	}
	if age < 0 {
		age = 0
	}
	if age > maxAge {
		return 0, &ValidationError{Field: "date of birth", Reason: "derived age is out of range, check the date"}
	}
	return age, nil
}
