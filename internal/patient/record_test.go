package patient

import (
	"errors"
	"testing"
	"time"
)

var testNow = time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)

func validInput() Input {
	return Input{
		Name:      "A Kumar",
		Age:       "34",
		Mobile:    "9876543210",
		Gender:    "F",
		ImagePath: "/tmp/scan.png",
	}
}

func TestValidate_OK(t *testing.T) {
	rec, err := Validate(validInput(), testNow)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if rec.Name != "A Kumar" || rec.Age != 34 || rec.Mobile != "9876543210" {
		t.Errorf("unexpected record: %+v", rec)
	}
}

func TestValidate_Failures(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Input)
		wantField string
	}{
		{"missing name", func(in *Input) { in.Name = "  " }, "name"},
		{"missing age and dob", func(in *Input) { in.Age = ""; in.DateOfBirth = "" }, "age"},
		{"age not numeric", func(in *Input) { in.Age = "thirty" }, "age"},
		{"age too large", func(in *Input) { in.Age = "121" }, "age"},
		{"age negative", func(in *Input) { in.Age = "-1" }, "age"},
		{"mobile too short", func(in *Input) { in.Mobile = "12345" }, "mobile"},
		{"mobile with letters", func(in *Input) { in.Mobile = "98765x3210" }, "mobile"},
		{"mobile too long", func(in *Input) { in.Mobile = "98765432100" }, "mobile"},
		{"bad diabetes duration", func(in *Input) { in.DiabetesDuration = "abc" }, "diabetes duration"},
		{"missing image", func(in *Input) { in.ImagePath = "" }, "image"},
		{"future dob", func(in *Input) { in.Age = ""; in.DateOfBirth = "2030-01-01" }, "date of birth"},
		{"malformed dob", func(in *Input) { in.Age = ""; in.DateOfBirth = "01/02/1990" }, "date of birth"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput()
			tt.mutate(&in)

			_, err := Validate(in, testNow)
			if err == nil {
				t.Fatal("expected validation error, got nil")
			}

			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected *ValidationError, got %T", err)
			}
			if verr.Field != tt.wantField {
				t.Errorf("expected field %q, got %q", tt.wantField, verr.Field)
			}
		})
	}
}

func TestValidate_AgeDerivedFromDOB(t *testing.T) {
	in := validInput()
	in.Age = ""
	in.DateOfBirth = "1990-09-01" // birthday not yet reached in testNow's year

	rec, err := Validate(in, testNow)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if rec.Age != 35 {
		t.Errorf("expected derived age 35, got %d", rec.Age)
	}
}

func TestAgeFromDOB(t *testing.T) {
	tests := []struct {
		dob  string
		want int
	}{
		{"1990-08-28", 36}, // birthday today
		{"1990-08-29", 35}, // birthday tomorrow
		{"2026-08-27", 0},  // newborn
	}

	for _, tt := range tests {
		got, err := AgeFromDOB(tt.dob, testNow)
		if err != nil {
			t.Errorf("AgeFromDOB(%s) failed: %v", tt.dob, err)
			continue
		}
		if got != tt.want {
			t.Errorf("AgeFromDOB(%s): expected %d, got %d", tt.dob, tt.want, got)
		}
	}
}
