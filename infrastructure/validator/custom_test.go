package validator

import (
	"strings"
	"testing"
)

func TestPasswordRule(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantOK   bool
	}{
		{
			name:     "too short",
			password: "a1!",
			wantOK:   false,
		},
		{
			name:     "no digit",
			password: "password!!",
			wantOK:   false,
		},
		{
			name:     "no special character",
			password: "password123",
			wantOK:   false,
		},
		{
			name:     "digit and special character",
			password: "password1!",
			wantOK:   true,
		},
		{
			name:     "exactly eight characters",
			password: "abcde1!x",
			wantOK:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateField(tt.password, "password")
			if tt.wantOK && err != nil {
				t.Errorf("expected %q to pass the password rule, got %v", tt.password, err)
			}
			if !tt.wantOK && err == nil {
				t.Errorf("expected %q to fail the password rule", tt.password)
			}
		})
	}
}

func TestNameRule(t *testing.T) {
	tests := []struct {
		name   string
		value  string
		wantOK bool
	}{
		{
			name:   "plain name",
			value:  "Amara",
			wantOK: true,
		},
		{
			name:   "hyphenated name",
			value:  "Anne-Marie",
			wantOK: true,
		},
		{
			name:   "name with apostrophe",
			value:  "O'Neil",
			wantOK: true,
		},
		{
			name:   "accented characters",
			value:  "Zoë",
			wantOK: true,
		},
		{
			name:   "digits rejected",
			value:  "John3",
			wantOK: false,
		},
		{
			name:   "spaces rejected",
			value:  "John Doe",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateField(tt.value, "name_spacial_char")
			if tt.wantOK && err != nil {
				t.Errorf("expected %q to pass the name rule, got %v", tt.value, err)
			}
			if !tt.wantOK && err == nil {
				t.Errorf("expected %q to fail the name rule", tt.value)
			}
		})
	}
}

func TestImagePayloadRule(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		wantOK  bool
	}{
		{
			name:    "raw base64",
			payload: strings.Repeat("abcd", 25),
			wantOK:  true,
		},
		{
			name:    "image data URI",
			payload: "data:image/png;base64," + strings.Repeat("abcd", 25),
			wantOK:  true,
		},
		{
			name:    "non image data URI",
			payload: "data:text/plain;base64," + strings.Repeat("abcd", 25),
			wantOK:  false,
		},
		{
			name:    "empty payload",
			payload: "",
			wantOK:  false,
		},
		{
			name:    "non base64 characters",
			payload: "not@valid#base64",
			wantOK:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateField(tt.payload, "image_payload")
			if tt.wantOK && err != nil {
				t.Errorf("expected payload to pass the image rule, got %v", err)
			}
			if !tt.wantOK && err == nil {
				t.Error("expected payload to fail the image rule")
			}
		})
	}
}

func TestValidateStructCollectsAllFailures(t *testing.T) {
	type signup struct {
		FirstName string `validate:"required,name_spacial_char"`
		Password  string `validate:"required,password"`
	}

	errs := validateStruct(signup{FirstName: "J0hn", Password: "weak"})
	if errs == nil {
		t.Fatal("expected validation errors")
	}
	if len(*errs) != 2 {
		t.Fatalf("expected 2 validation errors, got %d: %v", len(*errs), *errs)
	}
	for _, err := range *errs {
		if !strings.Contains(err.Error(), "failed validation for rule") {
			t.Errorf("unexpected error message format: %v", err)
		}
	}
}
