package validation

import (
	"errors"
	"testing"
)

type payload struct {
	Outcome  string  `json:"outcome" validate:"required,oneof=CORRECT INCORRECT"`
	Response *string `json:"response" validate:"omitempty,max=5"`
	Hints    *int    `json:"hintsUsed" validate:"omitempty,gte=0"`
	Slug     string  `yaml:"slug" validate:"omitempty,slug"`
	Items    []item  `json:"items" validate:"dive"`
}

type item struct {
	Title string `json:"title" validate:"required"`
}

func strPtr(s string) *string { return &s }
func intPtr(n int) *int       { return &n }

func TestStruct(t *testing.T) {
	tests := []struct {
		name       string
		input      payload
		wantFields map[string]string
	}{
		{
			name:  "valid",
			input: payload{Outcome: "CORRECT", Response: strPtr("ok"), Hints: intPtr(0), Slug: "algebra-avengers"},
		},
		{
			name:       "missing outcome",
			input:      payload{},
			wantFields: map[string]string{"outcome": "is required"},
		},
		{
			name:       "unknown outcome",
			input:      payload{Outcome: "MAYBE"},
			wantFields: map[string]string{"outcome": "must be one of: CORRECT, INCORRECT"},
		},
		{
			name:       "response too long",
			input:      payload{Outcome: "CORRECT", Response: strPtr("toolong")},
			wantFields: map[string]string{"response": "must be at most 5 characters"},
		},
		{
			name:       "negative hints",
			input:      payload{Outcome: "CORRECT", Hints: intPtr(-1)},
			wantFields: map[string]string{"hintsUsed": "must be greater than or equal to 0"},
		},
		{
			name:       "bad slug",
			input:      payload{Outcome: "CORRECT", Slug: "Algebra Avengers"},
			wantFields: map[string]string{"slug": "must contain only lowercase letters, digits and dashes"},
		},
		{
			name:       "nested",
			input:      payload{Outcome: "CORRECT", Items: []item{{Title: "a"}, {}}},
			wantFields: map[string]string{"items[1].title": "is required"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Struct(tt.input)
			if len(tt.wantFields) == 0 {
				if err != nil {
					t.Fatalf("Struct() error = %v, want nil", err)
				}
				return
			}
			var fe FieldErrors
			if !errors.As(err, &fe) {
				t.Fatalf("Struct() error = %v, want FieldErrors", err)
			}
			if len(fe) != len(tt.wantFields) {
				t.Fatalf("Struct() fields = %v, want %v", fe, tt.wantFields)
			}
			for field, msg := range tt.wantFields {
				if fe[field] != msg {
					t.Errorf("field %q = %q, want %q", field, fe[field], msg)
				}
			}
		})
	}
}

func TestFieldErrorsMessageIsSorted(t *testing.T) {
	fe := FieldErrors{"b": "is required", "a": "is invalid"}
	want := "validation failed: a: is invalid; b: is required"
	if fe.Error() != want {
		t.Errorf("Error() = %q, want %q", fe.Error(), want)
	}
}
