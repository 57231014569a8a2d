package validate

import (
	"errors"
	"testing"
)

type input struct {
	Title   string `json:"titulo" validate:"required"`
	Privacy string `json:"privacidade" validate:"oneof=publico privado"`
	Avatar  int    `json:"avatar" validate:"min=1,max=11"`
}

func TestStruct(t *testing.T) {
	tests := []struct {
		name   string
		in     input
		fields []string
	}{
		{"valid", input{Title: "x", Privacy: "publico", Avatar: 3}, nil},
		{"missing title", input{Privacy: "privado", Avatar: 1}, []string{"titulo"}},
		{"everything wrong", input{Privacy: "secreto", Avatar: 12}, []string{"titulo", "privacidade", "avatar"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Struct(tt.in)
			if len(tt.fields) == 0 {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			var verr *Error
			if !errors.As(err, &verr) {
				t.Fatalf("err = %v, want *Error", err)
			}
			if !errors.Is(err, ErrInvalid) {
				t.Error("errors.Is(err, ErrInvalid) = false")
			}
			for _, f := range tt.fields {
				if _, ok := verr.Fields[f]; !ok {
					t.Errorf("missing field %q in %v", f, verr.Fields)
				}
			}
		})
	}
}

func TestErrorMessage(t *testing.T) {
	err := Struct(input{Privacy: "publico", Avatar: 0})
	want := "avatar must be at least 1; titulo is required"
	if err == nil || err.Error() != want {
		t.Errorf("Error() = %q, want %q", err, want)
	}
}

func TestEmail(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"ana@example.com", true},
		{"ana", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := Email(tt.in); got != tt.want {
				t.Errorf("Email(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestVar(t *testing.T) {
	err := Var("avatar", 0, "min=1,max=11")
	var verr *Error
	if !errors.As(err, &verr) || verr.Fields["avatar"] == "" {
		t.Fatalf("err = %v", err)
	}
	if err := Var("avatar", 4, "min=1,max=11"); err != nil {
		t.Errorf("unexpected: %v", err)
	}
}
