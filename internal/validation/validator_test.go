// Qupid - Dating Conversation Coaching API
// Copyright 2026 big-teddy
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/big-teddy/Qupid

package validation

import (
	"strings"
	"testing"
)

type profileRequest struct {
	Name      string   `json:"name" validate:"required,max=20"`
	MBTI      string   `json:"mbti" validate:"omitempty,mbti"`
	Gender    string   `json:"gender" validate:"omitempty,oneof=male female other"`
	Interests []string `json:"interests" validate:"max=3,dive,max=10"`
	PersonaID string   `json:"personaId" validate:"omitempty,uuid"`
}

func TestGetValidator_Singleton(t *testing.T) {
	if GetValidator() != GetValidator() {
		t.Error("GetValidator() should return the same instance")
	}
}

func TestValidateStruct(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		input     profileRequest
		wantField string
		wantMsg   string
	}{
		{name: "valid", input: profileRequest{Name: "민지", MBTI: "enfp", Gender: "female"}},
		{name: "missing name", input: profileRequest{}, wantField: "name", wantMsg: "name is required"},
		{name: "long name", input: profileRequest{Name: strings.Repeat("a", 21)}, wantField: "name", wantMsg: "at most 20 characters"},
		{name: "bad mbti", input: profileRequest{Name: "a", MBTI: "EXFP"}, wantField: "mbti", wantMsg: "MBTI"},
		{name: "bad gender", input: profileRequest{Name: "a", Gender: "robot"}, wantField: "gender", wantMsg: "one of: male female other"},
		{name: "too many interests", input: profileRequest{Name: "a", Interests: []string{"a", "b", "c", "d"}}, wantField: "interests", wantMsg: "at most 3 items"},
		{name: "bad uuid", input: profileRequest{Name: "a", PersonaID: "p-1"}, wantField: "personaId", wantMsg: "valid UUID"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			verr := ValidateStruct(&tt.input)
			if tt.wantField == "" {
				if verr != nil {
					t.Fatalf("unexpected error: %v", verr)
				}
				return
			}
			if verr == nil {
				t.Fatal("expected validation error")
			}
			errs := verr.Errors()
			if len(errs) != 1 {
				t.Fatalf("expected 1 error, got %d: %v", len(errs), verr)
			}
			if errs[0].Field() != tt.wantField {
				t.Errorf("Field() = %q, want %q", errs[0].Field(), tt.wantField)
			}
			if !strings.Contains(errs[0].Error(), tt.wantMsg) {
				t.Errorf("message %q does not contain %q", errs[0].Error(), tt.wantMsg)
			}
		})
	}
}

func TestToAPIError(t *testing.T) {
	t.Parallel()

	single := ValidateStruct(&profileRequest{}).ToAPIError()
	if single.Code != CodeValidation {
		t.Errorf("Code = %q", single.Code)
	}
	if single.Details["field"] != "name" {
		t.Errorf("details = %v", single.Details)
	}

	multi := ValidateStruct(&profileRequest{MBTI: "ABCD", Gender: "x"}).ToAPIError()
	fields, ok := multi.Details["fields"].([]map[string]interface{})
	if !ok || len(fields) != 3 {
		t.Fatalf("expected 3 field details, got %v", multi.Details)
	}
	if !strings.Contains(multi.Message, ";") {
		t.Errorf("expected joined message, got %q", multi.Message)
	}
}

func TestValidateMBTIAcceptsAllTypes(t *testing.T) {
	t.Parallel()

	type req struct {
		MBTI string `json:"mbti" validate:"mbti"`
	}
	for _, e := range "EI" {
		for _, s := range "SN" {
			for _, f := range "TF" {
				for _, j := range "JP" {
					code := string([]rune{e, s, f, j})
					if verr := ValidateStruct(&req{MBTI: code}); verr != nil {
						t.Errorf("%s rejected: %v", code, verr)
					}
				}
			}
		}
	}
}
