package httputil

import (
	"encoding/json"
	"testing"
)

func TestOptionalStringTriState(t *testing.T) {
	type payload struct {
		AssistantID OptionalString `json:"assistant_id"`
	}

	tests := []struct {
		name        string
		body        string
		wantPresent bool
		wantNil     bool
		wantValue   string
	}{
		{"absent", `{}`, false, true, ""},
		{"null", `{"assistant_id": null}`, true, true, ""},
		{"empty string", `{"assistant_id": ""}`, true, false, ""},
		{"value", `{"assistant_id": "asst-1"}`, true, false, "asst-1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p payload
			if err := json.Unmarshal([]byte(tt.body), &p); err != nil {
				t.Fatal(err)
			}
			if p.AssistantID.Present != tt.wantPresent {
				t.Errorf("Present = %v, want %v", p.AssistantID.Present, tt.wantPresent)
			}
			if (p.AssistantID.Value == nil) != tt.wantNil {
				t.Errorf("Value = %v, want nil=%v", p.AssistantID.Value, tt.wantNil)
			}
			if !tt.wantNil && *p.AssistantID.Value != tt.wantValue {
				t.Errorf("Value = %q, want %q", *p.AssistantID.Value, tt.wantValue)
			}
		})
	}
}

func TestOptionalStringRejectsNonString(t *testing.T) {
	var o OptionalString
	if err := json.Unmarshal([]byte(`42`), &o); err == nil {
		t.Fatal("expected an error for a non-string value")
	}
}
