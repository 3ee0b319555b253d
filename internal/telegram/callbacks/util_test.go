package callbacks

import (
	"testing"

	tele "gopkg.in/telebot.v4"
)

func TestParseCallbackData(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		unique  string
		payload string
	}{
		{"unique and payload", "\\fflow_category|7", "flow_category", "7"},
		{"unique only", "\\fflow_confirm", "flow_confirm", ""},
		{"empty payload", "\\fflow_cancel|", "flow_cancel", ""},
		{"no prefix", "flow_category|42", "flow_category", "42"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			unique, payload := ParseCallbackData(&tele.Callback{Data: tt.data})
			if unique != tt.unique || payload != tt.payload {
				t.Errorf("ParseCallbackData(%q) = (%q, %q), want (%q, %q)",
					tt.data, unique, payload, tt.unique, tt.payload)
			}
		})
	}
}

func TestParseCallbackDataNil(t *testing.T) {
	unique, payload := ParseCallbackData(nil)
	if unique != "" || payload != "" {
		t.Errorf("nil callback should parse to empty values, got (%q, %q)", unique, payload)
	}
}
