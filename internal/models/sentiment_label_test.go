package models

import (
	"encoding/json"
	"testing"
)

func TestLabelTable(t *testing.T) {
	tests := []struct {
		label SentimentLabel
		code  int
		name  string
	}{
		{LabelAnti, -1, "Anti"},
		{LabelNeutral, 0, "Neutral"},
		{LabelPro, 1, "Pro"},
		{LabelNews, 2, "News"},
	}
	for _, tt := range tests {
		if int(tt.label) != tt.code {
			t.Errorf("%s code = %d, want %d", tt.name, int(tt.label), tt.code)
		}
		if tt.label.Name() != tt.name {
			t.Errorf("Name() = %q, want %q", tt.label.Name(), tt.name)
		}
		if tt.label.Description() == "" {
			t.Errorf("%s has no description", tt.name)
		}
	}

	if SentimentLabel(7).Valid() || SentimentLabel(7).Name() != "Unknown" {
		t.Error("code 7 should be invalid")
	}
	if len(AllLabels()) != 4 {
		t.Errorf("AllLabels() has %d entries", len(AllLabels()))
	}
}

func TestParseLabel(t *testing.T) {
	tests := []struct {
		in      string
		want    SentimentLabel
		wantErr bool
	}{
		{"-1", LabelAnti, false},
		{"0", LabelNeutral, false},
		{" 2 ", LabelNews, false},
		{"pro", LabelPro, false},
		{"NEWS", LabelNews, false},
		{"LABEL_1", LabelPro, false},
		{"label_-1", LabelAnti, false},
		{"3", 0, true},
		{"positive", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseLabel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLabel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("ParseLabel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestLabelJSON(t *testing.T) {
	data, err := json.Marshal(struct {
		Label SentimentLabel `json:"label"`
	}{LabelAnti})
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"label":-1}` {
		t.Fatalf("Marshal = %s", data)
	}

	var decoded struct {
		A SentimentLabel `json:"a"`
		B SentimentLabel `json:"b"`
	}
	if err := json.Unmarshal([]byte(`{"a":2,"b":"pro"}`), &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded.A != LabelNews || decoded.B != LabelPro {
		t.Fatalf("decoded = %+v", decoded)
	}

	var bad SentimentLabel
	if err := json.Unmarshal([]byte(`5`), &bad); err == nil {
		t.Fatal("expected error for unknown code")
	}
}
