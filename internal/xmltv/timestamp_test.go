package xmltv

import (
	"testing"
)

func TestParseOffset(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "utc", input: "+0000", want: "+0000"},
		{name: "india", input: "+0530", want: "+0530"},
		{name: "negative", input: "-0800", want: "-0800"},
		{name: "missing sign", input: "0530", wantErr: true},
		{name: "too short", input: "+530", wantErr: true},
		{name: "hours out of range", input: "+2400", wantErr: true},
		{name: "minutes out of range", input: "+0560", wantErr: true},
		{name: "letters", input: "+ab00", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseOffset(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseOffset(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && got.String() != tt.want {
				t.Errorf("ParseOffset(%q) = %q, want %q", tt.input, got.String(), tt.want)
			}
		})
	}
}

func TestFormatTimestamp(t *testing.T) {
	india, err := ParseOffset("+0530")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	pacific, err := ParseOffset("-0800")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tests := []struct {
		name   string
		epoch  int64
		offset Offset
		want   string
	}{
		{name: "utc", epoch: 1700000000000, offset: UTC, want: "20231114221320 +0000"},
		{name: "zero value offset is utc", epoch: 1700000000000, offset: Offset{}, want: "20231114221320 +0000"},
		{name: "positive offset shifts wall clock", epoch: 1700000000000, offset: india, want: "20231115034320 +0530"},
		{name: "negative offset shifts wall clock", epoch: 1700000000000, offset: pacific, want: "20231114141320 -0800"},
		{name: "sub-second precision is truncated", epoch: 1700000000999, offset: UTC, want: "20231114221320 +0000"},
		{name: "epoch origin", epoch: 0, offset: UTC, want: "19700101000000 +0000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatTimestamp(tt.epoch, tt.offset); got != tt.want {
				t.Errorf("FormatTimestamp(%d) = %q, want %q", tt.epoch, got, tt.want)
			}
		})
	}
}
