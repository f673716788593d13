package model

import "testing"

func TestParseReportDate(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{name: "valid", in: "05/03/2024", want: "05/03/2024"},
		{name: "valid with spaces", in: "  14/10/2025 ", want: "14/10/2025"},
		{name: "iso rejected", in: "2024-03-05", wantErr: true},
		{name: "us order rejected", in: "03/25/2024", wantErr: true},
		{name: "empty", in: "", wantErr: true},
		{name: "garbage", in: "yesterday", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := ParseReportDate(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseReportDate(%q) expected error, got %v", tt.in, d)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseReportDate(%q) unexpected error: %v", tt.in, err)
			}
			if got := d.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestReportDateFileToken(t *testing.T) {
	d, err := ParseReportDate("05/03/2024")
	if err != nil {
		t.Fatal(err)
	}
	if got := d.FileToken(); got != "05_03_2024" {
		t.Errorf("FileToken() = %q, want %q", got, "05_03_2024")
	}
}

func TestTodayIsCanonical(t *testing.T) {
	d := Today()
	if d.IsZero() {
		t.Fatal("Today() returned zero date")
	}
	// round-trips through the canonical layout
	if _, err := ParseReportDate(d.String()); err != nil {
		t.Errorf("Today().String() = %q is not canonical: %v", d.String(), err)
	}
}
