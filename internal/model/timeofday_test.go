package model

import "testing"

func TestParseTimeOfDay(t *testing.T) {
	cases := []struct {
		in      string
		want    TimeOfDay
		wantErr bool
	}{
		{"00:00", 0, false},
		{"09:30", 9*60 + 30, false},
		{"23:59", 23*60 + 59, false},
		{"14:05:00", 14*60 + 5, false},
		{"24:00", 0, true},
		{"12:60", 0, true},
		{"9:30", 9*60 + 30, false},
		{"", 0, true},
		{"noon", 0, true},
	}
	for _, c := range cases {
		got, err := ParseTimeOfDay(c.in)
		if c.wantErr {
			if err == nil {
				t.Errorf("ParseTimeOfDay(%q) expected error, got %v", c.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseTimeOfDay(%q) unexpected error: %v", c.in, err)
			continue
		}
		if got != c.want {
			t.Errorf("ParseTimeOfDay(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestTimeOfDayFormatting(t *testing.T) {
	v := TimeOfDay(9*60 + 5)
	if s := v.String(); s != "09:05:00" {
		t.Errorf("String() = %q, want 09:05:00", s)
	}
	if s := v.Short(); s != "09:05" {
		t.Errorf("Short() = %q, want 09:05", s)
	}
}
