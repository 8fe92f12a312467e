package schedule

import (
	"errors"
	"testing"
)

func TestSpecParseValid(t *testing.T) {
	tests := []struct {
		name string
		spec Spec
	}{
		{"daily", Spec{RepeatType: RepeatDaily, Times: []string{"08:00"}}},
		{"weekly", Spec{RepeatType: RepeatWeekly, DayMask: "1010000", Times: []string{"09:00"}}},
		{"once", Spec{RepeatType: RepeatOnce, CustomStart: "2026-03-10", Times: []string{"12:00"}}},
		{"custom", Spec{RepeatType: RepeatCustom, CustomStart: "2026-03-05", CustomEnd: "2026-03-07", Times: []string{"10:00"}}},
		{"single day custom", Spec{RepeatType: RepeatCustom, CustomStart: "2026-03-05", CustomEnd: "2026-03-05", Times: []string{"10:00"}}},
		{"lead minutes", Spec{RepeatType: RepeatDaily, Times: []string{"08:00"}, LeadMinutes: 15}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := tt.spec.Parse(); err != nil {
				t.Errorf("Parse() error = %v, want nil", err)
			}
		})
	}
}

func TestSpecParseInvalid(t *testing.T) {
	tests := []struct {
		name  string
		spec  Spec
		field string
	}{
		{"unknown repeat type", Spec{RepeatType: "hourly", Times: []string{"08:00"}}, "repeat_type"},
		{"short mask", Spec{RepeatType: RepeatWeekly, DayMask: "101", Times: []string{"08:00"}}, "day_mask"},
		{"long mask", Spec{RepeatType: RepeatWeekly, DayMask: "10100001", Times: []string{"08:00"}}, "day_mask"},
		{"mask with letters", Spec{RepeatType: RepeatWeekly, DayMask: "10100x0", Times: []string{"08:00"}}, "day_mask"},
		{"once without date", Spec{RepeatType: RepeatOnce, Times: []string{"08:00"}}, "custom_start"},
		{"custom missing end", Spec{RepeatType: RepeatCustom, CustomStart: "2026-03-05", Times: []string{"08:00"}}, "custom_end"},
		{"custom end before start", Spec{RepeatType: RepeatCustom, CustomStart: "2026-03-07", CustomEnd: "2026-03-05", Times: []string{"08:00"}}, "custom_end"},
		{"bad date format", Spec{RepeatType: RepeatOnce, CustomStart: "03/10/2026", Times: []string{"08:00"}}, "custom_start"},
		{"negative lead", Spec{RepeatType: RepeatDaily, Times: []string{"08:00"}, LeadMinutes: -5}, "lead_minutes"},
		{"bad time", Spec{RepeatType: RepeatDaily, Times: []string{"8am"}}, "times"},
		{"out of range time", Spec{RepeatType: RepeatDaily, Times: []string{"25:00"}}, "times"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := tt.spec.Parse()
			if err == nil {
				t.Fatal("Parse() error = nil, want validation error")
			}
			var vErr *ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("Parse() error = %T, want *ValidationError", err)
			}
			if vErr.Field != tt.field {
				t.Errorf("ValidationError.Field = %q, want %q", vErr.Field, tt.field)
			}
		})
	}
}

func TestParseHHMM(t *testing.T) {
	hour, minute, err := ParseHHMM("14:30")
	if err != nil {
		t.Fatalf("ParseHHMM() error = %v", err)
	}
	if hour != 14 || minute != 30 {
		t.Errorf("ParseHHMM() = (%d, %d), want (14, 30)", hour, minute)
	}

	if _, _, err := ParseHHMM("24:00"); err == nil {
		t.Error("ParseHHMM(24:00) error = nil, want error")
	}
}
