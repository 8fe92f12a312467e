package schedule

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func datePtr(y int, m time.Month, d int) *time.Time {
	t := date(y, m, d)
	return &t
}

func TestExpandDaily(t *testing.T) {
	// 2026-03-02 is a Monday
	from := date(2026, time.March, 2)
	out := Expand(Rule{RepeatType: RepeatDaily}, []string{"08:00", "20:00"}, 30, from)

	if len(out) != 60 {
		t.Fatalf("expected 60 occurrences, got %d", len(out))
	}

	want := time.Date(2026, time.March, 2, 8, 0, 0, 0, time.UTC)
	if !out[0].Equal(want) {
		t.Errorf("first occurrence = %v, want %v", out[0], want)
	}

	// Ordered by day, then submission order within the day
	for i := 1; i < len(out); i++ {
		if out[i].Before(out[i-1]) {
			t.Fatalf("occurrences out of order at %d: %v before %v", i, out[i], out[i-1])
		}
	}

	last := time.Date(2026, time.March, 31, 20, 0, 0, 0, time.UTC)
	if !out[len(out)-1].Equal(last) {
		t.Errorf("last occurrence = %v, want %v", out[len(out)-1], last)
	}
}

func TestExpandWeekly(t *testing.T) {
	// Mask selects Monday and Wednesday; window starts Monday 2026-03-02
	rule := Rule{RepeatType: RepeatWeekly, DayMask: "1010000"}
	out := Expand(rule, []string{"09:00", "21:00"}, 7, date(2026, time.March, 2))

	if len(out) != 4 {
		t.Fatalf("expected 4 occurrences, got %d", len(out))
	}

	want := []time.Time{
		time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC),
		time.Date(2026, time.March, 2, 21, 0, 0, 0, time.UTC),
		time.Date(2026, time.March, 4, 9, 0, 0, 0, time.UTC),
		time.Date(2026, time.March, 4, 21, 0, 0, 0, time.UTC),
	}
	for i, w := range want {
		if !out[i].Equal(w) {
			t.Errorf("occurrence %d = %v, want %v", i, out[i], w)
		}
	}
}

func TestExpandWeeklySundayMaskPosition(t *testing.T) {
	// Sunday is the last mask position, not the first
	rule := Rule{RepeatType: RepeatWeekly, DayMask: "0000001"}
	out := Expand(rule, []string{"12:00"}, 7, date(2026, time.March, 2))

	if len(out) != 1 {
		t.Fatalf("expected 1 occurrence, got %d", len(out))
	}
	if out[0].Weekday() != time.Sunday {
		t.Errorf("occurrence on %v, want Sunday", out[0].Weekday())
	}
}

func TestExpandOnce(t *testing.T) {
	tests := []struct {
		name  string
		start *time.Time
		want  int
	}{
		{"inside horizon", datePtr(2026, time.March, 10), 2},
		{"outside horizon", datePtr(2026, time.May, 1), 0},
		{"before window", datePtr(2026, time.February, 20), 0},
		{"missing start", nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule := Rule{RepeatType: RepeatOnce, CustomStart: tt.start}
			out := Expand(rule, []string{"08:00", "20:00"}, 30, date(2026, time.March, 2))
			if len(out) != tt.want {
				t.Errorf("expected %d occurrences, got %d", tt.want, len(out))
			}
		})
	}
}

func TestExpandCustomRange(t *testing.T) {
	rule := Rule{
		RepeatType:  RepeatCustom,
		CustomStart: datePtr(2026, time.March, 5),
		CustomEnd:   datePtr(2026, time.March, 7),
	}
	out := Expand(rule, []string{"10:00"}, 30, date(2026, time.March, 2))

	// Range boundaries are inclusive
	if len(out) != 3 {
		t.Fatalf("expected 3 occurrences, got %d", len(out))
	}
	if out[0].Day() != 5 || out[2].Day() != 7 {
		t.Errorf("range = [%v, %v], want days 5 through 7", out[0], out[2])
	}
}

func TestExpandEmptyAndUnknown(t *testing.T) {
	from := date(2026, time.March, 2)

	if out := Expand(Rule{RepeatType: RepeatDaily}, nil, 30, from); out != nil {
		t.Errorf("empty times: expected no occurrences, got %d", len(out))
	}
	if out := Expand(Rule{RepeatType: "fortnightly"}, []string{"08:00"}, 30, from); out != nil {
		t.Errorf("unknown repeat kind: expected no occurrences, got %d", len(out))
	}
	if out := Expand(Rule{RepeatType: RepeatDaily}, []string{"08:00"}, 0, from); out != nil {
		t.Errorf("zero horizon: expected no occurrences, got %d", len(out))
	}
}

func TestExpandIgnoresTimeOfDayOfFrom(t *testing.T) {
	// Expansion starts at the date of from; its clock time is irrelevant
	from := time.Date(2026, time.March, 2, 23, 59, 0, 0, time.UTC)
	out := Expand(Rule{RepeatType: RepeatDaily}, []string{"08:00"}, 1, from)

	if len(out) != 1 {
		t.Fatalf("expected 1 occurrence, got %d", len(out))
	}
	want := time.Date(2026, time.March, 2, 8, 0, 0, 0, time.UTC)
	if !out[0].Equal(want) {
		t.Errorf("occurrence = %v, want %v", out[0], want)
	}
}
