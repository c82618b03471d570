package core

import "testing"

func TestParseInstallment(t *testing.T) {
	tests := []struct {
		name string
		note string
		want Installment
		ok   bool
	}{
		{"plain counter", "3/12", Installment{3, 12}, true},
		{"counter with prefix", "iPhone 1/10", Installment{1, 10}, true},
		{"counter with suffix", "2/6 sofa", Installment{2, 6}, true},
		{"no counter", "groceries", Installment{}, false},
		{"empty note", "", Installment{}, false},
		{"malformed missing current", "/10", Installment{}, false},
		{"first of two counters wins", "1/3 then 5/8", Installment{1, 3}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseInstallment(tt.note)
			if ok != tt.ok {
				t.Fatalf("ParseInstallment(%q) ok = %v, want %v", tt.note, ok, tt.ok)
			}
			if ok && got != tt.want {
				t.Errorf("ParseInstallment(%q) = %+v, want %+v", tt.note, got, tt.want)
			}
		})
	}
}

func TestAdvanceInstallment(t *testing.T) {
	tests := []struct {
		name     string
		note     string
		wantNote string
		wantNext bool
	}{
		{"advances mid series", "3/12", "4/12", true},
		{"keeps surrounding text", "iPhone 3/12 monthly", "iPhone 4/12 monthly", true},
		{"exhausted series unchanged", "12/12", "12/12", false},
		{"past total unchanged", "13/12", "13/12", false},
		{"no counter unchanged", "groceries", "groceries", false},
		{"empty unchanged", "", "", false},
		{"malformed unchanged", "/10", "/10", false},
		{"only first counter advances", "1/3 and 5/8", "2/3 and 5/8", true},
		{"last step", "11/12", "12/12", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotNote, gotNext := AdvanceInstallment(tt.note)
			if gotNote != tt.wantNote || gotNext != tt.wantNext {
				t.Errorf("AdvanceInstallment(%q) = (%q, %v), want (%q, %v)",
					tt.note, gotNote, gotNext, tt.wantNote, tt.wantNext)
			}
		})
	}
}

// An exhausted counter must be a fixed point of advancement.
func TestAdvanceInstallmentExhaustedFixedPoint(t *testing.T) {
	note := "10/10"
	for i := 0; i < 3; i++ {
		next, hasNext := AdvanceInstallment(note)
		if hasNext || next != note {
			t.Fatalf("iteration %d: advance(%q) = (%q, %v), want unchanged", i, note, next, hasNext)
		}
		note = next
	}
}
