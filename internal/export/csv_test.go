package export

import (
	"strings"
	"testing"
	"time"

	"duoledger/internal/core"

	"github.com/shopspring/decimal"
)

func TestWriteCSV(t *testing.T) {
	var sb strings.Builder
	transactions := []core.Transaction{
		{
			Period:    core.NewPeriodKey(2025, time.September),
			Category:  core.CategoryBills,
			Label:     "electricity",
			Amount:    decimal.RequireFromString("123.45"),
			Split:     core.SplitShared,
			Owner:     core.OwnerShared,
			Note:      "3/12",
			Method:    core.MethodCardX,
			CreatedAt: time.Date(2025, time.September, 5, 10, 30, 0, 0, time.UTC),
		},
	}

	if err := WriteCSV(&sb, transactions); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}

	out := sb.String()
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want header plus one row:\n%s", len(lines), out)
	}
	if !strings.HasPrefix(lines[0], "period,category,label,amount") {
		t.Errorf("header = %q", lines[0])
	}
	for _, want := range []string{"2025-09", "bills", "electricity", "123.45", "3/12", "cardx"} {
		if !strings.Contains(lines[1], want) {
			t.Errorf("row %q missing %q", lines[1], want)
		}
	}
}

func TestWriteCSVEmpty(t *testing.T) {
	var sb strings.Builder
	if err := WriteCSV(&sb, nil); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	if !strings.Contains(sb.String(), "period") {
		t.Errorf("empty export still writes the header, got %q", sb.String())
	}
}
