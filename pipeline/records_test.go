package pipeline

import (
	"strings"
	"testing"
)

func TestReadRecordsAliasesHeaders(t *testing.T) {
	csvData := `State,Market Name,Commodity,Modal Price (Rs./Quintal),Price Date
Uttar Pradesh,Agra,Wheat,2150,15 Jun 2024
Maharashtra,Mumbai,Onion,1800,16 Jun 2024
`
	records, err := ReadRecords(strings.NewReader(csvData))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	first := records[0]
	if first.Commodity != "Wheat" || first.Market != "Agra" || first.Price != "2150" ||
		first.Date != "15 Jun 2024" || first.State != "Uttar Pradesh" {
		t.Fatalf("unexpected record: %+v", first)
	}
}

func TestReadRecordsMissingColumn(t *testing.T) {
	csvData := `State,Commodity,Price Date
Uttar Pradesh,Wheat,15 Jun 2024
`
	if _, err := ReadRecords(strings.NewReader(csvData)); err == nil {
		t.Fatal("expected error for missing price and market columns")
	}
}

func TestMapCrop(t *testing.T) {
	tests := []struct {
		raw  string
		crop string
		ok   bool
	}{
		{"Wheat", "wheat", true},
		{"  TOMATO ", "tomato", true},
		{"bajra(pearl millet/cumbu)", "bajra", true},
		{"ginger(green)", "ginger", true},
		{"plutonium", "", false},
	}
	for _, tt := range tests {
		crop, ok := MapCrop(tt.raw)
		if ok != tt.ok || crop != tt.crop {
			t.Fatalf("MapCrop(%q) = %q, %v; want %q, %v", tt.raw, crop, ok, tt.crop, tt.ok)
		}
	}
}
