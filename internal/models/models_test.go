package models

import (
	"encoding/json"
	"testing"
)

func TestPrice_UnmarshalJSON_Number(t *testing.T) {
	var p Price
	if err := json.Unmarshal([]byte(`11810000`), &p); err != nil {
		t.Fatalf("Unmarshal error = %v", err)
	}
	if float64(p) != 11810000 {
		t.Errorf("price = %v, want 11810000", float64(p))
	}
}

func TestPrice_UnmarshalJSON_PlainString(t *testing.T) {
	var p Price
	if err := json.Unmarshal([]byte(`"11810000"`), &p); err != nil {
		t.Fatalf("Unmarshal error = %v", err)
	}
	if float64(p) != 11810000 {
		t.Errorf("price = %v, want 11810000", float64(p))
	}
}

func TestPrice_UnmarshalJSON_CommaSeparatedString(t *testing.T) {
	var p Price
	if err := json.Unmarshal([]byte(`"11,810,000"`), &p); err != nil {
		t.Fatalf("Unmarshal error = %v", err)
	}
	if float64(p) != 11810000 {
		t.Errorf("price = %v, want 11810000", float64(p))
	}
}

func TestPrice_UnmarshalJSON_NullAndEmpty(t *testing.T) {
	var p Price
	if err := json.Unmarshal([]byte(`null`), &p); err != nil {
		t.Fatalf("Unmarshal null error = %v", err)
	}
	if float64(p) != 0 {
		t.Errorf("null price = %v, want 0", float64(p))
	}
	if err := json.Unmarshal([]byte(`""`), &p); err != nil {
		t.Fatalf("Unmarshal empty string error = %v", err)
	}
	if float64(p) != 0 {
		t.Errorf("empty price = %v, want 0", float64(p))
	}
}

func TestPrice_UnmarshalJSON_Garbage_Errors(t *testing.T) {
	var p Price
	if err := json.Unmarshal([]byte(`"abc"`), &p); err == nil {
		t.Error("Unmarshal accepted a non-numeric string")
	}
}

func TestPrice_MarshalJSON_EmitsNumber(t *testing.T) {
	data, err := json.Marshal(Price(11810000))
	if err != nil {
		t.Fatalf("Marshal error = %v", err)
	}
	if string(data) != "11810000" {
		t.Errorf("Marshal = %s, want a plain number", data)
	}
}

func TestGoldPrice_ObservedAt_TimestampWinsOverUpdatedAt(t *testing.T) {
	q := GoldPrice{Timestamp: "2026-08-30 09:00:00", UpdatedAt: "2026-08-31 09:00:00"}

	at, ok := q.ObservedAt()
	if !ok {
		t.Fatal("ObservedAt() could not parse the timestamp")
	}
	if at.Day() != 30 {
		t.Errorf("ObservedAt() = %v, want the timestamp field, not updatedAt", at)
	}
}

func TestGoldPrice_ObservedAt_ToleratedFormats(t *testing.T) {
	tests := []struct {
		raw    string
		wantOK bool
	}{
		{"2026-08-31T09:00:00Z", true},
		{"2026-08-31 09:00:00", true},
		{"2026-08-31T09:00:00", true},
		{"2026-08-31", true},
		{"yesterday", false},
		{"", false},
	}
	for _, tt := range tests {
		if _, ok := (GoldPrice{Timestamp: tt.raw}).ObservedAt(); ok != tt.wantOK {
			t.Errorf("ObservedAt() with %q ok = %v, want %v", tt.raw, ok, tt.wantOK)
		}
	}
}

func TestFlexID_UnmarshalJSON_NumberAndString(t *testing.T) {
	var id FlexID
	if err := json.Unmarshal([]byte(`42`), &id); err != nil {
		t.Fatalf("Unmarshal number error = %v", err)
	}
	if id != "42" {
		t.Errorf("id = %q, want %q", id, "42")
	}

	if err := json.Unmarshal([]byte(`"abc-123"`), &id); err != nil {
		t.Fatalf("Unmarshal string error = %v", err)
	}
	if id != "abc-123" {
		t.Errorf("id = %q, want %q", id, "abc-123")
	}
}

func TestUserSummary_DisplayName_Preference(t *testing.T) {
	tests := []struct {
		name string
		user UserSummary
		want string
	}{
		{"full name wins", UserSummary{FirstName: "An", LastName: "Nguyen", Username: "an", Email: "an@example.com"}, "An Nguyen"},
		{"first name only", UserSummary{FirstName: "An", Email: "an@example.com"}, "An"},
		{"username next", UserSummary{Username: "an", Email: "an@example.com"}, "an"},
		{"email local part", UserSummary{Email: "an@example.com"}, "an"},
	}
	for _, tt := range tests {
		if got := tt.user.DisplayName(); got != tt.want {
			t.Errorf("%s: DisplayName() = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestAsset_UnmarshalJSON_MixedEncodings(t *testing.T) {
	payload := `{
		"id": 7,
		"type": "SJC",
		"amount": 2.5,
		"buyPrice": 11000000,
		"sellPrice": null,
		"isSold": false,
		"buyDate": "2026-08-01",
		"note": "birthday"
	}`

	var a Asset
	if err := json.Unmarshal([]byte(payload), &a); err != nil {
		t.Fatalf("Unmarshal error = %v", err)
	}
	if a.ID != "7" {
		t.Errorf("ID = %q, want %q", a.ID, "7")
	}
	if a.SellPrice != nil {
		t.Errorf("SellPrice = %v, want nil", a.SellPrice)
	}
	if _, ok := a.BuyDateTime(); !ok {
		t.Error("BuyDateTime() could not parse a date-only buy date")
	}
}
