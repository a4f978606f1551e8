package models

import (
	"encoding/json"
	"testing"
)

func TestParseItemID(t *testing.T) {
	tests := []struct {
		in   string
		want ItemID
	}{
		{"7", "7"},
		{" 7 ", "7"},
		{"007", "7"},
		{"tea-1", "tea-1"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := ParseItemID(tt.in); got != tt.want {
			t.Errorf("ParseItemID(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestItemID_UnmarshalAcceptsNumbersAndStrings(t *testing.T) {
	tests := []struct {
		raw  string
		want ItemID
	}{
		{`7`, "7"},
		{`"7"`, "7"},
		{`7.0`, "7"},
		{`"latte"`, "latte"},
		{`null`, ""},
	}
	for _, tt := range tests {
		var id ItemID
		if err := json.Unmarshal([]byte(tt.raw), &id); err != nil {
			t.Errorf("Unmarshal(%s): %v", tt.raw, err)
			continue
		}
		if id != tt.want {
			t.Errorf("Unmarshal(%s) = %q, want %q", tt.raw, id, tt.want)
		}
	}

	var id ItemID
	if err := json.Unmarshal([]byte(`{"x":1}`), &id); err == nil {
		t.Error("expected error for object id")
	}
}

func TestItemID_MarshalKeepsNumericShape(t *testing.T) {
	line := CartLine{ID: "7", Name: "Tea", Price: 50, Img: "img.png", Qty: 2}
	b, err := json.Marshal(line)
	if err != nil {
		t.Fatal(err)
	}
	want := `{"id":7,"name":"Tea","price":50,"img":"img.png","qty":2}`
	if string(b) != want {
		t.Errorf("got %s, want %s", b, want)
	}

	b, _ = json.Marshal(ItemID("latte"))
	if string(b) != `"latte"` {
		t.Errorf("string id marshaled as %s", b)
	}
}

func TestChatID(t *testing.T) {
	var req struct {
		ClientChatID ChatID `json:"clientChatId"`
	}
	if err := json.Unmarshal([]byte(`{"clientChatId":123456789}`), &req); err != nil {
		t.Fatal(err)
	}
	n, ok := req.ClientChatID.Int64()
	if !ok || n != 123456789 {
		t.Errorf("Int64() = %d, %v", n, ok)
	}

	b, _ := json.Marshal(ChatID(""))
	if string(b) != `""` {
		t.Errorf("empty chat id marshaled as %s, want \"\"", b)
	}
	if _, ok := ChatID("").Int64(); ok {
		t.Error("empty chat id should not be numeric")
	}
}
