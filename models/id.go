package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ItemID is the canonical string form of a menu item identifier.
// The page sends ids both as numbers and as strings; "7", 7 and "07"
// all map to the same ItemID("7").
type ItemID string

// ParseItemID trims s and canonicalizes integer ids.
func ParseItemID(s string) ItemID {
	return ItemID(canonicalID(s))
}

func (id ItemID) String() string { return string(id) }

func (id ItemID) MarshalJSON() ([]byte, error) {
	return marshalNumberOrString(string(id))
}

func (id *ItemID) UnmarshalJSON(data []byte) error {
	s, err := unmarshalNumberOrString(data)
	if err != nil {
		return fmt.Errorf("item id: %w", err)
	}
	*id = ParseItemID(s)
	return nil
}

// ChatID is the opaque identity of the Telegram user who submits the order.
// Empty when the page could not read it.
type ChatID string

func (c ChatID) String() string { return string(c) }

// Int64 reports the numeric chat id, if there is one.
func (c ChatID) Int64() (int64, bool) {
	n, err := strconv.ParseInt(string(c), 10, 64)
	return n, err == nil
}

func (c ChatID) MarshalJSON() ([]byte, error) {
	return marshalNumberOrString(string(c))
}

func (c *ChatID) UnmarshalJSON(data []byte) error {
	s, err := unmarshalNumberOrString(data)
	if err != nil {
		return fmt.Errorf("chat id: %w", err)
	}
	*c = ChatID(canonicalID(s))
	return nil
}

func canonicalID(s string) string {
	s = strings.TrimSpace(s)
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return strconv.FormatInt(n, 10)
	}
	return s
}

func marshalNumberOrString(s string) ([]byte, error) {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil && strconv.FormatInt(n, 10) == s {
		return []byte(s), nil
	}
	return json.Marshal(s)
}

func unmarshalNumberOrString(data []byte) (string, error) {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return "", nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return "", err
		}
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return "", err
	}
	if i, err := n.Int64(); err == nil {
		return strconv.FormatInt(i, 10), nil
	}
	if f, err := n.Float64(); err == nil && f == float64(int64(f)) {
		return strconv.FormatInt(int64(f), 10), nil
	}
	return n.String(), nil
}
