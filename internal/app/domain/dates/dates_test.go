package dates

import (
	"encoding/json"
	"testing"
	"time"
)

func TestDate_UnmarshalJSON(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
		zero bool
	}{
		{"date only", `"2023-05-01"`, "2023-05-01", false},
		{"rfc3339", `"2023-05-01T10:30:00Z"`, "2023-05-01", false},
		{"null", `null`, "", true},
		{"empty string", `""`, "", true},
	}
	for _, tc := range cases {
		var d Date
		if err := json.Unmarshal([]byte(tc.in), &d); err != nil {
			t.Fatalf("%s: unmarshal: %v", tc.name, err)
		}
		if d.IsZero() != tc.zero {
			t.Fatalf("%s: zero = %v, want %v", tc.name, d.IsZero(), tc.zero)
		}
		if !tc.zero && d.Format("2006-01-02") != tc.want {
			t.Fatalf("%s: date = %s, want %s", tc.name, d.Format("2006-01-02"), tc.want)
		}
	}

	var d Date
	if err := json.Unmarshal([]byte(`"01/05/2023"`), &d); err == nil {
		t.Fatal("slash-separated date accepted")
	}
	if err := json.Unmarshal([]byte(`12345`), &d); err == nil {
		t.Fatal("numeric date accepted")
	}
}

func TestDate_MarshalJSON(t *testing.T) {
	d := New(time.Date(2023, 5, 1, 10, 30, 0, 0, time.UTC))
	out, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != `"2023-05-01"` {
		t.Fatalf("marshal = %s", out)
	}

	out, err = json.Marshal(Date{})
	if err != nil {
		t.Fatalf("marshal zero: %v", err)
	}
	if string(out) != "null" {
		t.Fatalf("zero marshal = %s", out)
	}
}

func TestDate_ScanAndValue(t *testing.T) {
	var d Date
	now := time.Now()
	if err := d.Scan(now); err != nil {
		t.Fatalf("scan: %v", err)
	}
	v, err := d.Value()
	if err != nil {
		t.Fatalf("value: %v", err)
	}
	if got, ok := v.(time.Time); !ok || !got.Equal(now) {
		t.Fatalf("value = %v", v)
	}

	if err := d.Scan(nil); err != nil {
		t.Fatalf("scan nil: %v", err)
	}
	if v, _ := d.Value(); v != nil {
		t.Fatalf("zero value = %v", v)
	}
	if err := d.Scan("2023-05-01"); err == nil {
		t.Fatal("string scan accepted")
	}
}
