package jsonutil

import "testing"

func TestStripFences(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"bare", `{"a":1}`, `{"a":1}`},
		{"fenced", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"fenced no lang", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"leading prose trimmed spaces", "  {\"a\":1}  ", `{"a":1}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := string(StripFences([]byte(tc.in))); got != tc.want {
				t.Fatalf("got %q want %q", got, tc.want)
			}
		})
	}
}

func TestDecodeObjectThroughFence(t *testing.T) {
	var v struct {
		Action string `json:"action"`
	}
	if err := DecodeObject([]byte("```json\n{\"action\":\"delete_vm\"}\n```"), &v); err != nil {
		t.Fatalf("DecodeObject: %v", err)
	}
	if v.Action != "delete_vm" {
		t.Fatalf("got %q", v.Action)
	}
}

func TestDecodeObjectUnwrapsDoubleEncoding(t *testing.T) {
	var v struct {
		Action string `json:"action"`
	}
	raw := `"{\"action\":\"create_vm\"}"`
	if err := DecodeObject([]byte(raw), &v); err != nil {
		t.Fatalf("DecodeObject: %v", err)
	}
	if v.Action != "create_vm" {
		t.Fatalf("got %q", v.Action)
	}
}

func TestDecodeObjectRejectsProse(t *testing.T) {
	var v struct{}
	if err := DecodeObject([]byte("sorry, I cannot help with that"), &v); err == nil {
		t.Fatal("want error for non-JSON output")
	}
}

func TestMarshalNoEscape(t *testing.T) {
	out, err := MarshalNoEscape(map[string]string{"t": "a<b>&c"})
	if err != nil {
		t.Fatalf("MarshalNoEscape: %v", err)
	}
	if string(out) != `{"t":"a<b>&c"}` {
		t.Fatalf("got %s", out)
	}
}
