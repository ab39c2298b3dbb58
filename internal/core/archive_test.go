package core

import "testing"

func TestMemberName(t *testing.T) {
	tests := []struct {
		name   string
		expect string
	}{
		{name: "code.py", expect: "code.py"},
		{name: "./code.py", expect: "code.py"},
		{name: "/code.py", expect: "code.py"},
		{name: ".//lib/./a.py", expect: "lib/a.py"},
		{name: "./lib/", expect: "lib"},
		{name: "./", expect: ""},
		{name: "../escape.py", expect: "../escape.py"},
		{name: "./lib/../../escape.py", expect: "../escape.py"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := memberName(tt.name); got != tt.expect {
				t.Fatalf("memberName(%q) = %q, want %q", tt.name, got, tt.expect)
			}
		})
	}
}

func TestStripPrefix(t *testing.T) {
	tests := []struct {
		name   string
		prefix string
		rest   string
		ok     bool
	}{
		{name: "./Fruit_Jam_Snake/code.py", prefix: "Fruit_Jam_Snake", rest: "code.py", ok: true},
		{name: "Fruit_Jam_Snake/", prefix: "Fruit_Jam_Snake", ok: false},
		{name: "Fruit_Jam_Snake_extra/code.py", prefix: "Fruit_Jam_Snake", ok: false},
		{name: "./", prefix: "", ok: false},
		{name: "./code.py", prefix: "", rest: "code.py", ok: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rest, ok := stripPrefix(tt.name, tt.prefix)
			if ok != tt.ok || rest != tt.rest {
				t.Fatalf("stripPrefix(%q, %q) = %q, %v; want %q, %v", tt.name, tt.prefix, rest, ok, tt.rest, tt.ok)
			}
		})
	}
}
