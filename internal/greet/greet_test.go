// SPDX-License-Identifier: AGPL-3.0-or-later
package greet

import "testing"

func TestGreet(t *testing.T) {
	cases := []struct {
		name string
		want string
	}{
		{name: "Ada", want: "Hello, Ada! You've been greeted from Rust!"},
		{name: "", want: "Hello, ! You've been greeted from Rust!"},
		{name: "Grace H.", want: "Hello, Grace H.! You've been greeted from Rust!"},
		{name: "{name} %s", want: "Hello, {name} %s! You've been greeted from Rust!"},
	}
	for _, tc := range cases {
		if got := Greet(tc.name); got != tc.want {
			t.Fatalf("Greet(%q) = %q, want %q", tc.name, got, tc.want)
		}
	}
}
