// SPDX-License-Identifier: AGPL-3.0-or-later
package verify

import "testing"

func TestDecodeLossy(t *testing.T) {
	if got := decodeLossy(nil); got != "" {
		t.Fatalf("expected empty string, got %q", got)
	}
	if got := decodeLossy([]byte("gpg: Good signature from \"Zoë\"\n")); got != "gpg: Good signature from \"Zoë\"\n" {
		t.Fatalf("valid UTF-8 altered: %q", got)
	}
	if got := decodeLossy([]byte{'a', 0xff, 'b'}); got != "a\uFFFDb" {
		t.Fatalf("expected replacement character, got %q", got)
	}
}
