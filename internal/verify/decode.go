// SPDX-License-Identifier: AGPL-3.0-or-later
package verify

import (
	"strings"

	"golang.org/x/text/encoding/unicode"
)

// decodeLossy converts captured tool output to text, replacing invalid UTF-8
// with U+FFFD.
func decodeLossy(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	out, err := unicode.UTF8.NewDecoder().Bytes(b)
	if err != nil {
		return strings.ToValidUTF8(string(b), "\uFFFD")
	}
	return string(out)
}
