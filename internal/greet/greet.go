// SPDX-License-Identifier: AGPL-3.0-or-later

// Package greet formats the greeting returned to the front end.
package greet

// Greet returns the greeting for name. The name is substituted verbatim.
func Greet(name string) string {
	return "Hello, " + name + "! You've been greeted from Rust!"
}
