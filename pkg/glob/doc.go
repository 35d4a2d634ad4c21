// Package glob implements the small glob dialect used by the KEYS command.
//
// Only two metacharacters are recognised:
//
//   - '*' matches any run of bytes, including the empty run
//   - '?' matches exactly one byte
//
// Every other byte matches itself. Matching is byte oriented, so keys that
// are not valid UTF-8 are handled like any other key.
//
// Usage:
//
//	glob.Match("user:*", "user:42")  // true
//	glob.Match("a?c", "abc")         // true
//	glob.Match("a?c", "ac")          // false
package glob
