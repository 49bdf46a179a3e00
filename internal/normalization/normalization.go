package normalization

import (
  "strings"
)

// ParseInputString trims surrounding whitespace and collapses inner runs of
// whitespace to a single space.
func ParseInputString(s string) string {
  return strings.Join(strings.Fields(s), " ")
}

func ParseInputStringPtr(s *string) *string {
  if s == nil {
    return nil
  }
  parsed := ParseInputString(*s)
  return &parsed
}

// ParseEmail lowercases in addition to trimming, since emails are matched
// case-insensitively on login.
func ParseEmail(s string) string {
  return strings.ToLower(ParseInputString(s))
}
