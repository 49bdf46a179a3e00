package normalization

import (
  "testing"

  "github.com/stretchr/testify/require"
)

func TestParseInputString(t *testing.T) {
  require.Equal(t, "hello world", ParseInputString("  hello   world  "))
  require.Equal(t, "", ParseInputString("   \t\n"))
  require.Equal(t, "one two three", ParseInputString("one\ttwo\nthree"))
}

func TestParseEmail(t *testing.T) {
  require.Equal(t, "sam@example.com", ParseEmail("  Sam@Example.COM "))
  require.Equal(t, "", ParseEmail("   "))
}

func TestParseInputStringPtr(t *testing.T) {
  require.Nil(t, ParseInputStringPtr(nil))
  s := "  padded  "
  got := ParseInputStringPtr(&s)
  require.NotNil(t, got)
  require.Equal(t, "padded", *got)
}
