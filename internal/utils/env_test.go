package utils

import (
  "testing"

  "github.com/stretchr/testify/assert"
)

func TestGetEnv(t *testing.T) {
  t.Setenv("TASKCHAT_TEST_STRING", "value")
  assert.Equal(t, "value", GetEnv("TASKCHAT_TEST_STRING", "fallback", nil))
  assert.Equal(t, "fallback", GetEnv("TASKCHAT_TEST_MISSING", "fallback", nil))
}

func TestGetEnvAsInt(t *testing.T) {
  t.Setenv("TASKCHAT_TEST_INT", "42")
  assert.Equal(t, 42, GetEnvAsInt("TASKCHAT_TEST_INT", 7, nil))
  assert.Equal(t, 7, GetEnvAsInt("TASKCHAT_TEST_INT_MISSING", 7, nil))

  t.Setenv("TASKCHAT_TEST_BAD_INT", "forty-two")
  assert.Equal(t, 7, GetEnvAsInt("TASKCHAT_TEST_BAD_INT", 7, nil))
}
