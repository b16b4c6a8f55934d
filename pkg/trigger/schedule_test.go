package trigger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvery(t *testing.T) {
	s := Every(5 * time.Minute)
	from := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, from.Add(5*time.Minute), s.Next(from))
}

func TestDaily(t *testing.T) {
	s := Daily(9, 30, time.UTC)

	before := time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 9, 1, 9, 30, 0, 0, time.UTC), s.Next(before))

	after := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 9, 2, 9, 30, 0, 0, time.UTC), s.Next(after))

	exactly := time.Date(2026, 9, 1, 9, 30, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 9, 2, 9, 30, 0, 0, time.UTC), s.Next(exactly))
}

func TestDailyHonorsLocation(t *testing.T) {
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)

	s := Daily(9, 0, tokyo)
	// 01:00 UTC is 10:00 in Tokyo: today's 09:00 already passed.
	from := time.Date(2026, 9, 1, 1, 0, 0, 0, time.UTC)
	next := s.Next(from)
	assert.Equal(t, time.Date(2026, 9, 2, 9, 0, 0, 0, tokyo).Unix(), next.Unix())
}

func TestCron(t *testing.T) {
	s, err := Cron("*/15 * * * *")
	require.NoError(t, err)

	from := time.Date(2026, 9, 1, 12, 7, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 9, 1, 12, 15, 0, 0, time.UTC), s.Next(from))
}

func TestCronInvalidExpression(t *testing.T) {
	_, err := Cron("not a cron expression")
	assert.Error(t, err)
}
