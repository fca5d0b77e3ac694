package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatDate(t *testing.T) {
	assert.Equal(t, "09.05.2024", FormatDate(time.Date(2024, 5, 9, 23, 0, 0, 0, time.UTC)))
	assert.Equal(t, "—", FormatDate(time.Time{}))
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "0м", FormatDuration(-time.Minute))
	assert.Equal(t, "45м", FormatDuration(45*time.Minute))
	assert.Equal(t, "2ч 5м", FormatDuration(2*time.Hour+5*time.Minute))
	assert.Equal(t, "3д 4ч", FormatDuration(76*time.Hour))
}

func TestFormatStars(t *testing.T) {
	cases := map[int]string{
		1:    "1 звезда",
		3:    "3 звезды",
		11:   "11 звезд",
		21:   "21 звезда",
		250:  "250 звезд",
		750:  "750 звезд",
		1000: "1000 звезд",
		1112: "1112 звезд",
		1122: "1122 звезды",
	}
	for amount, want := range cases {
		assert.Equal(t, want, FormatStars(amount), amount)
	}
}

func TestDaysLeft(t *testing.T) {
	now := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 7, DaysLeft(now, now.Add(7*24*time.Hour)))
	assert.Equal(t, 6, DaysLeft(now, now.Add(7*24*time.Hour-time.Second)))
	assert.Equal(t, 0, DaysLeft(now, now.Add(-time.Hour)))
}
