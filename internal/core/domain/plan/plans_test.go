package plan

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGet_PlanTable(t *testing.T) {
	cases := []struct {
		code  string
		stars int
		tier  string
		days  int
		limit int
	}{
		{Weekly, 750, TierBasic, 7, 10},
		{Monthly, 2300, TierPro, 30, 25},
		{Annual, 10000, TierVIP, 365, 50},
		{Premium, 18500, TierVIP, 365, 50},
	}

	for _, tc := range cases {
		t.Run(tc.code, func(t *testing.T) {
			p, err := Get(tc.code)
			require.NoError(t, err)
			assert.Equal(t, tc.stars, p.Stars)
			assert.Equal(t, tc.tier, p.Tier)
			assert.Equal(t, tc.days, p.DurationDays)
			assert.Equal(t, tc.limit, p.DailySignalLimit)
			assert.Equal(t, time.Duration(tc.days)*24*time.Hour, p.Duration())
			assert.Equal(t, tc.limit, DailyLimitForTier(p.Tier))
			assert.NotEmpty(t, p.Title)
			assert.NotEmpty(t, p.Description)
		})
	}
}

func TestGet_NormalizesAndRejects(t *testing.T) {
	p, err := Get("  WEEKLY ")
	require.NoError(t, err)
	assert.Equal(t, Weekly, p.Code)

	_, err = Get("lifetime")
	assert.Error(t, err)
	assert.False(t, IsValid(""))
}

func TestAll_SortedByPrice(t *testing.T) {
	plans := All()
	require.Len(t, plans, 4)
	assert.Equal(t, []string{Weekly, Monthly, Annual, Premium},
		[]string{plans[0].Code, plans[1].Code, plans[2].Code, plans[3].Code})
}

func TestByStars(t *testing.T) {
	p, ok := ByStars(2300)
	require.True(t, ok)
	assert.Equal(t, Monthly, p.Code)

	_, ok = ByStars(1)
	assert.False(t, ok)
}
