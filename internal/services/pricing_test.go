package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"reelworks/studio/internal/models"
)

func TestRateForKind(t *testing.T) {
	testCases := []struct {
		kind         models.ProjectKind
		expectedRate float64
		expectedUnit PricingUnit
	}{
		{models.KindLongVideo, 9, UnitMinute},
		{models.KindShortVideo, 39, UnitMinute},
		{models.KindPromo, 49, UnitMinute},
		{models.KindDesign, 19, UnitDesign},
		{models.KindOther, 25, UnitMinute},
	}

	for _, tc := range testCases {
		rate := RateForKind(tc.kind)
		assert.Equal(t, tc.expectedRate, rate.RatePerUnit, "kind=%v", tc.kind)
		assert.Equal(t, tc.expectedUnit, rate.Unit, "kind=%v", tc.kind)
	}
}

func TestRateForProject(t *testing.T) {
	long := &models.Project{Type: "فيديوهات طويلة"}
	assert.Equal(t, 9.0, RateForProject(long).RatePerUnit)

	thumbs := &models.Project{Type: "تصاميم الصور المصغرة"}
	rate := RateForProject(thumbs)
	assert.Equal(t, 19.0, rate.RatePerUnit)
	assert.Equal(t, UnitDesign, rate.Unit)

	unknown := &models.Project{Type: "misc deliverables"}
	assert.Equal(t, 25.0, RateForProject(unknown).RatePerUnit)
}
