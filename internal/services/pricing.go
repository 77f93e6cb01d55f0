package services

import (
	"reelworks/studio/internal/models"
)

// PricingUnit is what a rate is charged per.
type PricingUnit string

const (
	UnitMinute PricingUnit = "minute"
	UnitDesign PricingUnit = "design"
)

// Rate is the price of one unit of work for a project type.
type Rate struct {
	RatePerUnit float64
	Unit        PricingUnit
}

// The pricing table is fixed product policy, not configuration.
const (
	rateLongVideoPerMinute  = 9.0
	rateShortVideoPerMinute = 39.0
	ratePromoPerMinute      = 49.0
	rateDesignFlat          = 19.0
	rateDefaultPerMinute    = 25.0
)

// RateForKind returns the billing rate for a project classification.
// Design work is a flat fee per design; everything else is per minute
// of delivered video. Unknown types fall back to the default rate.
func RateForKind(kind models.ProjectKind) Rate {
	switch kind {
	case models.KindLongVideo:
		return Rate{RatePerUnit: rateLongVideoPerMinute, Unit: UnitMinute}
	case models.KindShortVideo:
		return Rate{RatePerUnit: rateShortVideoPerMinute, Unit: UnitMinute}
	case models.KindPromo:
		return Rate{RatePerUnit: ratePromoPerMinute, Unit: UnitMinute}
	case models.KindDesign:
		return Rate{RatePerUnit: rateDesignFlat, Unit: UnitDesign}
	default:
		return Rate{RatePerUnit: rateDefaultPerMinute, Unit: UnitMinute}
	}
}

// RateForProject classifies the project and returns its rate. The
// classification is keyword based (see models.Project.Kind) so variant
// type strings and "enhancement: design" markers resolve correctly.
func RateForProject(p *models.Project) Rate {
	return RateForKind(p.Kind())
}
