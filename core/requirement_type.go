package core

import "github.com/pkg/errors"

// RequirementType selects the weights and price a health check values an
// account with.
type RequirementType uint8

const (
	Initial RequirementType = iota
	Maintenance
	Equity
)

func (rt RequirementType) String() string {
	switch rt {
	case Initial:
		return "initial"
	case Maintenance:
		return "maintenance"
	case Equity:
		return "equity"
	default:
		return "unknown"
	}
}

func ParseRequirementType(s string) (RequirementType, error) {
	for _, rt := range []RequirementType{Initial, Maintenance, Equity} {
		if rt.String() == s {
			return rt, nil
		}
	}
	return 0, errors.Errorf("unknown requirement type %q", s)
}

// GetOraclePriceType: maintenance checks react to the live price, the others
// to the smoothed one.
func (rt RequirementType) GetOraclePriceType() OraclePriceType {
	if rt == Maintenance {
		return RealTime
	}
	return TimeWeighted
}
