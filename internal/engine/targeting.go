package engine

import (
	"strconv"
	"strings"

	"github.com/lenshub/lenshub-backend/internal/apperrors"
	"github.com/lenshub/lenshub-backend/internal/models"
)

// Matches reports whether a visitor satisfies every populated targeting
// attribute of a campaign. Empty attribute lists impose no constraint. The
// error return is reserved for misconfigured rules (unknown rule name or
// operator); ordinary non-matches are (false, nil).
func Matches(t models.Targeting, v models.VisitorContext) (bool, error) {
	if t.ExcludeExistingCustomers && v.IsExistingCustomer {
		return false, nil
	}
	if t.ExcludeSubscribers && v.IsSubscriber {
		return false, nil
	}
	if t.Retargeting && !v.IsExistingCustomer {
		return false, nil
	}
	if !containsFold(t.UserRoles, v.Role) {
		return false, nil
	}
	if !containsFold(t.UserTypes, v.UserType) {
		return false, nil
	}
	if !containsFold(t.Countries, v.Country) {
		return false, nil
	}
	if !containsFold(t.Cities, v.City) {
		return false, nil
	}
	if !containsFold(t.Devices, v.Device) {
		return false, nil
	}
	if !containsFold(t.Browsers, v.Browser) {
		return false, nil
	}
	if t.Gender != "" && !strings.EqualFold(t.Gender, v.Gender) {
		return false, nil
	}
	if t.IncomeRange != "" && !strings.EqualFold(t.IncomeRange, v.IncomeRange) {
		return false, nil
	}
	if !matchAge(t.AgeRanges, v.Age) {
		return false, nil
	}
	if !matchInterests(t.Interests, v.Interests) {
		return false, nil
	}
	if !matchLocations(t.Locations, v) {
		return false, nil
	}
	for _, rule := range t.BehavioralRules {
		ok, err := evalRule(rule, v)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

// containsFold reports whether want is empty (no constraint) or contains
// got, case-insensitively.
func containsFold(want []string, got string) bool {
	if len(want) == 0 {
		return true
	}
	for _, w := range want {
		if strings.EqualFold(w, got) {
			return true
		}
	}
	return false
}

func matchAge(ranges []models.AgeRange, age int) bool {
	if len(ranges) == 0 {
		return true
	}
	if age <= 0 {
		return false
	}
	for _, r := range ranges {
		if age >= r.Min && age <= r.Max {
			return true
		}
	}
	return false
}

// matchInterests requires at least one shared interest when the campaign
// lists any.
func matchInterests(want, got []string) bool {
	if len(want) == 0 {
		return true
	}
	for _, g := range got {
		for _, w := range want {
			if strings.EqualFold(w, g) {
				return true
			}
		}
	}
	return false
}

// matchLocations requires the visitor to satisfy at least one target
// location. Radius rules need visitor coordinates and fail closed without
// them.
func matchLocations(locations []models.TargetLocation, v models.VisitorContext) bool {
	if len(locations) == 0 {
		return true
	}
	for _, loc := range locations {
		if matchLocation(loc, v) {
			return true
		}
	}
	return false
}

func matchLocation(loc models.TargetLocation, v models.VisitorContext) bool {
	if loc.Radius > 0 {
		if v.Coordinates == nil {
			return false
		}
		dist := HaversineKm(v.Coordinates.Latitude, v.Coordinates.Longitude, loc.Latitude, loc.Longitude)
		if dist > loc.Radius {
			return false
		}
		return true
	}
	if loc.Country != "" && !strings.EqualFold(loc.Country, v.Country) {
		return false
	}
	if loc.State != "" && !strings.EqualFold(loc.State, v.State) {
		return false
	}
	if loc.City != "" && !strings.EqualFold(loc.City, v.City) {
		return false
	}
	if loc.ZipCode != "" && !strings.EqualFold(loc.ZipCode, v.ZipCode) {
		return false
	}
	return loc.Country != "" || loc.State != "" || loc.City != "" || loc.ZipCode != ""
}

// evalRule evaluates one behavioral rule against the visitor's named facts.
func evalRule(rule models.BehavioralRule, v models.VisitorContext) (bool, error) {
	fact, ok := v.Facts[rule.Rule]
	if !ok {
		return false, apperrors.Validation("behavioral rule references unknown fact %q", rule.Rule)
	}
	switch rule.Operator {
	case models.OperatorEquals:
		return strings.EqualFold(fact, rule.Value), nil
	case models.OperatorNotEquals:
		return !strings.EqualFold(fact, rule.Value), nil
	case models.OperatorContains:
		return strings.Contains(strings.ToLower(fact), strings.ToLower(rule.Value)), nil
	case models.OperatorGreaterThan, models.OperatorLessThan:
		want, err := strconv.ParseFloat(rule.Value, 64)
		if err != nil {
			return false, apperrors.Validation("behavioral rule %q value %q is not numeric", rule.Rule, rule.Value)
		}
		got, err := strconv.ParseFloat(fact, 64)
		if err != nil {
			return false, nil
		}
		if rule.Operator == models.OperatorGreaterThan {
			return got > want, nil
		}
		return got < want, nil
	default:
		return false, apperrors.Validation("unknown behavioral rule operator %q", rule.Operator)
	}
}
