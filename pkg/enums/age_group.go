package enums

import (
	"fmt"
	"time"
)

// AgeGroup buckets a user's age at the time the profile is saved.
type AgeGroup string

const (
	AgeGroupUnder7 AgeGroup = "under_7"
	AgeGroup7To15  AgeGroup = "7_15"
	AgeGroup15To25 AgeGroup = "15_25"
	AgeGroupOver25 AgeGroup = "over_25"
)

// UnknownLabel is shown for values without a display name.
const UnknownLabel = "نامشخص"

var validAgeGroups = []AgeGroup{
	AgeGroupUnder7,
	AgeGroup7To15,
	AgeGroup15To25,
	AgeGroupOver25,
}

var ageGroupLabels = map[AgeGroup]string{
	AgeGroupUnder7: "زیر ۷ سال",
	AgeGroup7To15:  "۷ تا ۱۵ سال",
	AgeGroup15To25: "۱۵ تا ۲۵ سال",
	AgeGroupOver25: "بالای ۲۵ سال",
}

func (a AgeGroup) String() string {
	return string(a)
}

// Label returns the Persian display name.
func (a AgeGroup) Label() string {
	if label, ok := ageGroupLabels[a]; ok {
		return label
	}
	return UnknownLabel
}

func (a AgeGroup) IsValid() bool {
	for _, candidate := range validAgeGroups {
		if candidate == a {
			return true
		}
	}
	return false
}

func ParseAgeGroup(value string) (AgeGroup, error) {
	for _, candidate := range validAgeGroups {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid age group %q", value)
}

// AgeOn returns the completed years between birth and on, counting the
// birthday itself as complete.
func AgeOn(birth, on time.Time) int {
	age := on.Year() - birth.Year()
	if on.Month() < birth.Month() || (on.Month() == birth.Month() && on.Day() < birth.Day()) {
		age--
	}
	return age
}

// AgeGroupFor derives the bucket for someone born on birth, evaluated at on.
func AgeGroupFor(birth, on time.Time) AgeGroup {
	age := AgeOn(birth, on)
	switch {
	case age < 7:
		return AgeGroupUnder7
	case age < 15:
		return AgeGroup7To15
	case age < 25:
		return AgeGroup15To25
	default:
		return AgeGroupOver25
	}
}
