package domain

import "time"

// Tier is one of the four fixed insurance plans. Each carries a preset
// premium and coverage limit in whole shillings.
type Tier string

const (
	TierMsingi  Tier = "msingi"
	TierKati    Tier = "kati"
	TierJuu     Tier = "juu"
	TierFamilia Tier = "familia"
)

// TierInfo holds the fixed premium and coverage-limit defaults for a tier.
type TierInfo struct {
	PremiumAmount int64
	CoverageLimit int64
}

var tierDefaults = map[Tier]TierInfo{
	TierMsingi:  {PremiumAmount: 500, CoverageLimit: 50_000},
	TierKati:    {PremiumAmount: 1_500, CoverageLimit: 150_000},
	TierJuu:     {PremiumAmount: 3_000, CoverageLimit: 500_000},
	TierFamilia: {PremiumAmount: 5_000, CoverageLimit: 1_000_000},
}

// TierDefaults returns the preset premium and coverage limit for tier, and
// whether the tier is known.
func TierDefaults(t Tier) (TierInfo, bool) {
	info, ok := tierDefaults[t]
	return info, ok
}

type PolicyStatus string

const (
	PolicyStatusPending   PolicyStatus = "pending"
	PolicyStatusActive    PolicyStatus = "active"
	PolicyStatusLapsed    PolicyStatus = "lapsed"
	PolicyStatusCancelled PolicyStatus = "cancelled"
)

// ValidStatus reports whether s is a known policy status.
func ValidStatus(s PolicyStatus) bool {
	switch s {
	case PolicyStatusPending, PolicyStatusActive, PolicyStatusLapsed, PolicyStatusCancelled:
		return true
	}
	return false
}

// Dependent is a covered family member on a policy.
type Dependent struct {
	Name         string `json:"name"`
	Relationship string `json:"relationship"`
}

// Policy is an enrolled insurance policy. A policy is never deleted; it is
// only superseded by a status change.
type Policy struct {
	ID            string
	OwnerID       string
	Tier          Tier
	Status        PolicyStatus
	CoverageLimit int64
	PremiumAmount int64
	Dependents    []Dependent
	StartDate     time.Time
	EndDate       time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
