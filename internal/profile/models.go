package profile

const (
	DefaultWeightKg = 70.0
	DefaultHeightCm = 170.0
	DefaultAgeYears = 25
)

type UserProfile struct {
	ID       string  `json:"id"`
	WeightKg float64 `json:"weight_kg"`
	HeightCm float64 `json:"height_cm"`
	AgeYears int     `json:"age_years"`
}

// Default returns the profile used when nothing is stored for id.
func Default(id string) UserProfile {
	return UserProfile{
		ID:       id,
		WeightKg: DefaultWeightKg,
		HeightCm: DefaultHeightCm,
		AgeYears: DefaultAgeYears,
	}
}

// withDefaults fills unset or nonsensical fields.
func (p UserProfile) withDefaults() UserProfile {
	def := Default(p.ID)
	if p.WeightKg <= 0 {
		p.WeightKg = def.WeightKg
	}
	if p.HeightCm <= 0 {
		p.HeightCm = def.HeightCm
	}
	if p.AgeYears <= 0 {
		p.AgeYears = def.AgeYears
	}
	return p
}
