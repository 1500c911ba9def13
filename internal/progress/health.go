package progress

import (
	"context"
	"fmt"
	"math"
	"time"

	"example.com/fittrack/internal/domain"
)

// BMI categories.
const (
	BMIUnderweight = "Underweight"
	BMINormal      = "Normal"
	BMIOverweight  = "Overweight"
	BMIObese       = "Obese"
)

// WeightRange is a healthy weight band in kilograms.
type WeightRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// BMI is the body mass index with its category.
type BMI struct {
	Value        float64     `json:"value"`
	Category     string      `json:"category"`
	HealthyRange WeightRange `json:"healthyRange"`
}

// ComputeBMI derives the BMI from height and weight.
func ComputeBMI(p domain.UserProfile) (BMI, error) {
	if p.HeightCm <= 0 || p.WeightKg <= 0 {
		return BMI{}, fmt.Errorf("%w: bmi needs height and weight", domain.ErrInvalidValue)
	}
	m := p.HeightCm / 100
	bmi := p.WeightKg / (m * m)
	return BMI{
		Value:        round1(bmi),
		Category:     bmiCategory(bmi),
		HealthyRange: HealthyWeightRange(p.HeightCm),
	}, nil
}

func bmiCategory(bmi float64) string {
	switch {
	case bmi < 18.5:
		return BMIUnderweight
	case bmi < 25:
		return BMINormal
	case bmi < 30:
		return BMIOverweight
	default:
		return BMIObese
	}
}

// HealthyWeightRange returns the weights giving a BMI between 18.5 and 24.9.
func HealthyWeightRange(heightCm float64) WeightRange {
	m := heightCm / 100
	return WeightRange{
		Min: int(math.Round(18.5 * m * m)),
		Max: int(math.Round(24.9 * m * m)),
	}
}

var activityMultipliers = map[string]float64{
	"sedentary":  1.2,
	"light":      1.375,
	"moderate":   1.55,
	"active":     1.725,
	"veryActive": 1.9,
}

const defaultActivityMultiplier = 1.55

// Energy is the basal metabolic rate and total daily energy expenditure in kcal.
type Energy struct {
	BMR           int    `json:"bmr"`
	TDEE          int    `json:"tdee"`
	ActivityLevel string `json:"activityLevel"`
}

// ComputeEnergy applies the revised Harris-Benedict equation and the activity
// multiplier. Unknown activity levels use the moderate multiplier.
func ComputeEnergy(p domain.UserProfile) (Energy, error) {
	if p.Age <= 0 || p.HeightCm <= 0 || p.WeightKg <= 0 || p.Gender == "" {
		return Energy{}, fmt.Errorf("%w: bmr needs age, gender, height and weight", domain.ErrInvalidValue)
	}
	var bmr float64
	if p.Gender == "male" {
		bmr = 88.362 + 13.397*p.WeightKg + 4.799*p.HeightCm - 5.677*float64(p.Age)
	} else {
		bmr = 447.593 + 9.247*p.WeightKg + 3.098*p.HeightCm - 4.330*float64(p.Age)
	}
	multiplier, ok := activityMultipliers[p.ActivityLevel]
	if !ok {
		multiplier = defaultActivityMultiplier
	}
	return Energy{
		BMR:           int(math.Round(bmr)),
		TDEE:          int(math.Round(bmr * multiplier)),
		ActivityLevel: p.ActivityLevel,
	}, nil
}

// Calorie goal kinds.
const (
	GoalMaintain = "maintain"
	GoalLose     = "lose"
	GoalGain     = "gain"
)

// CalorieGoal returns the daily intake for kind given the TDEE: a 500 kcal
// deficit to lose and a 300 kcal surplus to gain.
func CalorieGoal(e Energy, kind string) (int, error) {
	switch kind {
	case GoalMaintain, "":
		return e.TDEE, nil
	case GoalLose:
		return e.TDEE - 500, nil
	case GoalGain:
		return e.TDEE + 300, nil
	default:
		return 0, fmt.Errorf("%w: calorie goal %q", domain.ErrInvalidValue, kind)
	}
}

// HeartRateZone is a bpm band.
type HeartRateZone struct {
	Name string `json:"name"`
	Min  int    `json:"min"`
	Max  int    `json:"max"`
}

// HeartRateZones estimates training zones from the age-predicted maximum.
func HeartRateZones(age int) ([]HeartRateZone, error) {
	if age <= 0 {
		return nil, fmt.Errorf("%w: heart rate zones need age", domain.ErrInvalidValue)
	}
	maxHR := float64(220 - age)
	at := func(f float64) int { return int(math.Round(maxHR * f)) }
	return []HeartRateZone{
		{Name: "Resting", Min: 60, Max: 100},
		{Name: "Fat Burn", Min: at(0.5), Max: at(0.7)},
		{Name: "Cardio", Min: at(0.7), Max: at(0.85)},
		{Name: "Peak", Min: at(0.85), Max: int(maxHR)},
	}, nil
}

// WaterProgress is one day's intake against the goal.
type WaterProgress struct {
	Date       string            `json:"date"`
	Current    float64           `json:"current"`
	Goal       float64           `json:"goal"`
	Percentage float64           `json:"percentage"`
	Remaining  float64           `json:"remaining"`
	Logs       []domain.WaterLog `json:"logs"`
}

// WaterProgress reports date's intake. An empty date selects today.
func (c *Calculator) WaterProgress(ctx context.Context, date string) (WaterProgress, error) {
	if date == "" {
		date = c.store.Today()
	}
	water, err := c.store.Water(ctx, date)
	if err != nil {
		return WaterProgress{}, err
	}
	goals, err := c.store.Goals(ctx)
	if err != nil {
		return WaterProgress{}, err
	}
	logs := water.Logs
	if logs == nil {
		logs = []domain.WaterLog{}
	}
	return WaterProgress{
		Date:       date,
		Current:    water.Glasses,
		Goal:       goals.Daily.Water,
		Percentage: round1(percent(water.Glasses, goals.Daily.Water)),
		Remaining:  math.Max(goals.Daily.Water-water.Glasses, 0),
		Logs:       logs,
	}, nil
}

// SleepProgress is one night's sleep against the goal.
type SleepProgress struct {
	Date       string              `json:"date"`
	Current    float64             `json:"current"`
	Goal       float64             `json:"goal"`
	Percentage float64             `json:"percentage"`
	Record     *domain.SleepRecord `json:"record,omitempty"`
}

// SleepProgress reports the night starting on date. An empty date selects today.
func (c *Calculator) SleepProgress(ctx context.Context, date string) (SleepProgress, error) {
	if date == "" {
		date = c.store.Today()
	}
	rec, ok, err := c.store.Sleep(ctx, date)
	if err != nil {
		return SleepProgress{}, err
	}
	goals, err := c.store.Goals(ctx)
	if err != nil {
		return SleepProgress{}, err
	}
	out := SleepProgress{Date: date, Goal: goals.Daily.Sleep}
	if ok {
		out.Current = rec.DurationHours
		out.Percentage = round1(percent(rec.DurationHours, goals.Daily.Sleep))
		out.Record = &rec
	}
	return out, nil
}

// HealthTrends is the water and sleep series for the last seven days.
type HealthTrends struct {
	Dates []string  `json:"dates"`
	Water []float64 `json:"water"`
	Sleep []float64 `json:"sleep"`
}

// WeeklyHealthTrends returns the six days before today and today.
func (c *Calculator) WeeklyHealthTrends(ctx context.Context) (HealthTrends, error) {
	end := c.store.Today()
	records, err := c.store.RecordsBetween(ctx, domain.AddDays(end, -6), end)
	if err != nil {
		return HealthTrends{}, err
	}
	var t HealthTrends
	for _, r := range records {
		t.Dates = append(t.Dates, r.Date)
		t.Water = append(t.Water, r.WaterGlasses)
		t.Sleep = append(t.Sleep, r.SleepHours)
	}
	return t, nil
}

// HealthSummary bundles the profile-derived metrics with today's progress.
// Metrics whose inputs are missing from the profile are omitted.
type HealthSummary struct {
	BMI            *BMI            `json:"bmi,omitempty"`
	Energy         *Energy         `json:"bmr,omitempty"`
	Water          WaterProgress   `json:"waterProgress"`
	Sleep          SleepProgress   `json:"sleepProgress"`
	HeartRateZones []HeartRateZone `json:"heartRateZones,omitempty"`
	LastUpdated    time.Time       `json:"lastUpdated"`
}

// HealthSummary computes the health overview for today.
func (c *Calculator) HealthSummary(ctx context.Context, now time.Time) (HealthSummary, error) {
	profile, err := c.store.Profile(ctx)
	if err != nil {
		return HealthSummary{}, err
	}
	var s HealthSummary
	if bmi, err := ComputeBMI(profile); err == nil {
		s.BMI = &bmi
	}
	if energy, err := ComputeEnergy(profile); err == nil {
		s.Energy = &energy
	}
	if zones, err := HeartRateZones(profile.Age); err == nil {
		s.HeartRateZones = zones
	}
	if s.Water, err = c.WaterProgress(ctx, ""); err != nil {
		return HealthSummary{}, err
	}
	if s.Sleep, err = c.SleepProgress(ctx, ""); err != nil {
		return HealthSummary{}, err
	}
	s.LastUpdated = now
	return s, nil
}
