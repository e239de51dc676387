package cases

import "math"

// Dosage calculation is a pure function of weight and gender. The engine
// auto-fills a surgery's medicine map from it when the vet submits none; the
// caller may override any value before commit.

func roundHalf(x float64) float64 { return math.Round(2*x) / 2 }
func round5(x float64) float64    { return math.Round(x/5) * 5 }
func round50(x float64) float64   { return math.Round(x/50) * 50 }

// SurgeryDosage returns the default surgical protocol for a dog of the given
// weight (kg) and gender. Keys are catalog medicine names; values are units
// of the medicine's base unit. Vicryl-2 applies to females only.
func SurgeryDosage(weight float64, gender string) map[string]float64 {
	per := weight / 10

	d := map[string]float64{
		"ARV":           1,
		"Xylazine":      per,
		"Melonex":       math.Min(0.8*per, 1.0),
		"Atropine":      roundHalf(per),
		"Ketamine":      roundHalf(3 * per),
		"Tribivet":      1,
		"Intacef Tazo":  round50(400 * per),
		"Alu Spray":     roundHalf(2 * per),
		"Ethamsylate":   roundHalf(per),
		"Tincture":      round5(20 * per),
		"Avil":          1,
		"Vicryl-1":      0.20,
		"Catgut":        0.20,
		"Metronidazole": 50,
	}
	if gender == GenderFemale {
		d["Vicryl-2"] = 0.20
	}
	return d
}

// TreatmentDosage returns the default daily post-operative protocol,
// banded by weight.
func TreatmentDosage(weight float64) map[string]float64 {
	intacef, melonex := 500.0, 1.0
	switch {
	case weight <= 10:
		intacef, melonex = 400, 0.8
	case weight <= 15:
		intacef, melonex = 450, 0.9
	}
	return map[string]float64{
		"Intacef Tazo": intacef,
		"Melonex":      melonex,
		"Prednisolone": 1,
		"B-Complex":    1,
		"Tribivet":     1,
	}
}
