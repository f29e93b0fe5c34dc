package energy_params

import "reflect"

/*
This file rescales the 37C measurements parsed from a parameter file
to a target temperature via dG = dH - T*dS, recovering dS from each
energy table's enthalpy twin.
*/

// measurementTemperatureInCelsius is the temperature the parameter
// files' free energies were measured at.
const measurementTemperatureInCelsius float64 = 37.0

type intFunc = func(int) int

func idInt(x int) int { return x }

// onlyLessThanOrEqualToZero clamps tables whose entries may only ever
// stabilize (dangling ends, exterior/multi mismatches).
func onlyLessThanOrEqualToZero(x int) int {
	return minInt(0, x)
}

// scaleByTemperature converts the raw 37C tables into an EnergyParams
// at the given Celsius temperature.
func (raw rawEnergyParams) scaleByTemperature(temperature float64) *EnergyParams {
	params := &EnergyParams{
		LogExtrapolationConstant:         rescaleDgFloat64(raw.logExtrapolationConstant, 0, temperature),
		TerminalAUPenalty:                rescaleDg(raw.terminalAU37C, raw.terminalAUEnthalpy, temperature),
		MultiLoopUnpairedNucleotideBonus: rescaleDg(raw.multiLoopBase37C, raw.multiLoopBaseEnthalpy, temperature),
		MultiLoopClosingPenalty:          rescaleDg(raw.multiLoopClosing37C, raw.multiLoopClosingEnthalpy, temperature),
		Ninio:                            rescaleDg(raw.ninio37C, raw.ninioEnthalpy, temperature),
		MaxNinio:                         raw.maxNinio,
	}

	params.HairpinLoop = rescaleTensor(raw.hairpinLoopEnergy37C, raw.hairpinLoopEnthalpy, temperature, idInt).([]int)
	params.Bulge = rescaleTensor(raw.bulgeEnergy37C, raw.bulgeEnthalpy, temperature, idInt).([]int)
	params.InteriorLoop = rescaleTensor(raw.interiorLoopEnergy37C, raw.interiorLoopEnthalpy, temperature, idInt).([]int)

	// The per-branch multiloop penalty is a single measurement; it is
	// replicated into a table so lookups by pair type stay uniform with
	// the other matrices.
	intern := rescaleDg(raw.multiLoopIntern37C, raw.multiLoopInternEnthalpy, temperature)
	params.MultiLoopIntern = make([]int, MaxLenLoop+1)
	for i := range params.MultiLoopIntern {
		params.MultiLoopIntern[i] = intern
	}

	params.TriLoop = rescaleBonusMap(raw.triLoopEnergy37C, raw.triLoopEnthalpy, temperature)
	params.TetraLoop = rescaleBonusMap(raw.tetraLoopEnergy37C, raw.tetraLoopEnthalpy, temperature)
	params.HexaLoop = rescaleBonusMap(raw.hexaLoopEnergy37C, raw.hexaLoopEnthalpy, temperature)

	params.StackingPair = rescaleTensor(raw.stackingPairEnergy37C, raw.stackingPairEnthalpy, temperature, idInt).([][]int)

	params.MismatchInteriorLoop = rescaleTensor(raw.mismatchInteriorLoopEnergy37C, raw.mismatchInteriorLoopEnthalpy, temperature, idInt).([][][]int)
	params.MismatchHairpinLoop = rescaleTensor(raw.mismatchHairpinLoopEnergy37C, raw.mismatchHairpinLoopEnthalpy, temperature, idInt).([][][]int)
	params.Mismatch1xnInteriorLoop = rescaleTensor(raw.mismatch1xnInteriorLoopEnergy37C, raw.mismatch1xnInteriorLoopEnthalpy, temperature, idInt).([][][]int)
	params.Mismatch2x3InteriorLoop = rescaleTensor(raw.mismatch2x3InteriorLoopEnergy37C, raw.mismatch2x3InteriorLoopEnthalpy, temperature, idInt).([][][]int)
	params.MismatchMultiLoop = rescaleTensor(raw.mismatchMultiLoopEnergy37C, raw.mismatchMultiLoopEnthalpy, temperature, onlyLessThanOrEqualToZero).([][][]int)
	params.MismatchExteriorLoop = rescaleTensor(raw.mismatchExteriorLoopEnergy37C, raw.mismatchExteriorLoopEnthalpy, temperature, onlyLessThanOrEqualToZero).([][][]int)

	params.DanglingEndsFivePrime = rescaleTensor(raw.danglingEndsFivePrimeEnergy37C, raw.danglingEndsFivePrimeEnthalpy, temperature, onlyLessThanOrEqualToZero).([][]int)
	params.DanglingEndsThreePrime = rescaleTensor(raw.danglingEndsThreePrimeEnergy37C, raw.danglingEndsThreePrimeEnthalpy, temperature, onlyLessThanOrEqualToZero).([][]int)

	params.Interior1x1Loop = rescaleTensor(raw.interior1x1LoopEnergy37C, raw.interior1x1LoopEnthalpy, temperature, idInt).([][][][]int)
	params.Interior2x1Loop = rescaleTensor(raw.interior2x1LoopEnergy37C, raw.interior2x1LoopEnthalpy, temperature, idInt).([][][][][]int)
	params.Interior2x2Loop = rescaleTensor(raw.interior2x2LoopEnergy37C, raw.interior2x2LoopEnthalpy, temperature, idInt).([][][][][][]int)

	return params
}

// rescaleTensor walks parallel nested []...[]int energy/enthalpy
// tables of identical shape, rescaling each entry to the target
// temperature and then clamping it with fn. The rank of the tables
// only decides how deep the recursion goes.
func rescaleTensor(energy, enthalpy interface{}, temperature float64, fn intFunc) interface{} {
	return rescaleValue(reflect.ValueOf(energy), reflect.ValueOf(enthalpy), temperature, fn).Interface()
}

func rescaleValue(dG, dH reflect.Value, temperature float64, fn intFunc) reflect.Value {
	if dG.Kind() == reflect.Int {
		return reflect.ValueOf(fn(rescaleDg(int(dG.Int()), int(dH.Int()), temperature)))
	}
	out := reflect.MakeSlice(dG.Type(), dG.Len(), dG.Len())
	for i := 0; i < dG.Len(); i++ {
		out.Index(i).Set(rescaleValue(dG.Index(i), dH.Index(i), temperature, fn))
	}
	return out
}

func rescaleBonusMap(energies, enthalpies map[string]int, temperature float64) map[string]int {
	out := make(map[string]int, len(energies))
	for loop, dG := range energies {
		out[loop] = rescaleDg(dG, enthalpies[loop], temperature)
	}
	return out
}

// rescaleDg converts a 37C free energy measurement to the target
// temperature using dG = dH - T*dS, with dS recovered from the paired
// enthalpy measurement.
func rescaleDg(dG, dH int, temperature float64) int {
	if temperature == measurementTemperatureInCelsius {
		return dG
	}

	measurementInKelvin := measurementTemperatureInCelsius + ZeroCelsiusInKelvin
	targetInKelvin := temperature + ZeroCelsiusInKelvin
	tRatio := targetInKelvin / measurementInKelvin

	dS := float64(dH) - float64(dG)
	return int(float64(dH) - dS*tRatio)
}

// rescaleDgFloat64 is rescaleDg for the one float64 parameter.
func rescaleDgFloat64(dG, dH, temperature float64) float64 {
	if temperature == measurementTemperatureInCelsius {
		return dG
	}

	measurementInKelvin := measurementTemperatureInCelsius + ZeroCelsiusInKelvin
	targetInKelvin := temperature + ZeroCelsiusInKelvin
	tRatio := targetInKelvin / measurementInKelvin

	dS := dH - dG
	return dH - dS*tRatio
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
