/*
Package ratemodel implements the rate-model contract the stochastic
simulator consumes: map a free-energy change to a log rate, plus the
canonical Metropolis implementation.
*/
package ratemodel

import (
	"fmt"
	"math"
)

// KelvinOffset converts a Celsius temperature to Kelvin.
const KelvinOffset = 273.15

// BoltzmannConstant is k_B in kcal/(mol*K).
const BoltzmannConstant = 1.987204285e-3

// Model is the rate-model contract: map a free-energy change (in
// integer deci-cal/mol, matching energymodel's energy unit) to a
// natural-log rate.
type Model interface {
	LogRate(deltaE int) float64
}

// Metropolis is the canonical rate model:
//
//	log_rate(dE) = ln(k0)                     if dE <= 0
//	             = ln(k0) - (dE/100)/kT        otherwise
//
// with kT = k_B * (T_C + 273.15).
type Metropolis struct {
	lnK0 float64
	kT   float64
}

// NewMetropolis builds a Metropolis rate model at the given Celsius
// temperature with base rate k0. Panics if k0 <= 0.
func NewMetropolis(celsius, k0 float64) Metropolis {
	if k0 <= 0 {
		panic(fmt.Sprintf("ratemodel: k0 must be positive, got %v", k0))
	}
	return Metropolis{
		lnK0: math.Log(k0),
		kT:   BoltzmannConstant * (celsius + KelvinOffset),
	}
}

// LogRate implements Model.
func (m Metropolis) LogRate(deltaE int) float64 {
	if deltaE <= 0 {
		return m.lnK0
	}
	return m.lnK0 - (float64(deltaE)/100.0)/m.kT
}
