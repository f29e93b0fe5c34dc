/*
Package foldkinetics is a Go package for simulating the stochastic folding
kinetics of nucleic acid secondary structure.

Structures are decomposed into nearest-neighbor loops (package nnloop),
tracked incrementally as single base pairs are added and removed (package
loopstructure), scored against a nearest-neighbor thermodynamic model
(package energymodel, package energy_params), and evolved forward in time
with a Gillespie stochastic simulation algorithm (package ssa) driven by a
Metropolis rate law (package ratemodel). Flux bookkeeping across that
algorithm is kept in log space to stay numerically stable over long
trajectories (package logspace).

Browse the subpackages for the functionality and documentation you need.
The cmd/ff-trajectory and cmd/ff-timecourse command-line tools wire these
packages together into runnable simulations.
*/
package foldkinetics
