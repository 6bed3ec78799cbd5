// Package runner executes a study end to end: for every sweep point it
// prepares a case directory from the template, patches the dictionaries,
// launches the solver, and collects the outcome into a study summary.
package runner
