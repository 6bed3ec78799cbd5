// Package casedir manages OpenFOAM case directories: cloning the template
// tree into per-run directories and classifying run state from the solver
// log sentinels.
package casedir
