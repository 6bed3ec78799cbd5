// Package study loads parametric study definitions from HCL files and
// expands their sweeps into the ordered list of runs to execute. One study
// declares one or more sweep blocks; multiple sweeps combine as a
// Cartesian product, one run per combination.
package study
