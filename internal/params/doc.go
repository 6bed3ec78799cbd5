// Package params owns the parameter side of case patching: the value store
// holding every currently-known parameter, the mapper that translates a
// logical "section.key" path into concrete file writes (applying unit
// conversions on the way), and the hard-coded derived-value table that
// keeps dependent geometry parameters numerically consistent with their
// source.
package params
