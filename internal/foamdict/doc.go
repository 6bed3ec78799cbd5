// Package foamdict reads and rewrites OpenFOAM text dictionaries at the
// line level. A file is modelled as an ordered sequence of lines, each
// either a "key value;" statement or opaque text that is passed through
// byte for byte. Substitution replaces the value token of a matched
// statement while keeping the original indentation, so a patched file stays
// a valid instance of the same dictionary format it started as.
package foamdict
