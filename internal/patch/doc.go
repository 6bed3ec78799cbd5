// Package patch applies a batch of logical parameter assignments to one
// case directory. It is the single substitution engine every caller (batch
// sweep runner, one-off tooling, a GUI front end) depends on: assignments
// are mapped to concrete file writes, each target file is rewritten in one
// linear pass, and the outcome of every requested key is recorded in an
// ordered substitution log. Missing files and unmatched keys are logged
// conditions, not errors; only real read/write failures abort a pass.
package patch
