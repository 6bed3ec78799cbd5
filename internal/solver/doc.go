// Package solver launches the external OpenFOAM solver for one case
// directory and watches its log for completion or a fatal error. Watching is
// a coarse polling loop over run.log rather than filesystem notifications;
// solver logs grow slowly and the poll keeps the runner portable.
package solver
