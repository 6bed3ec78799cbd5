// Package app wires the application together. It defines the App struct,
// its configuration, and the command dispatch, decoupled from the CLI
// entrypoint.
package app
