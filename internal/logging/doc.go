// Package logging provides the structured logger shared by nback components.
// Callers depend on the Logger interface; the zerolog backend is chosen once
// by the command that wires the program together.
package logging
