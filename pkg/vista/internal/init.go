// Package internal contains the shared infrastructure for the vista framework,
// currently the application and framework loggers.
// Types and functions in this package are not part of the public API.
package internal
