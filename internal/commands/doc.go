// Package commands is the surface the UI drives: validated request objects
// in, domain models or field-attributed errors out. No transport; callers
// invoke handlers directly.
package commands
