// Package keel is the startup substrate for server applications: it resolves
// the active deployment environment, loads a layered template-expanded
// configuration document for it, and lazily constructs singleton runtime
// components from named sections of that document.
//
// The subpackages compose in startup order:
//
//	config    - environment resolution and configuration loading
//	logging   - zap logger built from the document's "log" section
//	component - type-keyed memoizing component registry
//	app       - application context bundling app value, config, environment
//	cli       - kingpin entry point tying the above together
//
// This root package defines the unified error type shared by all of them.
package keel
