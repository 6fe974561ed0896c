// Package config resolves the active deployment environment and loads its
// layered configuration document. Candidate files are probed in strict
// precedence order (local override before base, TOML before YAML) and the
// first existing file is used exclusively; its text is expanded against the
// process environment before parsing. Consumers extract typed sub-sections
// from the resulting Document by key.
package config
