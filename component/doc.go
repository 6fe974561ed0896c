// Package component implements the singleton component registry. A component
// kind declares its provider (a config key plus an asynchronous factory) and
// the registry constructs each kind at most once per process, on first demand,
// from its section of the configuration document. Factories may resolve other
// components through the registry handle they receive, forming a demand-driven
// acyclic dependency graph; concurrent first requests for one kind share a
// single in-flight construction.
package component
