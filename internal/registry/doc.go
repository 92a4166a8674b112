// Package registry holds the services of one test run and starts them
// together, once, on demand.
//
// A Registry is created per run and discarded by Reset. Child aliases
// registered with service.Definition.Child resolve to their own URL but share
// the parent's orchestrator.
package registry
