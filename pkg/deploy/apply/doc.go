// Package apply provides Server-Side Apply (SSA) functionality for applying
// Kubernetes resources authoritatively. It includes the applier, pruner,
// and adoption logic for managing resource lifecycles.
package apply
