// Package inventory provides tracking and management of applied Kubernetes
// resources. It maintains an inventory of managed resources, detects orphaned
// resources, and calculates resource hashes for drift detection.
package inventory
