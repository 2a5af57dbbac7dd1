package apply

import (
	"context"
	"fmt"

	"k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"sigs.k8s.io/controller-runtime/pkg/client"

	"github.com/kroengine/rgde/pkg/graph"
)

// DefaultFieldManager is the default field manager name for rgde.
const DefaultFieldManager = "rgde"

// AdoptMode selects how the caller identifies resources to adopt, mirroring
// the teacher's platformv1alpha1.AdoptSpec.Mode but expressed as a plain Go
// struct since there is no longer a CRD carrying it across the wire.
type AdoptMode string

const (
	AdoptModeExplicit      AdoptMode = "Explicit"
	AdoptModeLabelSelector AdoptMode = "LabelSelector"
)

// AdoptStrategy selects what happens to a matched resource.
type AdoptStrategy string

const (
	AdoptStrategyTakeOwnership AdoptStrategy = "TakeOwnership"
	AdoptStrategyMirror        AdoptStrategy = "Mirror"
)

// AdoptedResourceRef names one resource a caller wants adopted, optionally
// tying it to a graph resource id to source its desired manifest from.
type AdoptedResourceRef struct {
	ResourceID string
	APIVersion string
	Kind       string
	Namespace  string
	Name       string
}

// AdoptSpec is the bulk-adoption request: adopt pre-existing cluster
// resources into this deployment's management, either by explicit
// reference or (not yet implemented) label selector.
type AdoptSpec struct {
	Mode      AdoptMode
	Strategy  AdoptStrategy
	Resources []AdoptedResourceRef
}

// AdoptResult is the outcome of adopting a single resource.
type AdoptResult struct {
	ResourceID           string
	Resource             ResourceRef
	Adopted              bool
	AlreadyManaged       bool
	Created              bool
	Error                error
	ConflictingManagers  []string
}

// ResourceRef identifies a Kubernetes resource.
type ResourceRef struct {
	APIVersion string
	Kind       string
	Namespace  string
	Name       string
}

func (r ResourceRef) String() string {
	if r.Namespace == "" {
		return fmt.Sprintf("%s/%s %s", r.APIVersion, r.Kind, r.Name)
	}
	return fmt.Sprintf("%s/%s %s/%s", r.APIVersion, r.Kind, r.Namespace, r.Name)
}

// AdoptionReport summarizes an adoption run.
type AdoptionReport struct {
	Results      []AdoptResult
	TotalAdopted int
	TotalFailed  int
	TotalSkipped int
	TotalCreated int
}

func (r *AdoptionReport) HasErrors() bool { return r.TotalFailed > 0 }

// Adopter handles adopting pre-existing resources into this deployment's
// management, grounded on the teacher's pkg/apply/adopter.go — kept its
// get-then-take-ownership strategy and field-manager inspection, replaced
// its platformv1alpha1.AdoptSpec CRD-sourced input with a plain Go struct
// since adoption requests are no longer carried by a Kubernetes CR here,
// and its []graph.Node matching with []*graph.Resource.
type Adopter struct {
	client       client.Client
	fieldManager string
	dryRun       bool
}

func NewAdopter(c client.Client) *Adopter {
	return &Adopter{client: c, fieldManager: DefaultFieldManager}
}

func (a *Adopter) WithFieldManager(fm string) *Adopter {
	return &Adopter{client: a.client, fieldManager: fm, dryRun: a.dryRun}
}

func (a *Adopter) WithDryRun(dryRun bool) *Adopter {
	return &Adopter{client: a.client, fieldManager: a.fieldManager, dryRun: dryRun}
}

// Adopt processes an adoption spec and adopts matching resources.
func (a *Adopter) Adopt(ctx context.Context, spec *AdoptSpec, resources []*graph.Resource) (*AdoptionReport, error) {
	if spec == nil {
		return &AdoptionReport{}, nil
	}

	report := &AdoptionReport{}
	switch spec.Mode {
	case "", AdoptModeExplicit:
		return a.adoptExplicit(ctx, spec, resources, report)
	case AdoptModeLabelSelector:
		return nil, fmt.Errorf("LabelSelector mode not yet implemented")
	default:
		return nil, fmt.Errorf("unknown adoption mode: %s", spec.Mode)
	}
}

func (a *Adopter) adoptExplicit(ctx context.Context, spec *AdoptSpec, resources []*graph.Resource, report *AdoptionReport) (*AdoptionReport, error) {
	for _, ref := range spec.Resources {
		result := a.adoptResource(ctx, ref, resources, spec.Strategy)
		report.Results = append(report.Results, result)

		switch {
		case result.Error != nil:
			report.TotalFailed++
		case result.Created:
			report.TotalCreated++
			report.TotalAdopted++
		case result.AlreadyManaged:
			report.TotalSkipped++
		case result.Adopted:
			report.TotalAdopted++
		}
	}
	return report, nil
}

func (a *Adopter) adoptResource(ctx context.Context, ref AdoptedResourceRef, resources []*graph.Resource, strategy AdoptStrategy) AdoptResult {
	result := AdoptResult{
		ResourceID: ref.ResourceID,
		Resource: ResourceRef{
			APIVersion: ref.APIVersion,
			Kind:       ref.Kind,
			Namespace:  ref.Namespace,
			Name:       ref.Name,
		},
	}

	match := a.findMatchingResource(ref, resources)
	if match == nil && ref.ResourceID != "" {
		result.Error = fmt.Errorf("no graph resource found with id %q", ref.ResourceID)
		return result
	}
	if match != nil {
		result.ResourceID = match.ID
	}

	gv, err := schema.ParseGroupVersion(ref.APIVersion)
	if err != nil {
		result.Error = fmt.Errorf("invalid apiVersion %q: %w", ref.APIVersion, err)
		return result
	}
	gvk := gv.WithKind(ref.Kind)

	existing := &unstructured.Unstructured{}
	existing.SetGroupVersionKind(gvk)
	key := client.ObjectKey{Namespace: ref.Namespace, Name: ref.Name}

	err = a.client.Get(ctx, key, existing)
	if err != nil {
		if errors.IsNotFound(err) {
			if match != nil {
				result.Error = a.createFromResource(ctx, match)
				if result.Error == nil {
					result.Created = true
					result.Adopted = true
				}
			} else {
				result.Error = fmt.Errorf("resource not found and no matching graph resource to create from")
			}
			return result
		}
		result.Error = fmt.Errorf("failed to get resource: %w", err)
		return result
	}

	result.ConflictingManagers = a.getFieldManagers(existing)
	for _, fm := range result.ConflictingManagers {
		if fm == a.fieldManager {
			result.AlreadyManaged = true
			return result
		}
	}

	switch strategy {
	case "", AdoptStrategyTakeOwnership:
		result.Error = a.takeOwnership(ctx, existing, match)
	case AdoptStrategyMirror:
		result.Error = nil
	default:
		result.Error = fmt.Errorf("unknown strategy: %s", strategy)
	}

	if result.Error == nil {
		result.Adopted = true
	}
	return result
}

func (a *Adopter) findMatchingResource(ref AdoptedResourceRef, resources []*graph.Resource) *graph.Resource {
	if ref.ResourceID != "" {
		for _, r := range resources {
			if r.ID == ref.ResourceID {
				return r
			}
		}
		return nil
	}

	for _, r := range resources {
		if r.Kind == "" {
			continue
		}
		if r.APIVersion == ref.APIVersion && r.Kind == ref.Kind &&
			r.Namespace() == ref.Namespace && r.Name() == ref.Name {
			return r
		}
	}
	return nil
}

func (a *Adopter) getFieldManagers(obj *unstructured.Unstructured) []string {
	managedFields := obj.GetManagedFields()
	managers := make([]string, 0, len(managedFields))
	seen := make(map[string]bool)

	for _, mf := range managedFields {
		if !seen[mf.Manager] {
			managers = append(managers, mf.Manager)
			seen[mf.Manager] = true
		}
	}
	return managers
}

func (a *Adopter) takeOwnership(ctx context.Context, existing *unstructured.Unstructured, match *graph.Resource) error {
	var obj *unstructured.Unstructured
	if match != nil && match.Kind != "" {
		obj = &unstructured.Unstructured{Object: match.Manifest}
	} else {
		obj = existing.DeepCopy()
	}

	patchOpts := []client.PatchOption{
		client.FieldOwner(a.fieldManager),
		client.ForceOwnership,
	}
	if a.dryRun {
		patchOpts = append(patchOpts, client.DryRunAll)
	}

	if err := a.client.Patch(ctx, obj, client.Apply, patchOpts...); err != nil {
		return fmt.Errorf("failed to take ownership: %w", err)
	}
	return nil
}

func (a *Adopter) createFromResource(ctx context.Context, match *graph.Resource) error {
	if match == nil || match.Kind == "" {
		return fmt.Errorf("graph resource is empty")
	}

	obj := &unstructured.Unstructured{Object: match.Manifest}

	patchOpts := []client.PatchOption{client.FieldOwner(a.fieldManager)}
	if a.dryRun {
		patchOpts = append(patchOpts, client.DryRunAll)
	}

	if err := a.client.Patch(ctx, obj, client.Apply, patchOpts...); err != nil {
		return fmt.Errorf("failed to create resource: %w", err)
	}
	return nil
}

// CheckAdoptionSafety reports warnings and blocking errors before adopting.
func (a *Adopter) CheckAdoptionSafety(ctx context.Context, spec *AdoptSpec) (warnings []string, blockingErrors []error) {
	if spec == nil {
		return nil, nil
	}

	for _, ref := range spec.Resources {
		gv, err := schema.ParseGroupVersion(ref.APIVersion)
		if err != nil {
			blockingErrors = append(blockingErrors, fmt.Errorf("invalid apiVersion %q: %w", ref.APIVersion, err))
			continue
		}
		gvk := gv.WithKind(ref.Kind)

		existing := &unstructured.Unstructured{}
		existing.SetGroupVersionKind(gvk)
		key := client.ObjectKey{Namespace: ref.Namespace, Name: ref.Name}

		if err := a.client.Get(ctx, key, existing); err != nil {
			if errors.IsNotFound(err) {
				warnings = append(warnings, fmt.Sprintf("resource %s not found, will be created", ref.Name))
			} else {
				blockingErrors = append(blockingErrors, fmt.Errorf("failed to check resource %s: %w", ref.Name, err))
			}
			continue
		}

		managers := a.getFieldManagers(existing)
		hasOwner := false
		for _, m := range managers {
			if m == a.fieldManager {
				hasOwner = true
			}
		}
		if !hasOwner && len(managers) > 0 {
			warnings = append(warnings,
				fmt.Sprintf("resource %s/%s has field managers %v that will be overwritten",
					ref.Namespace, ref.Name, managers))
		}

		for _, owner := range existing.GetOwnerReferences() {
			if owner.Controller != nil && *owner.Controller {
				warnings = append(warnings,
					fmt.Sprintf("resource %s/%s is owned by controller %s/%s",
						existing.GetNamespace(), existing.GetName(),
						owner.Kind, owner.Name))
			}
		}
	}

	return warnings, blockingErrors
}

// AdoptionStatus records the adoption state of a resource.
type AdoptionStatus struct {
	Adopted          bool         `json:"adopted"`
	AdoptedAt        *metav1.Time `json:"adoptedAt,omitempty"`
	PreviousManagers []string     `json:"previousManagers,omitempty"`
}
