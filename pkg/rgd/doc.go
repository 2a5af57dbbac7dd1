/*
Copyright 2025.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package rgd holds the plain Go wire types for a serialized
// ResourceGraphDefinition document (§4.5): the cluster-side artifact
// pkg/serialize emits and a cluster controller (out of scope here, per
// spec.md §1) would consume. These are data types only — no controller-
// runtime object, no DeepCopy, no scheme registration — since nothing in
// this module watches or reconciles them.
package rgd
