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

// Package factory is the two-shape factory surface (§4.9): a ClusterFactory
// that hands a rendered instance document off to a cluster controller, and
// a DirectFactory that drives deployment itself through pkg/deploy and
// pkg/status; it opens no pkg/watch connections. Both share deploy/delete/list/getStatus/toYaml;
// DirectFactory alone adds rollback and dryRun.
package factory
