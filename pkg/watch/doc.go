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

// Package watch is the event/watch pipeline (§4.7): one Connection per
// unique (kind, namespace) field-selector group, reconnecting under
// jittered exponential backoff, filtering and deduplicating events before
// dispatch, and degrading to a "monitoring stopped" signal rather than
// failing deployment when its reconnect budget is exhausted.
package watch
