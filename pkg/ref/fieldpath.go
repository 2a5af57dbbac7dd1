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

package ref

import (
	"fmt"
	"strconv"
	"strings"
)

// PathSegment is one step of a parsed field path: either a map-key name or
// an array index.
type PathSegment struct {
	Name    string
	IsIndex bool
	Index   int
}

// ParsePath splits a dotted field path with optional "[n]" array indices
// (e.g. "spec.ports[0].port") into segments. A leading "." is tolerated and
// stripped; a trailing "." is rejected, as are empty segments ("..").
func ParsePath(path string) ([]PathSegment, error) {
	if path == "" {
		return nil, fmt.Errorf("ref: empty field path")
	}
	path = strings.TrimPrefix(path, ".")
	if strings.HasSuffix(path, ".") {
		return nil, fmt.Errorf("ref: field path %q cannot end with '.'", path)
	}

	var segs []PathSegment
	cur := ""
	for i := 0; i < len(path); i++ {
		switch path[i] {
		case '.':
			if cur == "" {
				if i > 0 && path[i-1] == ']' {
					continue
				}
				return nil, fmt.Errorf("ref: field path %q has an empty segment at position %d", path, i)
			}
			segs = append(segs, PathSegment{Name: cur})
			cur = ""
		case '[':
			if cur != "" {
				segs = append(segs, PathSegment{Name: cur})
				cur = ""
			}
			end := strings.IndexByte(path[i:], ']')
			if end == -1 {
				return nil, fmt.Errorf("ref: field path %q has an unclosed '[' at position %d", path, i)
			}
			idxStr := path[i+1 : i+end]
			idx, err := strconv.Atoi(idxStr)
			if err != nil {
				return nil, fmt.Errorf("ref: field path %q has a non-numeric index %q: %w", path, idxStr, err)
			}
			if idx < 0 {
				return nil, fmt.Errorf("ref: field path %q has a negative index %d", path, idx)
			}
			segs = append(segs, PathSegment{IsIndex: true, Index: idx})
			i += end
		default:
			cur += string(path[i])
		}
	}
	if cur != "" {
		segs = append(segs, PathSegment{Name: cur})
	}
	return segs, nil
}

// Join re-renders parsed segments back into dotted/indexed form.
func Join(segs []PathSegment) string {
	var b strings.Builder
	for i, s := range segs {
		if s.IsIndex {
			fmt.Fprintf(&b, "[%d]", s.Index)
			continue
		}
		if i > 0 && !segs[i-1].IsIndex {
			b.WriteByte('.')
		}
		b.WriteString(s.Name)
	}
	return b.String()
}

// Get reads the value at path from a nested map/slice structure built from
// map[string]any and []any (e.g. an unstructured Kubernetes object or a
// manifest under construction). It returns (nil, false) if any segment of
// the path is absent rather than erroring, since an absent field is exactly
// what triggers a synthetic Reference in pkg/builder.
func Get(obj any, path string) (any, bool, error) {
	segs, err := ParsePath(path)
	if err != nil {
		return nil, false, err
	}
	cur := obj
	for _, s := range segs {
		if s.IsIndex {
			arr, ok := cur.([]any)
			if !ok || s.Index >= len(arr) {
				return nil, false, nil
			}
			cur = arr[s.Index]
			continue
		}
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false, nil
		}
		v, found := m[s.Name]
		if !found {
			return nil, false, nil
		}
		cur = v
	}
	return cur, true, nil
}

// Set writes value at path inside obj (a map[string]any), creating
// intermediate maps and growing slices as needed. obj must be addressable
// as a map[string]any at the top level.
func Set(obj map[string]any, path string, value any) error {
	segs, err := ParsePath(path)
	if err != nil {
		return err
	}
	if len(segs) == 0 {
		return fmt.Errorf("ref: cannot set empty path")
	}
	return setSegs(obj, segs, value)
}

func setSegs(cur map[string]any, segs []PathSegment, value any) error {
	seg := segs[0]
	if seg.IsIndex {
		return fmt.Errorf("ref: path cannot start a map level with an index")
	}
	if len(segs) == 1 {
		cur[seg.Name] = value
		return nil
	}

	next := segs[1]
	if next.IsIndex {
		arr, _ := cur[seg.Name].([]any)
		for len(arr) <= next.Index {
			arr = append(arr, nil)
		}
		if len(segs) == 2 {
			arr[next.Index] = value
		} else {
			elem, ok := arr[next.Index].(map[string]any)
			if !ok {
				elem = map[string]any{}
			}
			if err := setSegs(elem, segs[2:], value); err != nil {
				return err
			}
			arr[next.Index] = elem
		}
		cur[seg.Name] = arr
		return nil
	}

	child, ok := cur[seg.Name].(map[string]any)
	if !ok {
		child = map[string]any{}
	}
	if err := setSegs(child, segs[1:], value); err != nil {
		return err
	}
	cur[seg.Name] = child
	return nil
}
