package gink

import "strings"

// FieldMatcher decides whether an object field holds a URL reference.
type FieldMatcher func(name string) bool

// IsURLField matches the service's naming convention for references: a field
// named "url" or ending in "_url".
func IsURLField(name string) bool {
	return name == "url" || strings.HasSuffix(name, "_url")
}

// Rewrite resolves, in place, every string held by a field accepted by match
// against origin, at any depth. Objects and arrays are always descended into,
// whatever the name of the field holding them. v is returned for chaining.
func Rewrite(v *Value, match FieldMatcher, origin string) *Value {
	if match == nil {
		match = IsURLField
	}

	var walk func(*Value)
	walk = func(cur *Value) {
		switch cur.Kind() {
		case KindArray:
			for _, item := range cur.items {
				walk(item)
			}
		case KindObject:
			for i, f := range cur.fields {
				switch f.Value.Kind() {
				case KindArray, KindObject:
					walk(f.Value)
				case KindString:
					if match(f.Name) {
						cur.fields[i].Value = String(Resolve(f.Value.str, origin))
					}
				}
			}
		}
	}

	walk(v)
	return v
}
