package document

// Merge deep-merges incoming into existing and returns the result.
//
// When both values are objects the result holds every key of existing, with keys
// present in incoming replaced by the recursive merge of the two children. In every
// other case incoming wins outright: scalars, arrays and null are leaves. Neither
// input is modified.
func Merge(existing, incoming Value) Value {
	if existing.kind != KindObject || incoming.kind != KindObject {
		return incoming
	}
	out := make(map[string]Value, len(existing.obj)+len(incoming.obj))
	for k, v := range existing.obj {
		out[k] = v
	}
	for k, v := range incoming.obj {
		if prev, ok := out[k]; ok {
			out[k] = Merge(prev, v)
			continue
		}
		out[k] = v
	}
	return Value{kind: KindObject, obj: out}
}

// MergeAll folds Merge over patches from left to right.
func MergeAll(base Value, patches ...Value) Value {
	out := base
	for _, p := range patches {
		out = Merge(out, p)
	}
	return out
}

// EnsureObject returns v when it is an object and an empty object otherwise.
func EnsureObject(v Value) Value {
	if v.kind == KindObject {
		return v
	}
	return EmptyObject()
}
