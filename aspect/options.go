package aspect

// Options are per-declaration linker hints.
type Options struct {
	// ForceNotInlineable keeps the declaration as a separate member even
	// when it has a single caller.
	ForceNotInlineable bool
	// ForceNotDiscardable keeps the declaration in the output even when it
	// becomes unreferenced.
	ForceNotDiscardable bool
}

// Merge returns the union of both option sets.
func (o Options) Merge(other Options) Options {
	return Options{
		ForceNotInlineable:  o.ForceNotInlineable || other.ForceNotInlineable,
		ForceNotDiscardable: o.ForceNotDiscardable || other.ForceNotDiscardable,
	}
}

// OptionRule applies Options to every declaration its matcher selects.
type OptionRule struct {
	Matcher DeclMatcher
	Options Options
}

// OptionSet is an ordered list of rules. All matching rules contribute.
type OptionSet []OptionRule

// Lookup returns the merged options of every rule matching Type.Member.
func (s OptionSet) Lookup(typeName, member string) Options {
	var out Options
	for _, r := range s {
		if r.Matcher != nil && r.Matcher.Match(typeName, member) {
			out = out.Merge(r.Options)
		}
	}
	return out
}
