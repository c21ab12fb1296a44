package intent

// placeholderHost is appended to a filter's data scheme to make a URI the
// activity manager will match against the scheme alone.
const placeholderHost = "yes"

// Derive builds the intent for one fallback attempt from the base intent and
// a single filter. The base is never modified.
//
// The action is the filter's first action or ActionMain. Categories come from
// the filter; a filter that declares none keeps the base categories. Data is
// "<scheme>://yes" for the filter's first scheme, otherwise empty.
func Derive(base Intent, f Filter, extraFlags Flags) Intent {
	out := base.Clone()
	out.AddFlags(extraFlags)

	out.ClearCategories()
	if len(f.Categories) > 0 {
		for _, c := range f.Categories {
			out.AddCategory(c)
		}
	} else {
		for _, c := range base.Categories {
			out.AddCategory(c)
		}
	}

	if len(f.Actions) > 0 {
		out.Action = f.Actions[0]
	} else {
		out.Action = ActionMain
	}

	if len(f.DataSchemes) > 0 {
		out.Data = f.DataSchemes[0] + "://" + placeholderHost
	} else {
		out.Data = ""
	}
	return out
}
