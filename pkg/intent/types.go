// Package intent defines the target descriptor, filters and launch arguments
// handed to the launch channels.
package intent

// Well-known actions and categories.
const (
	ActionMain       = "android.intent.action.MAIN"
	ActionView       = "android.intent.action.VIEW"
	CategoryDefault  = "android.intent.category.DEFAULT"
	CategoryLauncher = "android.intent.category.LAUNCHER"
)

// Flags is a launch-flag bitmask. Values are channel independent.
type Flags uint32

// Common launch flags (activity manager values).
const (
	FlagActivityNewTask    Flags = 0x10000000
	FlagActivityClearTop   Flags = 0x04000000
	FlagActivitySingleTop  Flags = 0x20000000
	FlagIncludeStoppedPkgs Flags = 0x00000020
	FlagReceiverForeground Flags = 0x10000000
)

// Kind identifies what sort of component a launch addresses.
type Kind string

const (
	KindActivity  Kind = "activity"
	KindBroadcast Kind = "broadcast"
	KindService   Kind = "service"
	KindShell     Kind = "shell"
)

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindActivity, KindBroadcast, KindService, KindShell:
		return true
	}
	return false
}

// Intent is the target descriptor: what to launch and how to address it.
type Intent struct {
	Action     string   `json:"action" yaml:"action"`
	Data       string   `json:"data,omitempty" yaml:"data,omitempty"`
	Categories []string `json:"categories,omitempty" yaml:"categories,omitempty"`
	Flags      Flags    `json:"flags,omitempty" yaml:"flags,omitempty"`
	// Component is the flattened component name, e.g. "com.example/.Main".
	Component string `json:"component,omitempty" yaml:"component,omitempty"`
}

// Clone returns a deep copy of the intent.
func (i Intent) Clone() Intent {
	c := i
	if i.Categories != nil {
		c.Categories = make([]string, len(i.Categories))
		copy(c.Categories, i.Categories)
	}
	return c
}

// HasCategory reports whether the category set contains cat.
func (i Intent) HasCategory(cat string) bool {
	for _, c := range i.Categories {
		if c == cat {
			return true
		}
	}
	return false
}

// AddCategory appends cat unless it is already present. Insertion order is
// the iteration order.
func (i *Intent) AddCategory(cat string) {
	if cat == "" || i.HasCategory(cat) {
		return
	}
	i.Categories = append(i.Categories, cat)
}

// ClearCategories empties the category set without touching shared storage.
func (i *Intent) ClearCategories() {
	i.Categories = nil
}

// AddFlags ORs f into the flag set.
func (i *Intent) AddFlags(f Flags) {
	i.Flags |= f
}

// Filter is one declared way of addressing a target.
type Filter struct {
	Actions     []string `json:"actions,omitempty" yaml:"actions,omitempty"`
	DataSchemes []string `json:"dataSchemes,omitempty" yaml:"dataSchemes,omitempty"`
	Categories  []string `json:"categories,omitempty" yaml:"categories,omitempty"`
}

// Args is everything needed for one launch request. The filter list is
// ordered by preference; index 0 is the primary match.
type Args struct {
	Intent  Intent   `json:"intent" yaml:"intent"`
	Filters []Filter `json:"filters,omitempty" yaml:"filters,omitempty"`
	Extras  []Extra  `json:"extras,omitempty" yaml:"extras,omitempty"`
}
