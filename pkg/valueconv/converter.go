package valueconv

// Converter holds the policy a single call site uses to turn Go values
// into value.Value and back (spec §6.3). The zero Converter is usable:
// AsIs renaming, untagged enums.
type Converter struct {
	Policy RenamePolicy
	Tagged bool
	Tag    EnumTag
}

// New returns a Converter using policy for field renaming.
func New(policy RenamePolicy) *Converter {
	return &Converter{Policy: policy}
}

// WithTaggedEnums switches enum encoding to the tagged representation
// instead of the default untagged one: `{tag: name, content: payload}`,
// or `{tag: name, field1: ..., field2: ...}` when tag.Flatten is set.
func (c *Converter) WithTaggedEnums(tag EnumTag) *Converter {
	c.Tagged = true
	c.Tag = tag
	return c
}

func (c *Converter) rename(goName string) string {
	return c.Policy.Apply(goName)
}
