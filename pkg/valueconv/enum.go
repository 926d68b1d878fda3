package valueconv

// EnumValue is implemented by Go types that model a Rust-style enum: a
// fixed set of named variants, each optionally carrying a payload (spec
// §6.3's "tagged/untagged enum encoding"). Variant returns the active
// variant's name and its payload, or a nil payload for a unit variant.
type EnumValue interface {
	Variant() (name string, payload any)
}

// EnumTag configures a tagged enum encoding (spec §6.3's "tagged"
// representation). With Flatten false (the default) a variant's payload
// nests under its own key: `{tag: name, content: payload}`. With
// Flatten true there is no content key at all: a struct-shaped payload's
// own fields are merged directly into the top-level map alongside tag,
// producing `{tag: name, field1: ..., field2: ...}`. The zero value
// selects the conventional "tag"/"content" nested pair.
type EnumTag struct {
	TagField     string
	ContentField string
	Flatten      bool
}

func (t EnumTag) tagField() string {
	if t.TagField == "" {
		return "tag"
	}
	return t.TagField
}

func (t EnumTag) contentField() string {
	if t.ContentField == "" {
		return "content"
	}
	return t.ContentField
}
