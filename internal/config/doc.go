// Package config defines the format-agnostic model description consumed by
// the builder, along with the Loader interface implemented by the format
// adapters (hcl_adapter, yaml_adapter).
//
// A model is a tree of Elements. Each Element has a kind (the block type,
// e.g. `equation`), an optional label, attributes holding cty values and
// nested child elements. Source ranges are kept so that errors raised while
// building or running a model point back to the file that declared it.
package config
