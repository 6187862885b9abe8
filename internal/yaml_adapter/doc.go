/*
Package yaml_adapter loads YAML model files into the format-agnostic
configuration model.

A document is a mapping whose keys name blocks, either as "kind" or as
"kind label". Inside a block, scalar and scalar-list values are attributes,
a mapping value is a nested block and a list of mappings is a repeated
nested block:

	time:
	  stop: 10
	variable x:
	  value: 1
	system growth:
	  time_step: 1
	  rule:
	    - symbol_ref: x
	      expression: x + 1

Key order is preserved, so blocks appear in the model as they appear in the
file.
*/
package yaml_adapter
