// This file contains the handling of bare keywords (e.g. `number`,
// `vector`) in attribute position.

package hcl_adapter

import (
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
)

// keywords are the identifiers accepted without quotes.
var keywords = map[string]struct{}{
	"number": {},
	"double": {},
	"vector": {},
	"global": {},
	"cell":   {},
}

// bareKeyword reports whether expr is a single known identifier and returns it.
func bareKeyword(expr hcl.Expression) (string, bool) {
	v, ok := expr.(*hclsyntax.ScopeTraversalExpr)
	if !ok || len(v.Traversal) != 1 {
		return "", false
	}
	name := v.Traversal.RootName()
	if _, known := keywords[name]; !known {
		return "", false
	}
	return name, true
}
