// Package aspect describes the inputs of the linker: the ordered aspect
// layers, the transformations each layer contributes, and the per
// declaration options that steer inlining.
//
// Layers apply in LayerOrder. Within an override chain the first layer sits
// innermost and the last layer outermost, so the last override is the one
// callers reach first.
//
// Member introductions carry a Generator. TemplateGenerator instantiates a
// member written in the source format; GeneratorFunc adapts arbitrary code.
// Generators receive a GenerationContext whose private-name scope already
// contains the names used by the bodies the new member will be merged with.
//
// Option rules select declarations by pattern:
//
//	"Account.Deposit"  exact member
//	"Deposit"          member on any type (also "*.Deposit")
//	"Account.*"        every member of a type
//	"Account.Dep*"     name prefix
//	"*"                everything
package aspect
