// Package linker links aspect layers into a program.
//
// Layers introduce members and override existing ones. Overrides of one
// declaration form a chain ordered by layer. Bodies reach earlier versions
// through aspect placeholders: the previous version, the original
// implementation, the outermost version or the base member. Link resolves
// every placeholder, inlines each version that has a single caller in a
// supported call shape and emits the rest as ordinary members.
//
// # Pipeline
//
//  1. Introduction: clone the program and apply transformations in layer order
//  2. Resolution: map each placeholder to the version it reaches
//  3. Analysis: collect bodies, references and call shapes
//  4. Rewrite: decide a disposition per body and assemble the final program
//  5. Cleanup: flatten the blocks left by splicing
//
// # Thread Safety
//
// Link is safe for concurrent use. Inputs are never modified; the result
// shares no nodes with them.
//
// # Example
//
//	res, err := linker.Link(ctx, linker.Input{
//		Program:         program,
//		Layers:          layers,
//		Transformations: transformations,
//	})
//	if err != nil {
//		return err
//	}
//	fmt.Print(ast.Format(res.Program))
package linker
