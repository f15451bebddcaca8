// Package aspectlinker links ordered aspect layers into a program.
//
// Aspects contribute members, overrides and interfaces to the types of a
// program. Inside an override, a placeholder reference names the behavior
// the override wraps: the previous layer's version, the base type's member,
// or the final version after every layer. Linking resolves every placeholder
// to a concrete member and removes the indirection where it can, inlining
// each override into its single caller.
//
// # Architecture Overview
//
//	aspectlinker/
//	├── ast/         Program tree, tracking ids, C#-like formatter
//	├── source/      S-expression reader and writer for programs and templates
//	├── aspect/      Layers, transformations, generators, option rules
//	├── linker/      Link entry point and the internal phases:
//	│   └── internal/   introduce, resolve, analysis, inline, rewrite, cleanup
//	├── interp/      Interpreter used to check that linking preserves behavior
//	├── manifest/    YAML description of a link
//	├── config/      weave settings and option rules
//	├── errors/      Structured error types for debugging
//	└── cmd/weave/   Command-line front end
//
// # Quick Start
//
//	prog, err := source.Parse(programText)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	layers, _ := aspect.NewLayerOrder("Logging")
//	tmpl, _ := source.ParseMember(`(method Add (param a int) (param b int) (result int)
//	    (body (call log "add") (return (ref Logging default (call Add a b)))))`)
//
//	res, err := linker.Link(ctx, linker.Input{
//	    Program: prog,
//	    Layers:  layers,
//	    Transformations: []aspect.Transformation{&aspect.MemberIntroduction{
//	        Generator: aspect.TemplateGenerator{Template: tmpl},
//	        Layer:     "Logging",
//	        Type:      "Calc",
//	        Target:    "Add",
//	        Kind:      aspect.Override,
//	    }},
//	})
//	fmt.Print(ast.Format(res.Program))
//
// # Placeholders
//
// A placeholder carries the layer it was written in, an order and an
// optional accessor:
//
//   - default: the declaration as it stands before the layer
//   - original: the implementation written in the program
//   - base: the base type's member, or the original implementation
//   - final: the public declaration after every layer
//
// See the linker package for the linking rules and the dispositions a body
// can receive.
package aspectlinker
