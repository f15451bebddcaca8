// Package source reads and writes programs in a compact s-expression form.
//
// The format covers the host model consumed by the linker: types with a base
// type and interface list, methods, properties, events and fields, and a small
// statement language. Placeholders left by template expansion are written as
// (ref LAYER ORDER [ACCESSOR] EXPR).
//
//	prog, err := source.Parse(`(program
//		(type Account
//			(field balance private (type int))
//			(method Deposit public virtual (param amount int)
//				(body (= balance (+ balance amount))))))`)
//
// Statements:
//   - (block S*) (expr E) (return [E]) (local NAME TYPE [E])
//   - (if C S [S]) (while C S) (goto L) (label L [S]) (throw E) (empty)
//   - any other form is an expression statement
//
// Expressions:
//   - identifiers, integers, strings, this, base, null, true, false
//   - (call F A*) (. X NAME) (cast TYPE X) (= L R) (+= L R) (-= L R)
//   - binary operators (+ - * / % < > <= >= == != && ||), (! X), (neg X)
//
// Print produces the canonical form, so Parse(Print(p)) reproduces p.
package source
