// Package interp evaluates programs of the host model.
//
// It exists to observe what a program does: values returned by calls and
// the side effects recorded by the log builtin. Linking must not change
// either, so tests run the same calls against a program before and after
// linking and compare the two.
//
// # Quick Start
//
//	rt, err := interp.New(program)
//	if err != nil {
//	    return err
//	}
//	obj, err := rt.Instantiate(ctx, "Calc")
//	if err != nil {
//	    return err
//	}
//	v, err := rt.Call(ctx, obj, "Add", interp.Int(1), interp.Int(2))
//	fmt.Println(v, rt.Log())
//
// # Semantics
//
// Values are 64-bit integers, booleans, strings, null, objects and handler
// lists. Methods declared virtual, abstract or override dispatch on the
// receiver's runtime type; base.M runs the member of the declaring type's
// base. Auto-implemented properties and field-like events store their
// state on the object. Invoking a handler list calls every handler in
// subscription order; a handler is the name of a registered function or
// of a builtin.
//
// # Builtins
//
//	log(args...)  - appends its arguments, space separated, to the log
package interp
