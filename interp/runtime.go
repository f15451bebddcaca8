package interp

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/wippyai/aspect-linker/ast"
	"github.com/wippyai/aspect-linker/errors"
)

// DefaultMaxSteps bounds the statements and calls one Call may execute.
const DefaultMaxSteps = 1_000_000

// Func is a host function callable from programs by name.
type Func func(ctx context.Context, args []Value) (Value, error)

// Options configures a Runtime.
type Options struct {
	Logger *zap.Logger

	// MaxSteps bounds each call; zero means DefaultMaxSteps.
	MaxSteps int
}

// Runtime evaluates one program. Calls on a runtime are serialized; the
// program must not be modified while the runtime is in use.
type Runtime struct {
	mu       sync.Mutex
	program  *ast.Program
	log      *zap.Logger
	funcs    map[string]Func
	statics  map[string]Value
	entries  []string
	maxSteps int
	objects  int
}

// Object is an instance of a program type.
type Object struct {
	Type  *ast.TypeDecl
	slots map[string]Value
	id    int
}

// New creates a runtime for p and initializes its static state.
func New(p *ast.Program, opts ...Options) (*Runtime, error) {
	if p == nil {
		return nil, errors.InvalidInput(errors.PhaseEval, []string{"program"}, "program is nil")
	}
	var o Options
	if len(opts) > 0 {
		o = opts[0]
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	if o.MaxSteps <= 0 {
		o.MaxSteps = DefaultMaxSteps
	}
	r := &Runtime{
		program:  p,
		log:      o.Logger,
		funcs:    make(map[string]Func),
		statics:  make(map[string]Value),
		maxSteps: o.MaxSteps,
	}
	for _, t := range p.Types {
		if t.Base != "" && p.Type(t.Base) == nil {
			return nil, errors.NotFound(errors.PhaseEval, "base type "+t.Base+" of "+t.Name)
		}
	}

	c := r.call(context.Background())
	for _, t := range p.Types {
		for _, m := range t.Members {
			if !m.Modifiers().Has(ast.ModStatic) {
				continue
			}
			v, err := c.initial(t, nil, m)
			if err != nil {
				return nil, err
			}
			if v != nil {
				r.statics[slotKey(t, m.MemberName())] = *v
			}
		}
	}
	return r, nil
}

// RegisterFunc makes fn callable as name. Registered functions take
// precedence over builtins.
func (r *Runtime) RegisterFunc(name string, fn Func) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.funcs[name] = fn
}

// Log returns the lines recorded by the log builtin so far.
func (r *Runtime) Log() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.entries...)
}

// ResetLog clears the recorded lines.
func (r *Runtime) ResetLog() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = nil
}

// Instantiate creates an object of the named type, running the initializers
// of its instance fields and auto-implemented properties, base types first.
func (r *Runtime) Instantiate(ctx context.Context, typeName string) (*Object, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t := r.program.Type(typeName)
	if t == nil {
		return nil, errors.NotFound(errors.PhaseEval, "type "+typeName)
	}
	r.objects++
	o := &Object{Type: t, slots: make(map[string]Value), id: r.objects}

	chain := append([]*ast.TypeDecl{t}, r.program.Ancestors(t)...)
	c := r.call(ctx)
	for i := len(chain) - 1; i >= 0; i-- {
		for _, m := range chain[i].Members {
			if m.Modifiers().Has(ast.ModStatic) {
				continue
			}
			v, err := c.initial(chain[i], o, m)
			if err != nil {
				return nil, err
			}
			if v != nil {
				o.slots[slotKey(chain[i], m.MemberName())] = *v
			}
		}
	}
	return o, nil
}

// Call invokes a method of o with positional arguments.
func (r *Runtime) Call(ctx context.Context, o *Object, method string, args ...Value) (Value, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if o == nil {
		return Null, errors.InvalidInput(errors.PhaseEval, []string{"receiver"}, "receiver is nil")
	}
	c := r.call(ctx)
	return c.invoke(Obj(o), o.Type, method, args, false)
}

// CallStatic invokes a static method of the named type.
func (r *Runtime) CallStatic(ctx context.Context, typeName, method string, args ...Value) (Value, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t := r.program.Type(typeName)
	if t == nil {
		return Null, errors.NotFound(errors.PhaseEval, "type "+typeName)
	}
	c := r.call(ctx)
	return c.invoke(Null, t, method, args, false)
}

// Get reads a field, property or field-like event of o.
func (r *Runtime) Get(ctx context.Context, o *Object, name string) (Value, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := r.call(ctx)
	return c.read(Obj(o), o.Type, name, false)
}

// Set writes a field or property of o.
func (r *Runtime) Set(ctx context.Context, o *Object, name string, v Value) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := r.call(ctx)
	return c.write(Obj(o), o.Type, name, v, false)
}

// Subscribe adds or, with unsubscribe set, removes handler on event name
// of o through the event's accessors.
func (r *Runtime) Subscribe(ctx context.Context, o *Object, event string, handler Value, unsubscribe bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	op := "+="
	if unsubscribe {
		op = "-="
	}
	c := r.call(ctx)
	return c.compound(Obj(o), o.Type, event, op, handler, false)
}

func (r *Runtime) record(args []Value) {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = a.display()
	}
	line := strings.Join(parts, " ")
	r.entries = append(r.entries, line)
	r.log.Debug("log", zap.String("line", line))
}

// slotKey names the storage of a member declared by t.
func slotKey(t *ast.TypeDecl, name string) string {
	return t.Name + "." + name
}
