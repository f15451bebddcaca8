package rewrite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/wippyai/aspect-linker/aspect"
	"github.com/wippyai/aspect-linker/ast"
	"github.com/wippyai/aspect-linker/errors"
	"github.com/wippyai/aspect-linker/linker/internal/analysis"
	"github.com/wippyai/aspect-linker/linker/internal/linktest"
	"github.com/wippyai/aspect-linker/linker/internal/resolve"
	"github.com/wippyai/aspect-linker/source"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const shop = `(program
  (type Cart
    (method Total public (param n int) (result int)
      (body
        (if (< n 0) (return 0))
        (return (* n 10))))
    (event Changed public (type Handler))
    (method Notify public (body (call Changed)))))`

func run(t *testing.T, cfg Config, trs ...aspect.Transformation) *Result {
	t.Helper()
	reg := linktest.Run(t, shop, []ast.LayerID{"L1", "L2"}, trs...)
	an, err := analysis.Run(context.Background(), reg, resolve.New(reg), analysis.Config{})
	require.NoError(t, err)
	res, err := Run(context.Background(), reg, an, cfg)
	require.NoError(t, err)
	return res
}

func member(t *testing.T, p *ast.Program, typ, name string) string {
	t.Helper()
	ms := p.Type(typ).FindMembers(name)
	require.Len(t, ms, 1, "%s.%s", typ, name)
	return ast.FormatMember(ms[0])
}

func TestDispositionString(t *testing.T) {
	assert.Equal(t, "kept-linked", KeptLinked.String())
	assert.Equal(t, "inlined", InlinedIntoCaller.String())
	assert.Equal(t, "trampoline", Trampoline.String())
	assert.Equal(t, "discarded", Discarded.String())
	assert.Equal(t, "disposition(9)", Disposition(9).String())
}

func TestRunNormalizesEarlyReturns(t *testing.T) {
	res := run(t, Config{}, linktest.Override(t, "L1", "Cart", "Total",
		`(method Total (param n int) (result int)
		   (body (local r int (ref L1 default (call Total n))) (return (+ r 1))))`))

	want := `public int Total(int n)
{
    {
        int r;
        {
            if (n < 0)
            {
                r = 0;
                goto __Total_exit1;
            }
            {
                r = n * 10;
                goto __Total_exit1;
            }
        __Total_exit1:
            ;
        }
        return r + 1;
    }
}
`
	assert.Equal(t, want, member(t, res.Program, "Cart", "Total"))

	var dispositions []Disposition
	for _, d := range res.Decisions {
		dispositions = append(dispositions, d.Disposition)
	}
	assert.Equal(t, []Disposition{InlinedIntoCaller, KeptLinked, InlinedIntoCaller}, dispositions)
}

func TestRunFieldLikeEvent(t *testing.T) {
	res := run(t, Config{}, linktest.Override(t, "L1", "Cart", "Changed",
		`(event Changed (type Handler) (add (call log "add") (ref L1 default (+= (. this Changed) value))))`))

	cart := res.Program.Type("Cart")
	var names []string
	for _, m := range cart.Members {
		names = append(names, m.MemberName())
	}
	assert.Equal(t, []string{"Total", "__Changed_BackingField", "Changed", "Notify"}, names)

	assert.Equal(t, `public event Handler Changed
{
    add
    {
        {
            log("add");
            {
                this.__Changed_BackingField += value;
            }
        }
    }
    remove
    {
        {
            this.__Changed_BackingField -= value;
        }
    }
}
`, member(t, res.Program, "Cart", "Changed"))

	// raising the event reads the backing field
	assert.Equal(t, `public void Notify()
{
    __Changed_BackingField();
}
`, member(t, res.Program, "Cart", "Notify"))
}

func TestRunKeepsRecursiveEntry(t *testing.T) {
	res := run(t, Config{}, linktest.Override(t, "L1", "Cart", "Total",
		`(method Total (param n int) (result int)
		   (body (if (> n 100) (return (ref L1 final (call Total 100)))) (return (ref L1 default (call Total n)))))`))

	ds := map[string]Disposition{}
	for _, d := range res.Decisions {
		ds[d.Body+" "+d.Key.Semantic.String()] = d.Disposition
	}
	assert.Equal(t, InlinedIntoCaller, ds["Cart.Total_L1 default"])
	assert.Equal(t, InlinedIntoCaller, ds["Cart.Total original"])
	assert.Equal(t, KeptLinked, ds["Cart.Total public"])
	assert.Contains(t, member(t, res.Program, "Cart", "Total"), "return this.Total(100);")
}

func TestRunParameterWritesBlockInlining(t *testing.T) {
	reg := linktest.Run(t, `(program
	  (type Cart
	    (method Clamp public (param n int) (result int)
	      (body (if (< n 0) (= n 0)) (return n)))))`,
		[]ast.LayerID{"L1"},
		linktest.Override(t, "L1", "Cart", "Clamp",
			`(method Clamp (param n int) (result int) (body (return (ref L1 default (call Clamp n)))))`))
	an, err := analysis.Run(context.Background(), reg, resolve.New(reg), analysis.Config{})
	require.NoError(t, err)
	res, err := Run(context.Background(), reg, an, Config{})
	require.NoError(t, err)

	for _, d := range res.Decisions {
		if d.Key.Semantic == analysis.SemanticOriginal {
			assert.Equal(t, KeptLinked, d.Disposition)
			assert.Equal(t, "Clamp_Source", d.Emitted)
		}
	}
}

func TestWritesParams(t *testing.T) {
	params := []ast.Param{{Name: "n", Type: "int"}}
	tests := []struct {
		name string
		body string
		want bool
	}{
		{"reads only", `(block (return (+ n 1)))`, false},
		{"assigns", `(block (= n 1) (return n))`, true},
		{"compound assign", `(block (+= n 1) (return n))`, true},
		{"redeclares", `(block (local n int 1) (return n))`, true},
		{"member write", `(block (= (. this n) 1))`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := source.ParseBlock(tt.body)
			require.NoError(t, err)
			assert.Equal(t, tt.want, writesParams(b, params))
		})
	}
	assert.False(t, writesParams(&ast.Block{}, nil))
}

func TestRunIsDeterministic(t *testing.T) {
	trs := func() []aspect.Transformation {
		return []aspect.Transformation{
			linktest.Override(t, "L1", "Cart", "Total",
				`(method Total (param n int) (result int) (body (return (+ (ref L1 default (call Total n)) 1))))`),
			linktest.Override(t, "L2", "Cart", "Total",
				`(method Total (param n int) (result int) (body (call log "L2") (return (ref L2 default (call Total n)))))`),
			linktest.Override(t, "L1", "Cart", "Changed",
				`(event Changed (type Handler) (add (ref L1 default (+= (. this Changed) value))))`),
		}
	}
	serial := run(t, Config{Concurrency: 1}, trs()...)
	for i := 0; i < 5; i++ {
		parallel := run(t, Config{Concurrency: 4}, trs()...)
		assert.Equal(t, ast.Format(serial.Program), ast.Format(parallel.Program))
		assert.Equal(t, serial.Decisions, parallel.Decisions)
	}
}

func TestRunCanceled(t *testing.T) {
	reg := linktest.Run(t, shop, []ast.LayerID{"L1"})
	an, err := analysis.Run(context.Background(), reg, resolve.New(reg), analysis.Config{})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Run(ctx, reg, an, Config{})
	var e *errors.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, errors.KindCanceled, e.Kind)
	assert.Equal(t, errors.PhaseRewrite, e.Phase)
}
