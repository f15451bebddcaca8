package linker_test

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"testing"

	"github.com/wippyai/aspect-linker/aspect"
	"github.com/wippyai/aspect-linker/ast"
	"github.com/wippyai/aspect-linker/linker"
	"github.com/wippyai/aspect-linker/linker/internal/linktest"
)

// benchInput builds types each with a method overridden by every layer.
func benchInput(b *testing.B, types, layers int) linker.Input {
	var src strings.Builder
	src.WriteString("(program\n")
	for i := 0; i < types; i++ {
		fmt.Fprintf(&src, "  (type T%d (method Run public (param x int) (result int) (body (return (+ x %d)))))\n", i, i)
	}
	src.WriteString(")")

	ids := make([]ast.LayerID, layers)
	var trs []aspect.Transformation
	for l := range ids {
		ids[l] = ast.LayerID(fmt.Sprintf("L%d", l))
		for i := 0; i < types; i++ {
			tmpl := fmt.Sprintf(`(method Run (param x int) (result int) (body (call log "L%d") (return (ref L%d default (call Run x)))))`, l, l)
			trs = append(trs, linktest.Override(b, ids[l], fmt.Sprintf("T%d", i), "Run", tmpl))
		}
	}
	return linker.Input{
		Program:         linktest.Program(b, src.String()),
		Layers:          linktest.Layers(b, ids...),
		Transformations: trs,
	}
}

func BenchmarkLink_Serial(b *testing.B) {
	in := benchInput(b, 32, 4)
	in.Options.Concurrency = 1
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := linker.Link(ctx, in); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkLink_Parallel(b *testing.B) {
	in := benchInput(b, 32, 4)
	in.Options.Concurrency = runtime.GOMAXPROCS(0)
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := linker.Link(ctx, in); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkLink_DeepChain(b *testing.B) {
	in := benchInput(b, 1, 64)
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := linker.Link(ctx, in); err != nil {
			b.Fatal(err)
		}
	}
}
