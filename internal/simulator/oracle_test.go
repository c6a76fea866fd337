package simulator_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"devicemips/internal/codegen"
	"devicemips/internal/ir"
	"devicemips/internal/regalloc"
	"devicemips/internal/simulator"
	"devicemips/internal/surface"
)

// compile drives source through the full Build->Optimize->Allocate->Generate
// pipeline exactly as cmd/devicemips-cli does, returning a fresh State ready
// to Tick. This is the harness for spec §8's oracle tests: the simulator is
// the ground truth the rest of the middle end is checked against.
func compile(t *testing.T, source string) *simulator.State {
	t.Helper()
	prog, err := surface.Parse("oracle.dm", source)
	require.NoError(t, err)

	irProg, err := ir.Build(prog)
	require.NoError(t, err)
	ir.Optimize(irProg)

	alloc, err := regalloc.Allocate(irProg)
	require.NoError(t, err)

	mipsProg, err := codegen.Generate(irProg, alloc)
	require.NoError(t, err)

	return simulator.New(mipsProg)
}

func TestOracleDirectStore(t *testing.T) {
	s := compile(t, `store(d0, Setting, 1);`)
	result, err := s.Tick()
	require.NoError(t, err)
	assert.Equal(t, simulator.End, result)
	assert.Equal(t, 1.0, s.Device("d0", "Setting"))
}

func TestOracleFieldWrite(t *testing.T) {
	s := compile(t, `d0.Setting = 1;`)
	result, err := s.Tick()
	require.NoError(t, err)
	assert.Equal(t, simulator.End, result)
	assert.Equal(t, 1.0, s.Device("d0", "Setting"))
}

func TestOracleChainedLets(t *testing.T) {
	s := compile(t, `let x = 1; let y = x + 2; store(d0, Setting, y);`)
	result, err := s.Tick()
	require.NoError(t, err)
	assert.Equal(t, simulator.End, result)
	assert.Equal(t, 3.0, s.Device("d0", "Setting"))
}

func TestOracleLoadThenStore(t *testing.T) {
	s := compile(t, `store(d0, Setting, d0.Setting + 2);`)
	s.SetDevice("d0", "Setting", 2.0)
	result, err := s.Tick()
	require.NoError(t, err)
	assert.Equal(t, simulator.End, result)
	assert.Equal(t, 4.0, s.Device("d0", "Setting"))
}

func TestOracleIfElseBranchesOnLoad(t *testing.T) {
	const src = `if load(d0, Setting) > 5 { store(d0, Setting, 1); } else { store(d0, Setting, 2); }`

	s := compile(t, src)
	s.SetDevice("d0", "Setting", 8.0)
	result, err := s.Tick()
	require.NoError(t, err)
	assert.Equal(t, simulator.End, result)
	assert.Equal(t, 1.0, s.Device("d0", "Setting"), "8 > 5 takes the then branch")

	s2 := compile(t, src)
	s2.SetDevice("d0", "Setting", 2.0)
	result, err = s2.Tick()
	require.NoError(t, err)
	assert.Equal(t, simulator.End, result)
	assert.Equal(t, 2.0, s2.Device("d0", "Setting"), "2 is not > 5, takes the else branch")
}

// TestOracleLoopYieldsEachIteration is spec §8 oracle test 6: x is carried
// around the loop's back-edge through the body's phi, which is resolved
// when the body is sealed, so a wrong phi would surface here as a wrong or
// zero device value instead of 1.0/2.0.
func TestOracleLoopYieldsEachIteration(t *testing.T) {
	s := compile(t, `let x = 0; loop { x = x + 1; store(d0, Setting, x); yield; }`)

	result, err := s.Tick()
	require.NoError(t, err)
	assert.Equal(t, simulator.Yield, result)
	assert.Equal(t, 1.0, s.Device("d0", "Setting"))

	result, err = s.Tick()
	require.NoError(t, err)
	assert.Equal(t, simulator.Yield, result)
	assert.Equal(t, 2.0, s.Device("d0", "Setting"))
}

// TestOracleLoopWithNestedIfPropagatesSealing exercises the exact shape the
// maintainer flagged: an if inside a loop body, with no else, whose
// then-branch assignment must still reach the loop's back-edge phi. Without
// sealing propagation the if-join's read of x resolves to an empty,
// unresolved Phi and the stored value is never written.
func TestOracleLoopWithNestedIfPropagatesSealing(t *testing.T) {
	const src = `let x = 0; loop { if x < 10 { x = x + 1; } store(d0, Setting, x); yield; }`

	s := compile(t, src)
	for want := 1.0; want <= 10; want++ {
		result, err := s.Tick()
		require.NoError(t, err)
		assert.Equal(t, simulator.Yield, result)
		assert.Equal(t, want, s.Device("d0", "Setting"), "iteration stopped incrementing x")
	}

	// once x == 10 the condition is false on every later iteration, so
	// the stored value stops changing instead of reverting to 0.
	result, err := s.Tick()
	require.NoError(t, err)
	assert.Equal(t, simulator.Yield, result)
	assert.Equal(t, 10.0, s.Device("d0", "Setting"))
}
