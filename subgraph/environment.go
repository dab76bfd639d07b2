package subgraph

import (
	"fmt"
	"sync"
)

var (
	compilersMu sync.Mutex
	compilers   = make(map[Accelerator]Compiler)
)

// RegisterCompiler registers the Compiler used for a given accelerator.
// Called from accelerator packages' init functions (subgraph/cpu, and any
// GPU/NPU delegate package a host process links in). Panics on a duplicate
// registration, mirroring the teacher's backend registry discipline.
func RegisterCompiler(accel Accelerator, c Compiler) {
	compilersMu.Lock()
	defer compilersMu.Unlock()
	if _, ok := compilers[accel]; ok {
		panic(fmt.Sprintf("subgraph: compiler for %s already registered", accel))
	}
	compilers[accel] = c
}

// Environment is the execution context compiled subgraphs run inside. The
// spec treats the underlying execution environment as a per-process
// singleton "in spirit"; this runtime makes it an explicit, constructible
// value instead, so tests can instantiate isolated environments rather than
// sharing global state.
type Environment struct {
	opts CompileOptions
}

// NewEnvironment builds an execution environment. dispatchLibraryPath may
// be empty; when set it is threaded through to every Compile call (spec
// §4.4.2 step 1).
func NewEnvironment(dispatchLibraryPath string, numThreads int) *Environment {
	return &Environment{opts: CompileOptions{
		DispatchLibraryPath: dispatchLibraryPath,
		NumThreads:          numThreads,
	}}
}

// Compile compiles modelBytes for the given accelerator.
func (e *Environment) Compile(accel Accelerator, modelBytes []byte) (Handle, error) {
	compilersMu.Lock()
	c, ok := compilers[accel]
	compilersMu.Unlock()
	if !ok {
		return nil, fmt.Errorf("subgraph: no compiler registered for accelerator %s", accel)
	}
	return c(modelBytes, e.opts)
}
