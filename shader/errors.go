package shader

import (
	"fmt"
	"strings"
)

// CompileError carries the compiler log of a shader that failed to compile.
type CompileError struct {
	Name  string
	Stage uint32
	Log   string
}

func (e *CompileError) Error() string {
	name := e.Name
	if name == "" {
		name = StageName(e.Stage)
	}
	return fmt.Sprintf("failed to compile %s: %s", name, strings.TrimSpace(e.Log))
}

// LinkError carries the linker log of a program that failed to link.
type LinkError struct {
	Log string
}

func (e *LinkError) Error() string {
	return "failed to link program: " + strings.TrimSpace(e.Log)
}

// UniformResolutionError lists every member of a uniform block that could not
// be found in the program, or reports the block itself missing.
type UniformResolutionError struct {
	Block   string
	Missing []string
}

func (e *UniformResolutionError) Error() string {
	if len(e.Missing) == 0 {
		return fmt.Sprintf("couldn't find index of [%s]", e.Block)
	}
	return fmt.Sprintf("couldn't find members of [%s]: %s", e.Block, strings.Join(e.Missing, ", "))
}
