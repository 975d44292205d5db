package graphics_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/richinsley/gpunv12/graphics"
	"github.com/richinsley/gpunv12/graphics/gltest"
)

func TestDrainErrorsEmptiesQueue(t *testing.T) {
	gl := gltest.New()
	gl.PushError(graphics.InvalidEnum)
	gl.PushError(graphics.OutOfMemory)

	drained := graphics.DrainErrors(gl, "test")
	require.Len(t, drained, 2)
	assert.Equal(t, graphics.GpuError{Site: "test", Code: graphics.InvalidEnum}, drained[0])
	assert.Equal(t, graphics.OutOfMemory, drained[1].Code)
	assert.Equal(t, graphics.NoError, gl.GetError())

	assert.Empty(t, graphics.DrainErrors(gl, "again"))
}

type stuckGL struct{ *gltest.GL }

func (stuckGL) GetError() uint32 { return graphics.InvalidOperation }

func TestDrainErrorsBounded(t *testing.T) {
	drained := graphics.DrainErrors(stuckGL{gltest.New()}, "stuck")
	assert.Len(t, drained, 64)
}

func TestGpuErrorMessage(t *testing.T) {
	err := graphics.GpuError{Site: "import", Code: graphics.InvalidValue}
	assert.Equal(t, "GL: import: [0x501] GL_INVALID_VALUE", err.Error())
	assert.Equal(t, "unknown", graphics.ErrorName(0x1234))
}
