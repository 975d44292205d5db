package graphics_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/richinsley/gpunv12/graphics"
	"github.com/richinsley/gpunv12/graphics/gltest"
)

func TestTexturesRelease(t *testing.T) {
	gl := gltest.New()
	tex := graphics.NewTextures(gl, 2)
	require.Equal(t, 2, tex.Len())
	assert.NotEqual(t, tex.ID(0), tex.ID(1))

	live, _, _, _, _ := gl.Live()
	assert.Equal(t, 2, live)

	tex.Release()
	tex.Release()
	live, _, _, _, _ = gl.Live()
	assert.Zero(t, live)
	assert.Zero(t, tex.Len())

	var empty *graphics.Textures
	empty.Release()
	assert.Zero(t, empty.Len())
}

func TestFramebuffersAttach(t *testing.T) {
	gl := gltest.New()
	tex := graphics.NewTextures(gl, 2)
	fbs := graphics.NewFramebuffers(gl, 2)
	fbs.Attach(tex.IDs())

	for i := 0; i < fbs.Len(); i++ {
		assert.Equal(t, tex.ID(i), gl.Framebuffers[fbs.ID(i)])
		gl.BindFramebuffer(graphics.Framebuffer, fbs.ID(i))
		assert.Equal(t, graphics.FramebufferComplete, gl.CheckFramebufferStatus(graphics.Framebuffer))
	}
	assert.Empty(t, graphics.DrainErrors(gl, "attach"))

	fbs.Release()
	tex.Release()
	_, live, _, _, _ := gl.Live()
	assert.Zero(t, live)
}

func TestVertexArrayRelease(t *testing.T) {
	gl := gltest.New()
	vao := graphics.NewVertexArray(gl)
	assert.Len(t, gl.VertexArrays, 1)
	vao.Release()
	vao.Release()
	assert.Empty(t, gl.VertexArrays)
}
