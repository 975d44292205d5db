package graphics

// Textures owns a set of 2D texture names. The zero value and a released set are
// empty; Release on an empty set does nothing.
type Textures struct {
	gl  GL
	ids []uint32
}

// NewTextures generates n textures configured for sampling a converted frame:
// clamp to edge, linear filtering, opaque black border.
func NewTextures(gl GL, n int) *Textures {
	t := &Textures{gl: gl, ids: gl.GenTextures(n)}
	border := []float32{0, 0, 0, 1}
	for _, id := range t.ids {
		gl.BindTexture(Texture2D, id)
		gl.TexParameteri(Texture2D, TextureWrapS, int32(ClampToEdge))
		gl.TexParameteri(Texture2D, TextureWrapT, int32(ClampToEdge))
		gl.TexParameteri(Texture2D, TextureMinFilter, int32(Linear))
		gl.TexParameteri(Texture2D, TextureMagFilter, int32(Linear))
		gl.TexParameterfv(Texture2D, TextureBorderColor, border)
	}
	gl.BindTexture(Texture2D, 0)
	return t
}

// ID returns the i'th texture name.
func (t *Textures) ID(i int) uint32 { return t.ids[i] }

// IDs returns the texture names; the slice must not be modified.
func (t *Textures) IDs() []uint32 { return t.ids }

func (t *Textures) Len() int {
	if t == nil {
		return 0
	}
	return len(t.ids)
}

// Release deletes the textures.
func (t *Textures) Release() {
	if t == nil || len(t.ids) == 0 {
		return
	}
	t.gl.DeleteTextures(t.ids)
	t.ids = nil
}

// Framebuffers owns a set of framebuffer names.
type Framebuffers struct {
	gl  GL
	ids []uint32
}

func NewFramebuffers(gl GL, n int) *Framebuffers {
	return &Framebuffers{gl: gl, ids: gl.GenFramebuffers(n)}
}

// Attach gives framebuffer i the texture textures[i] as its single color
// attachment. Extra textures are ignored.
func (f *Framebuffers) Attach(textures []uint32) {
	for i, tex := range textures {
		if i >= len(f.ids) {
			break
		}
		f.gl.BindFramebuffer(Framebuffer, f.ids[i])
		f.gl.BindTexture(Texture2D, tex)
		f.gl.FramebufferTexture(Framebuffer, ColorAttachment0, tex, 0)
	}
	f.gl.BindTexture(Texture2D, 0)
	f.gl.BindFramebuffer(Framebuffer, 0)
}

func (f *Framebuffers) ID(i int) uint32 { return f.ids[i] }

func (f *Framebuffers) Len() int {
	if f == nil {
		return 0
	}
	return len(f.ids)
}

func (f *Framebuffers) Release() {
	if f == nil || len(f.ids) == 0 {
		return
	}
	f.gl.DeleteFramebuffers(f.ids)
	f.ids = nil
}

// VertexArray is the empty vertex array bound while drawing the attribute-less
// full-screen triangle; core profiles reject draws without one.
type VertexArray struct {
	gl GL
	id uint32
}

func NewVertexArray(gl GL) *VertexArray {
	return &VertexArray{gl: gl, id: gl.GenVertexArrays(1)[0]}
}

func (v *VertexArray) Bind() { v.gl.BindVertexArray(v.id) }

func (v *VertexArray) Release() {
	if v == nil || v.id == 0 {
		return
	}
	v.gl.DeleteVertexArrays([]uint32{v.id})
	v.id = 0
}
