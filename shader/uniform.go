package shader

import (
	"fmt"

	"github.com/richinsley/gpunv12/graphics"
)

// Member is one named member of a uniform block and its raw bytes in the
// layout the shader expects.
type Member struct {
	Name  string
	Value []byte
}

// UniformBuffer is a uniform buffer object whose member offsets were resolved
// against one program. The layout never changes after creation.
type UniformBuffer struct {
	gl      graphics.GL
	id      uint32
	block   string
	size    int
	names   []string
	offsets []int
}

// DeclareUniformBlock resolves block and every member against program, packs
// the initial values at their offsets and uploads them into a new buffer.
// All members missing from the program are reported together.
func DeclareUniformBlock(gl graphics.GL, program *Program, block string, members []Member) (*UniformBuffer, error) {
	index := gl.GetUniformBlockIndex(program.id, block)
	if index == graphics.InvalidIndex {
		return nil, &UniformResolutionError{Block: block}
	}
	size := int(gl.GetActiveUniformBlockiv(program.id, index, graphics.UniformBlockDataSize))

	names := make([]string, len(members))
	for i, m := range members {
		names[i] = m.Name
	}
	indices := gl.GetUniformIndices(program.id, names)

	var missing []string
	for i, idx := range indices {
		if idx == graphics.InvalidIndex {
			missing = append(missing, names[i])
		}
	}
	if len(missing) > 0 {
		return nil, &UniformResolutionError{Block: block, Missing: missing}
	}

	raw := gl.GetActiveUniformsiv(program.id, indices, graphics.UniformOffset)
	offsets := make([]int, len(raw))
	for i, off := range raw {
		offsets[i] = int(off)
	}

	u := &UniformBuffer{gl: gl, block: block, size: size, names: names, offsets: offsets}
	data, err := u.pack(members)
	if err != nil {
		return nil, err
	}

	u.id = gl.GenBuffers(1)[0]
	gl.BindBuffer(graphics.UniformBuffer, u.id)
	gl.BufferData(graphics.UniformBuffer, data, graphics.DynamicDraw)
	gl.BindBuffer(graphics.UniformBuffer, 0)
	graphics.DrainErrors(gl, "uniform block "+block)
	return u, nil
}

// pack copies every member to its offset in a fresh buffer. members must hold
// a value for each resolved name, in any order.
func (u *UniformBuffer) pack(members []Member) ([]byte, error) {
	values := make(map[string][]byte, len(members))
	for _, m := range members {
		values[m.Name] = m.Value
	}
	data := make([]byte, u.size)
	for i, name := range u.names {
		v, ok := values[name]
		if !ok {
			return nil, fmt.Errorf("no value for [%s.%s]", u.block, name)
		}
		if u.offsets[i] < 0 || u.offsets[i]+len(v) > u.size {
			return nil, fmt.Errorf("[%s.%s] of %d bytes at offset %d overflows block of %d bytes",
				u.block, name, len(v), u.offsets[i], u.size)
		}
		copy(data[u.offsets[i]:], v)
	}
	return data, nil
}

// Update re-packs all members and uploads the bytes from offset to the end of
// the block. Packing everything keeps the bytes outside the changed range
// consistent with the current values.
func (u *UniformBuffer) Update(members []Member, offset int) error {
	if offset < 0 || offset > u.size {
		return fmt.Errorf("offset %d outside block [%s] of %d bytes", offset, u.block, u.size)
	}
	data, err := u.pack(members)
	if err != nil {
		return err
	}
	u.gl.BindBuffer(graphics.UniformBuffer, u.id)
	u.gl.BufferSubData(graphics.UniformBuffer, offset, data[offset:])
	u.gl.BindBuffer(graphics.UniformBuffer, 0)
	graphics.DrainErrors(u.gl, "update uniform block "+u.block)
	return nil
}

func (u *UniformBuffer) ID() uint32 { return u.id }

func (u *UniformBuffer) Block() string { return u.block }

// Size returns the block size in bytes reported by the driver.
func (u *UniformBuffer) Size() int { return u.size }

// Offset returns the resolved byte offset of member name.
func (u *UniformBuffer) Offset(name string) (int, bool) {
	for i, n := range u.names {
		if n == name {
			return u.offsets[i], true
		}
	}
	return 0, false
}

func (u *UniformBuffer) Delete() {
	if u == nil || u.id == 0 {
		return
	}
	u.gl.DeleteBuffers([]uint32{u.id})
	u.id = 0
}
