package shader

import (
	"embed"
	"fmt"
	"io/fs"
)

//go:embed assets/*.vert assets/*.frag
var embedded embed.FS

// Assets holds the built-in shader sources, named as LoadSources expects.
var Assets fs.FS

func init() {
	sub, err := fs.Sub(embedded, "assets")
	if err != nil {
		panic(err)
	}
	Assets = sub
}

// Asset file names.
const (
	SceneVert     = "scene.vert"
	SceneFrag     = "scene.frag"
	ConvertYFrag  = "convert_y.frag"
	ConvertUVVert = "convert_uv.vert"
	ConvertUVFrag = "convert_uv.frag"
)

// Sources are the GLSL texts of the conversion pipeline.
type Sources struct {
	SceneVert     string
	SceneFrag     string
	ConvertYFrag  string
	ConvertUVVert string
	ConvertUVFrag string
}

// LoadSources reads the five shader assets from fsys. Every one is required.
func LoadSources(fsys fs.FS) (Sources, error) {
	var src Sources
	files := []struct {
		name string
		dst  *string
	}{
		{SceneVert, &src.SceneVert},
		{SceneFrag, &src.SceneFrag},
		{ConvertYFrag, &src.ConvertYFrag},
		{ConvertUVVert, &src.ConvertUVVert},
		{ConvertUVFrag, &src.ConvertUVFrag},
	}
	for _, f := range files {
		b, err := fs.ReadFile(fsys, f.name)
		if err != nil {
			return Sources{}, fmt.Errorf("failed to read shader %s: %w", f.name, err)
		}
		*f.dst = string(b)
	}
	return src, nil
}
