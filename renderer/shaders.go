package renderer

import (
	"context"
	"io/fs"

	"github.com/cockroachdb/errors"
	"golang.org/x/sync/errgroup"
)

// Shaders holds compiled SPIR-V for the vertex and fragment stages.
type Shaders struct {
	Vertex   []byte
	Fragment []byte
}

func (s Shaders) bytecode() (vertex, fragment []uint32, err error) {
	vertex, err = Bytecode(s.Vertex)
	if err != nil {
		return nil, nil, errors.Wrap(err, "vertex shader")
	}

	fragment, err = Bytecode(s.Fragment)
	if err != nil {
		return nil, nil, errors.Wrap(err, "fragment shader")
	}

	return vertex, fragment, nil
}

// Bytecode reinterprets b as little-endian 32-bit words.
func Bytecode(b []byte) ([]uint32, error) {
	if len(b)%4 != 0 {
		return nil, errors.Wrapf(ErrMisalignedBytecode, "%d bytes", len(b))
	}

	code := make([]uint32, len(b)/4)
	for i := range code {
		offset := i * 4
		code[i] = uint32(b[offset]) |
			uint32(b[offset+1])<<8 |
			uint32(b[offset+2])<<16 |
			uint32(b[offset+3])<<24
	}

	return code, nil
}

// LoadShaders reads both stages from fsys concurrently.
func LoadShaders(ctx context.Context, fsys fs.FS, vertexPath, fragmentPath string) (Shaders, error) {
	var shaders Shaders

	g, ctx := errgroup.WithContext(ctx)
	load := func(path string, dst *[]byte) func() error {
		return func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			data, err := fs.ReadFile(fsys, path)
			if err != nil {
				return errors.Wrapf(err, "read shader %s", path)
			}
			if _, err := Bytecode(data); err != nil {
				return errors.Wrapf(err, "shader %s", path)
			}

			*dst = data
			return nil
		}
	}

	g.Go(load(vertexPath, &shaders.Vertex))
	g.Go(load(fragmentPath, &shaders.Fragment))

	if err := g.Wait(); err != nil {
		return Shaders{}, err
	}
	return shaders, nil
}
