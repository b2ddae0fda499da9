package export

import (
	"bufio"
	"fmt"
	"io"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"github.com/mogaika/saturn_viewer/r3d"
)

// WriteOBJ dumps every mesh under root as a separate object with vertices
// baked into world space. Materials are not written.
func WriteOBJ(w io.Writer, root *r3d.Node) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "# saturn_viewer scene\n")

	offsets := &objOffsets{v: 1, vt: 1, vn: 1}
	root.Walk(func(n *r3d.Node, depth int) bool {
		if n.Mesh != nil {
			writeObjMesh(bw, n, offsets)
		}
		return true
	})

	return errors.Wrapf(bw.Flush(), "Failed to write obj")
}

// obj indices are global and 1-based, separately for each element kind
type objOffsets struct {
	v, vt, vn uint32
}

func writeObjMesh(w io.Writer, n *r3d.Node, o *objOffsets) {
	g := n.Mesh.Geometry
	world := n.WorldTransform()
	normalMatrix := world.Mat3().Inv().Transpose()

	haveUV := len(g.UVs) == len(g.Positions)
	haveNormals := len(g.Normals) == len(g.Positions)

	fmt.Fprintf(w, "o %s\n", n.Name)
	for _, p := range g.Positions {
		v := mgl32.TransformCoordinate(p, world)
		fmt.Fprintf(w, "v %f %f %f\n", v[0], v[1], v[2])
	}
	if haveUV {
		for _, uv := range g.UVs {
			fmt.Fprintf(w, "vt %f %f\n", uv[0], uv[1])
		}
	}
	if haveNormals {
		for _, nr := range g.Normals {
			v := normalMatrix.Mul3x1(nr).Normalize()
			fmt.Fprintf(w, "vn %f %f %f\n", v[0], v[1], v[2])
		}
	}

	for i := 0; i+2 < len(g.Indices); i += 3 {
		fmt.Fprintf(w, "f")
		for _, idx := range g.Indices[i : i+3] {
			switch {
			case haveUV && haveNormals:
				fmt.Fprintf(w, " %d/%d/%d", idx+o.v, idx+o.vt, idx+o.vn)
			case haveUV:
				fmt.Fprintf(w, " %d/%d", idx+o.v, idx+o.vt)
			case haveNormals:
				fmt.Fprintf(w, " %d//%d", idx+o.v, idx+o.vn)
			default:
				fmt.Fprintf(w, " %d", idx+o.v)
			}
		}
		fmt.Fprintf(w, "\n")
	}

	count := uint32(len(g.Positions))
	o.v += count
	if haveUV {
		o.vt += count
	}
	if haveNormals {
		o.vn += count
	}
}
