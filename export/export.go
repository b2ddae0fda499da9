package export

import (
	"bytes"
	"io"

	"github.com/pkg/errors"

	"github.com/mogaika/saturn_viewer/r3d"
	"github.com/mogaika/saturn_viewer/utils/gltfutils"
)

// Encoder writes an export prepared earlier. It never touches the scene.
type Encoder func(w io.Writer) error

// Formats lists what Prepare accepts. zip is fbx plus loaded textures as png.
var Formats = []string{"gltf", "glb", "fbx", "zip", "obj"}

// Prepare converts the scene under root while the caller owns it and returns
// the encoder of the result. name is the document name without extension.
func Prepare(root *r3d.Node, format, name string) (Encoder, error) {
	if name == "" {
		name = "scene"
	}

	switch format {
	case "gltf", "glb":
		doc, err := GLTF(root)
		if err != nil {
			return nil, err
		}
		return func(w io.Writer) error {
			return errors.Wrapf(gltfutils.Export(w, doc, format == "glb"), "Failed to encode gltf")
		}, nil
	case "fbx":
		f, _ := FBX(root, name+".fbx")
		return f.Write, nil
	case "zip":
		f, _ := FBX(root, name+".fbx")
		if err := AttachTextures(f, root); err != nil {
			return nil, err
		}
		return func(w io.Writer) error {
			return f.WriteZip(w, name+".fbx")
		}, nil
	case "obj":
		var buf bytes.Buffer
		if err := WriteOBJ(&buf, root); err != nil {
			return nil, err
		}
		return func(w io.Writer) error {
			_, err := io.Copy(w, &buf)
			return errors.Wrapf(err, "Failed to write obj")
		}, nil
	default:
		return nil, errors.Errorf("Unknown export format %q", format)
	}
}
