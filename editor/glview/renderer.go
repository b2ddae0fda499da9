package glview

import (
	_ "embed"
	"image"
	"sort"

	"github.com/go-gl/gl/v4.3-core/gl"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"github.com/mogaika/saturn_viewer/r3d"
	"github.com/mogaika/saturn_viewer/tableau"
)

//go:embed shaders/mesh.vert
var meshVertexShader string

//go:embed shaders/mesh.frag
var meshFragmentShader string

//go:embed shaders/skybox.vert
var skyboxVertexShader string

//go:embed shaders/skybox.frag
var skyboxFragmentShader string

//go:embed shaders/sprite.vert
var spriteVertexShader string

//go:embed shaders/sprite.frag
var spriteFragmentShader string

var shadingModes = map[r3d.Shading]int32{
	r3d.ShadingBasic:   0,
	r3d.ShadingLambert: 1,
	r3d.ShadingPhong:   2,
}

// Renderer draws frames of a scene into the current GL context.
// It reads the scene directly, so it has to run on the loop goroutine.
type Renderer struct {
	scene *r3d.Scene

	meshProgram   *Program
	skyboxProgram *Program
	spriteProgram *Program
	quad          *gpuQuad

	meshes   map[*r3d.Geometry]*gpuMesh
	textures map[*r3d.Texture]uint32
	cubes    map[*r3d.CubeTexture]uint32
	// flare textures are referenced by url in frames
	flareTextures map[string]*r3d.Texture

	textureLimit int
}

func NewRenderer(scene *r3d.Scene) (*Renderer, error) {
	r := &Renderer{
		scene:         scene,
		meshes:        make(map[*r3d.Geometry]*gpuMesh),
		textures:      make(map[*r3d.Texture]uint32),
		cubes:         make(map[*r3d.CubeTexture]uint32),
		flareTextures: make(map[string]*r3d.Texture),
		textureLimit:  maxTextureSize(),
	}

	var err error
	if r.meshProgram, err = LoadProgram(meshVertexShader, meshFragmentShader); err != nil {
		return nil, errors.Wrap(err, "mesh program")
	}
	if r.skyboxProgram, err = LoadProgram(skyboxVertexShader, skyboxFragmentShader); err != nil {
		r.meshProgram.Delete()
		return nil, errors.Wrap(err, "skybox program")
	}
	if r.spriteProgram, err = LoadProgram(spriteVertexShader, spriteFragmentShader); err != nil {
		r.meshProgram.Delete()
		r.skyboxProgram.Delete()
		return nil, errors.Wrap(err, "sprite program")
	}
	r.quad = newQuad()

	scene.Root.Walk(func(n *r3d.Node, _ int) bool {
		if n.Flare != nil {
			for _, e := range n.Flare.Elements {
				if e.Texture != nil {
					r.flareTextures[e.Texture.URL] = e.Texture
				}
			}
		}
		return true
	})
	return r, nil
}

func (r *Renderer) Delete() {
	for _, m := range r.meshes {
		m.delete()
	}
	for _, id := range r.textures {
		gl.DeleteTextures(1, &id)
	}
	for _, id := range r.cubes {
		gl.DeleteTextures(1, &id)
	}
	r.quad.delete()
	r.meshProgram.Delete()
	r.skyboxProgram.Delete()
	r.spriteProgram.Delete()
}

func (r *Renderer) mesh(g *r3d.Geometry) *gpuMesh {
	m, ok := r.meshes[g]
	if !ok {
		m = uploadGeometry(g)
		r.meshes[g] = m
	}
	return m
}

// texture uploads tex once its image has arrived
func (r *Renderer) texture(tex *r3d.Texture) (uint32, bool) {
	if tex == nil {
		return 0, false
	}
	if id, ok := r.textures[tex]; ok {
		return id, true
	}
	if !tex.Ready() {
		return 0, false
	}
	id := uploadTexture(tex.Image(), r.textureLimit)
	r.textures[tex] = id
	return id, true
}

func (r *Renderer) cube(c *r3d.CubeTexture) (uint32, bool) {
	if c == nil {
		return 0, false
	}
	if id, ok := r.cubes[c]; ok {
		return id, true
	}
	if !c.Ready() {
		return 0, false
	}
	var faces [6]image.Image
	for i, f := range c.Faces {
		faces[i] = f.Image()
	}
	id := uploadCube(faces, r.textureLimit)
	r.cubes[c] = id
	return id, true
}

type lighting struct {
	ambient  mgl32.Vec3
	point    *r3d.Light
	position mgl32.Vec3
}

func (r *Renderer) collectLights() lighting {
	var l lighting
	r.scene.Root.Walk(func(n *r3d.Node, _ int) bool {
		if n.Light == nil {
			return true
		}
		c := mgl32.Vec3(n.Light.Color.RGB()).Mul(n.Light.Intensity)
		switch n.Light.Kind {
		case r3d.LightAmbient:
			l.ambient = l.ambient.Add(c)
		case r3d.LightPoint:
			if l.point == nil {
				l.point = n.Light
				l.position = n.WorldPosition()
			}
		}
		return true
	})
	return l
}

type drawItem struct {
	state    tableau.NodeState
	mesh     *r3d.Mesh
	distance float32
}

// Render draws f into the default framebuffer of size width x height
func (r *Renderer) Render(f *tableau.Frame, width, height int) {
	gl.Viewport(0, 0, int32(width), int32(height))
	gl.ClearColor(0, 0, 0, 1)
	gl.ClearDepth(1)
	gl.DepthMask(true)
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)

	projectView := f.Camera.Projection.Mul4(f.Camera.View)

	var sky, opaque, transparent []drawItem
	for _, ns := range f.Nodes {
		n, ok := r.scene.Node(ns.Id)
		if !ok || n.Mesh == nil {
			continue
		}
		item := drawItem{state: ns, mesh: n.Mesh}
		switch {
		case n.Mesh.Material.Shading == r3d.ShadingSkybox:
			sky = append(sky, item)
		case n.Mesh.Material.Transparent || n.Mesh.Material.Opacity < 1:
			item.distance = ns.World.Col(3).Vec3().Sub(f.Camera.Eye).Len()
			transparent = append(transparent, item)
		default:
			opaque = append(opaque, item)
		}
	}
	sort.Slice(transparent, func(i, j int) bool {
		return transparent[i].distance > transparent[j].distance
	})

	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LEQUAL)

	r.drawSky(projectView, sky)

	gl.Disable(gl.BLEND)
	r.drawMeshes(f, projectView, opaque)

	gl.Enable(gl.BLEND)
	gl.BlendEquation(gl.FUNC_ADD)
	gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
	r.drawMeshes(f, projectView, transparent)

	if f.Flare.Visible {
		r.drawFlare(f.Flare, width, height)
	}

	gl.DepthMask(true)
	gl.Disable(gl.BLEND)
	gl.Disable(gl.CULL_FACE)
}

func setSide(side r3d.Side) {
	switch side {
	case r3d.SideDouble:
		gl.Disable(gl.CULL_FACE)
	case r3d.SideBack:
		gl.Enable(gl.CULL_FACE)
		gl.CullFace(gl.FRONT)
	default:
		gl.Enable(gl.CULL_FACE)
		gl.CullFace(gl.BACK)
	}
}

func (r *Renderer) drawSky(projectView mgl32.Mat4, items []drawItem) {
	p := r.skyboxProgram
	gl.UseProgram(p.Id)
	p.SetMat4("umProjectView", projectView)
	p.SetInt("uCube", 0)

	for _, item := range items {
		m := item.mesh.Material
		setSide(m.Side)
		gl.DepthMask(m.DepthWrite)

		p.SetMat4("umModel", item.state.World)
		p.SetVec4("uColor", m.Color)

		gl.ActiveTexture(gl.TEXTURE0)
		if id, ok := r.cube(m.CubeMap); ok {
			gl.BindTexture(gl.TEXTURE_CUBE_MAP, id)
			p.SetBool("uUseTexture", true)
		} else {
			gl.BindTexture(gl.TEXTURE_CUBE_MAP, 0)
			p.SetBool("uUseTexture", false)
		}
		r.mesh(item.mesh.Geometry).draw()
	}
	gl.BindTexture(gl.TEXTURE_CUBE_MAP, 0)
	gl.DepthMask(true)
}

func (r *Renderer) drawMeshes(f *tableau.Frame, projectView mgl32.Mat4, items []drawItem) {
	if len(items) == 0 {
		return
	}
	lights := r.collectLights()

	p := r.meshProgram
	gl.UseProgram(p.Id)
	p.SetMat4("umProjectView", projectView)
	p.SetInt("uTexture", 0)
	p.SetVec3("uEye", f.Camera.Eye)
	p.SetVec3("uAmbient", lights.ambient)
	p.SetBool("uUseLight", lights.point != nil)
	if lights.point != nil {
		p.SetVec3("uLightPosition", lights.position)
		p.SetVec3("uLightColor", mgl32.Vec3(lights.point.Color.RGB()).Mul(lights.point.Intensity))
		p.SetFloat("uLightDistance", lights.point.Distance)
		p.SetFloat("uLightDecay", lights.point.Decay)
	}

	for _, item := range items {
		m := item.mesh.Material
		setSide(m.Side)
		gl.DepthMask(m.DepthWrite)

		p.SetMat4("umModel", item.state.World)
		p.SetMat3("umNormal", item.state.World.Mat3().Inv().Transpose())
		p.SetInt("uShading", shadingModes[m.Shading])
		p.SetVec4("uColor", [4]float32{m.Color[0], m.Color[1], m.Color[2], m.Opacity})
		p.SetVec3("uEmissive", m.Emissive.RGB())
		p.SetVec3("uSpecular", m.Specular.RGB())
		p.SetFloat("uShininess", m.Shininess)

		gl.ActiveTexture(gl.TEXTURE0)
		if id, ok := r.texture(m.Map); ok {
			gl.BindTexture(gl.TEXTURE_2D, id)
			p.SetBool("uUseTexture", true)
		} else {
			gl.BindTexture(gl.TEXTURE_2D, 0)
			p.SetBool("uUseTexture", false)
		}
		r.mesh(item.mesh.Geometry).draw()
	}
	gl.BindTexture(gl.TEXTURE_2D, 0)
}

func (r *Renderer) drawFlare(flare tableau.FlareState, width, height int) {
	p := r.spriteProgram
	gl.UseProgram(p.Id)
	p.SetInt("uTexture", 0)
	p.SetVec2("uViewport", mgl32.Vec2{float32(width), float32(height)})

	gl.Disable(gl.DEPTH_TEST)
	gl.Disable(gl.CULL_FACE)
	gl.Enable(gl.BLEND)

	for _, e := range flare.Elements {
		if e.Additive {
			gl.BlendFunc(gl.SRC_ALPHA, gl.ONE)
		} else {
			gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
		}

		p.SetVec2("uCenter", mgl32.Vec2{e.X, e.Y})
		p.SetFloat("uSize", e.Size)
		p.SetFloat("uRotation", e.Rotation)
		p.SetVec4("uColor", e.Color)
		p.SetFloat("uOpacity", e.Opacity)

		gl.ActiveTexture(gl.TEXTURE0)
		if id, ok := r.texture(r.flareTextures[e.Texture]); ok {
			gl.BindTexture(gl.TEXTURE_2D, id)
			p.SetBool("uUseTexture", true)
		} else {
			gl.BindTexture(gl.TEXTURE_2D, 0)
			p.SetBool("uUseTexture", false)
		}
		r.quad.draw()
	}

	gl.BindTexture(gl.TEXTURE_2D, 0)
	gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
	gl.Enable(gl.DEPTH_TEST)
}
