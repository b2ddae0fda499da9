package r3d

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// SphereGeometry builds a UV sphere. Poles keep one row of triangles,
// so a sphere has 2*w*(h-1) triangles.
func SphereGeometry(radius float32, widthSegments, heightSegments int) *Geometry {
	if widthSegments < 3 {
		widthSegments = 3
	}
	if heightSegments < 2 {
		heightSegments = 2
	}

	g := &Geometry{
		Name:      fmt.Sprintf("sphere_%v_%dx%d", radius, widthSegments, heightSegments),
		Positions: make([]mgl32.Vec3, 0, (widthSegments+1)*(heightSegments+1)),
		Normals:   make([]mgl32.Vec3, 0, (widthSegments+1)*(heightSegments+1)),
		UVs:       make([]mgl32.Vec2, 0, (widthSegments+1)*(heightSegments+1)),
	}

	grid := make([][]uint32, heightSegments+1)
	for iy := 0; iy <= heightSegments; iy++ {
		v := float64(iy) / float64(heightSegments)

		// center uv at the poles
		uOffset := 0.0
		if iy == 0 {
			uOffset = 0.5 / float64(widthSegments)
		} else if iy == heightSegments {
			uOffset = -0.5 / float64(widthSegments)
		}

		row := make([]uint32, widthSegments+1)
		for ix := 0; ix <= widthSegments; ix++ {
			u := float64(ix) / float64(widthSegments)
			phi := u * 2 * math.Pi
			theta := v * math.Pi

			x := -math.Cos(phi) * math.Sin(theta)
			y := math.Cos(theta)
			z := math.Sin(phi) * math.Sin(theta)

			normal := mgl32.Vec3{float32(x), float32(y), float32(z)}
			row[ix] = uint32(len(g.Positions))
			g.Positions = append(g.Positions, normal.Mul(radius))
			g.Normals = append(g.Normals, normal.Normalize())
			g.UVs = append(g.UVs, mgl32.Vec2{float32(u + uOffset), float32(1 - v)})
		}
		grid[iy] = row
	}

	g.Indices = make([]uint32, 0, 6*widthSegments*(heightSegments-1))
	for iy := 0; iy < heightSegments; iy++ {
		for ix := 0; ix < widthSegments; ix++ {
			a := grid[iy][ix+1]
			b := grid[iy][ix]
			c := grid[iy+1][ix]
			d := grid[iy+1][ix+1]

			if iy != 0 {
				g.Indices = append(g.Indices, a, b, d)
			}
			if iy != heightSegments-1 {
				g.Indices = append(g.Indices, b, c, d)
			}
		}
	}

	return g
}

// RingGeometry builds a flat annulus in the XZ plane facing +Y.
// U runs from the inner to the outer edge so a radial strip texture maps across the ring.
func RingGeometry(innerRadius, outerRadius float32, thetaSegments, phiSegments int, thetaStart, thetaLength float64) *Geometry {
	if thetaSegments < 3 {
		thetaSegments = 3
	}
	if phiSegments < 1 {
		phiSegments = 1
	}

	g := &Geometry{
		Name: fmt.Sprintf("ring_%v_%v_%dx%d", innerRadius, outerRadius, thetaSegments, phiSegments),
	}

	radiusStep := (outerRadius - innerRadius) / float32(phiSegments)
	for j := 0; j <= phiSegments; j++ {
		radius := innerRadius + float32(j)*radiusStep
		for i := 0; i <= thetaSegments; i++ {
			segment := thetaStart + float64(i)/float64(thetaSegments)*thetaLength

			g.Positions = append(g.Positions, mgl32.Vec3{
				radius * float32(math.Cos(segment)),
				0,
				-radius * float32(math.Sin(segment)),
			})
			g.Normals = append(g.Normals, mgl32.Vec3{0, 1, 0})
			g.UVs = append(g.UVs, mgl32.Vec2{
				float32(j) / float32(phiSegments),
				float32(i) / float32(thetaSegments),
			})
		}
	}

	g.Indices = make([]uint32, 0, 6*thetaSegments*phiSegments)
	for j := 0; j < phiSegments; j++ {
		thetaSegmentLevel := j * (thetaSegments + 1)
		for i := 0; i < thetaSegments; i++ {
			segment := uint32(i + thetaSegmentLevel)

			a := segment
			b := segment + uint32(thetaSegments) + 1
			c := segment + uint32(thetaSegments) + 2
			d := segment + 1

			g.Indices = append(g.Indices, a, b, d, b, c, d)
		}
	}

	return g
}

// BoxGeometry builds an axis aligned cube centered at the origin with outward faces,
// face order +x, -x, +y, -y, +z, -z.
func BoxGeometry(size float32) *Geometry {
	h := size / 2
	g := &Geometry{Name: fmt.Sprintf("box_%v", size)}

	type face struct {
		normal, u, v mgl32.Vec3
	}
	faces := [6]face{
		{mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, -1}, mgl32.Vec3{0, 1, 0}},
		{mgl32.Vec3{-1, 0, 0}, mgl32.Vec3{0, 0, 1}, mgl32.Vec3{0, 1, 0}},
		{mgl32.Vec3{0, 1, 0}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, -1}},
		{mgl32.Vec3{0, -1, 0}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, 1}},
		{mgl32.Vec3{0, 0, 1}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 1, 0}},
		{mgl32.Vec3{0, 0, -1}, mgl32.Vec3{-1, 0, 0}, mgl32.Vec3{0, 1, 0}},
	}

	for _, f := range faces {
		base := uint32(len(g.Positions))
		center := f.normal.Mul(h)
		for _, c := range [4][2]float32{{-1, 1}, {1, 1}, {-1, -1}, {1, -1}} {
			p := center.Add(f.u.Mul(c[0] * h)).Add(f.v.Mul(c[1] * h))
			g.Positions = append(g.Positions, p)
			g.Normals = append(g.Normals, f.normal)
			g.UVs = append(g.UVs, mgl32.Vec2{(c[0] + 1) / 2, (c[1] + 1) / 2})
		}
		g.Indices = append(g.Indices, base, base+2, base+1, base+2, base+3, base+1)
	}

	return g
}
