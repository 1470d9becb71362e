package particles

import (
	gomath "math"
	"math/rand"

	"github.com/halcyon3d/halcyon/internal/engine/device"
	"github.com/halcyon3d/halcyon/internal/engine/mesh"
	"github.com/halcyon3d/halcyon/internal/engine/picking"
	"github.com/halcyon3d/halcyon/pkg/math"
)

// Camera is the view the particle system billboards against. Invisible
// particles are parked at its position.
type Camera interface {
	GlobalPosition() math.Vec3
	CurrentTarget() math.Vec3
}

// Options configures a particle system at construction.
type Options struct {
	// Updatable keeps the per-particle objects alive so SetParticles can
	// rewrite the mesh every frame.
	Updatable bool

	// Pickable records a face-to-particle table while building.
	Pickable bool

	// ParticleIntersection maintains per-particle bounding volumes.
	ParticleIntersection bool

	// BoundingSphereOnly skips the per-particle box update.
	BoundingSphereOnly bool

	// RadiusFactor scales the per-particle bounding sphere radius. Zero
	// means 1.
	RadiusFactor float32
}

// MeshBuilderOptions carries the optional per-particle builder callbacks.
type MeshBuilderOptions struct {
	PositionFunction PositionFunction
	VertexFunction   VertexFunction
}

// DigestOptions controls how Digest chops a mesh into particles.
type DigestOptions struct {
	// FacetNb is the wanted number of triangles per particle.
	FacetNb int

	// Number, when set, overrides FacetNb by asking for that many particles.
	Number int

	// Delta adds up to this many extra random facets per particle.
	Delta int
}

// System merges particle copies of template shapes into one mesh and
// rewrites that mesh's streams on every SetParticles call.
type System struct {
	Name        string
	NbParticles int
	Counter     int

	// Billboard makes every particle face the camera.
	Billboard bool

	// RecomputeNormals selects full normal recomputation in BuildMesh.
	RecomputeNormals bool

	Mesh            *mesh.Mesh
	Particles       []*SolidParticle
	PickedParticles []PickedParticle

	// Per-frame hooks. UpdateParticle runs for every particle inside
	// SetParticles; the others bracket the whole pass.
	UpdateParticle        func(particle *SolidParticle)
	UpdateParticleVertex  func(particle *SolidParticle, vertex *math.Vec3, vertexIdx int)
	BeforeUpdateParticles func(start, end int, update bool)
	AfterUpdateParticles  func(start, end int, update bool)

	camera Camera

	// Build-time accumulation arrays, dropped by BuildMesh.
	positions []float32
	indices   []uint32
	normals   []float32
	uvs       []float32
	colors    []float32

	// Frame arrays mirrored into the mesh streams.
	positions32   []float32
	normals32     []float32
	fixedNormal32 []float32
	uvs32         []float32
	colors32      []float32

	copy *SolidParticle

	index        int
	shapeCounter int

	updatable          bool
	pickable           bool
	particlesIntersect bool
	bSphereOnly        bool
	bSphereRadius      float32

	computeParticleRotation bool
	computeParticleColor    bool
	computeParticleTexture  bool
	computeParticleVertex   bool
	computeBoundingBox      bool

	isVisibilityBoxLocked bool
	alwaysVisible         bool

	// random jitters Digest group sizes; injectable for tests.
	random func() float32
}

// New creates an empty particle system billboarding against camera.
func New(name string, camera Camera, options Options) *System {
	radius := options.RadiusFactor
	if radius == 0 {
		radius = 1
	}
	return &System{
		Name:                    name,
		RecomputeNormals:        true,
		camera:                  camera,
		copy:                    newSolidParticle(0, 0, nil, 0, 0, nil),
		updatable:               options.Updatable,
		pickable:                options.Pickable,
		particlesIntersect:      options.ParticleIntersection,
		bSphereOnly:             options.BoundingSphereOnly,
		bSphereRadius:           radius,
		computeParticleRotation: true,
		computeParticleColor:    true,
		computeParticleTexture:  true,
		random:                  rand.Float32,
	}
}

func (s *System) resetCopy() {
	s.copy.Position = math.Vec3{}
	s.copy.Rotation = math.Vec3{}
	s.copy.RotationQuaternion = nil
	s.copy.Scaling = math.Vec3{X: 1, Y: 1, Z: 1}
	s.copy.UVs = math.Vec4{0, 0, 1, 1}
	s.copy.Color = nil
}

// copyRotationMatrix resolves the scratch particle's rotation into a matrix.
func (s *System) copyRotationMatrix() math.Mat4 {
	var q math.Quat
	if s.copy.RotationQuaternion != nil {
		q = *s.copy.RotationQuaternion
	} else {
		q = math.QuatFromYawPitchRoll(s.copy.Rotation.Y, s.copy.Rotation.X, s.copy.Rotation.Z)
	}
	return q.ToRotationMatrix()
}

// transformWithW applies the matrix with a perspective divide, the way the
// particle hot loop treats its rotation matrices.
func transformWithW(m math.Mat4, v math.Vec3) math.Vec3 {
	w := v.X*m[3] + v.Y*m[7] + v.Z*m[11] + m[15]
	return math.Vec3{
		X: (v.X*m[0] + v.Y*m[4] + v.Z*m[8] + m[12]) / w,
		Y: (v.X*m[1] + v.Y*m[5] + v.Z*m[9] + m[13]) / w,
		Z: (v.X*m[2] + v.Y*m[6] + v.Z*m[10] + m[14]) / w,
	}
}

func posToShape(positions []float32) []math.Vec3 {
	shape := make([]math.Vec3, 0, len(positions)/3)
	for i := 0; i+2 < len(positions); i += 3 {
		shape = append(shape, math.Vec3{X: positions[i], Y: positions[i+1], Z: positions[i+2]})
	}
	return shape
}

// meshBuilder stamps one particle copy of shape into the accumulation
// arrays.
func (s *System) meshBuilder(p int, shape []math.Vec3, meshInd []uint32,
	meshUV, meshCol, meshNor []float32, idx, idxInShape int, options MeshBuilderOptions) {

	s.resetCopy()
	if options.PositionFunction != nil {
		options.PositionFunction(s.copy, idx, idxInShape)
	}

	rotMatrix := s.copyRotationMatrix()

	u := 0
	c := 0
	n := 0
	for si := range shape {
		vertex := shape[si]

		if options.VertexFunction != nil {
			options.VertexFunction(s.copy, &vertex, si)
		}

		vertex.X *= s.copy.Scaling.X
		vertex.Y *= s.copy.Scaling.Y
		vertex.Z *= s.copy.Scaling.Z

		rotated := transformWithW(rotMatrix, vertex)
		s.positions = append(s.positions,
			s.copy.Position.X+rotated.X,
			s.copy.Position.Y+rotated.Y,
			s.copy.Position.Z+rotated.Z)

		if len(meshUV) > 0 {
			s.uvs = append(s.uvs,
				(s.copy.UVs[2]-s.copy.UVs[0])*meshUV[u]+s.copy.UVs[0],
				(s.copy.UVs[3]-s.copy.UVs[1])*meshUV[u+1]+s.copy.UVs[1])
			u += 2
		}

		var color device.Color4
		switch {
		case s.copy.Color != nil:
			color = *s.copy.Color
		case c+3 < len(meshCol):
			color = device.Color4{R: meshCol[c], G: meshCol[c+1], B: meshCol[c+2], A: meshCol[c+3]}
		default:
			color = device.Color4{R: 1, G: 1, B: 1, A: 1}
		}
		s.colors = append(s.colors, color.R, color.G, color.B, color.A)
		c += 4

		if !s.RecomputeNormals && n+3 <= len(meshNor) {
			normal := math.Vec3{X: meshNor[n], Y: meshNor[n+1], Z: meshNor[n+2]}
			normal = transformWithW(rotMatrix, normal)
			s.normals = append(s.normals, normal.X, normal.Y, normal.Z)
			n += 3
		}
	}

	for _, ind := range meshInd {
		s.indices = append(s.indices, uint32(p)+ind)
	}

	if s.pickable {
		nbFaces := len(meshInd) / 3
		for i := 0; i < nbFaces; i++ {
			s.PickedParticles = append(s.PickedParticles, PickedParticle{Idx: idx, FaceID: i})
		}
	}
}

func (s *System) addParticle(idx, pos int, model *ModelShape, shapeID, idxInShape int,
	modelBoundingInfo *picking.BoundingInfo) *SolidParticle {

	particle := newSolidParticle(idx, pos, model, shapeID, idxInShape, modelBoundingInfo)
	s.Particles = append(s.Particles, particle)
	return particle
}

// AddShape stamps nb particle copies of the source mesh's geometry into the
// system and returns the shape id.
func (s *System) AddShape(source *mesh.Mesh, nb int, options MeshBuilderOptions) int {
	meshPos := source.VerticesData(device.PositionKind)
	meshInd := source.Indices()
	meshUV := source.VerticesData(device.UVKind)
	meshCol := source.VerticesData(device.ColorKind)
	meshNor := source.VerticesData(device.NormalKind)

	var modelBoundingInfo *picking.BoundingInfo
	if s.particlesIntersect {
		modelBoundingInfo = source.BoundingInfo()
	}

	shape := posToShape(meshPos)
	shapeUV := append([]float32(nil), meshUV...)

	model := &ModelShape{
		ID:               s.shapeCounter,
		shape:            shape,
		shapeUV:          shapeUV,
		positionFunction: options.PositionFunction,
		vertexFunction:   options.VertexFunction,
	}

	idx := s.NbParticles
	for i := 0; i < nb; i++ {
		pos := len(s.positions)
		s.meshBuilder(s.index, shape, meshInd, meshUV, meshCol, meshNor, idx, i, options)
		if s.updatable {
			s.addParticle(idx, pos, model, s.shapeCounter, i, modelBoundingInfo)
		}
		s.index += len(shape)
		idx++
	}
	s.NbParticles += nb
	s.shapeCounter++
	return s.shapeCounter - 1
}

// Digest chops the source mesh into particles of roughly FacetNb triangles
// each (or Number particles), centering every group on its barycenter so the
// particle position carries the offset.
func (s *System) Digest(source *mesh.Mesh, options DigestOptions) {
	meshPos := source.VerticesData(device.PositionKind)
	meshInd := source.Indices()
	meshUV := source.VerticesData(device.UVKind)
	meshCol := source.VerticesData(device.ColorKind)
	meshNor := source.VerticesData(device.NormalKind)

	totalFacets := len(meshInd) / 3
	size := options.FacetNb
	delta := options.Delta
	if size < 1 {
		size = 1
	}
	if options.Number > 0 {
		number := options.Number
		if number > totalFacets {
			number = totalFacets
		}
		size = int(gomath.Round(float64(totalFacets) / float64(number)))
		delta = 0
	} else if size > totalFacets {
		size = totalFacets
	}

	sizeO := size
	f := 0
	for f < totalFacets {
		size = sizeO + int(gomath.Floor(float64(1+float32(delta))*float64(s.random())))
		if f > totalFacets-size {
			size = totalFacets - f
		}

		var facetPos []float32
		var facetInd []uint32
		var facetUV []float32
		var facetCol []float32

		fi := 0
		for j := f * 3; j < (f+size)*3; j++ {
			facetInd = append(facetInd, uint32(fi))
			i := meshInd[j]
			facetPos = append(facetPos, meshPos[i*3], meshPos[i*3+1], meshPos[i*3+2])
			if len(meshUV) > 0 {
				facetUV = append(facetUV, meshUV[i*2], meshUV[i*2+1])
			}
			if len(meshCol) > 0 {
				facetCol = append(facetCol,
					meshCol[i*4], meshCol[i*4+1], meshCol[i*4+2], meshCol[i*4+3])
			}
			fi++
		}

		idx := s.NbParticles
		shape := posToShape(facetPos)
		shapeUV := append([]float32(nil), facetUV...)

		var barycenter math.Vec3
		for _, v := range shape {
			barycenter = barycenter.Add(v)
		}
		barycenter = barycenter.Scale(1 / float32(len(shape)))
		for v := range shape {
			shape[v] = shape[v].Sub(barycenter)
		}

		var modelBoundingInfo *picking.BoundingInfo
		if s.particlesIntersect {
			modelBoundingInfo = picking.NewBoundingInfo(barycenter, barycenter)
		}
		model := &ModelShape{ID: s.shapeCounter, shape: shape, shapeUV: shapeUV}

		pos := len(s.positions)
		s.meshBuilder(s.index, shape, facetInd, facetUV, facetCol, meshNor,
			idx, 0, MeshBuilderOptions{})
		particle := s.addParticle(idx, pos, model, s.shapeCounter, 0, modelBoundingInfo)
		particle.Position = particle.Position.Add(barycenter)

		s.index += len(shape)
		s.NbParticles++
		s.shapeCounter++
		f += size
	}
}

// BuildMesh materializes the accumulated geometry into the renderable mesh
// and drops the build arrays. Non-updatable systems also drop the particle
// objects.
func (s *System) BuildMesh() *mesh.Mesh {
	s.positions32 = append([]float32(nil), s.positions...)
	s.uvs32 = append([]float32(nil), s.uvs...)
	s.colors32 = append([]float32(nil), s.colors...)
	if s.RecomputeNormals {
		s.normals = mesh.ComputeNormals(s.positions32, s.indices, s.normals)
	}
	s.normals32 = append([]float32(nil), s.normals...)
	s.fixedNormal32 = append([]float32(nil), s.normals...)

	m := mesh.New(s.Name)
	m.SetVerticesData(device.PositionKind, s.positions32)
	m.SetIndices(s.indices)
	m.SetVerticesData(device.NormalKind, s.normals32)
	if len(s.uvs32) > 0 {
		m.SetVerticesData(device.UVKind, s.uvs32)
	}
	if len(s.colors32) > 0 {
		m.SetVerticesData(device.ColorKind, s.colors32)
	}
	m.IsPickable = s.pickable
	s.Mesh = m

	s.positions = nil
	s.normals = nil
	s.uvs = nil
	s.colors = nil

	if !s.updatable {
		s.Particles = nil
	}
	return m
}

func (s *System) rebuildParticle(particle *SolidParticle) {
	s.resetCopy()
	if particle.model.positionFunction != nil {
		particle.model.positionFunction(s.copy, particle.Idx, particle.IdxInShape)
	}

	rotMatrix := s.copyRotationMatrix()

	shape := particle.model.shape
	for pt := range shape {
		vertex := shape[pt]
		if particle.model.vertexFunction != nil {
			particle.model.vertexFunction(s.copy, &vertex, pt)
		}

		vertex.X *= s.copy.Scaling.X
		vertex.Y *= s.copy.Scaling.Y
		vertex.Z *= s.copy.Scaling.Z

		rotated := transformWithW(rotMatrix, vertex)
		base := particle.pos + pt*3
		s.positions32[base] = s.copy.Position.X + rotated.X
		s.positions32[base+1] = s.copy.Position.Y + rotated.Y
		s.positions32[base+2] = s.copy.Position.Z + rotated.Z
	}

	particle.Position = math.Vec3{}
	particle.Rotation = math.Vec3{}
	particle.RotationQuaternion = nil
	particle.Scaling = math.Vec3{X: 1, Y: 1, Z: 1}
}

// RebuildMesh replays the stored builder callbacks for every particle and
// pushes the rebuilt positions.
func (s *System) RebuildMesh() {
	for _, particle := range s.Particles {
		s.rebuildParticle(particle)
	}
	s.Mesh.UpdateVerticesData(device.PositionKind, s.positions32)
}

// Dispose releases the mesh's device buffers and drops the big arrays.
func (s *System) Dispose() {
	if s.Mesh != nil {
		s.Mesh.Dispose()
	}
	s.positions = nil
	s.indices = nil
	s.normals = nil
	s.uvs = nil
	s.colors = nil
	s.positions32 = nil
	s.normals32 = nil
	s.fixedNormal32 = nil
	s.uvs32 = nil
	s.colors32 = nil
	s.PickedParticles = nil
}

// RefreshVisibleSize recomputes the mesh bounding info unless the visibility
// box is locked.
func (s *System) RefreshVisibleSize() {
	if !s.isVisibilityBoxLocked {
		s.Mesh.RefreshBoundingInfo()
	}
}

// SetVisibilityBox installs a fixed cubic bounding box of the given edge
// size around the origin.
func (s *System) SetVisibilityBox(size float32) {
	vis := size / 2
	s.Mesh.SetBoundingInfo(picking.NewBoundingInfo(
		math.Vec3{X: -vis, Y: -vis, Z: -vis}, math.Vec3{X: vis, Y: vis, Z: vis}))
}

// IsAlwaysVisible reports whether culling is bypassed for the mesh.
func (s *System) IsAlwaysVisible() bool {
	return s.alwaysVisible
}

// SetIsAlwaysVisible bypasses culling for the mesh.
func (s *System) SetIsAlwaysVisible(val bool) {
	s.alwaysVisible = val
	s.Mesh.AlwaysSelectAsActiveMesh = val
}

// SetIsVisibilityBoxLocked freezes the visibility box against refreshes.
func (s *System) SetIsVisibilityBoxLocked(val bool) {
	s.isVisibilityBoxLocked = val
}

// IsVisibilityBoxLocked reports whether the visibility box is frozen.
func (s *System) IsVisibilityBoxLocked() bool {
	return s.isVisibilityBoxLocked
}

// SetComputeParticleRotation toggles per-particle rotation in SetParticles.
func (s *System) SetComputeParticleRotation(val bool) {
	s.computeParticleRotation = val
}

// SetComputeParticleColor toggles color stream rewrites in SetParticles.
func (s *System) SetComputeParticleColor(val bool) {
	s.computeParticleColor = val
}

// SetComputeParticleTexture toggles UV stream rewrites in SetParticles.
func (s *System) SetComputeParticleTexture(val bool) {
	s.computeParticleTexture = val
}

// SetComputeParticleVertex toggles the per-vertex morph callback.
func (s *System) SetComputeParticleVertex(val bool) {
	s.computeParticleVertex = val
}

// SetComputeBoundingBox toggles global bounding-box accumulation.
func (s *System) SetComputeBoundingBox(val bool) {
	s.computeBoundingBox = val
}

// ComputeParticleRotation reports whether rotation is applied per particle.
func (s *System) ComputeParticleRotation() bool { return s.computeParticleRotation }

// ComputeParticleColor reports whether colors are rewritten.
func (s *System) ComputeParticleColor() bool { return s.computeParticleColor }

// ComputeParticleTexture reports whether UVs are rewritten.
func (s *System) ComputeParticleTexture() bool { return s.computeParticleTexture }

// ComputeParticleVertex reports whether the morph callback runs.
func (s *System) ComputeParticleVertex() bool { return s.computeParticleVertex }

// ComputeBoundingBox reports whether the global box is accumulated.
func (s *System) ComputeBoundingBox() bool { return s.computeBoundingBox }
