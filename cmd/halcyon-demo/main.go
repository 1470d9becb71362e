// Command halcyon-demo renders a swarm of solid particles driven by a small
// bone chain, exercising the window, device and particle layers end to end.
package main

import (
	"math/rand"
	"os"
	"time"

	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/halcyon3d/halcyon/internal/config"
	"github.com/halcyon3d/halcyon/internal/engine/camera"
	"github.com/halcyon3d/halcyon/internal/engine/device"
	"github.com/halcyon3d/halcyon/internal/engine/input"
	"github.com/halcyon3d/halcyon/internal/engine/lighting"
	"github.com/halcyon3d/halcyon/internal/engine/mesh"
	"github.com/halcyon3d/halcyon/internal/engine/particles"
	"github.com/halcyon3d/halcyon/internal/engine/skeleton"
	"github.com/halcyon3d/halcyon/internal/engine/window"
	"github.com/halcyon3d/halcyon/internal/logger"
	"github.com/halcyon3d/halcyon/pkg/math"
)

const (
	particleCount = 800
	swarmRadius   = 12.0
)

const vertexShader = `#version 410 core
in vec3 position;
in vec3 normal;
in vec4 color;

uniform mat4 worldViewProjection;
uniform mat4 world;

out vec3 vNormal;
out vec4 vColor;

void main() {
    gl_Position = worldViewProjection * vec4(position, 1.0);
    vNormal = mat3(world) * normal;
    vColor = color;
}
`

const fragmentShader = `#version 410 core
in vec3 vNormal;
in vec4 vColor;

uniform vec3 lightDirection;

out vec4 fragColor;

void main() {
    float diffuse = max(dot(normalize(vNormal), -normalize(lightDirection)), 0.15);
    fragColor = vec4(vColor.rgb * diffuse, vColor.a);
}
`

func main() {
	config.ParseFlags()

	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		os.Stderr.WriteString("logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer logger.Sync()

	win, err := window.New(window.Config{
		Title:      "halcyon demo",
		Width:      cfg.Graphics.Width,
		Height:     cfg.Graphics.Height,
		Fullscreen: cfg.Graphics.Fullscreen,
		VSync:      cfg.Graphics.VSync,
	})
	if err != nil {
		logger.Fatal("window creation failed", zap.Error(err))
	}
	defer win.Close()

	ctx, err := device.NewGLContext()
	if err != nil {
		logger.Fatal("OpenGL initialization failed", zap.Error(err))
	}

	engine := device.New(ctx, device.Options{
		Width:  cfg.Graphics.Width,
		Height: cfg.Graphics.Height,
	})
	if !engine.IsValid() {
		logger.Fatal("device engine unavailable")
	}

	cam := camera.NewOrbitCamera()
	cam.Distance = 40
	cam.MinDistance = 10
	cam.MaxDistance = 200

	sps := particles.New("swarm", cam, particles.Options{Updatable: true})
	sps.AddShape(tetrahedronTemplate(), particleCount, particles.MeshBuilderOptions{
		PositionFunction: scatterParticle,
	})
	swarm := sps.BuildMesh()
	swarm.Attach(engine)

	sps.UpdateParticle = driftParticle

	// A two-bone chain swings the whole swarm: the root yaws, the tip
	// carries the mesh.
	rig := skeleton.New("rig")
	root := skeleton.NewBone("root", rig, nil, math.Identity())
	tip := skeleton.NewBone("tip", rig, root, math.Translate(0, 4, 0))

	sun := lighting.NewDirectional(lighting.SunDirection(120, 45))

	effect := engine.CreateEffect("solid", device.EffectCreationOptions{
		VertexSource:   vertexShader,
		FragmentSource: fragmentShader,
		Attributes:     []string{"position", "normal", "color"},
		Uniforms:       []string{"worldViewProjection", "world", "lightDirection"},
	})
	if !effect.IsReady() {
		logger.Fatal("shader compilation failed", zap.String("log", effect.CompilationError()))
	}

	projection := math.Perspective(
		0.8,
		float32(cfg.Graphics.Width)/float32(cfg.Graphics.Height),
		0.1, 500,
	)

	frames := 0
	engine.RunRenderLoop(func() {
		engine.Clear(device.Color4{R: 0.04, G: 0.05, B: 0.08, A: 1}, true, true, false)
		engine.SetViewport(device.Viewport{Width: 1, Height: 1})

		root.Rotate(math.Vec3{Y: 1}, 0.004, skeleton.SpaceLocal, nil)
		swarm.Position = tip.AbsolutePosition(nil)
		world := swarm.ComputeWorldMatrix()

		sps.SetParticles(0, sps.NbParticles-1, true)

		engine.EnableEffect(effect)
		effect.SetMatrix("world", world)
		effect.SetMatrix("worldViewProjection", projection.Mul(cam.ViewMatrix()).Mul(world))
		dir := sun.Direction
		effect.SetFloat3("lightDirection", -dir[0], -dir[1], -dir[2])

		engine.BindBuffers(swarm.VertexBuffers(), swarm.IndexBuffer(), effect)
		engine.Draw(true, 0, len(swarm.Indices()), 0)

		frames++
		if cfg.Graphics.ShowFPS && frames%120 == 0 {
			logger.Info("frame stats",
				zap.Float32("fps", engine.FPS()),
				zap.Int("draw_calls", engine.DrawCalls()))
		}
		engine.ResetDrawCalls()
	})

	frameBudget := time.Duration(0)
	if cfg.Graphics.FPSLimit > 0 {
		frameBudget = time.Second / time.Duration(cfg.Graphics.FPSLimit)
	}

	in := input.New()
	dragging := false
	lastX, lastY := 0, 0

	for {
		if in.Update() || in.IsKeyPressed(sdl.SCANCODE_ESCAPE) {
			break
		}
		for _, ev := range in.Events() {
			switch ev.Type {
			case input.EventMouseDown:
				dragging = true
				lastX, lastY = ev.MouseX, ev.MouseY
			case input.EventMouseUp:
				dragging = false
			case input.EventMouseMove:
				if dragging {
					cam.HandleDrag(float32(ev.MouseX-lastX), float32(ev.MouseY-lastY))
					lastX, lastY = ev.MouseX, ev.MouseY
				}
			case input.EventWindowResize:
				engine.SetSize(ev.Width, ev.Height)
			}
		}

		start := time.Now()
		engine.RenderFrame()
		win.SwapBuffers()

		if frameBudget > 0 {
			if spent := time.Since(start); spent < frameBudget {
				time.Sleep(frameBudget - spent)
			}
		}
	}

	swarm.Dispose()
	sps.Dispose()
	logger.Info("shutting down")
}

// tetrahedronTemplate builds the particle template: four faces, flat shaded
// after normal recomputation.
func tetrahedronTemplate() *mesh.Mesh {
	m := mesh.New("template")
	m.SetVerticesData(device.PositionKind, []float32{
		0.4, 0.4, 0.4,
		-0.4, -0.4, 0.4,
		-0.4, 0.4, -0.4,
		0.4, -0.4, -0.4,
	})
	m.SetVerticesData(device.UVKind, []float32{
		0, 0,
		1, 0,
		0, 1,
		1, 1,
	})
	m.SetIndices([]uint32{
		0, 1, 2,
		0, 3, 1,
		0, 2, 3,
		1, 3, 2,
	})
	return m
}

func scatterParticle(p *particles.SolidParticle, idx, idxInShape int) {
	p.Position = math.Vec3{
		X: (rand.Float32() - 0.5) * 2 * swarmRadius,
		Y: (rand.Float32() - 0.5) * 2 * swarmRadius,
		Z: (rand.Float32() - 0.5) * 2 * swarmRadius,
	}
	p.Rotation = math.Vec3{
		X: rand.Float32() * 6.28318,
		Y: rand.Float32() * 6.28318,
		Z: rand.Float32() * 6.28318,
	}
	p.Color = &device.Color4{
		R: 0.3 + 0.7*rand.Float32(),
		G: 0.3 + 0.7*rand.Float32(),
		B: 0.9,
		A: 1,
	}
}

func driftParticle(p *particles.SolidParticle) {
	p.Rotation.Y += 0.01
	p.Rotation.X += 0.005
	p.Position.Y += 0.02
	if p.Position.Y > swarmRadius {
		p.Position.Y = -swarmRadius
	}
}
