package renderer

import (
	"fmt"
	"log/slog"

	"github.com/go-gl/mathgl/mgl32"

	"gltf-viewer/internal/opengl"
	"gltf-viewer/scene"
	"gltf-viewer/settings"
)

// Frame is everything one frame reads. It is captured once per frame so every
// pass sees the same values.
type Frame struct {
	View   mgl32.Mat4
	Proj   mgl32.Mat4
	Near   float32
	Far    float32
	Params settings.RenderParams
}

// FrameStats describes what the last frame did.
type FrameStats struct {
	Draws  int
	Passes []Pass
}

// Pipeline owns every GPU object needed to draw one model. Its stages are
// created once; the viewport-sized targets are replaced on resize.
type Pipeline struct {
	logger *slog.Logger
	model  *scene.Model
	roots  []int

	res      *opengl.SceneResources
	geometry *opengl.GeometryPass
	ssao     *opengl.SSAOStage
	shading  *opengl.ShadingPass
	bloom    *opengl.BloomStage
	display  *opengl.DisplayStage
	targets  *opengl.Targets

	stages releaser
}

// NewPipeline builds the GPU resources for m and all render stages at
// width x height. A GL context must be current. On error everything already
// created is released.
func NewPipeline(m *scene.Model, width, height int, logger *slog.Logger) (*Pipeline, error) {
	p := &Pipeline{logger: logger, model: m, roots: scene.RootNodes(m.Doc)}
	if err := p.init(width, height); err != nil {
		p.Destroy()
		return nil, err
	}
	logger.Debug("pipeline ready", "width", width, "height", height, "vaos", len(p.res.VAOs), "textures", len(p.res.Textures))
	return p, nil
}

func (p *Pipeline) init(width, height int) error {
	var err error
	if p.res, err = opengl.BuildSceneResources(p.model, p.logger); err != nil {
		return err
	}
	p.stages.push(p.res.Delete)

	if p.geometry, err = opengl.NewGeometryPass(); err != nil {
		return err
	}
	p.stages.push(p.geometry.Delete)

	if p.ssao, err = opengl.NewSSAOStage(); err != nil {
		return err
	}
	p.stages.push(p.ssao.Delete)

	if p.shading, err = opengl.NewShadingPass(); err != nil {
		return err
	}
	p.stages.push(p.shading.Delete)

	if p.bloom, err = opengl.NewBloomStage(); err != nil {
		return err
	}
	p.stages.push(p.bloom.Delete)

	if p.display, err = opengl.NewDisplayStage(); err != nil {
		return err
	}
	p.stages.push(p.display.Delete)

	p.targets, err = opengl.NewTargets(width, height)
	return err
}

// Size is the current target size in pixels.
func (p *Pipeline) Size() (int, int) {
	return int(p.targets.Width), int(p.targets.Height)
}

// Resize replaces every viewport-sized target. The old targets are kept
// until the new set is complete, so a failed resize leaves the pipeline
// usable at the old size.
func (p *Pipeline) Resize(width, height int) error {
	if w, h := p.Size(); w == width && h == height {
		return nil
	}
	next, err := opengl.NewTargets(width, height)
	if err != nil {
		return fmt.Errorf("resize to %dx%d: %w", width, height, err)
	}
	p.targets.Delete()
	p.targets = next
	p.logger.Debug("render targets resized", "width", width, "height", height)
	return nil
}

// Render draws one frame into the framebuffer dst (0 is the window).
func (p *Pipeline) Render(f Frame, dst uint32) (FrameStats, error) {
	t := p.targets
	params := f.Params
	stats := FrameStats{Passes: PlanFrame(params)}

	var bloomTex uint32
	for _, pass := range stats.Passes {
		switch pass {
		case PassGeometry:
			stats.Draws = p.geometry.Run(t, p.model.Doc, p.res, p.roots, f.View, f.Proj, params.Textures)
		case PassSSAO:
			p.ssao.Occlusion(t, f.Proj, ssaoParams(params.SSAO))
		case PassSSAOBlur:
			p.ssao.Blur(t)
		case PassClearOcclusion:
			p.ssao.ClearVisible(t)
		case PassShading:
			p.shading.Run(t, shadingParams(params, f.View))
		case PassChannelDisplay:
			attachment, ok := channelAttachment(params.Display.Channel)
			if !ok {
				return stats, fmt.Errorf("no g-buffer attachment for channel %v", params.Display.Channel)
			}
			if err := p.display.ShowChannel(t, attachment, dst); err != nil {
				return stats, err
			}
		case PassDepthDisplay:
			p.display.ShowDepth(t, dst, f.Near, f.Far)
		case PassBloomBlur:
			bloomTex = p.bloom.Run(t, params.Bloom.Quality, params.Bloom.MaxLod)
		case PassComposite:
			p.display.Composite(t, bloomTex, dst, compositeParams(params.Bloom, true))
		case PassPlainDisplay:
			p.display.Composite(t, 0, dst, compositeParams(params.Bloom, false))
		}
	}
	return stats, nil
}

// ReadPixels reads back fbo at the pipeline size, bottom row first.
func (p *Pipeline) ReadPixels(fbo uint32) []byte {
	w, h := p.Size()
	return opengl.ReadPixels(fbo, w, h)
}

// Destroy frees every GPU object in reverse creation order. It is safe to
// call on a partially built pipeline.
func (p *Pipeline) Destroy() {
	if p.targets != nil {
		p.targets.Delete()
		p.targets = nil
	}
	p.stages.release()
}

func channelAttachment(c settings.DebugChannel) (int, bool) {
	switch c {
	case settings.Position:
		return opengl.GPosition, true
	case settings.Normal:
		return opengl.GNormal, true
	case settings.Diffuse:
		return opengl.GDiffuse, true
	case settings.OcclusionMetalRoughness:
		return opengl.GOcclusionMetalRoughness, true
	case settings.Emissive:
		return opengl.GEmissive, true
	}
	return 0, false
}

func ssaoParams(s settings.SSAO) opengl.SSAOParams {
	return opengl.SSAOParams{
		KernelSize: s.KernelSize,
		Radius:     s.Radius,
		Bias:       s.Bias,
		Intensity:  s.Intensity,
	}
}

func shadingParams(p settings.RenderParams, view mgl32.Mat4) opengl.ShadingParams {
	return opengl.ShadingParams{
		LightDirection: LightDirection(p.Light, view),
		LightIntensity: mgl32.Vec3(p.Light.Radiance()),
		BloomThreshold: p.Bloom.Threshold,
	}
}

func compositeParams(b settings.Bloom, useBloom bool) opengl.CompositeParams {
	return opengl.CompositeParams{
		UseBloom:       useBloom,
		BloomOnly:      b.BloomOnly,
		BloomTint:      mgl32.Vec3(b.Tint),
		BloomIntensity: b.Intensity,
		Exposure:       b.Exposure,
	}
}
