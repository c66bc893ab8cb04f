package renderer

import (
	"context"
	"fmt"
	"log/slog"

	"gltf-viewer/core"
	"gltf-viewer/internal/opengl"
	"gltf-viewer/scene"
	"gltf-viewer/settings"
)

// Config sets up a Viewer.
type Config struct {
	Width  int
	Height int
	Title  string
	// Camera replaces the default camera that frames the scene bounds.
	Camera *scene.Camera
	Params settings.RenderParams
	// Hidden creates the window invisible, for single-shot export.
	Hidden bool
	Logger *slog.Logger
}

// FrameHook runs after each interactive frame is presented, between frames.
type FrameHook func(v *Viewer, stats FrameStats, dt float64)

// Viewer ties a window, a model and a pipeline together. It is either run
// interactively or used once for an export; all methods must be called from
// the thread that created it.
type Viewer struct {
	logger     *slog.Logger
	window     *core.Window
	model      *scene.Model
	pipeline   *Pipeline
	controller scene.Controller
	sceneSize  float32
	params     settings.RenderParams

	paramUpdates []<-chan settings.RenderParams
	patches      <-chan []byte
	listeners    []func(settings.RenderParams)
	hooks        []FrameHook

	lifetime releaser
}

// NewViewer opens the window, initializes OpenGL and builds the pipeline for
// m. Close releases everything in reverse order.
func NewViewer(m *scene.Model, cfg Config) (*Viewer, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	v := &Viewer{logger: logger, model: m, params: cfg.Params.Clamp()}

	wc := core.DefaultWindowConfig()
	wc.Width, wc.Height = cfg.Width, cfg.Height
	if cfg.Title != "" {
		wc.Title = cfg.Title
	}
	wc.Visible = !cfg.Hidden
	window, err := core.NewWindow(wc)
	if err != nil {
		return nil, err
	}
	v.window = window
	v.lifetime.push(window.Destroy)

	version, err := opengl.Init()
	if err != nil {
		v.Close()
		return nil, err
	}
	logger.Info("OpenGL ready", "version", version)

	width, height := cfg.Width, cfg.Height
	if !cfg.Hidden {
		width, height = window.GetFramebufferSize()
	}
	pipeline, err := NewPipeline(m, width, height, logger)
	if err != nil {
		v.Close()
		return nil, err
	}
	v.pipeline = pipeline
	v.lifetime.push(pipeline.Destroy)

	bounds := scene.ComputeBounds(m)
	v.sceneSize = bounds.Size()
	cam := scene.DefaultCamera(bounds)
	if cfg.Camera != nil {
		cam = *cfg.Camera
	}
	v.controller = scene.NewController(controllerKind(v.params.Camera.Mode), v.speed())
	v.controller.SetCamera(cam)
	logger.Debug("scene framed", "size", v.sceneSize, "camera", cam.LookAtArgs())
	return v, nil
}

// Close destroys the pipeline, then the window and its context.
func (v *Viewer) Close() {
	v.lifetime.release()
	v.pipeline = nil
	v.window = nil
}

func (v *Viewer) Window() *core.Window { return v.window }

func (v *Viewer) Params() settings.RenderParams { return v.params }

func (v *Viewer) Camera() scene.Camera { return v.controller.Camera() }

// ControllerKind is the kind of the active camera controller.
func (v *Viewer) ControllerKind() scene.ControllerKind { return v.controller.Kind() }

// SetParams replaces the parameter bag. The new values take effect at the
// next frame. A camera mode change swaps the controller, keeping the camera.
func (v *Viewer) SetParams(p settings.RenderParams) {
	p = p.Clamp()
	if kind := controllerKind(p.Camera.Mode); kind != v.controller.Kind() {
		v.controller = scene.SwapController(v.controller, kind, v.speed())
	}
	v.params = p
	for _, fn := range v.listeners {
		fn(p)
	}
}

// WatchParams applies every bag received on ch between frames.
func (v *Viewer) WatchParams(ch <-chan settings.RenderParams) {
	v.paramUpdates = append(v.paramUpdates, ch)
}

// AcceptPatches applies JSON patches received on ch between frames.
func (v *Viewer) AcceptPatches(ch <-chan []byte) {
	v.patches = ch
}

// OnParamsChange registers fn to be called with every new parameter bag.
func (v *Viewer) OnParamsChange(fn func(settings.RenderParams)) {
	v.listeners = append(v.listeners, fn)
}

func (v *Viewer) OnFrame(hook FrameHook) {
	v.hooks = append(v.hooks, hook)
}

// Run draws to the window until it is closed or ctx is done.
func (v *Viewer) Run(ctx context.Context) error {
	last := v.window.Time()
	for !v.window.ShouldClose() {
		if ctx.Err() != nil {
			return nil
		}
		v.applyUpdates()

		width, height := v.window.GetFramebufferSize()
		if width == 0 || height == 0 {
			// Minimized.
			v.window.PollEvents()
			continue
		}
		if err := v.pipeline.Resize(width, height); err != nil {
			return err
		}

		now := v.window.Time()
		dt := now - last
		last = now
		v.controller.Update(v.window, float32(dt))

		stats, err := v.pipeline.Render(v.frame(), 0)
		if err != nil {
			return err
		}
		v.window.SwapBuffers()
		v.window.PollEvents()

		for _, hook := range v.hooks {
			hook(v, stats, dt)
		}
	}
	return nil
}

// Export renders one frame offscreen and writes it to path. Unsupported
// extensions are rejected before anything is rendered.
func (v *Viewer) Export(path string) error {
	if _, err := ExportFormat(path); err != nil {
		return err
	}
	v.applyUpdates()

	width, height := v.pipeline.Size()
	out, err := opengl.NewOutputTarget(width, height)
	if err != nil {
		return err
	}
	defer out.Delete()

	if _, err := v.pipeline.Render(v.frame(), out.FBO); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	pix := FlipRows(v.pipeline.ReadPixels(out.FBO), width, height)
	if err := WriteImage(path, pix, width, height); err != nil {
		return err
	}
	v.logger.Info("image written", "path", path, "width", width, "height", height)
	return nil
}

func (v *Viewer) frame() Frame {
	width, height := v.pipeline.Size()
	proj, near, far := Projection(v.sceneSize, width, height)
	return Frame{
		View:   v.controller.Camera().ViewMatrix(),
		Proj:   proj,
		Near:   near,
		Far:    far,
		Params: v.params,
	}
}

// applyUpdates drains every pending parameter source without blocking.
func (v *Viewer) applyUpdates() {
	for i, ch := range v.paramUpdates {
		v.paramUpdates[i] = v.drainParams(ch)
	}
	v.patches = v.drainPatches(v.patches)
}

func (v *Viewer) drainParams(ch <-chan settings.RenderParams) <-chan settings.RenderParams {
	for ch != nil {
		select {
		case p, ok := <-ch:
			if !ok {
				return nil
			}
			v.SetParams(p)
		default:
			return ch
		}
	}
	return nil
}

func (v *Viewer) drainPatches(ch <-chan []byte) <-chan []byte {
	for ch != nil {
		select {
		case patch, ok := <-ch:
			if !ok {
				return nil
			}
			p, err := settings.ApplyJSON(v.params, patch)
			if err != nil {
				v.logger.Warn("ignoring parameter patch", "err", err)
				continue
			}
			v.SetParams(p)
		default:
			return ch
		}
	}
	return nil
}

func (v *Viewer) speed() float32 {
	return 0.5 * v.sceneSize
}

func controllerKind(m settings.CameraMode) scene.ControllerKind {
	if m == settings.TrackballCamera {
		return scene.Trackball
	}
	return scene.FirstPerson
}
