package main

import (
	"fmt"

	"gltf-viewer/core"
	"gltf-viewer/renderer"
	"gltf-viewer/settings"
)

type keyboard interface {
	IsKeyPressed(key int) bool
}

var channelKeys = []int{core.Key1, core.Key2, core.Key3, core.Key4, core.Key5, core.Key6, core.Key7}

// Per-second rates for held adjustment keys.
const (
	exposureRate  = 0.5
	intensityRate = 2.0
	thresholdRate = 0.5
)

// controls maps keys to parameter changes. Toggles fire once per press.
type controls struct {
	held map[int]bool
	hud  hud
}

func newControls() *controls {
	return &controls{held: make(map[int]bool)}
}

// pressed reports a key that went down since the last frame.
func (c *controls) pressed(kb keyboard, key int) bool {
	down := kb.IsKeyPressed(key)
	was := c.held[key]
	c.held[key] = down
	return down && !was
}

func onOff(b bool) string {
	if b {
		return "ON"
	}
	return "OFF"
}

// apply returns p updated by the keys held this frame and whether it changed.
func (c *controls) apply(kb keyboard, p settings.RenderParams, dt float32) (settings.RenderParams, bool) {
	before := p

	for i, key := range channelKeys {
		if c.pressed(kb, key) {
			p.Display.Channel = settings.Channels[i]
			fmt.Printf("[Display] %s\n", p.Display.Channel)
		}
	}
	if c.pressed(kb, core.KeyO) {
		p.SSAO.Enabled = !p.SSAO.Enabled
		fmt.Printf("[SSAO] %s\n", onOff(p.SSAO.Enabled))
	}
	if c.pressed(kb, core.KeyB) {
		p.Bloom.Enabled = !p.Bloom.Enabled
		fmt.Printf("[Bloom] %s\n", onOff(p.Bloom.Enabled))
	}
	if c.pressed(kb, core.KeyT) {
		on := !(p.Textures.BaseColor && p.Textures.MetallicRoughness && p.Textures.Emissive && p.Textures.Occlusion)
		p.Textures = settings.Textures{BaseColor: on, MetallicRoughness: on, Emissive: on, Occlusion: on}
		fmt.Printf("[Textures] %s\n", onOff(on))
	}
	if c.pressed(kb, core.KeyL) {
		if p.Light.Source == settings.LightSpherical {
			p.Light.Source = settings.LightFromCamera
		} else {
			p.Light.Source = settings.LightSpherical
		}
		fmt.Printf("[Light] %s\n", p.Light.Source)
	}
	if c.pressed(kb, core.KeyC) {
		if p.Camera.Mode == settings.TrackballCamera {
			p.Camera.Mode = settings.FirstPersonCamera
		} else {
			p.Camera.Mode = settings.TrackballCamera
		}
		fmt.Printf("[Camera] %s\n", p.Camera.Mode)
	}

	if kb.IsKeyPressed(core.KeyMinus) {
		p.Bloom.Exposure -= exposureRate * dt
	}
	if kb.IsKeyPressed(core.KeyEqual) {
		p.Bloom.Exposure += exposureRate * dt
	}
	if kb.IsKeyPressed(core.KeyLeftBracket) {
		p.SSAO.Intensity -= intensityRate * dt
	}
	if kb.IsKeyPressed(core.KeyRightBracket) {
		p.SSAO.Intensity += intensityRate * dt
	}
	if kb.IsKeyPressed(core.KeyComma) {
		p.Bloom.Threshold -= thresholdRate * dt
	}
	if kb.IsKeyPressed(core.KeyPeriod) {
		p.Bloom.Threshold += thresholdRate * dt
	}

	p = p.Clamp()
	return p, p != before
}

// onFrame is installed as the viewer's frame hook.
func (c *controls) onFrame(v *renderer.Viewer, stats renderer.FrameStats, dt float64) {
	w := v.Window()
	if p, changed := c.apply(w, v.Params(), float32(dt)); changed {
		v.SetParams(p)
	}
	if c.pressed(w, core.KeyK) {
		args := v.Camera().LookAtArgs()
		w.SetClipboardString(args)
		fmt.Printf("[Camera] copied %s\n", args)
	}
	if title, ok := c.hud.tick(dt, stats, v.Params()); ok {
		w.SetTitle(title)
	}
}

// hud accumulates frame times and produces a window title twice a second.
type hud struct {
	frames  int
	elapsed float64
}

const hudInterval = 0.5

func (h *hud) tick(dt float64, stats renderer.FrameStats, p settings.RenderParams) (string, bool) {
	h.frames++
	h.elapsed += dt
	if h.elapsed < hudInterval {
		return "", false
	}
	fps := float64(h.frames) / h.elapsed
	title := fmt.Sprintf("glTF Viewer | %.1f fps (%.2f ms) | %s | %d draws | %s camera",
		fps, 1000/fps, p.Display.Channel, stats.Draws, p.Camera.Mode)
	h.frames, h.elapsed = 0, 0
	return title, true
}
