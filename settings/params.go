package settings

import (
	"fmt"
	"math"
	"strings"
)

// DebugChannel selects what the final image shows.
type DebugChannel int

const (
	Beauty DebugChannel = iota
	Position
	Normal
	Diffuse
	OcclusionMetalRoughness
	Emissive
	Depth
)

var channelNames = []string{"beauty", "position", "normal", "diffuse", "occlusion-metal-roughness", "emissive", "depth"}

// Channels lists every channel in key-binding order: Position is 1, Beauty is 7.
var Channels = []DebugChannel{Position, Normal, Diffuse, OcclusionMetalRoughness, Emissive, Depth, Beauty}

func (c DebugChannel) String() string {
	if c < 0 || int(c) >= len(channelNames) {
		return fmt.Sprintf("channel(%d)", int(c))
	}
	return channelNames[c]
}

func (c DebugChannel) MarshalText() ([]byte, error) {
	if c < 0 || int(c) >= len(channelNames) {
		return nil, fmt.Errorf("unknown debug channel %d", int(c))
	}
	return []byte(channelNames[c]), nil
}

func (c *DebugChannel) UnmarshalText(text []byte) error {
	name := strings.ToLower(strings.TrimSpace(string(text)))
	for i, n := range channelNames {
		if n == name {
			*c = DebugChannel(i)
			return nil
		}
	}
	return fmt.Errorf("unknown debug channel %q", name)
}

// LightSource selects how the directional light is oriented.
type LightSource int

const (
	// LightFromCamera points the light along the view direction.
	LightFromCamera LightSource = iota
	// LightSpherical uses Theta and Phi.
	LightSpherical
)

func (s LightSource) String() string {
	if s == LightSpherical {
		return "spherical"
	}
	return "camera"
}

func (s LightSource) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *LightSource) UnmarshalText(text []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(text))) {
	case "camera":
		*s = LightFromCamera
	case "spherical":
		*s = LightSpherical
	default:
		return fmt.Errorf("unknown light source %q", text)
	}
	return nil
}

// CameraMode selects the active camera controller.
type CameraMode int

const (
	FirstPersonCamera CameraMode = iota
	TrackballCamera
)

func (m CameraMode) String() string {
	if m == TrackballCamera {
		return "trackball"
	}
	return "first-person"
}

func (m CameraMode) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

func (m *CameraMode) UnmarshalText(text []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(text))) {
	case "first-person":
		*m = FirstPersonCamera
	case "trackball":
		*m = TrackballCamera
	default:
		return fmt.Errorf("unknown camera mode %q", text)
	}
	return nil
}

type Light struct {
	Source LightSource `toml:"source" yaml:"source" json:"source"`
	// Theta is the polar angle from +Y, Phi the azimuth around +Y, both radians.
	Theta     float32    `toml:"theta" yaml:"theta" json:"theta"`
	Phi       float32    `toml:"phi" yaml:"phi" json:"phi"`
	Color     [3]float32 `toml:"color" yaml:"color" json:"color"`
	Intensity float32    `toml:"intensity" yaml:"intensity" json:"intensity"`
}

// Radiance is Color scaled by Intensity.
func (l Light) Radiance() [3]float32 {
	return [3]float32{l.Color[0] * l.Intensity, l.Color[1] * l.Intensity, l.Color[2] * l.Intensity}
}

// Textures toggles material texture channels. A disabled channel samples the
// white default texture instead.
type Textures struct {
	BaseColor         bool `toml:"base_color" yaml:"base_color" json:"base_color"`
	MetallicRoughness bool `toml:"metallic_roughness" yaml:"metallic_roughness" json:"metallic_roughness"`
	Emissive          bool `toml:"emissive" yaml:"emissive" json:"emissive"`
	Occlusion         bool `toml:"occlusion" yaml:"occlusion" json:"occlusion"`
}

type SSAO struct {
	Enabled    bool    `toml:"enabled" yaml:"enabled" json:"enabled"`
	KernelSize int     `toml:"kernel_size" yaml:"kernel_size" json:"kernel_size"`
	Radius     float32 `toml:"radius" yaml:"radius" json:"radius"`
	Bias       float32 `toml:"bias" yaml:"bias" json:"bias"`
	Intensity  float32 `toml:"intensity" yaml:"intensity" json:"intensity"`
}

type Bloom struct {
	Enabled   bool       `toml:"enabled" yaml:"enabled" json:"enabled"`
	Quality   int        `toml:"quality" yaml:"quality" json:"quality"`
	MaxLod    int        `toml:"max_lod" yaml:"max_lod" json:"max_lod"`
	Threshold float32    `toml:"threshold" yaml:"threshold" json:"threshold"`
	Tint      [3]float32 `toml:"tint" yaml:"tint" json:"tint"`
	Intensity float32    `toml:"intensity" yaml:"intensity" json:"intensity"`
	Exposure  float32    `toml:"exposure" yaml:"exposure" json:"exposure"`
	// BloomOnly shows the blurred bright pass alone.
	BloomOnly bool `toml:"bloom_only" yaml:"bloom_only" json:"bloom_only"`
}

type Display struct {
	Channel DebugChannel `toml:"channel" yaml:"channel" json:"channel"`
}

type Camera struct {
	Mode CameraMode `toml:"mode" yaml:"mode" json:"mode"`
}

// RenderParams is every tunable the frame orchestrator reads. It is a plain
// value: the renderer takes a copy at the start of a frame.
type RenderParams struct {
	Light    Light    `toml:"light" yaml:"light" json:"light"`
	Textures Textures `toml:"textures" yaml:"textures" json:"textures"`
	SSAO     SSAO     `toml:"ssao" yaml:"ssao" json:"ssao"`
	Bloom    Bloom    `toml:"bloom" yaml:"bloom" json:"bloom"`
	Display  Display  `toml:"display" yaml:"display" json:"display"`
	Camera   Camera   `toml:"camera" yaml:"camera" json:"camera"`
}

const MaxKernelSize = 64

func Defaults() RenderParams {
	return RenderParams{
		Light: Light{
			Source:    LightFromCamera,
			Theta:     math.Pi / 4,
			Phi:       math.Pi / 4,
			Color:     [3]float32{1, 1, 1},
			Intensity: 1,
		},
		Textures: Textures{BaseColor: true, MetallicRoughness: true, Emissive: true, Occlusion: true},
		SSAO: SSAO{
			Enabled:    true,
			KernelSize: MaxKernelSize,
			Radius:     0.5,
			Bias:       0.025,
			Intensity:  1,
		},
		Bloom: Bloom{
			Enabled:   true,
			Quality:   5,
			MaxLod:    4,
			Threshold: 1,
			Tint:      [3]float32{1, 1, 1},
			Intensity: 1,
			Exposure:  1,
		},
		Display: Display{Channel: Beauty},
		Camera:  Camera{Mode: FirstPersonCamera},
	}
}

// Clamp forces every value into its allowed range.
func (p RenderParams) Clamp() RenderParams {
	p.SSAO.KernelSize = clampInt(p.SSAO.KernelSize, 1, MaxKernelSize)
	p.SSAO.Radius = clamp(p.SSAO.Radius, 0, 5)
	p.SSAO.Bias = clamp(p.SSAO.Bias, 0, 1)
	p.SSAO.Intensity = clamp(p.SSAO.Intensity, 0, 10)

	p.Bloom.Quality = clampInt(p.Bloom.Quality, 0, 10)
	p.Bloom.MaxLod = clampInt(p.Bloom.MaxLod, 0, 7)
	p.Bloom.Threshold = clamp(p.Bloom.Threshold, 0, 3)
	p.Bloom.Intensity = clamp(p.Bloom.Intensity, 0, 10)
	p.Bloom.Exposure = clamp(p.Bloom.Exposure, 0, 2)
	for i := range p.Bloom.Tint {
		p.Bloom.Tint[i] = clamp(p.Bloom.Tint[i], 0, 1)
	}

	p.Light.Theta = clamp(p.Light.Theta, 0, math.Pi)
	p.Light.Phi = clamp(p.Light.Phi, 0, 2*math.Pi)
	p.Light.Intensity = clamp(p.Light.Intensity, 0, 100)
	for i := range p.Light.Color {
		p.Light.Color[i] = clamp(p.Light.Color[i], 0, 1)
	}

	if p.Display.Channel < Beauty || p.Display.Channel > Depth {
		p.Display.Channel = Beauty
	}
	if p.Light.Source != LightSpherical {
		p.Light.Source = LightFromCamera
	}
	if p.Camera.Mode != TrackballCamera {
		p.Camera.Mode = FirstPersonCamera
	}
	return p
}

func clamp(v, lo, hi float32) float32 {
	if math.IsNaN(float64(v)) {
		return lo
	}
	return max(lo, min(hi, v))
}

func clampInt(v, lo, hi int) int {
	return max(lo, min(hi, v))
}
