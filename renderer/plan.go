package renderer

import "gltf-viewer/settings"

// Pass is one step of a frame.
type Pass int

const (
	PassGeometry Pass = iota
	PassSSAO
	PassSSAOBlur
	// PassClearOcclusion fills the blurred occlusion buffer with full
	// visibility when SSAO is off.
	PassClearOcclusion
	PassShading
	// PassChannelDisplay copies a raw G-buffer channel to the output.
	PassChannelDisplay
	PassDepthDisplay
	PassBloomBlur
	PassComposite
	// PassPlainDisplay tone maps the shaded image without the bloom term.
	PassPlainDisplay
)

var passNames = [...]string{
	PassGeometry:       "geometry",
	PassSSAO:           "ssao",
	PassSSAOBlur:       "ssao-blur",
	PassClearOcclusion: "clear-occlusion",
	PassShading:        "shading",
	PassChannelDisplay: "channel-display",
	PassDepthDisplay:   "depth-display",
	PassBloomBlur:      "bloom-blur",
	PassComposite:      "composite",
	PassPlainDisplay:   "plain-display",
}

func (p Pass) String() string {
	if p < 0 || int(p) >= len(passNames) {
		return "unknown"
	}
	return passNames[p]
}

// PlanFrame lists the passes one frame runs for p, in order. Occlusion is
// always produced, even for debug views, so the buffer shading reads is never
// stale. Debug views end the frame without shading.
func PlanFrame(p settings.RenderParams) []Pass {
	passes := []Pass{PassGeometry}
	if p.SSAO.Enabled {
		passes = append(passes, PassSSAO, PassSSAOBlur)
	} else {
		passes = append(passes, PassClearOcclusion)
	}

	switch p.Display.Channel {
	case settings.Beauty:
	case settings.Depth:
		return append(passes, PassDepthDisplay)
	default:
		return append(passes, PassChannelDisplay)
	}

	passes = append(passes, PassShading)
	if p.Bloom.Enabled {
		return append(passes, PassBloomBlur, PassComposite)
	}
	return append(passes, PassPlainDisplay)
}
