package renderer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"gltf-viewer/settings"
)

func TestPlanFrame(t *testing.T) {
	tests := []struct {
		name   string
		modify func(p *settings.RenderParams)
		want   []Pass
	}{
		{
			name:   "defaults",
			modify: func(p *settings.RenderParams) {},
			want:   []Pass{PassGeometry, PassSSAO, PassSSAOBlur, PassShading, PassBloomBlur, PassComposite},
		},
		{
			name:   "ssao off clears occlusion",
			modify: func(p *settings.RenderParams) { p.SSAO.Enabled = false },
			want:   []Pass{PassGeometry, PassClearOcclusion, PassShading, PassBloomBlur, PassComposite},
		},
		{
			name:   "bloom off skips blur",
			modify: func(p *settings.RenderParams) { p.Bloom.Enabled = false },
			want:   []Pass{PassGeometry, PassSSAO, PassSSAOBlur, PassShading, PassPlainDisplay},
		},
		{
			name: "debug channel bypasses shading",
			modify: func(p *settings.RenderParams) {
				p.Display.Channel = settings.Normal
			},
			want: []Pass{PassGeometry, PassSSAO, PassSSAOBlur, PassChannelDisplay},
		},
		{
			name: "depth view",
			modify: func(p *settings.RenderParams) {
				p.Display.Channel = settings.Depth
				p.SSAO.Enabled = false
			},
			want: []Pass{PassGeometry, PassClearOcclusion, PassDepthDisplay},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := settings.Defaults()
			tt.modify(&p)
			assert.Equal(t, tt.want, PlanFrame(p))
		})
	}
}

func TestPlanFrameOcclusionAlwaysBeforeShading(t *testing.T) {
	for _, ssao := range []bool{true, false} {
		for _, ch := range settings.Channels {
			p := settings.Defaults()
			p.SSAO.Enabled = ssao
			p.Display.Channel = ch
			plan := PlanFrame(p)

			assert.Equal(t, PassGeometry, plan[0])
			occlusion := -1
			for i, pass := range plan {
				switch pass {
				case PassSSAOBlur, PassClearOcclusion:
					occlusion = i
				case PassShading, PassChannelDisplay, PassDepthDisplay:
					assert.Greater(t, i, occlusion, "%v ssao=%v", ch, ssao)
				}
			}
			assert.NotEqual(t, -1, occlusion)
		}
	}
}

func TestPassString(t *testing.T) {
	assert.Equal(t, "bloom-blur", PassBloomBlur.String())
	assert.Equal(t, "unknown", Pass(99).String())
}
