package opengl

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSSAOKernel(t *testing.T) {
	kernel := GenerateSSAOKernel(SSAOKernelSize, ssaoKernelSeed)
	require.Len(t, kernel, SSAOKernelSize)

	for i, k := range kernel {
		tt := float32(i) / SSAOKernelSize
		want := 0.1 + 0.9*tt*tt
		assert.InDelta(t, want, k.Len(), 1e-4, "sample %d", i)
		assert.GreaterOrEqual(t, k.Z(), float32(0), "sample %d", i)
		assert.LessOrEqual(t, k.Len(), float32(1.0001), "sample %d", i)
		if i > 0 {
			assert.GreaterOrEqual(t, k.Len()+1e-5, kernel[i-1].Len(), "sample %d", i)
		}
	}

	assert.Equal(t, kernel, GenerateSSAOKernel(SSAOKernelSize, ssaoKernelSeed))
	assert.NotEqual(t, kernel, GenerateSSAOKernel(SSAOKernelSize, 7))
}

func TestSSAONoise(t *testing.T) {
	noise := GenerateSSAONoise(ssaoNoiseSeed)
	require.Len(t, noise, ssaoNoiseSize*ssaoNoiseSize)
	for i, n := range noise {
		assert.Zero(t, n.Z(), "noise %d", i)
		assert.Greater(t, n.Len(), float32(0), "noise %d", i)
		assert.LessOrEqual(t, n.X(), float32(1))
		assert.GreaterOrEqual(t, n.X(), float32(-1))
	}
	assert.Equal(t, noise, GenerateSSAONoise(ssaoNoiseSeed))
}

func TestBlurPlan(t *testing.T) {
	assert.Empty(t, BlurPlan(0))
	assert.Empty(t, BlurPlan(-3))
	assert.Equal(t, []int{0, 1}, BlurPlan(1))

	plan := BlurPlan(3)
	require.Len(t, plan, 6)
	// The last write always lands in the second ping-pong target.
	assert.Equal(t, 1, plan[len(plan)-1])
	assert.Equal(t, []int{0, 1, 0, 1, 0, 1}, plan)
}

func TestSSAOSkipsBackgroundSamples(t *testing.T) {
	skip := strings.Index(ssaoFragSrc, "texture(uGNormal, offset.xy)")
	depth := strings.Index(ssaoFragSrc, "texture(uGPosition, offset.xy).z")
	require.NotEqual(t, -1, skip, "samples must read the normal at the offset")
	require.NotEqual(t, -1, depth)
	assert.Less(t, skip, depth)
	assert.Contains(t, ssaoFragSrc[skip:depth], "continue;")
}
