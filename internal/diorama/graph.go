package diorama

import "strings"

// Input is a bit set of pipeline parameters.
type Input uint32

const (
	InSourceArea Input = 1 << iota
	InSamplingResolution
	InDisplayArea
	InMeshResolution
	InExaggeration
	InColorTextureResolution
	InShading
	InPadding
	InTopSurface
	InGlassTextureResolution

	AllInputs = InGlassTextureResolution<<1 - 1
)

// Stage is one derived artifact of the pipeline.
type Stage int

// Stages in dependency order.
const (
	StageSampler Stage = iota
	StageMesh
	StageTexture
	StageSurfaceBox
	StageTopSurface
	StageGlassBox
	numStages
)

var stageNames = [numStages]string{"sampler", "mesh", "texture", "surface-box", "top-surface", "glass-box"}

func (s Stage) String() string {
	if s >= 0 && s < numStages {
		return stageNames[s]
	}
	return "unknown"
}

// node declares the upstream edges of a stage.
type node struct {
	inputs Input
	after  []Stage
}

// graph lists every stage's dependencies. Stages only depend on stages
// declared before them.
var graph = [numStages]node{
	StageSampler:    {inputs: InSourceArea | InSamplingResolution},
	StageMesh:       {inputs: InDisplayArea | InMeshResolution | InExaggeration, after: []Stage{StageSampler}},
	StageTexture:    {inputs: InColorTextureResolution | InShading, after: []Stage{StageMesh}},
	StageSurfaceBox: {inputs: InPadding, after: []Stage{StageMesh}},
	StageTopSurface: {inputs: InDisplayArea | InTopSurface | InGlassTextureResolution, after: []Stage{StageSampler}},
	StageGlassBox:   {inputs: InGlassTextureResolution, after: []Stage{StageMesh, StageTopSurface}},
}

// StageSet is a set of stages.
type StageSet uint32

// Has reports whether s is in the set.
func (set StageSet) Has(s Stage) bool { return set&(1<<s) != 0 }

func (set StageSet) with(s Stage) StageSet { return set | 1<<s }

func (set StageSet) String() string {
	var names []string
	for s := range numStages {
		if set.Has(s) {
			names = append(names, s.String())
		}
	}
	return "{" + strings.Join(names, ",") + "}"
}

// allStages contains every stage.
const allStages = StageSet(1<<numStages - 1)

// Affected returns the stages invalidated by a change of the given inputs,
// including everything downstream of them.
func Affected(changed Input) StageSet {
	var dirty StageSet
	for s := range numStages {
		n := graph[s]
		if n.inputs&changed != 0 {
			dirty = dirty.with(s)
			continue
		}
		for _, up := range n.after {
			if dirty.Has(up) {
				dirty = dirty.with(s)
				break
			}
		}
	}
	return dirty
}
