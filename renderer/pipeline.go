package renderer

import (
	"errors"
	"fmt"

	"galaxy-render/scene"
)

// Target is where a pass writes.
type Target int

const (
	// TargetScreen renders the base layer, mixes in the latest bloom result
	// and presents to the window.
	TargetScreen Target = iota
	// TargetBloom renders off-screen into the bloom composer.
	TargetBloom
)

func (t Target) String() string {
	switch t {
	case TargetScreen:
		return "screen"
	case TargetBloom:
		return "bloom"
	default:
		return fmt.Sprintf("Target(%d)", int(t))
	}
}

// Pass describes one composer invocation. Layers filters which field nodes
// the pass draws; it is handed to the composer, never stored on the camera.
type Pass struct {
	Name    string
	Layers  scene.LayerMask
	Target  Target
	Present bool
}

// ErrInvalidPass is returned by Run for a malformed pass list.
var ErrInvalidPass = errors.New("invalid pass")

// Composer executes a single pass. Implementations draw nodes into the pass
// target with the frame uniforms.
type Composer interface {
	Render(pass Pass, nodes []*scene.Node, frame scene.FrameUniforms) error
}

// BloomPasses is the selective-bloom frame: glow for the bloom layer first,
// then the base layer mixed with it on screen.
func BloomPasses() []Pass {
	return []Pass{
		{Name: "bloom", Layers: scene.MaskBloom, Target: TargetBloom},
		{Name: "final", Layers: scene.MaskBase, Target: TargetScreen, Present: true},
	}
}

// DirectPasses draws every layer straight to the screen, without bloom.
func DirectPasses() []Pass {
	return []Pass{
		{Name: "direct", Layers: scene.MaskAll, Target: TargetScreen, Present: true},
	}
}

// FrameFor collects the uniforms shared by every field in the current frame.
func FrameFor(s *scene.Scene) scene.FrameUniforms {
	frame := scene.FrameUniforms{Time: s.Time}
	if s.Pointer != nil {
		frame.Mouse = s.Pointer.Mouse
	}
	if s.Camera != nil {
		frame.CamPos = s.Camera.Position
		frame.View = s.Camera.GetViewMatrix()
		frame.Proj = s.Camera.GetProjectionMatrix()
	}
	return frame
}

// ValidatePasses checks that the list is non-empty, each pass has a layer,
// only the last pass presents, and it does so to the screen.
func ValidatePasses(passes []Pass) error {
	if len(passes) == 0 {
		return fmt.Errorf("%w: no passes", ErrInvalidPass)
	}
	for i, p := range passes {
		last := i == len(passes)-1
		switch {
		case p.Layers == 0:
			return fmt.Errorf("%w: pass %q has no layers", ErrInvalidPass, p.Name)
		case p.Target != TargetScreen && p.Target != TargetBloom:
			return fmt.Errorf("%w: pass %q has unknown target %v", ErrInvalidPass, p.Name, p.Target)
		case p.Present && (!last || p.Target != TargetScreen):
			return fmt.Errorf("%w: pass %q presents before the end of the frame", ErrInvalidPass, p.Name)
		case last && !p.Present:
			return fmt.Errorf("%w: last pass %q does not present", ErrInvalidPass, p.Name)
		}
	}
	return nil
}

// Run executes passes in order against s. The first composer error stops the
// frame and is returned.
func Run(passes []Pass, s *scene.Scene, c Composer) error {
	if err := ValidatePasses(passes); err != nil {
		return err
	}
	if s.Camera == nil {
		return errors.New("render: scene has no camera")
	}
	frame := FrameFor(s)
	for _, p := range passes {
		if err := c.Render(p, s.NodesIn(p.Layers), frame); err != nil {
			return fmt.Errorf("%s pass: %w", p.Name, err)
		}
	}
	return nil
}
