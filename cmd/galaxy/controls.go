package main

import (
	"github.com/chewxy/math32"

	"galaxy-render/core"
	"galaxy-render/scene"
)

const (
	rotateSpeed = 0.005 // radians per screen pixel dragged
	zoomStep    = 0.95  // distance factor per scroll notch
)

// orbitControls turns window input into camera orbit/zoom and pointer
// updates. All callbacks run on the main thread inside PollEvents.
type orbitControls struct {
	window *core.Window
	scene  *scene.Scene

	lastX, lastY float64
	dragging     bool
}

func newOrbitControls(window *core.Window, s *scene.Scene) *orbitControls {
	c := &orbitControls{window: window, scene: s}
	window.SetCursorCallback(c.onCursor)
	window.SetScrollCallback(c.onScroll)
	return c
}

func (c *orbitControls) onCursor(x, y float64) {
	cam := c.scene.Camera

	// Left-drag orbits
	if c.window.IsMouseButtonPressed(core.MouseButtonLeft) {
		if c.dragging {
			cam.Orbit(
				-float32(x-c.lastX)*rotateSpeed,
				float32(y-c.lastY)*rotateSpeed,
			)
		}
		c.dragging = true
	} else {
		c.dragging = false
	}
	c.lastX, c.lastY = x, y

	w, h := c.window.GetWindowSize()
	c.scene.Pointer.Move(float32(x), float32(y), float32(w), float32(h), &cam.Camera)
}

func (c *orbitControls) onScroll(_, yoff float64) {
	c.scene.Camera.Zoom(math32.Pow(zoomStep, float32(yoff)))
}
