package render

import (
	"github.com/go-gl/mathgl/mgl32"
)

// SurfaceSize reports the host container's current drawing size in pixels.
// The camera polls it every tick and re-derives its aspect ratio, which is
// how resizes are picked up without any event plumbing from the host.
type SurfaceSize func() (width, height int)

// Camera is a perspective camera looking at the graph. Orbit/zoom controls
// belong to the host; the core only needs view and projection matrices per
// frame.
type Camera struct {
	Eye    mgl32.Vec3
	Target mgl32.Vec3
	Up     mgl32.Vec3
	FOV    float32 // vertical field of view, degrees
	Near   float32
	Far    float32

	surface SurfaceSize
	aspect  float32
}

// NewCamera creates a camera with sensible defaults for a settling graph,
// polling the given surface for its aspect ratio.
func NewCamera(surface SurfaceSize) *Camera {
	return &Camera{
		Eye:     mgl32.Vec3{0, 0, 200},
		Target:  mgl32.Vec3{0, 0, 0},
		Up:      mgl32.Vec3{0, 1, 0},
		FOV:     45,
		Near:    0.1,
		Far:     10000,
		surface: surface,
		aspect:  1,
	}
}

// Poll re-reads the surface size and updates the aspect ratio. Returns
// true when the aspect changed since the last poll.
func (c *Camera) Poll() bool {
	if c.surface == nil {
		return false
	}
	w, h := c.surface()
	if w <= 0 || h <= 0 {
		return false
	}
	aspect := float32(w) / float32(h)
	if aspect == c.aspect {
		return false
	}
	c.aspect = aspect
	return true
}

// Aspect returns the last polled aspect ratio.
func (c *Camera) Aspect() float32 { return c.aspect }

// View returns the current view matrix.
func (c *Camera) View() mgl32.Mat4 {
	return mgl32.LookAtV(c.Eye, c.Target, c.Up)
}

// Projection returns the current projection matrix.
func (c *Camera) Projection() mgl32.Mat4 {
	return mgl32.Perspective(mgl32.DegToRad(c.FOV), c.aspect, c.Near, c.Far)
}

// Distance returns the camera distance to a world position, used by label
// billboards for their fade.
func (c *Camera) Distance(p mgl32.Vec3) float32 {
	return c.Eye.Sub(p).Len()
}
