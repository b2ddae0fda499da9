package tableau

import (
	"log"
)

// Rotate orbits the camera, angles in degrees
func (t *Tableau) Rotate(dYaw, dPitch float32) {
	if t.Controls.Rotate(dYaw, dPitch) {
		t.applyControls()
	}
}

// Zoom scales the orbit distance, clamped to the configured limits
func (t *Tableau) Zoom(scale float32) {
	if t.Controls.Zoom(scale) {
		t.applyControls()
	}
}

func (t *Tableau) Pan(dx, dy float32) {
	if t.Controls.Pan(dx, dy) {
		t.applyControls()
	}
}

// Reset puts the orbit back where setup left it
func (t *Tableau) Reset() {
	*t.Controls = t.initialControls
	t.applyControls()
}

// Resize sets the camera aspect to exactly width/height.
// Non-positive sizes are rejected and change nothing.
func (t *Tableau) Resize(width, height int) error {
	if err := t.Camera.Resize(width, height); err != nil {
		return err
	}
	t.placeFlare()
	return nil
}

func (t *Tableau) applyControls() {
	if err := t.Controls.Apply(t.CameraNode); err != nil {
		log.Printf("[tableau] Failed to apply orbit: %v", err)
		return
	}
	t.placeFlare()
}
