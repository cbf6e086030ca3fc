package wm

import "github.com/BurntSushi/xgb/xproto"

// Masks are the event masks selected on each kind of window.
type Masks struct {
	// Client is selected on managed client windows.
	Client uint32
	// Frame is selected on frames once reparenting is finished.
	Frame uint32
	// FrameReparent is Frame without pointer entry, used while a client is
	// being reparented so the synthetic entry is not taken for user input.
	FrameReparent uint32
	// Acquire is selected on the root to claim the manager role.
	Acquire uint32
	// Root is selected on the root once the startup scan is done.
	Root uint32
	// Grab is the pointer event mask of the button grab on clients.
	Grab uint16
}

// NewMasks builds the mask set.
func NewMasks() Masks {
	frame := uint32(xproto.EventMaskButtonPress |
		xproto.EventMaskButtonRelease |
		xproto.EventMaskButtonMotion |
		xproto.EventMaskExposure |
		xproto.EventMaskStructureNotify |
		xproto.EventMaskSubstructureNotify |
		xproto.EventMaskSubstructureRedirect |
		xproto.EventMaskEnterWindow)

	return Masks{
		Client: xproto.EventMaskPropertyChange |
			xproto.EventMaskSubstructureNotify |
			xproto.EventMaskFocusChange,
		Frame:         frame,
		FrameReparent: frame &^ xproto.EventMaskEnterWindow,
		Acquire:       xproto.EventMaskSubstructureRedirect | xproto.EventMaskSubstructureNotify,
		Root: xproto.EventMaskButtonPress |
			xproto.EventMaskStructureNotify |
			xproto.EventMaskSubstructureRedirect |
			xproto.EventMaskPointerMotion |
			xproto.EventMaskPropertyChange |
			xproto.EventMaskFocusChange |
			xproto.EventMaskEnterWindow,
		Grab: xproto.EventMaskButtonPress |
			xproto.EventMaskButtonRelease |
			xproto.EventMaskButtonMotion,
	}
}
