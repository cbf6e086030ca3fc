package wm

import (
	"fmt"

	"github.com/BurntSushi/xgb/xproto"
)

// FrameMap is the one-to-one association between client windows and the
// frames that hold them. Pairs only enter and leave together.
type FrameMap struct {
	byClient map[xproto.Window]xproto.Window
	byFrame  map[xproto.Window]xproto.Window
}

// NewFrameMap returns an empty map.
func NewFrameMap() *FrameMap {
	return &FrameMap{
		byClient: make(map[xproto.Window]xproto.Window),
		byFrame:  make(map[xproto.Window]xproto.Window),
	}
}

// Insert records that frame holds client. It fails if either window is
// already part of a pair, or if both are the same window.
func (m *FrameMap) Insert(client, frame xproto.Window) error {
	if client == frame {
		return fmt.Errorf("window %d cannot frame itself", client)
	}
	if _, ok := m.Resolve(client); ok {
		return fmt.Errorf("window %d is already associated", client)
	}
	if _, ok := m.Resolve(frame); ok {
		return fmt.Errorf("window %d is already associated", frame)
	}
	m.byClient[client] = frame
	m.byFrame[frame] = client
	return nil
}

// Pair is one association.
type Pair struct {
	Client, Frame xproto.Window
}

// Resolve finds the pair containing win as either half.
func (m *FrameMap) Resolve(win xproto.Window) (Pair, bool) {
	if frame, ok := m.byClient[win]; ok {
		return Pair{Client: win, Frame: frame}, true
	}
	if client, ok := m.byFrame[win]; ok {
		return Pair{Client: client, Frame: win}, true
	}
	return Pair{}, false
}

// IsFrame reports whether win is the frame half of a pair.
func (m *FrameMap) IsFrame(win xproto.Window) bool {
	_, ok := m.byFrame[win]
	return ok
}

// Remove drops the pair containing win and returns it.
func (m *FrameMap) Remove(win xproto.Window) (Pair, bool) {
	p, ok := m.Resolve(win)
	if !ok {
		return Pair{}, false
	}
	delete(m.byClient, p.Client)
	delete(m.byFrame, p.Frame)
	return p, true
}

// Len returns the number of pairs.
func (m *FrameMap) Len() int { return len(m.byClient) }

// Pairs returns a snapshot of every pair in no particular order.
func (m *FrameMap) Pairs() []Pair {
	out := make([]Pair, 0, len(m.byClient))
	for client, frame := range m.byClient {
		out = append(out, Pair{Client: client, Frame: frame})
	}
	return out
}
