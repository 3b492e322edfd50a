package automation

import (
	"github.com/annsts/underlay/pkg/midi"
)

// CCMap routes MIDI controllers to parameter IDs.
type CCMap map[uint8]uint32

// MIDITransport maps MIDI Start, Continue and Stop onto a play/pause
// parameter. A zero ParamID disables it.
type MIDITransport struct {
	ParamID uint32
}

// AppendCC converts mapped control changes in events to points appended to
// dst, and returns the extended slice. Values are scaled from 0-127 to 0-1.
// Other events are ignored.
func (m CCMap) AppendCC(dst []Point, events []midi.Event) []Point {
	for _, e := range events {
		cc, ok := e.(midi.ControlChangeEvent)
		if !ok {
			continue
		}
		id, mapped := m[cc.Controller]
		if !mapped {
			continue
		}
		dst = append(dst, Point{
			ParamID:      id,
			SampleOffset: cc.SampleOffset(),
			Value:        cc.Normalized(),
		})
	}
	return dst
}

// Append converts Start and Continue to 1 and Stop to 0 on the play/pause
// parameter.
func (t MIDITransport) Append(dst []Point, events []midi.Event) []Point {
	if t.ParamID == 0 {
		return dst
	}
	for _, e := range events {
		var v float64
		switch e.Type() {
		case midi.EventTypeStart, midi.EventTypeContinue:
			v = 1
		case midi.EventTypeStop:
			v = 0
		default:
			continue
		}
		dst = append(dst, Point{ParamID: t.ParamID, SampleOffset: e.SampleOffset(), Value: v})
	}
	return dst
}
