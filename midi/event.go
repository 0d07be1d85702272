package midi

// NoteEvent is sent when a note is played on a keyboard
type NoteEvent struct {
	Note     uint8
	Velocity uint8
	Channel  uint8
}

// PortDir tells input ports from output ports
type PortDir int

const (
	PortIn PortDir = iota
	PortOut
)

func (d PortDir) String() string {
	if d == PortOut {
		return "out"
	}
	return "in"
}

// PortEventType says whether a port appeared or went away
type PortEventType int

const (
	PortConnected PortEventType = iota
	PortDisconnected
)

func (t PortEventType) String() string {
	if t == PortDisconnected {
		return "disconnected"
	}
	return "connected"
}

// PortEvent is emitted by Watcher when ports come and go
type PortEvent struct {
	Type PortEventType
	Dir  PortDir
	Name string
}
