package midi

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // Register MIDI driver
)

var (
	// ErrPortsTimeout is returned when the MIDI driver does not answer in time
	ErrPortsTimeout = errors.New("midi port scan timed out")
	// ErrPortNotFound is returned when no port matches a name
	ErrPortNotFound = errors.New("midi port not found")
)

// CoreMIDI can hang; port scans give up after this
const scanTimeout = 3 * time.Second

type portsResult struct {
	ins  []drivers.In
	outs []drivers.Out
}

func scanPorts() (portsResult, error) {
	ch := make(chan portsResult, 1)
	go func() {
		ch <- portsResult{ins: gomidi.GetInPorts(), outs: gomidi.GetOutPorts()}
	}()

	select {
	case r := <-ch:
		return r, nil
	case <-time.After(scanTimeout):
		return portsResult{}, fault.Wrap(ErrPortsTimeout,
			fmsg.WithDesc("scan ports", "The MIDI driver is not responding. Try: sudo killall coreaudiod midiserver"),
			ftag.With(ftag.Internal))
	}
}

// ListPorts returns the names of the current input and output ports
func ListPorts() (ins, outs []string, err error) {
	r, err := scanPorts()
	if err != nil {
		return nil, nil, err
	}
	for _, p := range r.ins {
		ins = append(ins, p.String())
	}
	for _, p := range r.outs {
		outs = append(outs, p.String())
	}
	return ins, outs, nil
}

// FindOut returns the output port named name, or the first whose name contains it
func FindOut(name string) (drivers.Out, error) {
	r, err := scanPorts()
	if err != nil {
		return nil, err
	}
	names := make([]string, len(r.outs))
	for i, p := range r.outs {
		names[i] = p.String()
	}
	i := matchPort(names, name)
	if i < 0 {
		return nil, portNotFound(PortOut, name)
	}
	return r.outs[i], nil
}

// FindIn returns the input port named name, or the first whose name contains it
func FindIn(name string) (drivers.In, error) {
	r, err := scanPorts()
	if err != nil {
		return nil, err
	}
	names := make([]string, len(r.ins))
	for i, p := range r.ins {
		names[i] = p.String()
	}
	i := matchPort(names, name)
	if i < 0 {
		return nil, portNotFound(PortIn, name)
	}
	return r.ins[i], nil
}

func portNotFound(dir PortDir, name string) error {
	return fault.Wrap(ErrPortNotFound,
		fmsg.WithDesc(fmt.Sprintf("%s %q", dir, name), fmt.Sprintf("No MIDI %s port matches %q.", dir, name)),
		ftag.With(ftag.NotFound))
}

// Describe returns the user-facing text of a MIDI error
func Describe(err error) string {
	if issue := fmsg.GetIssue(err); issue != "" {
		return issue
	}
	return err.Error()
}

// Matches reports whether a port called name satisfies the configured want
func Matches(name, want string) bool {
	return matchPort([]string{name}, want) == 0
}

// matchPort prefers an exact name, then a case-insensitive substring
func matchPort(names []string, want string) int {
	if want == "" {
		return -1
	}
	for i, n := range names {
		if n == want {
			return i
		}
	}
	want = strings.ToLower(want)
	for i, n := range names {
		if strings.Contains(strings.ToLower(n), want) {
			return i
		}
	}
	return -1
}
