package midi

import (
	"bytes"
	"context"
	"errors"
	"reflect"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Southclaws/fault/ftag"
	gomidi "gitlab.com/gomidi/midi/v2"

	"go-steps/debug"
)

type wireNote struct {
	On      bool
	Channel uint8
	Note    uint8
}

// wire records what a sink sends
type wire struct {
	mu   sync.Mutex
	msgs []wireNote
	fail error
}

func (w *wire) send(msg gomidi.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.fail != nil {
		return w.fail
	}
	var ch, note, vel uint8
	switch {
	case msg.GetNoteOn(&ch, &note, &vel):
		w.msgs = append(w.msgs, wireNote{On: true, Channel: ch, Note: note})
	case msg.GetNoteOff(&ch, &note, &vel):
		w.msgs = append(w.msgs, wireNote{On: false, Channel: ch, Note: note})
	}
	return nil
}

func (w *wire) sent() []wireNote {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]wireNote(nil), w.msgs...)
}

func on(note uint8) wireNote  { return wireNote{On: true, Channel: 9, Note: note} }
func off(note uint8) wireNote { return wireNote{On: false, Channel: 9, Note: note} }

// newTestSink sends on channel 10 with notes held for an hour unless stopped
func newTestSink(w *wire) *Sink {
	s := NewSink(w.send, 10, GetKit("gm"), time.Hour)
	s.Map("kick", 0)
	s.Map("snare", 1)
	return s
}

func TestKits(t *testing.T) {
	for _, name := range KitNames() {
		if _, ok := Kits[name]; !ok {
			t.Errorf("KitNames lists %q but Kits has no entry", name)
		}
	}
	if got := GetKit("RD8").Notes[1]; got != 40 {
		t.Errorf("rd8 snare = %d, want 40", got)
	}
	if got := GetKit("nope").Name; got != "General MIDI" {
		t.Errorf("unknown kit falls back to %q", got)
	}

	slot, ok := GetKit("gm").Slot(42)
	if !ok || slot != 2 {
		t.Errorf("Slot(42) = %d, %v; want 2", slot, ok)
	}
	if _, ok := GetKit("gm").Slot(0); ok {
		t.Error("Slot(0) should not be found")
	}
}

func TestSlotByName(t *testing.T) {
	tests := []struct {
		name string
		want int
		ok   bool
	}{
		{"kick", 0, true},
		{"Snare", 1, true},
		{"hat", 2, true},
		{"hihat", 2, true},
		{"clap", 9, true},
		{"theremin", -1, false},
	}
	for _, tt := range tests {
		got, ok := SlotByName(tt.name)
		if got != tt.want || ok != tt.ok {
			t.Errorf("SlotByName(%q) = %d, %v; want %d, %v", tt.name, got, ok, tt.want, tt.ok)
		}
	}
}

func TestSinkTrigger(t *testing.T) {
	w := &wire{}
	s := newTestSink(w)

	if err := s.Trigger("kick"); err != nil {
		t.Fatal(err)
	}
	if err := s.Trigger("snare"); err != nil {
		t.Fatal(err)
	}

	if want, got := []wireNote{on(36), on(38)}, w.sent(); !reflect.DeepEqual(want, got) {
		t.Errorf("wrong messages:\nwant: %v\ngot:  %v", want, got)
	}
}

func TestSinkRetriggerReleasesFirst(t *testing.T) {
	w := &wire{}
	s := newTestSink(w)

	s.Trigger("kick")
	s.Trigger("kick")

	if want, got := []wireNote{on(36), off(36), on(36)}, w.sent(); !reflect.DeepEqual(want, got) {
		t.Errorf("wrong messages:\nwant: %v\ngot:  %v", want, got)
	}
}

func TestSinkStopCurrent(t *testing.T) {
	w := &wire{}
	s := newTestSink(w)

	s.StopCurrent() // nothing played yet
	s.Trigger("kick")
	s.Trigger("snare")
	s.StopCurrent()
	s.StopCurrent()

	if want, got := []wireNote{on(36), on(38), off(38)}, w.sent(); !reflect.DeepEqual(want, got) {
		t.Errorf("wrong messages:\nwant: %v\ngot:  %v", want, got)
	}
}

func TestSinkNoteOffFailureLogged(t *testing.T) {
	var buf bytes.Buffer
	debug.SetOutput(&buf)
	defer debug.SetOutput(nil)

	w := &wire{}
	s := newTestSink(w)
	if err := s.Trigger("kick"); err != nil {
		t.Fatal(err)
	}

	w.mu.Lock()
	w.fail = errors.New("port gone")
	w.mu.Unlock()
	s.StopCurrent()

	if !strings.Contains(buf.String(), "WARN note off 36: port gone") {
		t.Errorf("NoteOff failure not logged:\n%s", buf.String())
	}
}

func TestSinkShortNotesPairUp(t *testing.T) {
	w := &wire{}
	s := NewSink(w.send, 10, GetKit("gm"), time.Nanosecond)
	s.Map("kick", 0)

	const n = 50
	for i := 0; i < n; i++ {
		if err := s.Trigger("kick"); err != nil {
			t.Fatal(err)
		}
	}

	deadline := time.Now().Add(2 * time.Second)
	for len(w.sent()) < 2*n && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	time.Sleep(10 * time.Millisecond) // a stray extra NoteOff would land here

	ons, offs := 0, 0
	for _, m := range w.sent() {
		if m.On {
			ons++
		} else {
			offs++
		}
	}
	if ons != n || offs != n {
		t.Errorf("got %d NoteOn and %d NoteOff, want %d of each", ons, offs, n)
	}
}

func TestSinkNoteLength(t *testing.T) {
	w := &wire{}
	s := NewSink(w.send, 1, GetKit("gm"), 5*time.Millisecond)
	s.Map("kick", 0)

	if err := s.Trigger("kick"); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for len(w.sent()) < 2 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}

	want := []wireNote{{On: true, Channel: 0, Note: 36}, {On: false, Channel: 0, Note: 36}}
	if got := w.sent(); !reflect.DeepEqual(want, got) {
		t.Errorf("wrong messages:\nwant: %v\ngot:  %v", want, got)
	}

	// already released
	s.StopCurrent()
	if got := len(w.sent()); got != 2 {
		t.Errorf("StopCurrent after release sent %d extra messages", got-2)
	}
}

func TestSinkErrors(t *testing.T) {
	detached := NewSink(nil, 1, GetKit("gm"), 0)
	detached.Map("kick", 0)
	if err := detached.Trigger("kick"); !errors.Is(err, ErrNoOutput) {
		t.Errorf("Trigger without output = %v, want ErrNoOutput", err)
	}

	w := &wire{}
	s := newTestSink(w)
	if err := s.Trigger("cowbell"); !errors.Is(err, ErrUnknownSound) {
		t.Errorf("Trigger(cowbell) = %v, want ErrUnknownSound", err)
	}
	if err := s.Map("cowbell", SlotCount); err == nil {
		t.Error("Map to out-of-range slot should fail")
	}

	w.fail = errors.New("port gone")
	if err := s.Trigger("kick"); err == nil {
		t.Error("Trigger should report send failure")
	}
}

func TestSinkCloseReleasesHeldNotes(t *testing.T) {
	w := &wire{}
	s := newTestSink(w)

	s.Trigger("kick")
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if want, got := []wireNote{on(36), off(36)}, w.sent(); !reflect.DeepEqual(want, got) {
		t.Errorf("wrong messages:\nwant: %v\ngot:  %v", want, got)
	}
	if err := s.Trigger("kick"); !errors.Is(err, ErrNoOutput) {
		t.Errorf("Trigger after Close = %v, want ErrNoOutput", err)
	}
}

func TestWireChannel(t *testing.T) {
	for in, want := range map[int]uint8{0: 0, 1: 0, 10: 9, 16: 15, 99: 15} {
		if got := wireChannel(in); got != want {
			t.Errorf("wireChannel(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestKeyboardHandle(t *testing.T) {
	kb, err := NewKeyboard("test", nil)
	if err != nil {
		t.Fatal(err)
	}

	kb.handle(gomidi.NoteOn(2, 60, 90))
	kb.handle(gomidi.NoteOn(2, 61, 0)) // running-status note off
	kb.handle(gomidi.NoteOff(2, 60))
	kb.handle(gomidi.ControlChange(2, 7, 100))
	kb.Close()
	kb.handle(gomidi.NoteOn(2, 62, 90)) // after close

	var got []NoteEvent
	for evt := range kb.Notes() {
		got = append(got, evt)
	}
	if want := []NoteEvent{{Note: 60, Velocity: 90, Channel: 2}}; !reflect.DeepEqual(want, got) {
		t.Errorf("wrong notes:\nwant: %v\ngot:  %v", want, got)
	}

	// second close is a no-op
	kb.Close()
}

func TestMatchPort(t *testing.T) {
	names := []string{"Midi Through Port-0", "TR-8S MIDI 1", "TR-8S"}
	tests := []struct {
		want string
		idx  int
	}{
		{"TR-8S", 2},
		{"tr-8s midi", 1},
		{"through", 0},
		{"", -1},
		{"launchpad", -1},
	}
	for _, tt := range tests {
		if got := matchPort(names, tt.want); got != tt.idx {
			t.Errorf("matchPort(%q) = %d, want %d", tt.want, got, tt.idx)
		}
	}
}

func TestPortNotFound(t *testing.T) {
	err := portNotFound(PortOut, "TR-8S")
	if !errors.Is(err, ErrPortNotFound) {
		t.Errorf("errors.Is(ErrPortNotFound) = false for %v", err)
	}
	if got := ftag.Get(err); got != ftag.NotFound {
		t.Errorf("tag = %v, want NotFound", got)
	}
	if got, want := Describe(err), `No MIDI out port matches "TR-8S".`; got != want {
		t.Errorf("Describe = %q, want %q", got, want)
	}
	if got := Describe(errors.New("plain")); got != "plain" {
		t.Errorf("Describe(plain) = %q", got)
	}
}

func TestWatcherEvents(t *testing.T) {
	scans := [][2][]string{
		{{"keys"}, {"drums"}},
		{{"keys"}, {"drums"}},
		{{"keys"}, {}},
		{{"keys"}, {"drums"}},
	}
	var mu sync.Mutex
	i := 0

	w := NewWatcher(time.Millisecond)
	w.list = func() ([]string, []string, error) {
		mu.Lock()
		defer mu.Unlock()
		if i >= len(scans) {
			return nil, nil, errors.New("driver hung")
		}
		s := scans[i]
		i++
		return s[0], s[1], nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	want := []PortEvent{
		{Type: PortConnected, Dir: PortIn, Name: "keys"},
		{Type: PortConnected, Dir: PortOut, Name: "drums"},
		{Type: PortDisconnected, Dir: PortOut, Name: "drums"},
		{Type: PortConnected, Dir: PortOut, Name: "drums"},
	}
	var got []PortEvent
	timeout := time.After(2 * time.Second)
	for len(got) < len(want) {
		select {
		case e := <-w.Events():
			got = append(got, e)
		case <-timeout:
			t.Fatalf("timed out; got %v", got)
		}
	}
	if !reflect.DeepEqual(want, got) {
		t.Errorf("wrong events:\nwant: %v\ngot:  %v", want, got)
	}

	// failed scans keep the last known ports
	ins, outs := w.Ports()
	sort.Strings(ins)
	if !reflect.DeepEqual(ins, []string{"keys"}) || !reflect.DeepEqual(outs, []string{"drums"}) {
		t.Errorf("Ports() = %v, %v", ins, outs)
	}

	cancel()
	for range w.Events() {
	}
}
