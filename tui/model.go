package tui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"go-steps/config"
	"go-steps/debug"
	"go-steps/midi"
	"go-steps/sequencer"
	"go-steps/tempo"
	"go-steps/theme"
	"go-steps/widgets"
)

const bpmStep = 5

type Model struct {
	Transport *sequencer.Transport
	Config    *config.Config
	Theme     *theme.Theme
	MIDISink  *midi.Sink    // nil when MIDI out is not configured
	Watcher   *midi.Watcher // nil disables hot-plug

	events     <-chan tea.Msg
	keyboard   *midi.Keyboard
	kit        midi.Kit
	colors     map[sequencer.SoundID]lipgloss.Color
	bpmInput   textinput.Model
	editingBPM bool
	showHelp   bool
	cursor     int
	playhead   int
	running    bool
	message    string
	warn       bool
	width      int
	quitting   bool
}

// keyboardOpenedMsg reports the result of opening the configured MIDI keyboard
type keyboardOpenedMsg struct {
	keyboard *midi.Keyboard
	err      error
}

// sinkAttachedMsg reports the result of reattaching the MIDI out sink
type sinkAttachedMsg struct {
	port string
	err  error
}

func NewModel(tr *sequencer.Transport, events <-chan tea.Msg, cfg *config.Config, th *theme.Theme) Model {
	colors := make(map[sequencer.SoundID]lipgloss.Color, len(cfg.Sounds))
	for i, s := range cfg.Sounds {
		colors[sequencer.SoundID(s.Name)] = th.SoundColor(i, len(cfg.Sounds))
	}

	return Model{
		Transport: tr,
		Config:    cfg,
		Theme:     th,
		events:    events,
		kit:       midi.GetKit(cfg.Output.Kit),
		colors:    colors,
		bpmInput:  newBPMInput(),
		playhead:  -1,
	}
}

func newBPMInput() textinput.Model {
	ti := textinput.New()
	ti.Prompt = "bpm: "
	ti.CharLimit = 3
	ti.Width = 4
	return ti
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{ListenForEvents(m.events)}
	if m.Watcher != nil {
		cmds = append(cmds, ListenForPorts(m.Watcher))
	}
	return tea.Batch(cmds...)
}

// Close releases the MIDI keyboard, if one was opened
func (m Model) Close() {
	if m.keyboard != nil {
		m.keyboard.Close()
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.editingBPM {
			return m.updateBPMInput(msg)
		}
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width

	case StepMsg:
		m.playhead = msg.Index
		return m, ListenForEvents(m.events)

	case PlaybackMsg:
		m.running = msg.Running
		if !msg.Running {
			m.playhead = -1
		}
		return m, ListenForEvents(m.events)

	case BpmRejectedMsg:
		m.setWarning(fmt.Sprintf("BPM %d rejected: %v", msg.Attempted, msg.Reason))
		return m, ListenForEvents(m.events)

	case TriggerFailedMsg:
		m.setWarning(fmt.Sprintf("step %d (%s) failed: %v", msg.Index+1, msg.Step.Name, msg.Err))
		return m, ListenForEvents(m.events)

	case NothingQueuedMsg:
		m.setWarning("Nothing queued, press 1-9 to add sounds")
		return m, ListenForEvents(m.events)

	case NoteMsg:
		if msg.Keyboard != m.keyboard {
			return m, nil
		}
		m.enqueueNote(msg.Event.Note)
		return m, ListenForNotes(m.keyboard)

	case keyboardClosedMsg:
		if msg.keyboard == m.keyboard {
			m.keyboard = nil
		}

	case keyboardOpenedMsg:
		if msg.err != nil {
			m.setWarning("keyboard: " + midi.Describe(msg.err))
			return m, nil
		}
		if m.keyboard != nil {
			m.keyboard.Close()
		}
		m.keyboard = msg.keyboard
		m.setInfo("keyboard: " + m.keyboard.Name())
		return m, ListenForNotes(m.keyboard)

	case sinkAttachedMsg:
		if msg.err != nil {
			m.setWarning("midi out: " + midi.Describe(msg.err))
		} else {
			m.setInfo("midi out: " + msg.port)
		}

	case PortMsg:
		return m, tea.Batch(m.handlePort(midi.PortEvent(msg)), ListenForPorts(m.Watcher))
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		m.quitting = true
		m.Transport.Stop()
		return m, tea.Quit

	case key.Matches(msg, keys.Sound):
		idx := int(msg.String()[0] - '1')
		if idx >= len(m.Config.Sounds) {
			m.setWarning(fmt.Sprintf("no sound on key %s", msg.String()))
			break
		}
		m.enqueue(m.Config.Sounds[idx].Name)

	case key.Matches(msg, keys.Rest):
		m.Transport.Append(sequencer.Rest())
		m.cursor = m.Transport.Len() - 1

	case key.Matches(msg, keys.Left):
		m.moveCursor(-1)

	case key.Matches(msg, keys.Right):
		m.moveCursor(1)

	case key.Matches(msg, keys.Delete):
		if removed, ok := m.Transport.RemoveAt(m.cursor); ok {
			m.setInfo("removed " + removed.Name)
			m.moveCursor(0)
		}

	case key.Matches(msg, keys.Preview):
		if step, ok := m.Transport.Sequence().At(m.cursor); ok {
			if err := m.Transport.Preview(step); err != nil {
				m.setWarning(fmt.Sprintf("preview %s: %v", step.Name, err))
			}
		}

	case key.Matches(msg, keys.Play):
		if _, err := m.Transport.Start(); err != nil && !errors.Is(err, sequencer.ErrEmptySequence) {
			m.setWarning(err.Error())
		}

	case key.Matches(msg, keys.Loop):
		m.setInfo(onOff("loop", m.Transport.ToggleLoop()))

	case key.Matches(msg, keys.Swing):
		m.setInfo(onOff("swing", m.Transport.ToggleSwing()))

	case key.Matches(msg, keys.Faster):
		if err := m.Transport.NudgeBPM(bpmStep); err == nil {
			m.message = ""
		}

	case key.Matches(msg, keys.Slower):
		if err := m.Transport.NudgeBPM(-bpmStep); err == nil {
			m.message = ""
		}

	case key.Matches(msg, keys.SetBPM):
		m.editingBPM = true
		m.bpmInput.Reset()
		m.bpmInput.Placeholder = strconv.Itoa(m.Transport.Settings().BPM)
		return m, m.bpmInput.Focus()

	case key.Matches(msg, keys.Clear):
		m.Transport.Clear()
		m.cursor = 0
		m.setInfo("cleared")

	case key.Matches(msg, keys.Help):
		m.showHelp = !m.showHelp
	}

	return m, nil
}

func (m Model) updateBPMInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Confirm):
		value := strings.TrimSpace(m.bpmInput.Value())
		m.closeBPMInput()
		if value == "" {
			return m, nil
		}
		bpm, err := strconv.Atoi(value)
		if err != nil {
			m.setWarning(fmt.Sprintf("%q is not a number", value))
			return m, nil
		}
		// rejections arrive as BpmRejectedMsg
		if err := m.Transport.SetBPM(bpm); err == nil {
			m.message = ""
		}
		return m, nil

	case key.Matches(msg, keys.Cancel):
		m.closeBPMInput()
		return m, nil
	}

	var cmd tea.Cmd
	m.bpmInput, cmd = m.bpmInput.Update(msg)
	return m, cmd
}

func (m *Model) closeBPMInput() {
	m.editingBPM = false
	m.bpmInput.Blur()
	m.bpmInput.Reset()
}

func (m *Model) enqueue(name string) {
	m.Transport.Append(sequencer.NewStep(name, sequencer.SoundID(name)))
	m.cursor = m.Transport.Len() - 1
}

// enqueueNote adds the palette sound that sits on the note's kit slot
func (m *Model) enqueueNote(note uint8) {
	slot, ok := m.kit.Slot(note)
	if !ok {
		m.setWarning(fmt.Sprintf("note %d is not in the %s kit", note, m.kit.Name))
		return
	}
	sound := m.Config.SoundForSlot(slot)
	if sound == nil {
		m.setWarning(fmt.Sprintf("no sound on %s", midi.SlotNames[slot]))
		return
	}
	m.enqueue(sound.Name)
}

// moveCursor shifts the cursor by delta and keeps it on the sequence
func (m *Model) moveCursor(delta int) {
	n := m.Transport.Len()
	m.cursor += delta
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// handlePort opens the keyboard and reattaches MIDI out as their ports come and go
func (m *Model) handlePort(evt midi.PortEvent) tea.Cmd {
	switch {
	case evt.Dir == midi.PortIn && midi.Matches(evt.Name, m.Config.Input.MIDIKeyboard):
		if evt.Type == midi.PortConnected && m.keyboard == nil {
			return openKeyboard(evt.Name)
		}
		if evt.Type == midi.PortDisconnected && m.keyboard != nil && m.keyboard.Name() == evt.Name {
			m.keyboard.Close()
			m.keyboard = nil
			m.setWarning("keyboard disconnected: " + evt.Name)
		}

	case evt.Dir == midi.PortOut && m.MIDISink != nil && midi.Matches(evt.Name, m.Config.Output.MIDIPort):
		if evt.Type == midi.PortConnected && m.MIDISink.PortName() == "" {
			return attachSink(m.MIDISink, evt.Name)
		}
		if evt.Type == midi.PortDisconnected && m.MIDISink.PortName() == evt.Name {
			m.MIDISink.Detach()
			m.setWarning("midi out disconnected: " + evt.Name)
		}
	}
	return nil
}

func openKeyboard(name string) tea.Cmd {
	return func() tea.Msg {
		kb, err := midi.OpenKeyboard(name)
		return keyboardOpenedMsg{keyboard: kb, err: err}
	}
}

func attachSink(s *midi.Sink, name string) tea.Cmd {
	return func() tea.Msg {
		err := s.Attach(name)
		return sinkAttachedMsg{port: name, err: err}
	}
}

func (m *Model) setInfo(s string) {
	m.message = s
	m.warn = false
}

func (m *Model) setWarning(s string) {
	debug.Warn("tui", "%s", s)
	m.message = s
	m.warn = true
}

func onOff(name string, on bool) string {
	if on {
		return name + " on"
	}
	return name + " off"
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	settings := m.Transport.Settings()

	headerStyle := lipgloss.NewStyle().Foreground(m.Theme.Accent())
	dimStyle := lipgloss.NewStyle().Foreground(m.Theme.Muted())
	msgStyle := lipgloss.NewStyle().Foreground(m.Theme.FG())
	if m.warn {
		msgStyle = msgStyle.Foreground(m.Theme.Warning())
	}

	playState := "STOP"
	if m.running {
		playState = "PLAY"
	}
	devices := ""
	if m.MIDISink != nil && m.MIDISink.PortName() != "" {
		devices += "  out:" + m.MIDISink.PortName()
	}
	if m.keyboard != nil {
		devices += "  in:" + m.keyboard.Name()
	}
	header := headerStyle.Render(fmt.Sprintf("go-steps  %s  %3dbpm  %s%s", playState, settings.BPM, flags(settings), devices))

	entries := make([]widgets.PaletteEntry, len(m.Config.Sounds))
	for i, s := range m.Config.Sounds {
		entries[i] = widgets.PaletteEntry{
			Key:   strconv.Itoa(i + 1),
			Name:  s.Name,
			Color: m.colors[sequencer.SoundID(s.Name)],
		}
	}

	strip := widgets.RenderSteps(m.Theme, widgets.StepStrip{
		Steps:    m.Transport.Steps(),
		Cursor:   m.cursor,
		Playhead: m.playhead,
		Colors:   m.colors,
		Width:    m.width,
	})

	help := dimStyle.Render(helpLine(keys.shortHelp()))
	if m.showHelp {
		help = dimStyle.Render(widgets.RenderKeyHelp(keys.fullHelp()))
	}

	var out strings.Builder
	out.WriteString("\n")
	out.WriteString(header)
	out.WriteString("\n\n")
	out.WriteString(widgets.RenderPalette(m.Theme, entries))
	out.WriteString("\n\n")
	out.WriteString(strip)
	out.WriteString("\n\n")
	if m.editingBPM {
		out.WriteString(m.bpmInput.View())
		out.WriteString("\n")
	} else if m.message != "" {
		out.WriteString(msgStyle.Render(m.message))
		out.WriteString("\n")
	}
	out.WriteString(help)

	return out.String()
}

func flags(s tempo.Settings) string {
	var f []string
	if s.Swing {
		f = append(f, "swing")
	}
	if s.Loop {
		f = append(f, "loop")
	}
	return strings.Join(f, " ")
}
