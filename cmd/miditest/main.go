package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"time"

	"go-steps/midi"
	"go-steps/sequencer"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		return
	}

	var err error
	switch os.Args[1] {
	case "list":
		err = listPorts()
	case "kit":
		name := midi.DefaultKit
		if len(os.Args) > 2 {
			name = os.Args[2]
		}
		printKit(name)
	case "trigger":
		if len(os.Args) < 4 {
			usage()
			return
		}
		err = trigger(os.Args[2], os.Args[3])
	case "watch":
		watch()
	default:
		usage()
	}

	if err != nil {
		fmt.Printf("Error: %s\n", midi.Describe(err))
		os.Exit(1)
	}
}

func usage() {
	fmt.Println("MIDI Test Scripts")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  list                 - List all MIDI ports")
	fmt.Println("  kit [name]           - Show a drum kit's slot to note map")
	fmt.Println("  trigger <port> <n>   - Play slot n (0-15) of the GM kit on port")
	fmt.Println("  watch                - Print ports as they connect/disconnect")
}

func listPorts() error {
	fmt.Println("(waiting up to 3 seconds...)")

	ins, outs, err := midi.ListPorts()
	if err != nil {
		return err
	}

	fmt.Println("=== MIDI Input Ports ===")
	for i, p := range ins {
		fmt.Printf("  %d: %s\n", i, p)
	}
	fmt.Println("\n=== MIDI Output Ports ===")
	for i, p := range outs {
		fmt.Printf("  %d: %s\n", i, p)
	}
	return nil
}

func printKit(name string) {
	kit := midi.GetKit(name)
	fmt.Printf("=== %s ===\n", kit.Name)
	for slot, note := range kit.Notes {
		fmt.Printf("  %2d %-9s note %d\n", slot, midi.SlotNames[slot], note)
	}
	fmt.Printf("\nkits: %v\n", midi.KitNames())
}

func trigger(port, slotArg string) error {
	slot, err := strconv.Atoi(slotArg)
	if err != nil {
		return fmt.Errorf("slot %q: %w", slotArg, err)
	}

	sink, err := midi.Open(port, 10, midi.GetKit(midi.DefaultKit), 200*time.Millisecond)
	if err != nil {
		return err
	}
	defer sink.Close()

	id := sequencer.SoundID(fmt.Sprintf("slot%d", slot))
	if err := sink.Map(id, slot); err != nil {
		return err
	}

	fmt.Printf("Sending %s (note %d) to %s\n", midi.SlotNames[slot], sink.Kit().Notes[slot], sink.PortName())
	if err := sink.Trigger(id); err != nil {
		return err
	}

	// let the scheduled NoteOff go out
	time.Sleep(300 * time.Millisecond)
	fmt.Println("Done")
	return nil
}

func watch() {
	fmt.Println("Watching MIDI ports (Ctrl+C to quit)...")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	w := midi.NewWatcher(time.Second)
	go w.Run(ctx)

	for e := range w.Events() {
		fmt.Printf("[%s] %-3s %-12s %s\n", time.Now().Format("15:04:05"), e.Dir, e.Type, e.Name)
	}
}
