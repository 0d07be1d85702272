package midi

import "strings"

// SlotCount is the number of drum slots in every kit
const SlotCount = 16

// Kit maps drum slots to the notes a particular drum machine listens on
type Kit struct {
	Name  string
	Notes [SlotCount]uint8
}

// SlotNames labels each slot, in slot order
var SlotNames = [SlotCount]string{
	"kick", "snare", "hihat", "openhat",
	"lowtom", "midtom", "hightom", "crash",
	"ride", "clap", "rimshot", "cowbell",
	"clave", "maracas", "lowconga", "hiconga",
}

// DefaultKit is the kit used when none is configured
const DefaultKit = "gm"

// Kits contains all known kit mappings
var Kits = map[string]Kit{
	"gm": {
		Name:  "General MIDI",
		Notes: [SlotCount]uint8{36, 38, 42, 46, 41, 43, 45, 49, 51, 39, 37, 56, 75, 70, 64, 63},
	},
	// RD-8 snare sits on 40, not 38
	"rd8": {
		Name:  "Behringer RD-8",
		Notes: [SlotCount]uint8{36, 40, 42, 46, 45, 48, 50, 49, 51, 39, 37, 56, 75, 70, 64, 63},
	},
	"tr8s": {
		Name:  "Roland TR-8S",
		Notes: [SlotCount]uint8{36, 38, 42, 46, 41, 43, 45, 49, 51, 39, 37, 56, 75, 70, 62, 63},
	},
	// slots 10-15 have no ER-1 part; the GM notes are placeholders
	"er1": {
		Name:  "Korg ER-1",
		Notes: [SlotCount]uint8{36, 38, 42, 46, 40, 41, 43, 49, 45, 39, 37, 56, 75, 70, 64, 63},
	},
}

// KitNames returns the available kit names in display order
func KitNames() []string {
	return []string{"gm", "rd8", "tr8s", "er1"}
}

// GetKit returns a kit by name, falling back to General MIDI
func GetKit(name string) Kit {
	if kit, ok := Kits[strings.ToLower(name)]; ok {
		return kit
	}
	return Kits[DefaultKit]
}

// Slot returns the slot a note plays in this kit
func (k Kit) Slot(note uint8) (int, bool) {
	for i, n := range k.Notes {
		if n == note {
			return i, true
		}
	}
	return -1, false
}

// SlotByName returns the slot labelled name (kick, snare, hihat, ...)
func SlotByName(name string) (int, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "hat" {
		name = "hihat"
	}
	for i, n := range SlotNames {
		if n == name {
			return i, true
		}
	}
	return -1, false
}
