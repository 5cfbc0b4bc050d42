package chroma

import (
	"math"
)

// NoteNames are the pitch class names, sharps only, indexed 0=C..11=B
var NoteNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// PitchClassName returns the name of pitch class pc, wrapping out-of-range values
func PitchClassName(pc int) string {
	return NoteNames[wrapPitchClass(pc)]
}

// PitchClassOf returns the index of a sharp-spelled note name, or -1
func PitchClassOf(name string) int {
	for i, n := range NoteNames {
		if n == name {
			return i
		}
	}
	return -1
}

// FrequencyToMIDI converts a frequency to a fractional MIDI note number
// relative to tuning (the frequency of A4, MIDI 69)
func FrequencyToMIDI(freq, tuning float64) float64 {
	return 69 + 12*math.Log2(freq/tuning)
}

// FrequencyToPitchClass rounds freq to the nearest equal-tempered note and
// returns its pitch class in [0,12)
func FrequencyToPitchClass(freq, tuning float64) int {
	return wrapPitchClass(int(math.Round(FrequencyToMIDI(freq, tuning))))
}

func wrapPitchClass(pc int) int {
	pc %= 12
	if pc < 0 {
		pc += 12
	}
	return pc
}
