package score

import (
	"fmt"
	"math"
)

// NoteEvent is one playable note handed to the fingering engine. Onsets and
// durations are in quarter-note beats from the start of the part.
type NoteEvent struct {
	MIDI     int     `json:"midi"`
	Onset    float64 `json:"onset"`
	Duration float64 `json:"duration"`
}

// Extraction pairs the event list for one hand with the score notes that
// produced it, so engine results can be written back in order.
type Extraction struct {
	Events []NoteEvent

	notes []*Note
}

// Len returns the number of extracted events.
func (x *Extraction) Len() int { return len(x.Events) }

// ExtractNotes walks one part and builds the engine event list. Rests and
// forward elements advance the cursor without emitting events, backup rewinds
// it, chord notes share the preceding note's onset, and grace notes are
// dropped because they carry no duration.
func ExtractNotes(s *Score, partIndex int) (*Extraction, error) {
	if partIndex < 0 || partIndex >= len(s.Parts) {
		return nil, fmt.Errorf("score: part index %d out of range (score has %d parts)", partIndex, len(s.Parts))
	}
	part := s.Parts[partIndex]

	extraction := new(Extraction)
	divisions := 1.0
	position := 0.0
	for _, measure := range part.Measures {
		measureStart := position
		cursor := measureStart
		reached := measureStart
		lastOnset := measureStart
		for _, child := range measure.children {
			switch c := child.(type) {
			case *Note:
				if c.IsGrace() {
					continue
				}
				beats := c.Duration() / divisions
				onset := cursor
				if c.IsChord() {
					onset = lastOnset
				} else {
					lastOnset = cursor
					cursor += beats
				}
				if cursor > reached {
					reached = cursor
				}
				if c.IsRest() {
					continue
				}
				pitch := c.Pitch()
				if pitch == nil {
					continue
				}
				midi, err := pitch.MIDI()
				if err != nil {
					return nil, fmt.Errorf("part %q measure %s: %w", part.ID, measure.Number(), err)
				}
				extraction.Events = append(extraction.Events, NoteEvent{
					MIDI:     midi,
					Onset:    onset,
					Duration: beats,
				})
				extraction.notes = append(extraction.notes, c)
			case *RawElement:
				switch c.XMLName.Local {
				case "attributes":
					if value, ok := innerFloat(c, "divisions"); ok && value > 0 {
						divisions = value
					}
				case "backup":
					if value, ok := innerFloat(c, "duration"); ok {
						cursor = math.Max(measureStart, cursor-value/divisions)
						lastOnset = cursor
					}
				case "forward":
					if value, ok := innerFloat(c, "duration"); ok {
						cursor += value / divisions
						lastOnset = cursor
						if cursor > reached {
							reached = cursor
						}
					}
				}
			}
		}
		position = reached
	}
	return extraction, nil
}

// Apply writes engine fingerings back onto the extracted notes. The engine
// must return exactly one finger per event, each between 1 and 5.
func (x *Extraction) Apply(fingers []int) error {
	if len(fingers) != len(x.notes) {
		return fmt.Errorf("score: engine returned %d fingerings for %d notes", len(fingers), len(x.notes))
	}
	for i, finger := range fingers {
		if finger < 1 || finger > 5 {
			return fmt.Errorf("score: invalid finger number %d at event %d (expected 1 through 5)", finger, i)
		}
		x.notes[i].SetFingering(finger)
	}
	return nil
}
