package score

import (
	"encoding/xml"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Note is one <note> element. Pitch and notations are typed so fingerings can
// be attached; everything else round-trips verbatim in document order.
type Note struct {
	Attrs    []xml.Attr
	children []any // *Pitch, *Notations, *RawElement

	duration float64
	rest     bool
	chord    bool
	grace    bool
}

// Pitch is the <pitch> block of a pitched note.
type Pitch struct {
	Step   string
	Alter  float64
	Octave int
}

// Notations is a <notations> container.
type Notations struct {
	Attrs    []xml.Attr
	children []any // *Technical or *RawElement
}

// Technical is a <technical> container inside notations.
type Technical struct {
	Attrs    []xml.Attr
	children []any // *Fingering or *RawElement
}

// Fingering is a <fingering> element holding a finger number.
type Fingering struct {
	Attrs []xml.Attr
	Value string
}

var semitones = map[string]int{
	"C": 0,
	"D": 2,
	"E": 4,
	"F": 5,
	"G": 7,
	"A": 9,
	"B": 11,
}

// MIDI converts the pitch to a MIDI note number, where C4 is 60.
func (p *Pitch) MIDI() (int, error) {
	sem, ok := semitones[strings.ToUpper(strings.TrimSpace(p.Step))]
	if !ok {
		return 0, fmt.Errorf("score: unknown pitch step %q", p.Step)
	}
	return (p.Octave+1)*12 + sem + int(math.Round(p.Alter)), nil
}

// IsRest reports whether the note is a rest.
func (n *Note) IsRest() bool { return n.rest }

// IsChord reports whether the note continues the previous note's chord.
func (n *Note) IsChord() bool { return n.chord }

// IsGrace reports whether the note is a grace note.
func (n *Note) IsGrace() bool { return n.grace }

// Duration returns the note duration in division units. Grace notes have no
// duration element and report zero.
func (n *Note) Duration() float64 { return n.duration }

// Pitch returns the typed pitch block, or nil for rests and unpitched notes.
func (n *Note) Pitch() *Pitch {
	for _, child := range n.children {
		if pitch, ok := child.(*Pitch); ok {
			return pitch
		}
	}
	return nil
}

// Fingering returns the first fingering value attached to the note.
func (n *Note) Fingering() (string, bool) {
	for _, child := range n.children {
		notations, ok := child.(*Notations)
		if !ok {
			continue
		}
		for _, nc := range notations.children {
			technical, ok := nc.(*Technical)
			if !ok {
				continue
			}
			for _, tc := range technical.children {
				if fingering, ok := tc.(*Fingering); ok {
					return fingering.Value, true
				}
			}
		}
	}
	return "", false
}

// SetFingering attaches a finger number to the note, creating the notations
// and technical containers when missing. An existing fingering is replaced.
func (n *Note) SetFingering(finger int) {
	technical := n.ensureTechnical()
	for _, child := range technical.children {
		if fingering, ok := child.(*Fingering); ok {
			fingering.Value = strconv.Itoa(finger)
			return
		}
	}
	technical.children = append(technical.children, &Fingering{Value: strconv.Itoa(finger)})
}

func (n *Note) ensureTechnical() *Technical {
	var notations *Notations
	for _, child := range n.children {
		if existing, ok := child.(*Notations); ok {
			notations = existing
			break
		}
	}
	if notations == nil {
		notations = new(Notations)
		n.insertNotations(notations)
	}
	for _, child := range notations.children {
		if technical, ok := child.(*Technical); ok {
			return technical
		}
	}
	technical := new(Technical)
	notations.children = append(notations.children, technical)
	return technical
}

// insertNotations places a new notations block before any lyric so the note
// children stay in schema order.
func (n *Note) insertNotations(notations *Notations) {
	insertAt := len(n.children)
scan:
	for i, child := range n.children {
		if raw, ok := child.(*RawElement); ok {
			switch raw.XMLName.Local {
			case "lyric", "play", "listen":
				insertAt = i
				break scan
			}
		}
	}
	n.children = append(n.children, nil)
	copy(n.children[insertAt+1:], n.children[insertAt:])
	n.children[insertAt] = notations
}

func (n *Note) unmarshal(dec *xml.Decoder, start xml.StartElement) error {
	n.Attrs = copyAttrs(start.Attr)
	for {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "pitch":
				pitch := new(Pitch)
				if err := pitch.unmarshal(dec, t); err != nil {
					return err
				}
				n.children = append(n.children, pitch)
			case "notations":
				notations := new(Notations)
				if err := notations.unmarshal(dec, t); err != nil {
					return err
				}
				n.children = append(n.children, notations)
			default:
				raw := new(RawElement)
				if err := dec.DecodeElement(raw, &t); err != nil {
					return err
				}
				switch raw.XMLName.Local {
				case "rest":
					n.rest = true
				case "chord":
					n.chord = true
				case "grace":
					n.grace = true
				case "duration":
					if value, err := strconv.ParseFloat(strings.TrimSpace(raw.Inner), 64); err == nil {
						n.duration = value
					}
				}
				n.children = append(n.children, raw)
			}
		case xml.EndElement:
			return nil
		}
	}
}

func (n *Note) marshal(e *xml.Encoder) error {
	start := xml.StartElement{Name: xml.Name{Local: "note"}, Attr: n.Attrs}
	if err := e.EncodeToken(start); err != nil {
		return err
	}
	for _, child := range n.children {
		switch c := child.(type) {
		case *Pitch:
			if err := c.marshal(e); err != nil {
				return err
			}
		case *Notations:
			if err := c.marshal(e); err != nil {
				return err
			}
		case *RawElement:
			if err := e.Encode(c); err != nil {
				return err
			}
		}
	}
	return e.EncodeToken(xml.EndElement{Name: start.Name})
}

func (p *Pitch) unmarshal(dec *xml.Decoder, _ xml.StartElement) error {
	for {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			value, err := decodeText(dec, t)
			if err != nil {
				return err
			}
			switch t.Name.Local {
			case "step":
				p.Step = value
			case "alter":
				alter, err := strconv.ParseFloat(value, 64)
				if err != nil {
					return fmt.Errorf("invalid alter %q: %w", value, err)
				}
				p.Alter = alter
			case "octave":
				octave, err := strconv.Atoi(value)
				if err != nil {
					return fmt.Errorf("invalid octave %q: %w", value, err)
				}
				p.Octave = octave
			}
		case xml.EndElement:
			return nil
		}
	}
}

func (p *Pitch) marshal(e *xml.Encoder) error {
	start := xml.StartElement{Name: xml.Name{Local: "pitch"}}
	if err := e.EncodeToken(start); err != nil {
		return err
	}
	if err := encodeText(e, "step", p.Step); err != nil {
		return err
	}
	if p.Alter != 0 {
		if err := encodeText(e, "alter", strconv.FormatFloat(p.Alter, 'f', -1, 64)); err != nil {
			return err
		}
	}
	if err := encodeText(e, "octave", strconv.Itoa(p.Octave)); err != nil {
		return err
	}
	return e.EncodeToken(xml.EndElement{Name: start.Name})
}

func (no *Notations) unmarshal(dec *xml.Decoder, start xml.StartElement) error {
	no.Attrs = copyAttrs(start.Attr)
	for {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "technical" {
				technical := new(Technical)
				if err := technical.unmarshal(dec, t); err != nil {
					return err
				}
				no.children = append(no.children, technical)
				continue
			}
			raw := new(RawElement)
			if err := dec.DecodeElement(raw, &t); err != nil {
				return err
			}
			no.children = append(no.children, raw)
		case xml.EndElement:
			return nil
		}
	}
}

func (no *Notations) marshal(e *xml.Encoder) error {
	start := xml.StartElement{Name: xml.Name{Local: "notations"}, Attr: no.Attrs}
	if err := e.EncodeToken(start); err != nil {
		return err
	}
	for _, child := range no.children {
		switch c := child.(type) {
		case *Technical:
			if err := c.marshal(e); err != nil {
				return err
			}
		case *RawElement:
			if err := e.Encode(c); err != nil {
				return err
			}
		}
	}
	return e.EncodeToken(xml.EndElement{Name: start.Name})
}

func (te *Technical) unmarshal(dec *xml.Decoder, start xml.StartElement) error {
	te.Attrs = copyAttrs(start.Attr)
	for {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "fingering" {
				value, err := decodeText(dec, t)
				if err != nil {
					return err
				}
				te.children = append(te.children, &Fingering{Attrs: copyAttrs(t.Attr), Value: value})
				continue
			}
			raw := new(RawElement)
			if err := dec.DecodeElement(raw, &t); err != nil {
				return err
			}
			te.children = append(te.children, raw)
		case xml.EndElement:
			return nil
		}
	}
}

func (te *Technical) marshal(e *xml.Encoder) error {
	start := xml.StartElement{Name: xml.Name{Local: "technical"}, Attr: te.Attrs}
	if err := e.EncodeToken(start); err != nil {
		return err
	}
	for _, child := range te.children {
		switch c := child.(type) {
		case *Fingering:
			fingeringStart := xml.StartElement{Name: xml.Name{Local: "fingering"}, Attr: c.Attrs}
			if err := e.EncodeToken(fingeringStart); err != nil {
				return err
			}
			if err := e.EncodeToken(xml.CharData(c.Value)); err != nil {
				return err
			}
			if err := e.EncodeToken(xml.EndElement{Name: fingeringStart.Name}); err != nil {
				return err
			}
		case *RawElement:
			if err := e.Encode(c); err != nil {
				return err
			}
		}
	}
	return e.EncodeToken(xml.EndElement{Name: start.Name})
}
