package score

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

const standardDoctype = `DOCTYPE score-partwise PUBLIC "-//Recordare//DTD MusicXML 4.0 Partwise//EN" "http://www.musicxml.org/dtds/partwise.dtd"`

// Score is a partwise MusicXML document. Header elements the pipeline edits
// are typed; defaults, credits, and the part-list pass through verbatim.
type Score struct {
	Version        string
	Work           *Work
	MovementNumber string
	MovementTitle  string
	Identification *Identification
	header         []*RawElement
	PartList       *RawElement
	Parts          []*Part

	doctype string
}

// Work holds the work header block.
type Work struct {
	Number string
	Title  string
}

// Identification holds creators and the remaining identification children in
// document order.
type Identification struct {
	children []any // *Creator or *RawElement
}

// Creator is one <creator> entry, typically a composer or arranger.
type Creator struct {
	Type  string
	Value string
}

// Part is one <part> element.
type Part struct {
	ID       string
	Measures []*Measure
}

// Measure is one <measure> element with its mixed children in document order.
type Measure struct {
	Attrs    []xml.Attr
	children []any // *Note or *RawElement
}

// Parse reads a partwise MusicXML document.
func Parse(r io.Reader) (*Score, error) {
	dec := xml.NewDecoder(r)
	var doctype string
	for {
		tok, err := dec.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, errors.New("score: document has no root element")
			}
			return nil, fmt.Errorf("score: parse: %w", err)
		}
		switch t := tok.(type) {
		case xml.Directive:
			if bytes.HasPrefix(bytes.TrimSpace(t), []byte("DOCTYPE")) {
				doctype = string(t)
			}
		case xml.StartElement:
			if t.Name.Local != "score-partwise" {
				return nil, fmt.Errorf("score: unsupported root element %q (only partwise scores are handled)", t.Name.Local)
			}
			s := &Score{doctype: doctype}
			if err := s.decode(dec, t); err != nil {
				return nil, fmt.Errorf("score: parse: %w", err)
			}
			return s, nil
		}
	}
}

// ParseFile reads a partwise MusicXML document from disk.
func ParseFile(path string) (*Score, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("score: open %q: %w", path, err)
	}
	defer file.Close()
	return Parse(file)
}

func (s *Score) decode(dec *xml.Decoder, start xml.StartElement) error {
	s.Version = attrValue(start.Attr, "version")
	for {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "work":
				work := new(Work)
				if err := work.unmarshal(dec, t); err != nil {
					return err
				}
				s.Work = work
			case "movement-number":
				value, err := decodeText(dec, t)
				if err != nil {
					return err
				}
				s.MovementNumber = value
			case "movement-title":
				value, err := decodeText(dec, t)
				if err != nil {
					return err
				}
				s.MovementTitle = value
			case "identification":
				ident := new(Identification)
				if err := ident.unmarshal(dec, t); err != nil {
					return err
				}
				s.Identification = ident
			case "part-list":
				raw := new(RawElement)
				if err := dec.DecodeElement(raw, &t); err != nil {
					return err
				}
				s.PartList = raw
			case "part":
				part := new(Part)
				if err := part.unmarshal(dec, t); err != nil {
					return err
				}
				s.Parts = append(s.Parts, part)
			default:
				raw := new(RawElement)
				if err := dec.DecodeElement(raw, &t); err != nil {
					return err
				}
				s.header = append(s.header, raw)
			}
		case xml.EndElement:
			return nil
		}
	}
}

// Write serializes the document with the XML declaration and MusicXML doctype.
func (s *Score) Write(w io.Writer) error {
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	doctype := s.doctype
	if doctype == "" {
		doctype = standardDoctype
	}
	if _, err := io.WriteString(w, "<!"+doctype+">\n"); err != nil {
		return err
	}

	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("score: serialize: %w", err)
	}
	if err := enc.Close(); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}

// Bytes renders the full document into memory.
func (s *Score) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := s.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// MarshalXML emits the score-partwise element with children in schema order.
func (s *Score) MarshalXML(e *xml.Encoder, _ xml.StartElement) error {
	start := xml.StartElement{Name: xml.Name{Local: "score-partwise"}}
	version := s.Version
	if version == "" {
		version = "4.0"
	}
	start.Attr = []xml.Attr{{Name: xml.Name{Local: "version"}, Value: version}}
	if err := e.EncodeToken(start); err != nil {
		return err
	}
	if s.Work != nil {
		if err := s.Work.marshal(e); err != nil {
			return err
		}
	}
	if s.MovementNumber != "" {
		if err := encodeText(e, "movement-number", s.MovementNumber); err != nil {
			return err
		}
	}
	if s.MovementTitle != "" {
		if err := encodeText(e, "movement-title", s.MovementTitle); err != nil {
			return err
		}
	}
	if s.Identification != nil {
		if err := s.Identification.marshal(e); err != nil {
			return err
		}
	}
	for _, raw := range s.header {
		if err := e.Encode(raw); err != nil {
			return err
		}
	}
	if s.PartList != nil {
		if err := e.Encode(s.PartList); err != nil {
			return err
		}
	}
	for _, part := range s.Parts {
		if err := part.marshal(e); err != nil {
			return err
		}
	}
	return e.EncodeToken(xml.EndElement{Name: start.Name})
}

func (w *Work) unmarshal(dec *xml.Decoder, _ xml.StartElement) error {
	for {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "work-number":
				value, err := decodeText(dec, t)
				if err != nil {
					return err
				}
				w.Number = value
			case "work-title":
				value, err := decodeText(dec, t)
				if err != nil {
					return err
				}
				w.Title = value
			default:
				if err := dec.Skip(); err != nil {
					return err
				}
			}
		case xml.EndElement:
			return nil
		}
	}
}

func (w *Work) marshal(e *xml.Encoder) error {
	if w.Number == "" && w.Title == "" {
		return nil
	}
	start := xml.StartElement{Name: xml.Name{Local: "work"}}
	if err := e.EncodeToken(start); err != nil {
		return err
	}
	if w.Number != "" {
		if err := encodeText(e, "work-number", w.Number); err != nil {
			return err
		}
	}
	if w.Title != "" {
		if err := encodeText(e, "work-title", w.Title); err != nil {
			return err
		}
	}
	return e.EncodeToken(xml.EndElement{Name: start.Name})
}

func (id *Identification) unmarshal(dec *xml.Decoder, _ xml.StartElement) error {
	for {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "creator" {
				creator := &Creator{Type: attrValue(t.Attr, "type")}
				value, err := decodeText(dec, t)
				if err != nil {
					return err
				}
				creator.Value = value
				id.children = append(id.children, creator)
				continue
			}
			raw := new(RawElement)
			if err := dec.DecodeElement(raw, &t); err != nil {
				return err
			}
			id.children = append(id.children, raw)
		case xml.EndElement:
			return nil
		}
	}
}

func (id *Identification) marshal(e *xml.Encoder) error {
	start := xml.StartElement{Name: xml.Name{Local: "identification"}}
	if err := e.EncodeToken(start); err != nil {
		return err
	}
	for _, child := range id.children {
		switch c := child.(type) {
		case *Creator:
			creatorStart := xml.StartElement{
				Name: xml.Name{Local: "creator"},
				Attr: []xml.Attr{{Name: xml.Name{Local: "type"}, Value: c.Type}},
			}
			if err := e.EncodeToken(creatorStart); err != nil {
				return err
			}
			if c.Value != "" {
				if err := e.EncodeToken(xml.CharData(c.Value)); err != nil {
					return err
				}
			}
			if err := e.EncodeToken(xml.EndElement{Name: creatorStart.Name}); err != nil {
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

// Creators returns the creator entries in document order.
func (id *Identification) Creators() []*Creator {
	var out []*Creator
	for _, child := range id.children {
		if creator, ok := child.(*Creator); ok {
			out = append(out, creator)
		}
	}
	return out
}

// Creator returns the first creator of the given type.
func (id *Identification) Creator(creatorType string) (*Creator, bool) {
	for _, child := range id.children {
		if creator, ok := child.(*Creator); ok && creator.Type == creatorType {
			return creator, true
		}
	}
	return nil, false
}

// AddCreator appends a creator entry after any existing creators.
func (id *Identification) AddCreator(creatorType, value string) {
	creator := &Creator{Type: creatorType, Value: value}
	insertAt := 0
	for i, child := range id.children {
		if _, ok := child.(*Creator); ok {
			insertAt = i + 1
		}
	}
	id.children = append(id.children, nil)
	copy(id.children[insertAt+1:], id.children[insertAt:])
	id.children[insertAt] = creator
}

// RemoveCreators drops every creator entry matching the predicate.
func (id *Identification) RemoveCreators(match func(*Creator) bool) int {
	removed := 0
	kept := id.children[:0]
	for _, child := range id.children {
		if creator, ok := child.(*Creator); ok && match(creator) {
			removed++
			continue
		}
		kept = append(kept, child)
	}
	id.children = kept
	return removed
}

func (p *Part) unmarshal(dec *xml.Decoder, start xml.StartElement) error {
	p.ID = attrValue(start.Attr, "id")
	for {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local != "measure" {
				if err := dec.Skip(); err != nil {
					return err
				}
				continue
			}
			measure := new(Measure)
			if err := measure.unmarshal(dec, t); err != nil {
				return err
			}
			p.Measures = append(p.Measures, measure)
		case xml.EndElement:
			return nil
		}
	}
}

func (p *Part) marshal(e *xml.Encoder) error {
	start := xml.StartElement{Name: xml.Name{Local: "part"}}
	if p.ID != "" {
		start.Attr = []xml.Attr{{Name: xml.Name{Local: "id"}, Value: p.ID}}
	}
	if err := e.EncodeToken(start); err != nil {
		return err
	}
	for _, measure := range p.Measures {
		if err := measure.marshal(e); err != nil {
			return err
		}
	}
	return e.EncodeToken(xml.EndElement{Name: start.Name})
}

func (m *Measure) unmarshal(dec *xml.Decoder, start xml.StartElement) error {
	m.Attrs = copyAttrs(start.Attr)
	for {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "note" {
				note := new(Note)
				if err := note.unmarshal(dec, t); err != nil {
					return err
				}
				m.children = append(m.children, note)
				continue
			}
			raw := new(RawElement)
			if err := dec.DecodeElement(raw, &t); err != nil {
				return err
			}
			m.children = append(m.children, raw)
		case xml.EndElement:
			return nil
		}
	}
}

func (m *Measure) marshal(e *xml.Encoder) error {
	start := xml.StartElement{Name: xml.Name{Local: "measure"}, Attr: m.Attrs}
	if err := e.EncodeToken(start); err != nil {
		return err
	}
	for _, child := range m.children {
		switch c := child.(type) {
		case *Note:
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

// Number returns the measure's number attribute.
func (m *Measure) Number() string {
	return attrValue(m.Attrs, "number")
}

// Notes returns the measure's note elements in document order.
func (m *Measure) Notes() []*Note {
	var out []*Note
	for _, child := range m.children {
		if note, ok := child.(*Note); ok {
			out = append(out, note)
		}
	}
	return out
}

func decodeText(dec *xml.Decoder, start xml.StartElement) (string, error) {
	var text struct {
		Value string `xml:",chardata"`
	}
	if err := dec.DecodeElement(&text, &start); err != nil {
		return "", err
	}
	return strings.TrimSpace(text.Value), nil
}

func encodeText(e *xml.Encoder, name, value string) error {
	start := xml.StartElement{Name: xml.Name{Local: name}}
	if err := e.EncodeToken(start); err != nil {
		return err
	}
	if err := e.EncodeToken(xml.CharData(value)); err != nil {
		return err
	}
	return e.EncodeToken(xml.EndElement{Name: start.Name})
}
