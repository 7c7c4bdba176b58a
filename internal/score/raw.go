package score

import (
	"encoding/xml"
	"strconv"
	"strings"
)

// RawElement preserves an element the model does not interpret. Attributes
// and inner XML survive a parse/serialize round trip byte for byte.
type RawElement struct {
	XMLName xml.Name
	Attrs   []xml.Attr `xml:",any,attr"`
	Inner   string     `xml:",innerxml"`
}

func copyAttrs(attrs []xml.Attr) []xml.Attr {
	if len(attrs) == 0 {
		return nil
	}
	out := make([]xml.Attr, len(attrs))
	copy(out, attrs)
	return out
}

func attrValue(attrs []xml.Attr, name string) string {
	for _, attr := range attrs {
		if attr.Name.Local == name {
			return attr.Value
		}
	}
	return ""
}

// innerFloat re-parses a raw element's content to pull out one numeric direct
// child, used for <divisions> and <duration> bookkeeping during extraction.
// MusicXML types these as xs:decimal even though integers are the norm.
func innerFloat(raw *RawElement, child string) (float64, bool) {
	dec := xml.NewDecoder(strings.NewReader("<wrap>" + raw.Inner + "</wrap>"))
	for {
		tok, err := dec.Token()
		if err != nil {
			return 0, false
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		switch start.Name.Local {
		case "wrap":
		case child:
			var text struct {
				Value string `xml:",chardata"`
			}
			if err := dec.DecodeElement(&text, &start); err != nil {
				return 0, false
			}
			value, err := strconv.ParseFloat(strings.TrimSpace(text.Value), 64)
			if err != nil {
				return 0, false
			}
			return value, true
		default:
			if err := dec.Skip(); err != nil {
				return 0, false
			}
		}
	}
}
