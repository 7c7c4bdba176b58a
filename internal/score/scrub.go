package score

import "strings"

var toolExtensions = []string{".musicxml", ".xml", ".mxl", ".mid", ".midi"}

// ScrubMetadata strips artifacts that conversion tools leave in the header.
// The movement title is always cleared, the work title is cleared when it
// still carries an upload filename, and creator entries attributed to the
// conversion library are dropped. A composer creator is added when none
// remains so editors present an editable field.
func (s *Score) ScrubMetadata() {
	s.MovementTitle = ""
	if s.Work != nil && looksLikeFilename(s.Work.Title) {
		s.Work.Title = ""
	}
	if s.Identification == nil {
		s.Identification = new(Identification)
	}
	s.Identification.RemoveCreators(func(c *Creator) bool {
		return strings.EqualFold(strings.TrimSpace(c.Value), "music21")
	})
	if _, ok := s.Identification.Creator("composer"); !ok {
		s.Identification.AddCreator("composer", "")
	}
}

func looksLikeFilename(title string) bool {
	lower := strings.ToLower(title)
	for _, ext := range toolExtensions {
		if strings.Contains(lower, ext) {
			return true
		}
	}
	return false
}
