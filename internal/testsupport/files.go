package testsupport

import (
	"os"
	"path/filepath"
	"testing"
)

// SampleScore is a minimal two-part piano score used across handler and
// pipeline tests. Part one carries three right-hand notes, part two a single
// bass note.
const SampleScore = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE score-partwise PUBLIC "-//Recordare//DTD MusicXML 4.0 Partwise//EN" "http://www.musicxml.org/dtds/partwise.dtd">
<score-partwise version="4.0">
  <movement-title>sample.musicxml</movement-title>
  <identification>
    <creator type="composer">Music21</creator>
  </identification>
  <part-list>
    <score-part id="P1"><part-name>Right</part-name></score-part>
    <score-part id="P2"><part-name>Left</part-name></score-part>
  </part-list>
  <part id="P1">
    <measure number="1">
      <attributes><divisions>1</divisions></attributes>
      <note><pitch><step>C</step><octave>4</octave></pitch><duration>1</duration></note>
      <note><pitch><step>E</step><octave>4</octave></pitch><duration>1</duration></note>
      <note><pitch><step>G</step><octave>4</octave></pitch><duration>2</duration></note>
    </measure>
  </part>
  <part id="P2">
    <measure number="1">
      <attributes><divisions>1</divisions></attributes>
      <note><pitch><step>C</step><octave>2</octave></pitch><duration>4</duration></note>
    </measure>
  </part>
</score-partwise>
`

// WriteScore writes the sample score fixture to the target path.
func WriteScore(t testing.TB, path string) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(SampleScore), 0o644); err != nil {
		t.Fatalf("write score %s: %v", path, err)
	}
}

// WriteInvalidScore writes a file that fails MusicXML parsing, for error-path
// coverage.
func WriteInvalidScore(t testing.TB, path string) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte("<score-partwise><part truncated"), 0o644); err != nil {
		t.Fatalf("write score %s: %v", path, err)
	}
}
