// Package score parses, edits, and serializes MusicXML documents.
//
// The model is deliberately partial: elements the annotation pipeline touches
// (notes, notations, header metadata) are typed, while everything else is
// preserved verbatim as raw XML in document order so a parse/serialize round
// trip does not discard engraving detail the model never looks at.
//
// Key entry points:
//   - Parse / ParseFile build a Score from partwise MusicXML.
//   - ExtractNotes walks one part and yields the ordered note-event sequence
//     submitted to the fingering engine, keeping a handle on each source note
//     so assignments can be written back.
//   - Note.SetFingering injects <notations><technical><fingering> into a note.
//   - Score.ScrubMetadata removes serializer artifacts before final output.
//   - Score.Write emits the document with the MusicXML doctype header.
package score
