package diff

import "strings"

const (
	// chunkContextLimit closes a chunk after this many consecutive context
	// lines.
	chunkContextLimit = 10
	// chunkSizeLimit closes a chunk once it holds this many lines.
	chunkSizeLimit = 20
)

// SplitLines splits text on "\n", strips one trailing "\r" from each line,
// and does not produce an empty final line for a trailing newline.
func SplitLines(text string) []string {
	if text == "" {
		return nil
	}
	lines := strings.Split(text, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

// LineDiff walks both texts with one cursor each. Equal lines become
// context; a mismatch emits the old line as removed and the new line as
// added and advances both cursors without looking ahead. Once one side is
// exhausted the rest of the other side is emitted as added or removed.
//
// The result is deterministic but not a minimal edit script.
func LineDiff(oldText, newText string) []Chunk {
	oldLines := SplitLines(oldText)
	newLines := SplitLines(newText)

	var chunks []Chunk
	oi, ni := 0, 0
	for oi < len(oldLines) || ni < len(newLines) {
		c := Chunk{OldStart: oi + 1, NewStart: ni + 1}
		contextRun := 0

		for oi < len(oldLines) || ni < len(newLines) {
			switch {
			case oi >= len(oldLines):
				c.Lines = append(c.Lines, Line{Kind: LineAdded, Content: newLines[ni]})
				ni++
				c.NewCount++
				contextRun = 0
			case ni >= len(newLines):
				c.Lines = append(c.Lines, Line{Kind: LineRemoved, Content: oldLines[oi]})
				oi++
				c.OldCount++
				contextRun = 0
			case oldLines[oi] == newLines[ni]:
				c.Lines = append(c.Lines, Line{Kind: LineContext, Content: oldLines[oi]})
				oi++
				ni++
				c.OldCount++
				c.NewCount++
				contextRun++
			default:
				c.Lines = append(c.Lines,
					Line{Kind: LineRemoved, Content: oldLines[oi]},
					Line{Kind: LineAdded, Content: newLines[ni]},
				)
				oi++
				ni++
				c.OldCount++
				c.NewCount++
				contextRun = 0
			}
			if contextRun >= chunkContextLimit || len(c.Lines) >= chunkSizeLimit {
				break
			}
		}
		chunks = append(chunks, c)
	}
	return chunks
}
