package processors

import "bytes"

// TrailingNewline makes every non-empty text file end in exactly one "\n".
// Templates that end in a trimmed tag otherwise produce files without a
// final newline.
type TrailingNewline struct{}

func NewTrailingNewline() *TrailingNewline {
	return &TrailingNewline{}
}

// ProcessContent implements the postprocess.Processor interface.
func (p *TrailingNewline) ProcessContent(filePath string, content []byte) ([]byte, error) {
	trimmed := bytes.TrimRight(content, "\r\n")
	if len(trimmed) == 0 {
		return content, nil
	}
	if len(trimmed) == len(content)-1 && content[len(content)-1] == '\n' {
		return content, nil
	}

	out := make([]byte, 0, len(trimmed)+1)
	out = append(out, trimmed...)
	return append(out, '\n'), nil
}
