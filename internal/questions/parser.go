// Package questions parses plain-text question uploads. A file is a series
// of blocks separated by blank lines; each block is six lines: the question,
// four options, and the 1-based index of the correct option. Lines starting
// with '#' are comments.
package questions

import (
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/unicode"

	"quizgame-service/internal/domain"
)

// ErrNoQuestions is returned when nothing parseable was found.
var ErrNoQuestions = errors.New("no valid questions found; ensure questions are separated by a blank line")

const (
	linesPerQuestion = 6
	optionCount      = 4
)

var blockSeparator = regexp.MustCompile(`\n\s*\n+`)

// Parse reads and decodes an uploaded file and parses its questions.
func Parse(r io.Reader) ([]domain.Question, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	return ParseText(decode(raw))
}

// ParseText parses already-decoded question text.
func ParseText(content string) ([]domain.Question, error) {
	text := normalize(content)

	blocks := splitBlocks(text)
	if len(blocks) <= 1 {
		// No blank-line separators; fall back to grouping every six
		// non-empty lines.
		if chunks := chunkLines(text); len(chunks) > 1 {
			blocks = chunks
		}
	}

	var parsed []domain.Question
	for i, block := range blocks {
		lines := contentLines(block)
		if len(lines) < linesPerQuestion {
			continue
		}
		lines = lines[:linesPerQuestion]

		answerRaw := lines[linesPerQuestion-1]
		index, err := strconv.Atoi(strings.TrimSpace(answerRaw))
		correct := index - 1
		if err != nil || correct < 0 || correct >= optionCount {
			return nil, fmt.Errorf("invalid correct index in question %d: %q, must be between 1 and 4", i+1, answerRaw)
		}

		parsed = append(parsed, domain.Question{
			Text:         lines[0],
			Options:      lines[1 : 1+optionCount],
			CorrectIndex: correct,
		})
	}

	if len(parsed) == 0 {
		return nil, ErrNoQuestions
	}
	return parsed, nil
}

// decode handles UTF-8 uploads with or without a BOM and UTF-16 with either
// byte order mark.
func decode(raw []byte) string {
	if len(raw) >= 2 && (raw[0] == 0xFF && raw[1] == 0xFE || raw[0] == 0xFE && raw[1] == 0xFF) {
		dec := unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM).NewDecoder()
		if out, err := dec.Bytes(raw); err == nil {
			return string(out)
		}
	}
	return strings.TrimPrefix(string(raw), "\ufeff")
}

func normalize(raw string) string {
	s := strings.ReplaceAll(raw, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func splitBlocks(text string) []string {
	var blocks []string
	for _, block := range blockSeparator.Split(text, -1) {
		if strings.TrimSpace(block) != "" {
			blocks = append(blocks, block)
		}
	}
	return blocks
}

func chunkLines(text string) []string {
	lines := contentLines(text)
	var chunks []string
	for i := 0; i+linesPerQuestion <= len(lines); i += linesPerQuestion {
		chunks = append(chunks, strings.Join(lines[i:i+linesPerQuestion], "\n"))
	}
	return chunks
}

// contentLines returns trimmed, non-empty, non-comment lines.
func contentLines(block string) []string {
	var lines []string
	for _, line := range strings.Split(block, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}
