package processor

import (
	"strings"
	"unicode/utf8"
)

type ProcessorConfig struct {
	// MaxBlankLines is the longest run of empty lines kept between blocks.
	MaxBlankLines int
	// CollapseSpaces squeezes runs of spaces inside a line. Tabs are kept
	// because spreadsheet rows are tab separated.
	CollapseSpaces bool
}

type Processor struct {
	config ProcessorConfig
}

func NewWithConfig(config ProcessorConfig) Processor {
	if config.MaxBlankLines == 0 {
		config.MaxBlankLines = 1
	}

	return Processor{
		config: config,
	}
}

var defaultProcessor = NewWithConfig(ProcessorConfig{})

// Normalize cleans text with the default settings.
func Normalize(text string) string {
	return defaultProcessor.Normalize(text)
}

// Normalize cleans extracted text without reordering or dropping content
// lines: invalid UTF-8 goes, line endings become \n, trailing whitespace is
// trimmed and long runs of blank lines are shortened.
func (p *Processor) Normalize(text string) string {
	text = sanitizeUTF8(text)
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	blank := 0

	for _, line := range lines {
		line = strings.TrimRight(line, " \t")
		if p.config.CollapseSpaces {
			line = collapseSpaces(line)
		}

		if line == "" {
			blank++
			if blank > p.config.MaxBlankLines {
				continue
			}
		} else {
			blank = 0
		}
		out = append(out, line)
	}

	return strings.TrimSpace(strings.Join(out, "\n"))
}

func collapseSpaces(line string) string {
	var b strings.Builder
	prevSpace := false
	for _, r := range line {
		if r == ' ' {
			if prevSpace {
				continue
			}
			prevSpace = true
		} else {
			prevSpace = false
		}
		b.WriteRune(r)
	}
	return b.String()
}

func sanitizeUTF8(s string) string {
	if utf8.ValidString(s) {
		return s
	}
	v := make([]rune, 0, len(s))
	for i, r := range s {
		if r == utf8.RuneError {
			_, size := utf8.DecodeRuneInString(s[i:])
			if size == 1 {
				continue
			}
		}
		v = append(v, r)
	}
	return string(v)
}
