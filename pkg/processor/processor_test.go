package processor_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/xhad/citedoc/pkg/processor"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "Revenue grew 10%.", "Revenue grew 10%."},
		{"crlf", "a\r\nb\rc", "a\nb\nc"},
		{"trailing whitespace", "a  \t\nb ", "a\nb"},
		{"blank runs", "a\n\n\n\n\nb", "a\n\nb"},
		{"outer space", "\n\n  a\n\n", "a"},
		{"invalid utf8", "ok\xffok", "okok"},
		{"tabs kept", "x\ty\tz", "x\ty\tz"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, processor.Normalize(tt.in))
		})
	}
}

func TestProcessor_CollapseSpaces(t *testing.T) {
	p := processor.NewWithConfig(processor.ProcessorConfig{
		CollapseSpaces: true,
		MaxBlankLines:  2,
	})

	got := p.Normalize("one    two\n\n\n\nthree")
	assert.Equal(t, "one two\n\n\nthree", got)
}

func TestNormalize_KeepsLineOrder(t *testing.T) {
	in := "first\nsecond\nthird"
	assert.Equal(t, in, processor.Normalize(in))
}
