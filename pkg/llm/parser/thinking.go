// Package parser provides utilities for parsing structured content out of
// free-form model replies.
package parser

import "strings"

const (
	thinkingOpenTag  = "<thinking>"
	thinkingCloseTag = "</thinking>"
)

// ThinkingParser separates <thinking> blocks from regular content.
// Any other angle bracket text, including comparison operators inside the
// thinking block, is kept verbatim.
type ThinkingParser struct {
	thinking   strings.Builder
	message    strings.Builder
	tagBuffer  strings.Builder // Buffer for potential tag content between < and >
	inThinking bool
	inTag      bool // true when we're buffering a potential tag (saw '<' but not yet '>')
}

// NewThinkingParser creates a new thinking parser.
func NewThinkingParser() *ThinkingParser {
	return &ThinkingParser{}
}

// Parse splits text into thinking and message content. An unterminated
// thinking block swallows the rest of the text.
func (p *ThinkingParser) Parse(text string) (thinking, message string) {
	p.Reset()

	for _, ch := range text {
		if ch == '<' {
			// If we're already in a tag, the previous < wasn't a real tag
			if p.inTag {
				p.write(p.tagBuffer.String())
			}
			p.inTag = true
			p.tagBuffer.Reset()
			p.tagBuffer.WriteRune(ch)
			continue
		}

		if !p.inTag {
			p.write(string(ch))
			continue
		}

		p.tagBuffer.WriteRune(ch)
		if ch != '>' {
			continue
		}

		tag := p.tagBuffer.String()
		p.tagBuffer.Reset()
		p.inTag = false

		switch tag {
		case thinkingOpenTag:
			p.inThinking = true
		case thinkingCloseTag:
			p.inThinking = false
		default:
			p.write(tag)
		}
	}

	if p.inTag {
		p.write(p.tagBuffer.String())
	}

	return p.thinking.String(), p.message.String()
}

func (p *ThinkingParser) write(s string) {
	if p.inThinking {
		p.thinking.WriteString(s)
		return
	}
	p.message.WriteString(s)
}

// Reset resets the parser state.
func (p *ThinkingParser) Reset() {
	p.thinking.Reset()
	p.message.Reset()
	p.tagBuffer.Reset()
	p.inThinking = false
	p.inTag = false
}

// StripThinking returns text without its thinking blocks.
func StripThinking(text string) string {
	_, message := NewThinkingParser().Parse(text)
	return message
}
