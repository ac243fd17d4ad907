package ingest

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/agentic-research/topicmap/api"
	"github.com/agentic-research/topicmap/internal/slug"
)

// DefaultIndentWidth is the number of spaces per nesting level.
const DefaultIndentWidth = 4

const maxFields = 3

// TabPolicy decides how a tab in a line's leading whitespace counts.
type TabPolicy int

const (
	// TabsExpand counts a tab as one full indent unit.
	TabsExpand TabPolicy = iota
	// TabsIgnore gives tabs in the leading run zero width and keeps scanning,
	// so only the leading spaces count toward depth.
	TabsIgnore
	// TabsReject treats a leading tab as a malformed record.
	TabsReject
)

var tabPolicyNames = [...]string{"expand", "ignore", "reject"}

func (p TabPolicy) String() string {
	if p < 0 || int(p) >= len(tabPolicyNames) {
		return fmt.Sprintf("tabpolicy(%d)", int(p))
	}
	return tabPolicyNames[p]
}

// ParseTabPolicy is the inverse of TabPolicy.String.
func ParseTabPolicy(s string) (TabPolicy, error) {
	for i, name := range tabPolicyNames {
		if s == name {
			return TabPolicy(i), nil
		}
	}
	return TabsExpand, fmt.Errorf("unknown tab policy %q", s)
}

// Indent is the indentation rule of an outline: Width spaces per level.
type Indent struct {
	Width int
	Tabs  TabPolicy
}

func DefaultIndent() Indent {
	return Indent{Width: DefaultIndentWidth, Tabs: TabsExpand}
}

// Depth returns floor(leading width / Width) for line. Only the leading run
// of spaces and tabs counts.
func (in Indent) Depth(line string) (int, error) {
	if in.Width < 1 {
		return 0, fmt.Errorf("indent width must be positive, got %d", in.Width)
	}
	width := 0
scan:
	for _, r := range line {
		switch r {
		case ' ':
			width++
		case '\t':
			switch in.Tabs {
			case TabsExpand:
				width += in.Width
			case TabsReject:
				return 0, fmt.Errorf("tab in indentation")
			}
		default:
			break scan
		}
	}
	return width / in.Width, nil
}

// OutlineRecord is one decoded outline line.
type OutlineRecord struct {
	Line       int
	Identifier string // slugified
	Name       string // display name, derived from Identifier when not given
	InstanceOf string // slugified type identifier, api.TopicType by default
	Depth      int
}

// String renders the record back into outline syntax using the default
// indent. ParseLine(r.String(), r.Line, DefaultIndent()) returns r.
func (r OutlineRecord) String() string {
	return r.Format(DefaultIndent())
}

// Format renders the record with indent's width.
func (r OutlineRecord) Format(indent Indent) string {
	return strings.Repeat(" ", r.Depth*indent.Width) +
		r.Identifier + ";" + r.Name + ";" + r.InstanceOf
}

// ParseLine decodes "identifier[;name[;type]]" preceded by indentation.
//
// An empty name falls back to the capitalised identifier (slug.Name) and an empty type
// to "topic"; a given type is slugified like the identifier.
func ParseLine(line string, lineNo int, indent Indent) (OutlineRecord, error) {
	depth, err := indent.Depth(line)
	if err != nil {
		return OutlineRecord{}, &MalformedRecordError{Line: lineNo, Text: line, Reason: err.Error()}
	}

	fields := strings.Split(strings.TrimSpace(line), ";")
	if len(fields) > maxFields {
		return OutlineRecord{}, &MalformedRecordError{
			Line:   lineNo,
			Text:   line,
			Reason: fmt.Sprintf("expected 1 to %d fields, got %d", maxFields, len(fields)),
		}
	}
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}

	identifier := slug.Make(fields[0])
	if identifier == "" {
		return OutlineRecord{}, &MalformedRecordError{Line: lineNo, Text: line, Reason: "empty identifier"}
	}

	rec := OutlineRecord{
		Line:       lineNo,
		Identifier: identifier,
		Name:       slug.Name(identifier),
		InstanceOf: api.TopicType,
		Depth:      depth,
	}
	if len(fields) > 1 && fields[1] != "" {
		rec.Name = fields[1]
	}
	if len(fields) > 2 && fields[2] != "" {
		if t := slug.Make(fields[2]); t != "" {
			rec.InstanceOf = t
		}
	}
	return rec, nil
}

// ParseOutline decodes every non-blank line of r. The first malformed line
// aborts parsing.
func ParseOutline(r io.Reader, indent Indent) ([]OutlineRecord, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var records []OutlineRecord
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if lineNo == 1 {
			line = strings.TrimPrefix(line, "\ufeff")
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		rec, err := ParseLine(line, lineNo, indent)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read outline: %w", err)
	}
	return records, nil
}
