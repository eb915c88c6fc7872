// Package personas turns free-text model output into analyst personas.
package personas

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ternarybob/roundtable/internal/models"
)

// Backfill values for records missing a field at flush time
const (
	DefaultRole        = "Research Analyst"
	DefaultAffiliation = "AI Research Institute"
)

// MinFallbackAnalysts is the number of analysts synthesized when nothing parses
const MinFallbackAnalysts = 3

// DefaultDescription is the templated description backfilled for an analyst
func DefaultDescription(name string) string {
	return fmt.Sprintf("%s is an expert analyst providing insights on the topic.", name)
}

type parseState int

const (
	// stateAwaitingName: no record is open
	stateAwaitingName parseState = iota
	// stateAccumulating: a record is open and collecting fields
	stateAccumulating
)

type fieldKey string

const (
	fieldNone        fieldKey = ""
	fieldName        fieldKey = "name"
	fieldRole        fieldKey = "role"
	fieldAffiliation fieldKey = "affiliation"
	fieldDescription fieldKey = "description"
)

var (
	// Leading list markers and emphasis: "- ", "* ", "**", "__", "## ", "1. ", "2) "
	leadingMarkerRegex = regexp.MustCompile(`^(?:[-*_#>\s]+|\d+[.)]\s+)+`)
	fieldRegex         = regexp.MustCompile(`(?i)^(name|role|affiliation|description)\s*[*_]*\s*:\s*(.*)$`)
	analystRegex       = regexp.MustCompile(`(?i)^analyst\s*#?\s*\d+\s*[*_]*\s*(?::\s*(.*))?$`)
	properNounRegex    = regexp.MustCompile(`\b[A-Z][a-z]+ [A-Z][a-z]+\b`)
)

// draft is a record under construction
type draft struct {
	name        string
	role        string
	affiliation string
	description string
}

func (d draft) hasDetail() bool {
	return d.role != "" || d.affiliation != "" || d.description != ""
}

func (d draft) analyst() models.Analyst {
	a := models.Analyst{
		Name:        d.name,
		Role:        d.role,
		Affiliation: d.affiliation,
		Description: d.description,
	}
	if a.Role == "" {
		a.Role = DefaultRole
	}
	if a.Affiliation == "" {
		a.Affiliation = DefaultAffiliation
	}
	if a.Description == "" {
		a.Description = DefaultDescription(a.Name)
	}
	return a
}

// parser scans line by line. A name or "analyst N:" marker opens a record;
// the previous one is flushed when it has a name and at least one other field.
type parser struct {
	state     parseState
	current   draft
	lastField fieldKey
	out       []models.Analyst
}

func (p *parser) open(name string) {
	// A nameless open record (e.g. "Analyst 2:" followed by "Name: X") takes the name instead of being replaced
	if p.state == stateAccumulating && p.current.name == "" && name != "" {
		p.current.name = name
		p.lastField = fieldName
		return
	}
	if p.state == stateAccumulating && p.current.name != "" && p.current.hasDetail() {
		p.out = append(p.out, p.current.analyst())
	}
	p.current = draft{name: name}
	p.lastField = fieldName
	p.state = stateAccumulating
}

func (p *parser) set(key fieldKey, value string) {
	if p.state == stateAwaitingName {
		p.current = draft{}
		p.state = stateAccumulating
	}
	switch key {
	case fieldRole:
		p.current.role = value
	case fieldAffiliation:
		p.current.affiliation = value
	case fieldDescription:
		p.current.description = value
	}
	p.lastField = key
}

// continueDescription appends an unmarked line to a multi-line description
func (p *parser) continueDescription(line string) {
	if line == "" || p.state != stateAccumulating || p.lastField != fieldDescription {
		return
	}
	if p.current.description == "" {
		p.current.description = line
		return
	}
	p.current.description += " " + line
}

func (p *parser) finish() []models.Analyst {
	if p.state == stateAccumulating && p.current.name != "" {
		p.out = append(p.out, p.current.analyst())
	}
	p.state = stateAwaitingName
	p.current = draft{}
	return p.out
}

func (p *parser) feed(raw string) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		p.lastField = fieldNone
		return
	}

	line := strings.TrimSpace(leadingMarkerRegex.ReplaceAllString(trimmed, ""))

	if m := analystRegex.FindStringSubmatch(line); m != nil {
		name := cleanValue(m[1])
		if fm := fieldRegex.FindStringSubmatch(name); fm != nil {
			// "Analyst 1: Name: Jane Doe"
			p.open("")
			p.applyField(fm[1], fm[2])
			return
		}
		p.open(name)
		if name == "" {
			p.lastField = fieldNone
		}
		return
	}

	if m := fieldRegex.FindStringSubmatch(line); m != nil {
		p.applyField(m[1], m[2])
		return
	}

	p.continueDescription(cleanValue(line))
}

func (p *parser) applyField(key, rawValue string) {
	value := cleanValue(rawValue)
	switch fieldKey(strings.ToLower(key)) {
	case fieldName:
		p.open(value)
	case fieldRole:
		p.set(fieldRole, value)
	case fieldAffiliation:
		p.set(fieldAffiliation, value)
	case fieldDescription:
		p.set(fieldDescription, value)
	}
}

// cleanValue strips surrounding whitespace and emphasis markers
func cleanValue(value string) string {
	return strings.TrimSpace(strings.Trim(strings.TrimSpace(value), "*_`"))
}

// Parse extracts analysts from model output. It never fails: when no record
// parses, analysts are synthesized from proper-noun-like names in the text.
func Parse(raw string) []models.Analyst {
	return ParseWithLimit(raw, MinFallbackAnalysts)
}

// ParseWithLimit is Parse with the requested analyst count, which caps the
// number of fallback candidates at max(3, requested).
func ParseWithLimit(raw string, requested int) []models.Analyst {
	p := &parser{state: stateAwaitingName}
	for _, line := range strings.Split(raw, "\n") {
		p.feed(line)
	}

	if analysts := p.finish(); len(analysts) > 0 {
		return analysts
	}

	return Fallback(raw, requested)
}

var fallbackRoles = []string{"Senior Economist", "Data Analyst", "Research Analyst"}

// Fallback synthesizes analysts from "Firstname Lastname" candidates in raw,
// de-duplicated and capped at max(3, requested), padded to 3 with placeholders.
func Fallback(raw string, requested int) []models.Analyst {
	limit := requested
	if limit < MinFallbackAnalysts {
		limit = MinFallbackAnalysts
	}

	seen := make(map[string]bool)
	names := make([]string, 0, limit)
	for _, candidate := range properNounRegex.FindAllString(raw, -1) {
		if len(names) == limit {
			break
		}
		if seen[candidate] {
			continue
		}
		seen[candidate] = true
		names = append(names, candidate)
	}

	for len(names) < MinFallbackAnalysts {
		names = append(names, fmt.Sprintf("Analyst %d", len(names)+1))
	}

	analysts := make([]models.Analyst, 0, len(names))
	for i, name := range names {
		analysts = append(analysts, models.Analyst{
			Name:        name,
			Role:        fallbackRole(i),
			Affiliation: fmt.Sprintf("Research Institute %d", i+1),
			Description: DefaultDescription(name),
		})
	}
	return analysts
}

func fallbackRole(slot int) string {
	if slot < len(fallbackRoles) {
		return fallbackRoles[slot]
	}
	return fmt.Sprintf("Research Analyst %d", slot+1)
}
