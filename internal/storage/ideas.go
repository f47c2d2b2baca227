package storage

import (
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/valter-silva-au/brainboard/internal/cache"
	"github.com/valter-silva-au/brainboard/pkg/models"
)

// IdeaLog reads the append-only markdown idea log. Ideas are never mutated
// here; the full list is re-derived from the file on every cache miss.
type IdeaLog struct {
	basePath string
	cache    *cache.Cache
}

// NewIdeaLog creates an idea log reader rooted at the given base directory.
func NewIdeaLog(basePath string, c *cache.Cache) *IdeaLog {
	return &IdeaLog{basePath: basePath, cache: c}
}

func (l *IdeaLog) filePath() string {
	return filepath.Join(l.basePath, IdeaLogFile)
}

// Ideas returns the parsed idea records, populating the cache region on a
// miss. A missing log file yields an empty list.
func (l *IdeaLog) Ideas() ([]models.Idea, error) {
	v, err := l.cache.Get(cache.CategoryIdeas, func() (any, error) {
		data, err := os.ReadFile(l.filePath())
		if err != nil {
			if os.IsNotExist(err) {
				return []models.Idea{}, nil
			}
			return nil, err
		}
		return ParseIdeaLog(string(data)), nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]models.Idea), nil
}

// Find returns the idea with the given number, or nil.
func (l *IdeaLog) Find(number int) (*models.Idea, error) {
	ideas, err := l.Ideas()
	if err != nil {
		return nil, err
	}
	for i := range ideas {
		if ideas[i].Number == number {
			return &ideas[i], nil
		}
	}
	return nil, nil
}

// Line shapes recognized by the parser.
var (
	// e.g. "### #007 - 08:00 AM PST"
	ideaHeaderRe = regexp.MustCompile(`^###\s+#(\d+)\s*-\s*(.+?)\s*$`)
	// e.g. "**Quote (refined):** \"text\"" or "**Notes:** free text"
	fieldLineRe = regexp.MustCompile(`^\*\*([^*]+?):\*\*\s*(.*)$`)
)

// Typed fields hold a single-line value; section fields open a multi-line
// free-text section that runs until the next bold label or header.
const (
	fieldQuoteOriginal = "quote (original)"
	fieldQuoteRefined  = "quote (refined)"
	fieldTags          = "tags"
	fieldChapter       = "chapter"
	fieldStatus        = "status"

	sectionNotes       = "notes"
	sectionTension     = "the tension"
	sectionParadox     = "the paradox"
	sectionConnections = "connections"
	sectionContent     = "potential content"
)

// ideaStatusMarkers maps free-text and emoji markers to a status, consulted
// in priority order: shipped-like markers outrank drafted-like markers, which
// outrank assigned-like markers. Matching is case-insensitive substring;
// anything unmatched is captured.
var ideaStatusMarkers = []struct {
	marker string
	status models.IdeaStatus
}{
	{"shipped", models.IdeaShipped},
	{"posted", models.IdeaShipped},
	{"published", models.IdeaShipped},
	{"\U0001f680", models.IdeaShipped}, // rocket
	{"✅", models.IdeaShipped},     // check mark
	{"drafted", models.IdeaDrafted},
	{"draft", models.IdeaDrafted},
	{"\U0001f4dd", models.IdeaDrafted}, // memo
	{"assigned", models.IdeaAssigned},
	{"claimed", models.IdeaAssigned},
	{"\U0001f3af", models.IdeaAssigned}, // dart
}

// DeriveIdeaStatus classifies free status text against the ordered marker
// table. Unmatched text, including empty, defaults to captured.
func DeriveIdeaStatus(text string) models.IdeaStatus {
	lower := strings.ToLower(text)
	for _, m := range ideaStatusMarkers {
		if strings.Contains(lower, m.marker) {
			return m.status
		}
	}
	return models.IdeaCaptured
}

// ideaParser is the line-oriented state machine that turns the markdown log
// into idea records. States: idle (before the first idea header), inIdea
// (fields of the current idea), inSection (accumulating a free-text section).
type ideaParser struct {
	state       parserState
	currentDate string
	current     *models.Idea
	section     string
	sectionBuf  []string
	ideas       []models.Idea
}

type parserState int

const (
	parserIdle parserState = iota
	parserInIdea
	parserInSection
)

// ParseIdeaLog converts the markdown idea log into an ordered list of idea
// records. It never fails on malformed input: unrecognized lines are skipped
// and a malformed field degrades to an omitted field.
func ParseIdeaLog(content string) []models.Idea {
	p := &ideaParser{}
	for _, raw := range strings.Split(content, "\n") {
		p.feed(strings.TrimRight(raw, "\r"))
	}
	p.closeIdea()
	return p.ideas
}

func (p *ideaParser) feed(line string) {
	trimmed := strings.TrimSpace(line)

	// Idea header. Checked before the date header since both begin with '#'.
	if m := ideaHeaderRe.FindStringSubmatch(trimmed); m != nil {
		p.closeIdea()
		num, err := strconv.Atoi(m[1])
		if err != nil {
			// Unparseable id: skip the whole header line.
			return
		}
		p.current = &models.Idea{
			Number:     num,
			CapturedAt: m[2],
			Date:       p.currentDate,
			Status:     models.IdeaCaptured,
		}
		p.state = parserInIdea
		return
	}

	// Date header resets the capture date context and closes any open idea.
	if strings.HasPrefix(trimmed, "## ") {
		p.closeIdea()
		p.currentDate = strings.TrimSpace(strings.TrimPrefix(trimmed, "## "))
		p.state = parserIdle
		return
	}

	if p.current == nil {
		// Content before the first idea header is ignored.
		return
	}

	// Bold-labeled field line. Any new label terminates the open section.
	if m := fieldLineRe.FindStringSubmatch(trimmed); m != nil {
		label := strings.ToLower(strings.TrimSpace(m[1]))
		value := strings.TrimSpace(m[2])
		p.closeSection()

		switch label {
		case fieldQuoteOriginal:
			p.current.QuoteOriginal = unquote(value)
		case fieldQuoteRefined:
			p.current.QuoteRefined = unquote(value)
		case fieldTags:
			p.current.Tags = parseTags(value)
		case fieldChapter:
			p.current.Chapter = value
		case fieldStatus:
			p.current.Status = DeriveIdeaStatus(value)
		case sectionNotes, sectionTension, sectionParadox, sectionConnections, sectionContent:
			p.section = label
			p.state = parserInSection
			if value != "" {
				p.sectionBuf = append(p.sectionBuf, value)
			}
		default:
			// Unknown label: field is omitted, parsing continues.
			p.state = parserInIdea
		}
		return
	}

	// Plain content line: appended to the open section, ignored otherwise.
	if p.state == parserInSection {
		p.sectionBuf = append(p.sectionBuf, line)
	}
}

// closeSection flushes the accumulated free text into the field the open
// section belongs to.
func (p *ideaParser) closeSection() {
	if p.state != parserInSection || p.current == nil {
		p.state = parserInIdea
		return
	}
	text := strings.TrimSpace(strings.Join(p.sectionBuf, "\n"))

	switch p.section {
	case sectionNotes:
		p.current.Notes = text
	case sectionTension:
		p.current.Tension = text
	case sectionParadox:
		p.current.Paradox = text
	case sectionConnections:
		p.current.Connections = text
	case sectionContent:
		// Only bullet lines become items; the rest of the section is
		// discarded.
		for _, line := range p.sectionBuf {
			line = strings.TrimSpace(line)
			var item string
			switch {
			case strings.HasPrefix(line, "- "):
				item = strings.TrimSpace(strings.TrimPrefix(line, "- "))
			case strings.HasPrefix(line, "* "):
				item = strings.TrimSpace(strings.TrimPrefix(line, "* "))
			}
			if item != "" {
				p.current.ContentAngles = append(p.current.ContentAngles, item)
			}
		}
	}

	p.section = ""
	p.sectionBuf = nil
	p.state = parserInIdea
}

// closeIdea finalizes the in-progress idea, resolving the canonical quote,
// and appends it to the result list.
func (p *ideaParser) closeIdea() {
	p.closeSection()
	if p.current == nil {
		return
	}
	if p.current.QuoteRefined != "" {
		p.current.Quote = p.current.QuoteRefined
	} else {
		p.current.Quote = p.current.QuoteOriginal
	}
	p.ideas = append(p.ideas, *p.current)
	p.current = nil
	p.state = parserIdle
}

// parseTags splits a comma-separated tag value, trimming whitespace and any
// leading '#'.
func parseTags(value string) []string {
	var tags []string
	for _, part := range strings.Split(value, ",") {
		tag := strings.TrimSpace(part)
		tag = strings.TrimPrefix(tag, "#")
		if tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

// unquote strips one matching pair of surrounding double quotes.
func unquote(s string) string {
	if len(s) >= 2 && strings.HasPrefix(s, `"`) && strings.HasSuffix(s, `"`) {
		return s[1 : len(s)-1]
	}
	return s
}
