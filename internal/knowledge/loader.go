package knowledge

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ErrMalformed is matched by every *MalformedError.
var ErrMalformed = errors.New("malformed knowledge base")

// MalformedError points at the offending line of the knowledge source.
type MalformedError struct {
	Line   int
	Text   string
	Reason string
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("knowledge: line %d: %s: %q", e.Line, e.Reason, e.Text)
}

func (e *MalformedError) Is(target error) bool {
	return target == ErrMalformed
}

const (
	communityPrefix = "Community:"
	amenitiesPrefix = "Amenities:"
	schedulePrefix  = "Schedule:"
)

// LoadFile opens path and parses it with Load.
func LoadFile(path string) (*Base, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("knowledge: open %s: %w", path, err)
	}
	defer f.Close()
	return Load(f)
}

// Load parses the line-oriented knowledge format:
//
//	Community: Oakwood
//	Amenities: Pool, Gym
//	Schedule: Pool | Mon 9-10, Mon 10-11
//	swim = pool, swimming
//
// Amenities and Schedule lines apply to the most recent Community line.
// Unrecognized lines are ignored.
func Load(r io.Reader) (*Base, error) {
	b := newBase()
	current := ""
	synonymIndex := make(map[string]int)

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		malformed := func(reason string) error {
			return &MalformedError{Line: lineNo, Text: line, Reason: reason}
		}

		switch {
		case strings.HasPrefix(line, communityPrefix):
			name := strings.TrimSpace(strings.TrimPrefix(line, communityPrefix))
			if name == "" {
				return nil, malformed("community name is empty")
			}
			if _, ok := b.byName[name]; !ok {
				b.byName[name] = len(b.communities)
				b.communities = append(b.communities, Community{Name: name})
			}
			current = name

		case strings.HasPrefix(line, amenitiesPrefix):
			if current == "" {
				return nil, malformed("amenities listed before any community")
			}
			i := b.byName[current]
			items := splitList(strings.TrimPrefix(line, amenitiesPrefix))
			b.communities[i].Amenities = append(b.communities[i].Amenities, items...)

		case strings.HasPrefix(line, schedulePrefix):
			if current == "" {
				return nil, malformed("schedule listed before any community")
			}
			parts := strings.Split(strings.TrimPrefix(line, schedulePrefix), "|")
			if len(parts) != 2 {
				return nil, malformed("schedule must have the form 'amenity | slot, slot'")
			}
			amenity := strings.TrimSpace(parts[0])
			if amenity == "" {
				return nil, malformed("schedule amenity is empty")
			}
			b.schedules[scheduleKey{current, amenity}] = splitList(parts[1])

		case strings.Contains(line, "="):
			key, alts, _ := strings.Cut(line, "=")
			key = Normalize(key)
			if key == "" {
				return nil, malformed("synonym key is empty")
			}
			group := SynonymGroup{Key: key}
			for _, alt := range splitList(alts) {
				group.Alternatives = append(group.Alternatives, Normalize(alt))
			}
			if i, ok := synonymIndex[key]; ok {
				b.synonyms[i] = group
				continue
			}
			synonymIndex[key] = len(b.synonyms)
			b.synonyms = append(b.synonyms, group)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("knowledge: read: %w", err)
	}
	return b, nil
}

// splitList splits a comma-separated list, trimming items and dropping empty ones.
func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
