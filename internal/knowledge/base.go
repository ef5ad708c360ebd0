// Package knowledge holds the amenity knowledge base: which communities exist,
// what amenities each offers, synonym groups used to resolve user wording,
// and the bookable slots per community amenity.
package knowledge

import (
	"fmt"
	"slices"
	"strings"

	"golang.org/x/text/cases"
)

// SynonymGroup maps a canonical key to alternate surface forms.
// Key and alternates are stored case-folded.
type SynonymGroup struct {
	Key          string   `json:"key"`
	Alternatives []string `json:"alternatives"`
}

// forms returns the key followed by its alternates.
func (g SynonymGroup) forms() []string {
	return append([]string{g.Key}, g.Alternatives...)
}

// Community is a named community and its amenities in file order.
type Community struct {
	Name      string   `json:"name"`
	Amenities []string `json:"amenities"`
}

type scheduleKey struct {
	community string
	amenity   string
}

// Base is immutable once returned by Load and safe for concurrent use.
type Base struct {
	communities []Community
	byName      map[string]int
	synonyms    []SynonymGroup
	schedules   map[scheduleKey][]string
}

func newBase() *Base {
	return &Base{
		byName:    make(map[string]int),
		schedules: make(map[scheduleKey][]string),
	}
}

// Normalize trims and case-folds user text for case-insensitive comparison.
func Normalize(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}

// Communities returns every community with its amenities, in file order.
func (b *Base) Communities() []Community {
	out := make([]Community, len(b.communities))
	for i, c := range b.communities {
		out[i] = Community{Name: c.Name, Amenities: slices.Clone(c.Amenities)}
	}
	return out
}

// Amenities returns the amenity list of a community, or nil if unknown.
func (b *Base) Amenities(community string) []string {
	i, ok := b.byName[community]
	if !ok {
		return nil
	}
	return slices.Clone(b.communities[i].Amenities)
}

// Synonyms returns the synonym groups in file order.
func (b *Base) Synonyms() []SynonymGroup {
	out := make([]SynonymGroup, len(b.synonyms))
	for i, g := range b.synonyms {
		out[i] = SynonymGroup{Key: g.Key, Alternatives: slices.Clone(g.Alternatives)}
	}
	return out
}

// Slots returns the configured slots for (community, amenity).
// A pair without a schedule has no slots.
func (b *Base) Slots(community, amenity string) []string {
	return slices.Clone(b.schedules[scheduleKey{community, amenity}])
}

// HasSlot reports whether slot is offered for (community, amenity).
// The comparison is exact: no trimming, case-sensitive.
func (b *Base) HasSlot(community, amenity, slot string) bool {
	return slices.Contains(b.schedules[scheduleKey{community, amenity}], slot)
}

// MatchCommunity finds the community whose name equals input ignoring case
// and surrounding whitespace, and returns its canonical name.
func (b *Base) MatchCommunity(input string) (string, bool) {
	want := Normalize(input)
	if want == "" {
		return "", false
	}
	for _, c := range b.communities {
		if Normalize(c.Name) == want {
			return c.Name, true
		}
	}
	return "", false
}

// ResolveAmenity maps user wording to one of the community's amenities.
// An exact case-insensitive name match wins. Otherwise synonym groups are
// tried in order: a group applies when input equals its key or an alternate,
// and it resolves to the first amenity whose folded name is one of the
// group's forms.
func (b *Base) ResolveAmenity(community, input string) (string, bool) {
	i, ok := b.byName[community]
	if !ok {
		return "", false
	}
	amenities := b.communities[i].Amenities
	want := Normalize(input)
	if want == "" {
		return "", false
	}

	folded := make([]string, len(amenities))
	for j, a := range amenities {
		folded[j] = Normalize(a)
		if folded[j] == want {
			return a, true
		}
	}

	for _, g := range b.synonyms {
		forms := g.forms()
		if !slices.Contains(forms, want) {
			continue
		}
		for j, a := range amenities {
			if slices.Contains(forms, folded[j]) {
				return a, true
			}
		}
	}
	return "", false
}

// Check reports amenities that have no schedule and schedules for amenities
// not listed under their community. Neither is fatal.
func (b *Base) Check() []string {
	var warnings []string
	listed := make(map[scheduleKey]bool)
	for _, c := range b.communities {
		for _, a := range c.Amenities {
			key := scheduleKey{c.Name, a}
			if listed[key] {
				continue
			}
			listed[key] = true
			if len(b.schedules[key]) == 0 {
				warnings = append(warnings, fmt.Sprintf("%s: amenity %q has no slots", c.Name, a))
			}
		}
	}
	for key := range b.schedules {
		if !listed[key] {
			warnings = append(warnings, fmt.Sprintf("%s: schedule for unlisted amenity %q", key.community, key.amenity))
		}
	}
	slices.Sort(warnings)
	return warnings
}
