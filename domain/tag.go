package domain

import (
	"math"
	"strconv"
	"strings"
)

// Tag is a labeled, colored category assignable to cards. Tags are scoped to
// a single board.
type Tag struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Color string `json:"color"`
}

// DefaultTags returns the tag set assigned to boards that carry none.
func DefaultTags() []Tag {
	return []Tag{
		{ID: "urgent", Label: "Urgent", Color: "#ff595e"},
		{ID: "onhold", Label: "On Hold", Color: "#ff924c"},
		{ID: "task", Label: "Task", Color: "#ffca3a"},
		{ID: "maintenance", Label: "Maintenance", Color: "#c5ca30"},
		{ID: "operation", Label: "Operation", Color: "#8ac926"},
		{ID: "support", Label: "Support", Color: "#36949d"},
		{ID: "design", Label: "Design", Color: "#1982c4"},
		{ID: "feature", Label: "Feature", Color: "#4267ac"},
		{ID: "issue", Label: "Issue", Color: "#565aa0"},
		{ID: "report", Label: "Report", Color: "#6a4c93"},
	}
}

// fallbackPalette colors new tags when no named theme is active.
var fallbackPalette = []string{
	"#ff595e", "#ff924c", "#ffca3a", "#8ac926",
	"#1982c4", "#6a4c93", "#36949d", "#565aa0",
}

// Theme is a named palette applied to a board's tags positionally.
type Theme struct {
	Name   string
	Colors []string
}

// BuiltinThemes lists the selectable color themes.
func BuiltinThemes() []Theme {
	return []Theme{
		{Name: "Chemical Overdoze", Colors: []string{"#001219", "#005f73", "#0a9396", "#94d2bd", "#e9d8a6", "#ee9b00", "#ca6702", "#bb3e03", "#ae2012", "#9b2226"}},
		{Name: "Vibrant Sunset", Colors: []string{"#ff6b6b", "#ee5a24", "#f79f1f", "#ffd32a", "#c4e538", "#009432", "#0652dd", "#833471", "#fd79a8", "#e84393"}},
		{Name: "Autumn Harvest", Colors: []string{"#2d4a2a", "#4a6741", "#758c3c", "#c9b800", "#f5c842", "#f4a03a", "#e07b39", "#c84b0f", "#9e3507", "#6d2b0c"}},
		{Name: "Soft Pastel", Colors: []string{"#ffb3c1", "#ffcfd2", "#fde4cf", "#fbf8cc", "#b9fbc0", "#98f5e1", "#8eecf5", "#90dbf4", "#a2c4c9", "#cfbaf0"}},
		{Name: "Sunshine Joy", Colors: []string{"#ffc300", "#ffb703", "#e85d04", "#9d0208", "#6a040f", "#370617", "#0d2c54", "#001d3d", "#000814", "#000814"}},
		{Name: "Light Pearls", Colors: []string{"#1a535c", "#349090", "#4ecdc4", "#a3e6de", "#f7fff7", "#fbb5b1", "#ff6b6b", "#ffa96c", "#ffe66d", "#ffe66d"}},
		{Name: "Earthly Tones", Colors: []string{"#c6d9df", "#f1e3d0", "#94baad", "#706993", "#70a0af", "#b85e25", "#dfaf6a", "#762852", "#04395e", "#04395e"}},
	}
}

// TagSet is the registry of tag definitions for one board. At least one tag
// always exists; resolving an unknown id degrades to the first tag instead of
// failing.
type TagSet struct {
	tags  []Tag
	theme string
}

// NewTagSet builds a registry from persisted tags, falling back to the
// default set when the board carries none.
func NewTagSet(tags []Tag) *TagSet {
	if len(tags) == 0 {
		tags = DefaultTags()
	}
	s := &TagSet{tags: make([]Tag, len(tags))}
	copy(s.tags, tags)
	return s
}

// List returns the tags in display order.
func (s *TagSet) List() []Tag {
	out := make([]Tag, len(s.tags))
	copy(out, s.tags)
	return out
}

// Len reports the number of tags.
func (s *TagSet) Len() int { return len(s.tags) }

// Resolve returns the tag with the given id, or the first tag when the id is
// unknown. It never fails: cards referencing a deleted tag degrade silently.
func (s *TagSet) Resolve(id string) Tag {
	for _, t := range s.tags {
		if t.ID == id {
			return t
		}
	}
	return s.tags[0]
}

func (s *TagSet) index(id string) int {
	for i, t := range s.tags {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// Add creates a tag from a label. The id is the slugified label; on a slug
// collision a time-based suffix is appended, and an empty slug falls back to
// a time-based id. The color is the next entry of the active palette.
func (s *TagSet) Add(label string) (Tag, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return Tag{}, &ValidationError{Reason: "tag name must not be empty"}
	}
	id := slugify(label)
	if id == "" {
		id = "tag" + strconv.FormatInt(nextCardMillis(), 10)
	} else if s.index(id) >= 0 {
		id = id + "-" + timeSuffix()
	}
	pool := s.palette()
	tag := Tag{ID: id, Label: label, Color: pool[len(s.tags)%len(pool)]}
	s.tags = append(s.tags, tag)
	return tag, nil
}

// Rename changes a tag's label in place. The id is stable across renames.
func (s *TagSet) Rename(id, label string) error {
	label = strings.TrimSpace(label)
	if label == "" {
		return &ValidationError{Reason: "tag name must not be empty"}
	}
	i := s.index(id)
	if i < 0 {
		return &NotFoundError{Kind: "tag", ID: id}
	}
	s.tags[i].Label = label
	return nil
}

// Recolor changes a tag's color in place.
func (s *TagSet) Recolor(id, color string) error {
	i := s.index(id)
	if i < 0 {
		return &NotFoundError{Kind: "tag", ID: id}
	}
	s.tags[i].Color = color
	return nil
}

// Delete removes a tag. Deleting the last remaining tag is refused; cards
// still referencing a deleted id resolve to the first tag.
func (s *TagSet) Delete(id string) error {
	i := s.index(id)
	if i < 0 {
		return &NotFoundError{Kind: "tag", ID: id}
	}
	if len(s.tags) == 1 {
		return &ValidationError{Reason: "cannot delete the last tag"}
	}
	s.tags = append(s.tags[:i], s.tags[i+1:]...)
	return nil
}

// ApplyTheme recolors the tags positionally from the named theme's palette.
// Tags beyond the palette length keep their colors.
func (s *TagSet) ApplyTheme(name string) error {
	for _, th := range BuiltinThemes() {
		if th.Name == name {
			s.theme = name
			s.applyPalette(th.Colors)
			return nil
		}
	}
	return &NotFoundError{Kind: "theme", ID: name}
}

func (s *TagSet) applyPalette(colors []string) {
	for i := range s.tags {
		if i >= len(colors) {
			break
		}
		s.tags[i].Color = colors[i]
	}
}

// ActiveTheme returns the name of the applied theme, or "" when none is set.
func (s *TagSet) ActiveTheme() string { return s.theme }

func (s *TagSet) palette() []string {
	if s.theme != "" {
		for _, th := range BuiltinThemes() {
			if th.Name == s.theme {
				return th.Colors
			}
		}
	}
	return fallbackPalette
}

func slugify(label string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(label) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// TextColor picks black or white text for a tag background using perceptual
// luminance: sqrt(0.299 r^2 + 0.587 g^2 + 0.114 b^2) / 255, threshold 0.5.
func TextColor(hex string) string {
	r, g, b, ok := parseHexColor(hex)
	if !ok {
		return "#ffffff"
	}
	lum := math.Sqrt(0.299*float64(r*r)+0.587*float64(g*g)+0.114*float64(b*b)) / 255
	if lum > 0.5 {
		return "#000000"
	}
	return "#ffffff"
}

func parseHexColor(hex string) (r, g, b int, ok bool) {
	c := strings.TrimPrefix(hex, "#")
	if len(c) == 3 {
		c = string([]byte{c[0], c[0], c[1], c[1], c[2], c[2]})
	}
	if len(c) != 6 {
		return 0, 0, 0, false
	}
	v, err := strconv.ParseUint(c, 16, 32)
	if err != nil {
		return 0, 0, 0, false
	}
	return int(v >> 16 & 0xff), int(v >> 8 & 0xff), int(v & 0xff), true
}
