package models

import "strings"

// Tag is an event category.
type Tag string

const (
	TagSport     Tag = "sport"
	TagCulture   Tag = "culture"
	TagMusic     Tag = "music"
	TagArt       Tag = "art"
	TagFood      Tag = "food"
	TagDrink     Tag = "drink"
	TagParty     Tag = "party"
	TagEducation Tag = "education"
	TagBusiness  Tag = "business"
	TagCharity   Tag = "charity"
	TagFamily    Tag = "family"
	TagFriends   Tag = "friends"
	TagOther     Tag = "other"
)

type TagOption struct {
	Value Tag
	Label string
}

// TagOptions lists categories in display order.
var TagOptions = []TagOption{
	{TagSport, "Sport"},
	{TagCulture, "Culture"},
	{TagMusic, "Music"},
	{TagArt, "Art"},
	{TagFood, "Food"},
	{TagDrink, "Drink"},
	{TagParty, "Party"},
	{TagEducation, "Education"},
	{TagBusiness, "Business"},
	{TagCharity, "Charity"},
	{TagFamily, "Family"},
	{TagFriends, "Friends"},
	{TagOther, "Other"},
}

func (t Tag) Valid() bool {
	for _, o := range TagOptions {
		if o.Value == t {
			return true
		}
	}
	return false
}

// Label returns the display label, or the raw value for unknown tags.
func (t Tag) Label() string {
	for _, o := range TagOptions {
		if o.Value == t {
			return o.Label
		}
	}
	return string(t)
}

// ParseTags splits comma-separated values, dropping blanks, unknown values
// and duplicates while keeping first-seen order.
func ParseTags(raw ...string) []Tag {
	seen := make(map[Tag]bool)
	var out []Tag
	for _, r := range raw {
		for _, part := range strings.Split(r, ",") {
			t := Tag(strings.ToLower(strings.TrimSpace(part)))
			if t == "" || !t.Valid() || seen[t] {
				continue
			}
			seen[t] = true
			out = append(out, t)
		}
	}
	return out
}
