package record

import (
	"errors"
	"fmt"
	"strings"
)

var ErrMissingField = errors.New("missing field")

// Field pairs a source column with the label it is rendered under.
type Field struct {
	Column string
	Label  string
}

// Fields is the fixed render order of a game record.
var Fields = []Field{
	{Column: "name", Label: "Name"},
	{Column: "short_description", Label: "Short Description"},
	{Column: "genres", Label: "Genres"},
	{Column: "minimum_system_requirement", Label: "Minimum System Requirements"},
	{Column: "recommend_system_requirement", Label: "Recommended System Requirements"},
	{Column: "release_date", Label: "Release Date"},
	{Column: "developer", Label: "Developer"},
	{Column: "publisher", Label: "Publisher"},
	{Column: "overall_player_rating", Label: "Overall Player Rating"},
	{Column: "number_of_reviews_from_purchased_people", Label: "Reviews from Purchased People"},
	{Column: "number_of_english_reviews", Label: "English Reviews"},
	{Column: "link", Label: "Link"},
}

// ParseRow renders one source row as a record blob.
func ParseRow(row map[string]string) (string, error) {
	lines := make([]string, 0, len(Fields))

	for _, f := range Fields {
		v, ok := row[f.Column]
		if !ok {
			return "", fmt.Errorf("%w: %s", ErrMissingField, f.Column)
		}
		lines = append(lines, fmt.Sprintf("%s: %s", f.Label, v))
	}

	return strings.Join(lines, "\n"), nil
}
