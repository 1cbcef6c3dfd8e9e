package records

import (
	"os"

	"github.com/cockroachdb/errors"
	"github.com/goccy/go-json"
)

// SaveJSON writes people as an indented JSON array of objects.
func SaveJSON(path string, people []Person) error {
	if people == nil {
		people = []Person{}
	}
	data, err := json.MarshalIndent(people, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to marshal JSON")
	}
	data = append(data, '\n')
	return errors.Wrapf(os.WriteFile(path, data, 0o644), "writing %s", path)
}

// LoadJSON reads a file written by SaveJSON.
func LoadJSON(path string) ([]Person, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	var people []Person
	if err := json.Unmarshal(data, &people); err != nil {
		return nil, errors.Wrapf(err, "failed to unmarshal JSON from %s", path)
	}
	return people, nil
}
