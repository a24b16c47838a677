package ttsource

import (
	"encoding/json"
	"os"

	"github.com/pkg/errors"
)

// LoadFaculties reads the faculty list cached by SaveFaculties.
func LoadFaculties(path string) ([]Faculty, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read faculties")
	}
	var faculties []Faculty
	if err := json.Unmarshal(data, &faculties); err != nil {
		return nil, errors.Wrapf(err, "decode %s", path)
	}
	return faculties, nil
}

func SaveFaculties(path string, faculties []Faculty) error {
	data, err := json.MarshalIndent(faculties, "", "    ")
	if err != nil {
		return errors.Wrap(err, "encode faculties")
	}
	return errors.Wrap(os.WriteFile(path, data, 0644), "write faculties")
}

// CachedFaculties returns the faculty list from path, fetching and saving it
// first if the file does not exist yet.
func (s *Source) CachedFaculties(path string) ([]Faculty, error) {
	if _, err := os.Stat(path); err == nil {
		return LoadFaculties(path)
	}
	faculties, err := s.Faculties()
	if err != nil {
		return nil, err
	}
	if err := SaveFaculties(path, faculties); err != nil {
		return nil, err
	}
	return faculties, nil
}

// FilterFaculties keeps the faculties whose short names are listed. An empty
// list selects everything.
func FilterFaculties(all []Faculty, shorts []string) []Faculty {
	if len(shorts) == 0 {
		return all
	}
	wanted := make(map[string]bool, len(shorts))
	for _, s := range shorts {
		wanted[s] = true
	}
	var res []Faculty
	for _, f := range all {
		if wanted[f.Short] {
			res = append(res, f)
		}
	}
	return res
}
