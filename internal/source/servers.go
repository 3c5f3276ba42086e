package source

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// ReadServerIndex reads servers/index.json, a mapping of guild id to
// display name. A missing file yields an empty map.
func ReadServerIndex(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading server index: %w", err)
	}

	servers := map[string]string{}
	if err := json.Unmarshal(data, &servers); err != nil {
		return nil, fmt.Errorf("parsing server index %s: %w", path, err)
	}
	return servers, nil
}
