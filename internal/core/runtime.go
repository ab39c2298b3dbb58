package core

import (
	"fmt"
	"strconv"
	"strings"
)

// Runtime describes the interpreter apps are installed for. Archives may
// ship one payload per major version under "{Name} {major}.x".
type Runtime struct {
	Name    string
	Version string
}

func (r Runtime) Tag() (string, error) {
	name := strings.TrimSpace(r.Name)
	if name == "" {
		return "", fmt.Errorf("runtime name cannot be empty")
	}
	v, err := parseSemver(r.Version)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s %d.x", name, v[0]), nil
}

func parseSemver(version string) ([3]int, error) {
	v := normalizeVersion(version)
	if v == "" {
		return [3]int{}, fmt.Errorf("invalid version %q", version)
	}

	if idx := strings.IndexAny(v, "+-"); idx >= 0 {
		v = v[:idx]
	}

	parts := strings.Split(v, ".")
	if len(parts) == 0 || len(parts) > 3 {
		return [3]int{}, fmt.Errorf("invalid version %q", version)
	}

	parsed := [3]int{}
	for i := range parts {
		part := strings.TrimSpace(parts[i])
		if part == "" {
			return [3]int{}, fmt.Errorf("invalid version %q", version)
		}

		n, err := strconv.Atoi(part)
		if err != nil || n < 0 {
			return [3]int{}, fmt.Errorf("invalid version %q", version)
		}
		parsed[i] = n
	}

	return parsed, nil
}
