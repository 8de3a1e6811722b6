package core

import "fmt"

// ValidateProjectID rejects identifiers that cannot serve as a single path
// segment under the builds root or as an object-store key prefix.
func ValidateProjectID(id string) error {
	if id == "" {
		return fmt.Errorf("project id cannot be empty")
	}

	if len(id) > 128 {
		return fmt.Errorf("project id too long")
	}

	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '-' || r == '_':
		default:
			return fmt.Errorf("project id contains invalid character %q", r)
		}
	}

	return nil
}
