package schema

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrEmptyChoice           = errors.New("empty choice")
	ErrMultiSelectNotAllowed = errors.New("multiple selections not allowed")
	ErrMalformedChoice       = errors.New("malformed choice")
)

// ChoiceOptions decodes a vote's choice for a voting type. Single-choice
// votes encode one option as a JSON string; approval votes encode the
// selected options as a JSON string array.
func ChoiceOptions(votingType, choice string) ([]string, error) {
	switch votingType {
	case VotingTypeSingle:
		var option string
		if err := json.Unmarshal([]byte(choice), &option); err != nil {
			// A JSON array here means the voter selected more than one.
			var options []string
			if json.Unmarshal([]byte(choice), &options) == nil {
				if len(options) == 0 {
					return nil, ErrEmptyChoice
				}
				return nil, ErrMultiSelectNotAllowed
			}
			return nil, fmt.Errorf("%w: %v", ErrMalformedChoice, err)
		}
		if option == "" {
			return nil, ErrEmptyChoice
		}
		return []string{option}, nil
	case VotingTypeApproval:
		var options []string
		if err := json.Unmarshal([]byte(choice), &options); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedChoice, err)
		}
		if len(options) == 0 {
			return nil, ErrEmptyChoice
		}
		seen := make(map[string]bool, len(options))
		for _, option := range options {
			if option == "" {
				return nil, ErrEmptyChoice
			}
			if seen[option] {
				return nil, fmt.Errorf("%w: duplicate selection %q", ErrMalformedChoice, option)
			}
			seen[option] = true
		}
		return options, nil
	default:
		return nil, fmt.Errorf("%w: voting type %q", ErrMalformedChoice, votingType)
	}
}
