package release

import (
	"strings"

	"github.com/manifoldco/promptui"
)

// PromptSelector presents a fuzzy-filterable list of version tags and blocks
// until the operator chooses one.
type PromptSelector struct {
	size int
}

// NewPromptSelector constructs a PromptSelector.
func NewPromptSelector() *PromptSelector {
	return &PromptSelector{size: 10}
}

// Select runs the interactive selection.
func (s *PromptSelector) Select(versions []string) (string, error) {
	prompt := promptui.Select{
		Label:             "Select a k3s version",
		Items:             versions,
		Size:              s.size,
		StartInSearchMode: true,
		Searcher: func(input string, index int) bool {
			return strings.Contains(
				strings.ToLower(versions[index]),
				strings.ToLower(strings.TrimSpace(input)),
			)
		},
		Templates: &promptui.SelectTemplates{
			Label:    "{{ . }}:",
			Active:   "▶ {{ . | cyan }}",
			Inactive: "  {{ . }}",
			Selected: "✔ {{ . | green }}",
		},
	}

	_, chosen, err := prompt.Run()
	if err != nil {
		return "", err
	}

	return chosen, nil
}
