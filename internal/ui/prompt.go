package ui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/manifoldco/promptui"
)

// ErrPromptAborted is returned when the user cancels a prompt
var ErrPromptAborted = errors.New("prompt aborted")

// ConfirmPrompt asks the user a yes/no question
func ConfirmPrompt(label string, defaultYes bool) (bool, error) {
	def := "n"
	if defaultYes {
		def = "y"
	}
	prompt := promptui.Prompt{
		Label:     label,
		IsConfirm: true,
		Default:   def,
	}
	result, err := prompt.Run()
	if err != nil {
		if errors.Is(err, promptui.ErrAbort) || errors.Is(err, promptui.ErrInterrupt) {
			return false, nil
		}
		return false, fmt.Errorf("confirm prompt failed: %w", err)
	}
	return strings.EqualFold(result, "y") || (result == "" && defaultYes), nil
}

// InputPrompt asks for free-form input with optional validation
func InputPrompt(label string, validate func(string) error) (string, error) {
	prompt := promptui.Prompt{
		Label:    label,
		Validate: validate,
	}
	result, err := prompt.Run()
	if err != nil {
		if errors.Is(err, promptui.ErrInterrupt) {
			return "", ErrPromptAborted
		}
		return "", fmt.Errorf("input prompt failed: %w", err)
	}
	return strings.TrimSpace(result), nil
}

// SelectPrompt presents a fuzzy-searchable list and returns the chosen item
func SelectPrompt(label string, items []string) (string, error) {
	if len(items) == 0 {
		return "", errors.New("nothing to select from")
	}

	searcher := func(input string, index int) bool {
		return fuzzy.MatchNormalizedFold(input, items[index])
	}

	prompt := promptui.Select{
		Label:             label,
		Items:             items,
		Size:              12,
		Searcher:          searcher,
		StartInSearchMode: false,
		Templates: &promptui.SelectTemplates{
			Label:    "{{ . }}:",
			Active:   "→ {{ . | cyan }}",
			Inactive: "  {{ . }}",
			Selected: "✓ {{ . | green }}",
		},
	}

	_, result, err := prompt.Run()
	if err != nil {
		if errors.Is(err, promptui.ErrInterrupt) {
			return "", ErrPromptAborted
		}
		return "", fmt.Errorf("select prompt failed: %w", err)
	}
	return result, nil
}

// ValidateNonEmpty rejects blank input
func ValidateNonEmpty(input string) error {
	if strings.TrimSpace(input) == "" {
		return errors.New("input cannot be empty")
	}
	return nil
}
