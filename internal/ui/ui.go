package ui

import (
	"errors"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
)

// ErrInterrupted is returned by the prompts when the user presses Ctrl+C.
var ErrInterrupted = errors.New("interrupted by user")

// Input displays a text input prompt
func Input(message, defaultValue, help string, validators ...survey.Validator) (string, error) {
	var result string
	prompt := &survey.Input{
		Message: message,
		Default: defaultValue,
		Help:    help,
	}

	opts := make([]survey.AskOpt, 0, len(validators))
	for _, v := range validators {
		opts = append(opts, survey.WithValidator(v))
	}

	err := survey.AskOne(prompt, &result, opts...)
	return strings.TrimSpace(result), promptError(err)
}

// Password displays a password input prompt
func Password(message, help string) (string, error) {
	var result string
	prompt := &survey.Password{
		Message: message,
		Help:    help,
	}

	err := survey.AskOne(prompt, &result, survey.WithValidator(survey.Required))
	return result, promptError(err)
}

// Select displays a selection prompt
func Select(message string, options []string, defaultValue string) (string, error) {
	var result string
	prompt := &survey.Select{
		Message:  message,
		Options:  options,
		PageSize: 10,
	}
	if defaultValue != "" {
		prompt.Default = defaultValue
	}

	err := survey.AskOne(prompt, &result)
	return result, promptError(err)
}

// MultiSelect displays a multi-select prompt
func MultiSelect(message string, options []string, defaults []string) ([]string, error) {
	selected := []string{}
	prompt := &survey.MultiSelect{
		Message:  message,
		Options:  options,
		Default:  defaults,
		PageSize: 10,
	}

	err := survey.AskOne(prompt, &selected)
	return selected, promptError(err)
}

// Confirm shows a yes/no prompt
func Confirm(message string, defaultValue bool) (bool, error) {
	result := defaultValue
	prompt := &survey.Confirm{
		Message: message,
		Default: defaultValue,
	}

	err := survey.AskOne(prompt, &result)
	return result, promptError(err)
}

func promptError(err error) error {
	if errors.Is(err, terminal.InterruptErr) {
		return ErrInterrupted
	}
	return err
}
