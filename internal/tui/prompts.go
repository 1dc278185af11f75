package tui

import (
	"fmt"

	"github.com/AlecAivazis/survey/v2"
)

// ErrNotInteractive is returned when a prompt is requested without a terminal
var ErrNotInteractive = fmt.Errorf("interactive prompt requires a terminal; pass --yes to skip confirmation")

// PromptConfirm asks a yes/no question on the terminal
func PromptConfirm(message string, defaultValue bool) (bool, error) {
	if !IsTTY() {
		return false, ErrNotInteractive
	}

	var confirmed bool
	prompt := &survey.Confirm{
		Message: message,
		Default: defaultValue,
	}
	if err := survey.AskOne(prompt, &confirmed); err != nil {
		return false, fmt.Errorf("canceled")
	}
	return confirmed, nil
}
