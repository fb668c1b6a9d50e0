package httpclient

import (
	"fmt"
	"io"
	"os"

	"github.com/manifoldco/promptui"
)

// Prompter obtains operator consent for an insecure retry after a classified
// certificate failure. Implementations must treat any prompt failure as a
// denial.
type Prompter interface {
	ConfirmInsecure(domain, reason string, proxySuspected bool) (bool, error)
}

// TerminalPrompter asks for consent on an interactive terminal.
type TerminalPrompter struct {
	output io.Writer
}

// NewTerminalPrompter constructs a TerminalPrompter writing explanatory text
// to the supplied writer.
func NewTerminalPrompter(output io.Writer) *TerminalPrompter {
	if output == nil {
		output = os.Stderr
	}
	return &TerminalPrompter{output: output}
}

// ConfirmInsecure explains the failure and asks whether to proceed without
// certificate validation. The default answer is no.
func (p *TerminalPrompter) ConfirmInsecure(domain, reason string, proxySuspected bool) (bool, error) {
	fmt.Fprintln(p.output)
	fmt.Fprintf(p.output, "Certificate validation failed for %s\n", domain)
	fmt.Fprintf(p.output, "Reason: %s\n", reason)
	fmt.Fprintln(p.output)

	if proxySuspected {
		fmt.Fprintln(p.output, "This appears to be a corporate SSL inspection proxy.")
		fmt.Fprintln(p.output)
	}

	prompt := promptui.Prompt{
		Label:     "Do you want to proceed anyway? (insecure)",
		IsConfirm: true,
		Default:   "n",
	}

	if _, err := prompt.Run(); err != nil {
		if err == promptui.ErrAbort {
			return false, nil
		}
		return false, err
	}

	return true, nil
}
