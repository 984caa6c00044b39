package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// stdinPrompter answers the engine's input requests from standard input.
type stdinPrompter struct {
	r *bufio.Reader
}

func newStdinPrompter() *stdinPrompter {
	return &stdinPrompter{r: bufio.NewReader(os.Stdin)}
}

func (p *stdinPrompter) Range() (string, string, error) {
	from, err := p.ask("From checkpoint ID: ")
	if err != nil {
		return "", "", err
	}
	to, err := p.ask("To checkpoint ID: ")
	if err != nil {
		return "", "", err
	}
	return from, to, nil
}

func (p *stdinPrompter) RefTime() (string, error) {
	return p.ask("Reference time (seconds): ")
}

// Confirm treats only a literal "yes" as approval.
func (p *stdinPrompter) Confirm(question string) (bool, error) {
	answer, err := p.ask(question + " (yes/no): ")
	if err != nil {
		return false, err
	}
	return strings.EqualFold(answer, "yes"), nil
}

func (p *stdinPrompter) ask(prompt string) (string, error) {
	fmt.Print(prompt)
	line, err := p.r.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
