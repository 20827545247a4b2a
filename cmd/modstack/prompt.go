// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"modstack/internal/installer"
)

// runInstaller walks the installer's pending questions until none remain,
// reading selections from in. Recorded answers seed the walk; a recorded
// answer the descriptor no longer accepts is dropped and its question asked
// again.
func runInstaller(d *installer.Descriptor, recorded installer.Answers, in io.Reader, out io.Writer) (installer.Answers, error) {
	answers := recorded.Clone()
	scanner := bufio.NewScanner(in)

	for {
		questions, err := d.Questions(answers)
		if err != nil {
			var invalid *installer.InvalidAnswerError
			if errors.As(err, &invalid) {
				delete(answers, invalid.Group)
				continue
			}
			return nil, err
		}
		if len(questions) == 0 {
			return answers, nil
		}

		q := questions[0]
		renderQuestion(out, q)
		for {
			fmt.Fprint(out, "> ")
			if !scanner.Scan() {
				if err := scanner.Err(); err != nil {
					return nil, err
				}
				return nil, errors.New("installer aborted")
			}
			input := strings.TrimSpace(scanner.Text())
			if input == "q" {
				return nil, errors.New("installer aborted")
			}
			selected, err := parseSelection(input, q)
			if err != nil {
				fmt.Fprintln(out, WarningStyle.Render(err.Error()))
				continue
			}
			answers[q.Group] = selected
			break
		}
	}
}

// renderQuestion prints one group with its numbered options.
func renderQuestion(out io.Writer, q installer.Question) {
	header := q.Group
	if q.Step != "" {
		header = q.Step + " / " + q.Group
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, TitleStyle.Render(header)+SubtitleStyle.Render("  ("+arityHint(q.Type)+", q to abort)"))
	for i, opt := range q.Options {
		fmt.Fprintf(out, "  %d) %s\n", i+1, opt.Name)
		if opt.Description != "" {
			fmt.Fprintf(out, "     %s\n", SubtitleStyle.Render(opt.Description))
		}
	}
}

func arityHint(t installer.GroupType) string {
	switch t {
	case installer.SelectExactlyOne:
		return "pick one"
	case installer.SelectAtMostOne:
		return "pick one or none, enter for none"
	case installer.SelectAtLeastOne:
		return "pick one or more"
	default:
		return "pick any, enter for none"
	}
}

// parseSelection turns space-separated option numbers into option names,
// enforcing the group's selection arity.
func parseSelection(input string, q installer.Question) ([]string, error) {
	fields := strings.Fields(input)
	if len(fields) == 0 {
		switch q.Type {
		case installer.SelectExactlyOne, installer.SelectAtLeastOne:
			return nil, errors.New("a selection is required")
		}
		return []string{}, nil
	}

	seen := map[int]bool{}
	selected := make([]string, 0, len(fields))
	for _, field := range fields {
		n, err := strconv.Atoi(field)
		if err != nil || n < 1 || n > len(q.Options) {
			return nil, fmt.Errorf("enter numbers between 1 and %d", len(q.Options))
		}
		if seen[n] {
			continue
		}
		seen[n] = true
		selected = append(selected, q.Options[n-1].Name)
	}

	switch q.Type {
	case installer.SelectExactlyOne:
		if len(selected) != 1 {
			return nil, errors.New("pick exactly one option")
		}
	case installer.SelectAtMostOne:
		if len(selected) > 1 {
			return nil, errors.New("pick at most one option")
		}
	}
	return selected, nil
}
