package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/gophecy/agentgen/internal/config"
	"github.com/gophecy/agentgen/internal/population"
)

// errInputClosed is returned when the prompt input ends before an answer.
var errInputClosed = errors.New("input closed before all answers were given")

// prompter asks questions on w and reads one answer per line from r.
// Invalid answers are reported and the question is asked again.
type prompter struct {
	r *bufio.Reader
	w io.Writer
}

func newPrompter(r io.Reader, w io.Writer) *prompter {
	return &prompter{r: bufio.NewReader(r), w: w}
}

func (p *prompter) line(prompt string) (string, error) {
	fmt.Fprint(p.w, prompt)
	s, err := p.r.ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || s == "") {
		if errors.Is(err, io.EOF) {
			return "", errInputClosed
		}
		return "", fmt.Errorf("reading answer: %w", err)
	}
	return strings.TrimSpace(s), nil
}

func (p *prompter) count(prompt string) (int, error) {
	for {
		s, err := p.line(prompt)
		if err != nil {
			return 0, err
		}
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			fmt.Fprintln(p.w, "Please enter a non-negative integer")
			continue
		}
		return n, nil
	}
}

func (p *prompter) yesNo(prompt string) (bool, error) {
	for {
		s, err := p.line(prompt)
		if err != nil {
			return false, err
		}
		switch strings.ToLower(s) {
		case "yes", "y":
			return true, nil
		case "no", "n", "":
			return false, nil
		}
		fmt.Fprintln(p.w, "Please answer yes or no")
	}
}

// float reads a number. An empty answer returns def when it is set.
func (p *prompter) float(prompt string, def *float64) (float64, error) {
	for {
		s, err := p.line(prompt)
		if err != nil {
			return 0, err
		}
		if s == "" && def != nil {
			return *def, nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			fmt.Fprintln(p.w, "Please enter a number")
			continue
		}
		return v, nil
	}
}

func (p *prompter) distribution(prompt string) (population.DistributionKind, error) {
	for {
		s, err := p.line(prompt)
		if err != nil {
			return "", err
		}
		kind, err := population.ParseDistribution(s)
		if err != nil {
			fmt.Fprintln(p.w, "Please enter uniform or normal")
			continue
		}
		return kind, nil
	}
}

// promptGeneration asks for every generation setting, starting from gen.
// Relation answers are stored as typed; unrecognized ones fall back to
// neutral when the options are built.
func promptGeneration(p *prompter, gen config.GenerationConfig) (config.GenerationConfig, error) {
	var err error
	if gen.Believers, err = p.count("Enter the number of Believers: "); err != nil {
		return gen, err
	}
	if gen.Sceptics, err = p.count("Enter the number of Sceptics: "); err != nil {
		return gen, err
	}
	if gen.Neutrals, err = p.count("Enter the number of Neutrals: "); err != nil {
		return gen, err
	}

	if gen.RandomRelations, err = p.yesNo("Do you want random relations between agents? (yes/no): "); err != nil {
		return gen, err
	}
	if !gen.RandomRelations {
		targets := map[population.Category]*string{
			population.Believer: &gen.Relations.Believer,
			population.Sceptic:  &gen.Relations.Sceptic,
			population.Neutral:  &gen.Relations.Neutral,
		}
		for _, c := range population.Categories() {
			fmt.Fprintf(p.w, "Choose relation type for %ss with other agents:\n", c)
			for _, choice := range population.RelationChoices() {
				fmt.Fprintf(p.w, "%s - %s\n", choice.Code, choice.Label)
			}
			answer, err := p.line(fmt.Sprintf("Relation type (1-4) for %ss: ", c))
			if err != nil {
				return gen, err
			}
			*targets[c] = answer
		}
	}

	kind, err := p.distribution("Choose the distribution for charisma (uniform/normal): ")
	if err != nil {
		return gen, err
	}
	gen.Charisma = population.Distribution{Kind: kind}
	if kind == population.Normal {
		if gen.Charisma.Mean, err = p.floatPtr("Enter the mean for the normal distribution: ", nil); err != nil {
			return gen, err
		}
		if gen.Charisma.StdDev, err = p.floatPtr("Enter the standard deviation for the normal distribution: ", nil); err != nil {
			return gen, err
		}
	}

	kind, err = p.distribution("Choose the distribution for the personal parameter (uniform/normal): ")
	if err != nil {
		return gen, err
	}
	if kind == population.Normal {
		gen.PersonalParameter = population.Distribution{Kind: kind}
		if gen.PersonalParameter.Mean, err = p.floatPtr("Enter the mean for the personal parameter: ", nil); err != nil {
			return gen, err
		}
		if gen.PersonalParameter.StdDev, err = p.floatPtr("Enter the standard deviation for the personal parameter: ", nil); err != nil {
			return gen, err
		}
	} else {
		def := population.DefaultOptions().PersonalParameter
		prev := gen.PersonalParameter
		if prev.Kind == population.Uniform && prev.Min != nil && prev.Max != nil {
			def = prev
		}
		gen.PersonalParameter = population.Distribution{Kind: kind}
		if gen.PersonalParameter.Min, err = p.floatPtr(fmt.Sprintf("Enter the minimum personal parameter [%g]: ", *def.Min), def.Min); err != nil {
			return gen, err
		}
		if gen.PersonalParameter.Max, err = p.floatPtr(fmt.Sprintf("Enter the maximum personal parameter [%g]: ", *def.Max), def.Max); err != nil {
			return gen, err
		}
	}

	output, err := p.line(fmt.Sprintf("Output file [%s]: ", gen.Output))
	if err != nil {
		return gen, err
	}
	if output != "" {
		gen.Output = output
	}
	return gen, nil
}

func (p *prompter) floatPtr(prompt string, def *float64) (*float64, error) {
	v, err := p.float(prompt, def)
	if err != nil {
		return nil, err
	}
	return population.Float(v), nil
}
