package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mseiser/SelfMemo2/internal/recurrence"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// RuleFile is a reminder rule written by hand for previewing
type RuleFile struct {
	Name     string         `yaml:"name"`
	Type     string         `yaml:"type"`
	Config   map[string]any `yaml:"config"`
	Warnings *struct {
		Number         int    `yaml:"number"`
		Interval       string `yaml:"interval"`
		IntervalNumber int    `yaml:"interval_number"`
	} `yaml:"warnings"`
}

// Preview is the result of the next command
type Preview struct {
	Name     string  `json:"name"`
	Type     string  `json:"type"`
	Schedule string  `json:"schedule"`
	Cycles   []Cycle `json:"cycles"`
}

// Cycle groups the occurrences computed from one reference instant
type Cycle struct {
	Reference   time.Time          `json:"reference"`
	Occurrences []PreviewOccurrence `json:"occurrences"`
}

// PreviewOccurrence is one occurrence of a cycle
type PreviewOccurrence struct {
	At        time.Time `json:"at"`
	IsWarning bool      `json:"is_warning"`
}

type nextOptions struct {
	file     string
	count    int
	from     string
	timezone string
}

// NewNextCommand creates the next command.
func NewNextCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &nextOptions{}

	cmd := &cobra.Command{
		Use:   "next",
		Short: "Preview the upcoming occurrences of a rule file",
		Long: `Preview the upcoming occurrences of a reminder rule.

The rule file is YAML with name, type, config and optional warnings.
Each cycle starts at the latest primary occurrence of the previous one,
the same way the dispatcher regenerates a reminder after sending it.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNext(rootOpts, opts, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "rule file (YAML)")
	cmd.Flags().IntVarP(&opts.count, "count", "n", 3, "number of cycles to compute")
	cmd.Flags().StringVar(&opts.from, "from", "", "reference instant in RFC3339 (default now)")
	cmd.Flags().StringVar(&opts.timezone, "timezone", "UTC", "location of rule wall-clock times")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func runNext(rootOpts *RootOptions, opts *nextOptions, w io.Writer) error {
	if opts.count <= 0 {
		return fmt.Errorf("count must be positive")
	}

	loc, err := time.LoadLocation(opts.timezone)
	if err != nil {
		return fmt.Errorf("invalid timezone: %w", err)
	}

	reference := time.Now()
	if opts.from != "" {
		reference, err = time.Parse(time.RFC3339, opts.from)
		if err != nil {
			return fmt.Errorf("invalid --from: %w", err)
		}
	}
	reference = reference.In(loc)

	data, err := os.ReadFile(opts.file)
	if err != nil {
		return fmt.Errorf("failed to read rule file: %w", err)
	}

	preview, err := buildPreview(data, reference, opts.count)
	if err != nil {
		return err
	}

	if rootOpts.Format == "json" {
		return writeJSON(w, preview)
	}
	return writePreview(w, preview)
}

// buildPreview parses a rule file and computes count cycles from the reference instant
func buildPreview(data []byte, reference time.Time, count int) (*Preview, error) {
	var file RuleFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse rule file: %w", err)
	}

	raw, err := json.Marshal(file.Config)
	if err != nil {
		return nil, fmt.Errorf("failed to encode rule config: %w", err)
	}

	kind := recurrence.Kind(file.Type)
	rule, err := recurrence.Parse(kind, raw)
	if err != nil {
		return nil, err
	}

	opts := recurrence.Options{CreatedAt: reference}
	if file.Warnings != nil {
		opts.Warnings = &recurrence.Warnings{
			Count: file.Warnings.Number,
			Unit:  recurrence.WarningUnit(file.Warnings.Interval),
			Every: file.Warnings.IntervalNumber,
		}
		if err := opts.Warnings.Validate(); err != nil {
			return nil, err
		}
	}

	preview := &Preview{
		Name:     file.Name,
		Type:     file.Type,
		Schedule: recurrence.Describe(rule, reference.Location()),
		Cycles:   []Cycle{},
	}

	for i := 0; i < count; i++ {
		occurrences, err := recurrence.Occurrences(rule, reference, opts)
		if err != nil {
			return nil, err
		}
		if len(occurrences) == 0 {
			break
		}

		cycle := Cycle{Reference: reference}
		latest := reference
		for _, o := range occurrences {
			cycle.Occurrences = append(cycle.Occurrences, PreviewOccurrence{At: o.At, IsWarning: o.IsWarning})
			if !o.IsWarning && o.At.After(latest) {
				latest = o.At
			}
		}
		preview.Cycles = append(preview.Cycles, cycle)

		if !kind.Repeats() {
			break
		}
		reference = latest
	}

	return preview, nil
}

func writePreview(w io.Writer, p *Preview) error {
	fmt.Fprintf(w, "%s (%s)\n%s\n", p.Name, p.Type, p.Schedule)
	if len(p.Cycles) == 0 {
		_, err := fmt.Fprintln(w, "\nno upcoming occurrences")
		return err
	}
	for i, cycle := range p.Cycles {
		fmt.Fprintf(w, "\ncycle %d from %s\n", i+1, cycle.Reference.Format("2006-01-02 15:04 MST"))
		for _, o := range cycle.Occurrences {
			label := "reminder"
			if o.IsWarning {
				label = "warning"
			}
			if _, err := fmt.Fprintf(w, "  %s  %s\n", o.At.Format("Mon 2006-01-02 15:04"), label); err != nil {
				return err
			}
		}
	}
	return nil
}
