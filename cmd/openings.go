package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/goccy/go-yaml"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/cv-screener/internal/openings"
	"github.com/spigell/cv-screener/internal/recruiting"
)

var openingsCmd = &cobra.Command{
	Use:   "openings",
	Short: "Manage job openings",
}

var openingsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored openings",
	Run: func(_ *cobra.Command, _ []string) {
		a := newApplication()
		defer a.Close()

		if err := writeOpenings(os.Stdout, a.store.Openings()); err != nil {
			a.logger.Fatal("listing openings", zap.Error(err))
		}
	},
}

var openingsAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add or replace an opening from flags, prompting for missing required fields",
	Run: func(cmd *cobra.Command, _ []string) {
		a := newApplication()
		defer a.Close()

		opening, err := openingFromFlags(cmd)
		if err != nil {
			a.logger.Fatal("reading opening flags", zap.Error(err))
		}
		if err := promptMissing(&opening); err != nil {
			a.logger.Fatal("exiting", zap.Error(err))
		}
		bank, err := a.talentBank()
		if err != nil {
			a.logger.Fatal("opening talent bank", zap.Error(err))
		}
		if err := openings.Save(context.Background(), bank, a.store, &opening, a.logger); err != nil {
			a.logger.Fatal("saving opening", zap.Error(err))
		}
		a.logger.Info("opening saved", zap.String("opening_id", opening.ID), zap.String("opening_title", opening.Title))
	},
}

var openingsImportCmd = &cobra.Command{
	Use:   "import <file.yaml>",
	Short: "Import openings from a YAML document",
	Args:  cobra.ExactArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		a := newApplication()
		defer a.Close()

		bank, err := a.talentBank()
		if err != nil {
			a.logger.Fatal("opening talent bank", zap.Error(err))
		}

		data, err := os.ReadFile(args[0])
		if err != nil {
			a.logger.Fatal("reading openings file", zap.Error(err))
		}

		items, err := parseOpeningsYAML(data)
		if err != nil {
			a.logger.Fatal("parsing openings file", zap.Error(err))
		}

		saved := 0
		for _, opening := range items {
			if err := openings.Save(context.Background(), bank, a.store, &opening, a.logger); err != nil {
				a.logger.Error("skipping opening", zap.String("opening_title", opening.Title), zap.Error(err))
				continue
			}
			saved++
		}
		a.logger.Info("openings imported", zap.Int("saved", saved), zap.Int("total", len(items)))
	},
}

var openingsExtractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Build openings from the job-description files under openings-root",
	Run: func(_ *cobra.Command, _ []string) {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		a := newApplication()
		defer a.Close()

		importer, err := a.importer(ctx)
		if err != nil {
			a.logger.Fatal("preparing the opening importer", zap.Error(err))
		}

		summary, err := importer.Run(ctx)
		if err != nil {
			a.logger.Fatal("extracting openings", zap.Error(err))
		}
		a.logger.Info("opening extraction finished", zap.Int("saved", len(summary.Saved)), zap.Int("failed", summary.Failed))
	},
}

func init() {
	rootCmd.AddCommand(openingsCmd)
	openingsCmd.AddCommand(openingsListCmd, openingsAddCmd, openingsImportCmd, openingsExtractCmd)

	f := openingsAddCmd.Flags()
	f.String("id", "", "opening id")
	f.String("title", "", "opening title")
	f.String("folder", "", "talent bank folder holding the resumes")
	f.String("intro", "", "summary of the opening")
	f.String("main-activities", "", "main activities")
	f.String("pre-requisites", "", "requirements")
	f.String("add-infos", "", "additional information")
	f.String("local", "", "location")
	f.String("level", "", "required seniority")
	f.String("availability", "", "on-site, hybrid or remote")
	f.StringSlice("hard-skills", nil, "technical skills")
	f.StringSlice("soft-skills", nil, "behavioural skills")
}

func openingFromFlags(cmd *cobra.Command) (recruiting.Opening, error) {
	f := cmd.Flags()
	var o recruiting.Opening
	var errs []error

	for name, field := range map[string]*string{
		"id": &o.ID, "title": &o.Title, "folder": &o.Folder, "intro": &o.Intro,
		"main-activities": &o.MainActivities, "pre-requisites": &o.PreRequisites,
		"add-infos": &o.AddInfos, "local": &o.Local, "level": &o.Level, "availability": &o.Availability,
	} {
		v, err := f.GetString(name)
		errs = append(errs, err)
		*field = v
	}

	var err error
	o.HardSkills, err = f.GetStringSlice("hard-skills")
	errs = append(errs, err)
	o.SoftSkills, err = f.GetStringSlice("soft-skills")
	errs = append(errs, err)

	o.Normalize()
	return o, errors.Join(errs...)
}

// promptMissing asks interactively for required fields left empty.
func promptMissing(o *recruiting.Opening) error {
	for _, field := range []struct {
		label string
		value *string
	}{
		{"Opening id", &o.ID},
		{"Opening title", &o.Title},
		{"Talent bank folder", &o.Folder},
	} {
		if strings.TrimSpace(*field.value) != "" {
			continue
		}
		p := promptui.Prompt{
			Label: field.label,
			Validate: func(s string) error {
				if strings.TrimSpace(s) == "" {
					return errors.New("value is required")
				}
				return nil
			},
		}
		v, err := p.Run()
		if err != nil {
			return err
		}
		*field.value = strings.TrimSpace(v)
	}
	return nil
}

// parseOpeningsYAML accepts either a list of openings or a map with an
// "openings" key holding a list or a title keyed map.
func parseOpeningsYAML(data []byte) ([]recruiting.Opening, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}

	var raw []any
	switch v := doc.(type) {
	case []any:
		raw = v
	case map[string]any:
		switch inner := v["openings"].(type) {
		case []any:
			raw = inner
		case map[string]any:
			for _, item := range inner {
				raw = append(raw, item)
			}
		default:
			return nil, errors.New(`expected a list of openings or an "openings" key`)
		}
	default:
		return nil, errors.New("expected a list of openings")
	}

	out := make([]recruiting.Opening, 0, len(raw))
	for idx, item := range raw {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("opening #%d is not a mapping", idx+1)
		}
		opening, err := recruiting.DecodeOpening(m)
		if err != nil {
			return nil, fmt.Errorf("opening #%d: %w", idx+1, err)
		}
		out = append(out, opening)
	}
	return out, nil
}

func writeOpenings(w io.Writer, items []recruiting.Opening) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tFOLDER\tLEVEL\tLOCAL")
	for _, o := range items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", o.ID, o.Title, o.Folder, o.Level, o.Local)
	}
	return tw.Flush()
}
