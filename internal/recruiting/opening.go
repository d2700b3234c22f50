// Package recruiting holds the records shared by the pipeline, the store and the CLI.
package recruiting

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// Opening is a job requisition.
type Opening struct {
	ID             string   `json:"id" yaml:"id"`
	Title          string   `json:"title" yaml:"title"`
	Folder         string   `json:"folder" yaml:"folder"`
	Intro          string   `json:"intro" yaml:"intro"`
	MainActivities string   `json:"main_activities" yaml:"main_activities"`
	PreRequisites  string   `json:"pre_requisites" yaml:"pre_requisites"`
	AddInfos       string   `json:"add_infos" yaml:"add_infos"`
	Local          string   `json:"local" yaml:"local"`
	Level          string   `json:"level" yaml:"level"`
	Availability   string   `json:"availability" yaml:"availability"`
	SoftSkills     []string `json:"soft_skills" yaml:"soft_skills"`
	HardSkills     []string `json:"hard_skills" yaml:"hard_skills"`
}

// Validate checks the fields every opening must carry.
func (o *Opening) Validate() error {
	var errs []error
	if strings.TrimSpace(o.ID) == "" {
		errs = append(errs, errors.New("id is required"))
	}
	if strings.TrimSpace(o.Title) == "" {
		errs = append(errs, errors.New("title is required"))
	}
	if strings.TrimSpace(o.Folder) == "" {
		errs = append(errs, errors.New("folder is required"))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid opening %q: %w", o.Title, err)
	}
	return nil
}

// Normalize trims every field and replaces nil lists with empty ones.
func (o *Opening) Normalize() {
	for _, field := range []*string{
		&o.ID, &o.Title, &o.Folder, &o.Intro, &o.MainActivities,
		&o.PreRequisites, &o.AddInfos, &o.Local, &o.Level, &o.Availability,
	} {
		*field = strings.TrimSpace(*field)
	}
	o.SoftSkills = cleanList(o.SoftSkills)
	o.HardSkills = cleanList(o.HardSkills)
}

// Descriptor renders the descriptive fields as prompt text.
func (o *Opening) Descriptor() string {
	var b strings.Builder
	line := func(label, value string) {
		value = strings.TrimSpace(value)
		if value == "" {
			return
		}
		fmt.Fprintf(&b, "%s: %s\n", label, value)
	}

	line("Title", o.Title)
	level := o.Level
	if strings.TrimSpace(level) == "" {
		level = "not specified"
	}
	line("Required level", level)
	line("Summary", o.Intro)
	line("Main activities", o.MainActivities)
	line("Requirements", o.PreRequisites)
	line("Hard skills", strings.Join(o.HardSkills, ", "))
	line("Soft skills", strings.Join(o.SoftSkills, ", "))
	line("Location", o.Local)
	line("Availability", o.Availability)
	line("Additional information", o.AddInfos)

	return strings.TrimSpace(b.String())
}

// DecodeOpening builds an Opening from a loosely typed map, as produced by a
// model completion or a YAML document. Numeric ids and single-string skill
// lists are accepted.
func DecodeOpening(raw map[string]any) (Opening, error) {
	var opening Opening
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		DecodeHook:       splitListHook,
		Result:           &opening,
	})
	if err != nil {
		return Opening{}, fmt.Errorf("build opening decoder: %w", err)
	}

	if err := decoder.Decode(aliasLegacyKeys(raw)); err != nil {
		return Opening{}, fmt.Errorf("decode opening: %w", err)
	}

	opening.Normalize()
	return opening, nil
}

// Older documents use Portuguese keys for a few fields.
var legacyKeys = map[string]string{
	"nivel":           "level",
	"disponibilidade": "availability",
}

func aliasLegacyKeys(raw map[string]any) map[string]any {
	out := make(map[string]any, len(raw))
	for k, v := range raw {
		out[k] = v
	}
	for legacy, key := range legacyKeys {
		if v, ok := out[legacy]; ok {
			if _, exists := out[key]; !exists {
				out[key] = v
			}
			delete(out, legacy)
		}
	}
	return out
}

func cleanList(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
