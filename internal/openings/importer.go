// Package openings builds opening records from job-description files laid out
// as one sub-folder per sector.
package openings

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/cv-screener/internal/ai"
	"github.com/spigell/cv-screener/internal/ai/jsonx"
	"github.com/spigell/cv-screener/internal/extract"
	"github.com/spigell/cv-screener/internal/logger"
	"github.com/spigell/cv-screener/internal/pipeline"
	"github.com/spigell/cv-screener/internal/recruiting"
	"github.com/spigell/cv-screener/internal/source"
)

const DefaultMaxAttempts = 5

//go:embed prompts/opening.md
var promptTemplate string

var ErrNotMainFile = errors.New("not an opening description file")

type Extractor interface {
	Extract(ctx context.Context, data []byte, kind extract.Kind) extract.Outcome
}

type Store interface {
	UpsertOpening(o recruiting.Opening) error
}

// Folders creates the talent bank folder an opening points at.
type Folders interface {
	EnsureFolder(ctx context.Context, name string) (source.Entry, bool, error)
}

type Config struct {
	// Root is the source folder holding one sub-folder per sector.
	Root string
	// MaxAttempts caps generations per file until a title comes back.
	MaxAttempts         int
	DefaultLocal        string
	DefaultAvailability string
}

type Deps struct {
	Source    source.Source
	Extractor Extractor
	Generator ai.Generator
	Store     Store
	// Folders is optional. When set, every imported opening gets its folder.
	Folders Folders
	Logger  *zap.Logger
}

type Importer struct {
	cfg  Config
	deps Deps
}

func NewImporter(cfg Config, deps Deps) (*Importer, error) {
	if deps.Source == nil || deps.Extractor == nil || deps.Generator == nil || deps.Store == nil {
		return nil, errors.New("importer requires a source, an extractor, a generator and a store")
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.DefaultLocal == "" {
		cfg.DefaultLocal = pipeline.DefaultLocal
	}
	if cfg.DefaultAvailability == "" {
		cfg.DefaultAvailability = pipeline.DefaultAvailability
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &Importer{cfg: cfg, deps: deps}, nil
}

// Summary lists the saved openings and counts files that failed.
type Summary struct {
	Saved  []recruiting.Opening
	Failed int
}

// Run imports every main file of every sector folder under the root. A file
// that fails is logged and counted; only listing the root is fatal.
func (i *Importer) Run(ctx context.Context) (Summary, error) {
	var summary Summary

	sectors, err := i.deps.Source.ListFolder(ctx, i.cfg.Root)
	if err != nil {
		return summary, fmt.Errorf("list openings root: %w", err)
	}

	for _, sector := range sectors {
		if !sector.IsFolder() {
			continue
		}
		log := i.deps.Logger.With(zap.String("sector", sector.Name))

		files, err := i.deps.Source.ListFolder(ctx, sector.ID)
		if err != nil {
			log.Warn("cannot list sector folder", zap.Error(err))
			summary.Failed++
			continue
		}
		log.Info("processing sector", zap.Int("files", len(files)))

		siblings := make(map[string]source.Entry, len(files))
		for _, f := range files {
			siblings[f.Name] = f
		}

		for _, file := range files {
			if err := ctx.Err(); err != nil {
				return summary, err
			}

			opening, err := i.ImportFile(ctx, sector.Name, file, siblings)
			switch {
			case errors.Is(err, ErrNotMainFile):
				log.Debug("skipping file", zap.String("file", file.Name))
			case err != nil:
				log.Error("opening import failed", zap.String("file", file.Name), zap.Error(err))
				summary.Failed++
			default:
				logger.WithFields(log, logger.OpeningFields(opening.ID, opening.Title)...).Info("opening saved")
				summary.Saved = append(summary.Saved, opening)
			}
		}
	}

	return summary, nil
}

// ImportFile turns one description file into a stored opening. siblings maps
// file names of the same folder to their entries and is used to find the
// additional information companion.
func (i *Importer) ImportFile(ctx context.Context, sector string, file source.Entry, siblings map[string]source.Entry) (recruiting.Opening, error) {
	if file.IsFolder() || !IsMainFile(file.Name) {
		return recruiting.Opening{}, ErrNotMainFile
	}

	text, err := i.read(ctx, file)
	if err != nil {
		return recruiting.Opening{}, err
	}
	if text == "" {
		return recruiting.Opening{}, fmt.Errorf("no text extracted from %s", file.Name)
	}

	addInfos := ""
	if companion, ok := siblings[AddInfosName(file.Name)]; ok && companion.ID != file.ID {
		if addInfos, err = i.read(ctx, companion); err != nil {
			i.deps.Logger.Warn("cannot read additional information", zap.String("file", companion.Name), zap.Error(err))
		}
	}

	obj := i.generate(ctx, i.prompt(sector, file.Name, text, addInfos))

	obj["folder"] = sector
	if addInfos == "" {
		setDefault(obj, "local", i.cfg.DefaultLocal)
		if _, legacy := obj["disponibilidade"]; !legacy {
			setDefault(obj, "availability", i.cfg.DefaultAvailability)
		}
	}
	if blank(obj["id"]) || blank(obj["title"]) {
		if id, title, ok := ParseFileName(file.Name); ok {
			obj["id"] = id
			obj["title"] = title
		}
	}

	opening, err := recruiting.DecodeOpening(obj)
	if err != nil {
		return recruiting.Opening{}, err
	}
	if err := Save(ctx, i.deps.Folders, i.deps.Store, &opening, i.deps.Logger); err != nil {
		return recruiting.Opening{}, err
	}
	return opening, nil
}

// Save validates o, makes sure its talent bank folder exists and stores it.
// The stored folder takes the spelling of an existing folder. folders may be nil.
func Save(ctx context.Context, folders Folders, s Store, o *recruiting.Opening, log *zap.Logger) error {
	o.Normalize()
	if err := o.Validate(); err != nil {
		return err
	}

	if folders != nil {
		folder, created, err := folders.EnsureFolder(ctx, o.Folder)
		if err != nil {
			return fmt.Errorf("talent bank folder of opening %q: %w", o.Title, err)
		}
		if created && log != nil {
			log.Info("talent bank folder created", append(logger.OpeningFields(o.ID, o.Title), zap.String("folder", folder.Name))...)
		}
		o.Folder = folder.Name
	}

	return s.UpsertOpening(*o)
}

func (i *Importer) read(ctx context.Context, file source.Entry) (string, error) {
	kind, ok := extract.KindFromName(file.Name)
	if !ok {
		return "", fmt.Errorf("%s: unsupported document type", file.Name)
	}
	data, err := i.deps.Source.Download(ctx, file.ID)
	if err != nil {
		return "", err
	}

	// Descriptions may be shorter than a resume, so short text is accepted.
	outcome := i.deps.Extractor.Extract(ctx, data, kind)
	if outcome.Status == extract.StatusFailed {
		return "", fmt.Errorf("%s: %s", file.Name, outcome.Reason())
	}
	return outcome.Text, nil
}

// generate asks for the opening until the completion carries a title.
func (i *Importer) generate(ctx context.Context, prompt string) map[string]any {
	obj := map[string]any{}
	for attempt := 1; attempt <= i.cfg.MaxAttempts; attempt++ {
		if ctx.Err() != nil {
			break
		}
		obj = jsonx.ExtractObject(i.deps.Generator.Generate(ctx, prompt))
		if !blank(obj["title"]) {
			return obj
		}
		i.deps.Logger.Warn("opening extraction returned no title", zap.Int("attempt", attempt))
	}
	return obj
}

func (i *Importer) prompt(sector, fileName, text, addInfos string) string {
	return strings.NewReplacer(
		"{{FILE}}", fileName,
		"{{CONTENT}}", text,
		"{{ADD_INFOS}}", addInfos,
		"{{FOLDER}}", sector,
		"{{DEFAULT_LOCAL}}", i.cfg.DefaultLocal,
		"{{DEFAULT_AVAILABILITY}}", i.cfg.DefaultAvailability,
	).Replace(promptTemplate)
}

func setDefault(obj map[string]any, key, value string) {
	if value == "" {
		return
	}
	if blank(obj[key]) {
		obj[key] = value
	}
}

// blank treats nil, whitespace and the number zero as missing.
func blank(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(val) == ""
	case float64:
		return val == 0
	default:
		return false
	}
}
