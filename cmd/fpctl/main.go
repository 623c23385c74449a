package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
	"github.com/jessevdk/go-flags"

	"github.com/high-horse/fingerprint-server/config"
	"github.com/high-horse/fingerprint-server/internal/log"
	"github.com/high-horse/fingerprint-server/matching"
	"github.com/high-horse/fingerprint-server/registry"
	"github.com/high-horse/fingerprint-server/skeleton"
	"github.com/high-horse/fingerprint-server/storage"
)

type options struct {
	ConfigFile string `long:"config-file" description:"Configuration file path (TOML)"`
	Debug      bool   `short:"d" long:"debug" description:"Debug mode"`
}

const (
	optEnroll = "Enroll new user"
	optLoad   = "Load template"
	optVerify = "Verify fingerprint"
	optDelete = "Delete template"
	optExit   = "Exit"
)

var logger = log.New("fpctl")

func main() {
	var opts options
	parser := flags.NewParser(&opts, flags.Default)
	parser.Name = "fpctl"
	if _, err := parser.Parse(); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	if opts.ConfigFile != "" {
		if err := config.LoadConfig(opts.ConfigFile); err != nil {
			logger.Fatal().Err(err).Msg("failed to load configuration")
		}
	} else {
		config.LoadDefaultConfig()
	}
	cfg := config.Config
	logFile, err := setupLogging(cfg.Log, opts.Debug)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to set up logging")
	}
	defer logFile.Close()
	logger = log.New("fpctl")

	store, err := storage.New(cfg.Storage)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open storage")
	}
	defer store.Close()

	a := &app{
		reg: registry.New(
			store,
			matching.NewMatcher(cfg.MatchingOptions()),
			registry.Options{Skeleton: cfg.SkeletonOptions(), Workers: cfg.NumWorkers()},
			log.New("registry"),
		),
		skel: cfg.SkeletonOptions(),
		out:  os.Stdout,
	}
	if err := a.loop(context.Background()); err != nil && !errors.Is(err, terminal.InterruptErr) {
		logger.Fatal().Err(err).Msg("fpctl")
	}
}

// setupLogging applies the configured level, or debug when requested, and
// attaches the rotated log file if one is configured.
func setupLogging(cfg config.Log, debug bool) (io.Closer, error) {
	level := cfg.Level
	if debug {
		level = "debug"
	}
	if err := log.SetLevel(level); err != nil {
		return nil, err
	}
	return log.SetFile(cfg.File, cfg.MaxAge, cfg.RotationTime)
}

type app struct {
	reg  *registry.Registry
	skel skeleton.Options
	out  io.Writer
}

func (a *app) loop(ctx context.Context) error {
	for {
		var choice string
		err := survey.AskOne(&survey.Select{
			Message: "Options:",
			Options: []string{optEnroll, optLoad, optVerify, optDelete, optExit},
		}, &choice)
		if err != nil {
			return err
		}

		switch choice {
		case optEnroll:
			var answers struct {
				Code string `survey:"code"`
				Name string `survey:"name"`
				Path string `survey:"path"`
			}
			err = survey.Ask([]*survey.Question{
				{Name: "code", Prompt: &survey.Input{Message: "Enter unique code for new user:"}, Validate: survey.Required},
				{Name: "name", Prompt: &survey.Input{Message: "Enter name of the user:"}},
				{Name: "path", Prompt: &survey.Input{Message: "Enter path to fingerprint image:"}, Validate: survey.Required},
			}, &answers)
			if err == nil {
				err = a.enroll(ctx, answers.Code, answers.Name, answers.Path)
			}
		case optLoad:
			var code string
			if err = survey.AskOne(&survey.Input{Message: "Enter user code to load template:"}, &code, survey.WithValidator(survey.Required)); err == nil {
				err = a.load(ctx, code)
			}
		case optVerify:
			var path string
			if err = survey.AskOne(&survey.Input{Message: "Enter path to fingerprint image to verify:"}, &path, survey.WithValidator(survey.Required)); err == nil {
				err = a.verify(ctx, path)
			}
		case optDelete:
			var code string
			if err = survey.AskOne(&survey.Input{Message: "Enter user code to delete template:"}, &code, survey.WithValidator(survey.Required)); err == nil {
				err = a.delete(ctx, code)
			}
		case optExit:
			return nil
		}

		if errors.Is(err, terminal.InterruptErr) {
			return err
		}
		if err != nil {
			fmt.Fprintln(a.out, "Error:", err)
		}
	}
}

func (a *app) enroll(ctx context.Context, code, name, path string) error {
	if !fileExists(path) {
		fmt.Fprintln(a.out, "The image path does not exist")
		return nil
	}
	s, err := skeleton.Load(path, a.skel)
	if err != nil {
		return err
	}
	e, err := a.reg.EnrollSkeleton(ctx, code, name, s)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Template stored/updated for user with code: %s (%d minutiae)\n", e.Code, e.Minutiae)
	return nil
}

func (a *app) load(ctx context.Context, code string) error {
	rec, t, err := a.reg.Load(ctx, code)
	if errors.Is(err, storage.ErrNotFound) {
		fmt.Fprintf(a.out, "No template found for user with code %s.\n", code)
		return nil
	}
	if err != nil {
		return err
	}
	endings, bifurcations := t.Count()
	fmt.Fprintf(a.out, "Template loaded for user with code: %s (%s)\n", rec.Code, rec.Name)
	fmt.Fprintf(a.out, "%d minutiae: %d endings, %d bifurcations\n", len(t), endings, bifurcations)
	for _, m := range t {
		fmt.Fprintln(a.out, " ", m)
	}
	return nil
}

func (a *app) verify(ctx context.Context, path string) error {
	if !fileExists(path) {
		fmt.Fprintln(a.out, "The image path does not exist")
		return nil
	}
	s, err := skeleton.Load(path, a.skel)
	if err != nil {
		return err
	}
	v, err := a.reg.VerifySkeleton(ctx, s)
	if err != nil {
		return err
	}
	for _, code := range v.Skipped {
		fmt.Fprintf(a.out, "Skipped unreadable template for code %s\n", code)
	}
	switch {
	case v.Candidates == 0:
		fmt.Fprintln(a.out, "No templates found in the database.")
	case v.Found && v.Name != "":
		fmt.Fprintf(a.out, "The person matching is : %s\n", v.Name)
	case v.Found:
		fmt.Fprintf(a.out, "Fingerprint matches with code: %s\n", v.Code)
	default:
		fmt.Fprintln(a.out, "No match found.")
	}
	return nil
}

func (a *app) delete(ctx context.Context, code string) error {
	err := a.reg.Delete(ctx, code)
	if errors.Is(err, storage.ErrNotFound) {
		fmt.Fprintf(a.out, "No template found for user with code %s.\n", code)
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Template for user with code %s deleted successfully.\n", code)
	return nil
}

func fileExists(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && !fi.IsDir()
}
