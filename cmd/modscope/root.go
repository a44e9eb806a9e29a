package main

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/modscope/modscope/internal/config"
	"github.com/modscope/modscope/internal/modmeta"
	"github.com/modscope/modscope/internal/modrepo"
	"github.com/modscope/modscope/internal/version"
)

type rootFlags struct {
	author      bool
	description bool
	license     bool
	parameters  bool
	filename    bool
	field       string
	null        bool
	kernel      string
	basedir     string
}

// fieldFor resolves the selected output field. --field wins over the
// fixed-field flags, which apply in documented order. Empty means the
// full report.
func (f *rootFlags) fieldFor() string {
	switch {
	case f.field != "":
		return f.field
	case f.author:
		return "author"
	case f.description:
		return "description"
	case f.license:
		return "license"
	case f.parameters:
		return "parm"
	case f.filename:
		return modmeta.FieldFilename
	}
	return ""
}

func (f *rootFlags) separator() byte {
	if f.null {
		return modmeta.SeparatorNull
	}
	return modmeta.SeparatorNewline
}

// NewRootCommand builds the modscope command. cfg supplies defaults
// that the flags override.
func NewRootCommand(cfg config.Config) *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:          "modscope [options] filename [args]",
		Short:        "modscope reports the metadata embedded in kernel modules.",
		Version:      version.String(),
		Args:         cobra.MinimumNArgs(1),
		SilenceUsage: true,
		RunE: func(_ *cobra.Command, args []string) error {
			return run(cfg, flags, args, os.Stdout, os.Stderr)
		},
	}

	cmd.Flags().BoolVarP(&flags.author, "author", "a", false, "print only 'author'")
	cmd.Flags().BoolVarP(&flags.description, "description", "d", false, "print only 'description'")
	cmd.Flags().BoolVarP(&flags.license, "license", "l", false, "print only 'license'")
	cmd.Flags().BoolVarP(&flags.parameters, "parameters", "p", false, "print only 'parm'")
	cmd.Flags().BoolVarP(&flags.filename, "filename", "n", false, "print only 'filename'")
	cmd.Flags().StringVarP(&flags.field, "field", "F", "", "print only the provided FIELD")
	cmd.Flags().BoolVarP(&flags.null, "null", "0", false, "use \\0 instead of \\n as record separator")
	cmd.Flags().StringVarP(&flags.kernel, "set-version", "k", "", "use VERSION instead of `uname -r`")
	cmd.Flags().StringVarP(&flags.basedir, "basedir", "b", "", "use DIR as filesystem root for /lib/modules")
	cmd.Flags().BoolP("version", "V", false, "show version")

	return cmd
}

// run inspects each argument in order. A failing argument is reported
// and skipped; the run fails if any argument failed.
func run(cfg config.Config, flags *rootFlags, args []string, out, errw io.Writer) error {
	basedir := cfg.Basedir
	if flags.basedir != "" {
		basedir = flags.basedir
	}
	release := cfg.KernelVersion
	if flags.kernel != "" {
		release = flags.kernel
	}
	if release == "" {
		r, err := modrepo.KernelRelease()
		if err != nil {
			return fmt.Errorf("determining kernel release: %w", err)
		}
		release = r
	}

	repo := modrepo.New(basedir, release)
	log.Printf("modscope: using module repository %s", repo.Dir())

	engine := modmeta.NewEngine(modmeta.Options{
		Field:     flags.fieldFor(),
		Separator: flags.separator(),
	}, out, errw)

	failed := false
	for _, arg := range args {
		mods, err := repo.Lookup(arg)
		if err != nil {
			fmt.Fprintf(errw, "ERROR: %v\n", err)
			failed = true
			continue
		}
		for _, mod := range mods {
			if err := engine.Process(mod); err != nil {
				failed = true
			}
		}
	}
	if failed {
		return errors.New("could not inspect one or more modules")
	}
	return nil
}
