package cli

import (
	"fmt"
	"io"

	"github.com/fjod/athometyre/internal/i18n"
	"github.com/spf13/cobra"
)

type missingKeys struct {
	Language string   `json:"language"`
	Missing  []string `json:"missing"`
}

func NewI18nCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "i18n",
		Short: "Translation table tools",
	}

	check := &cobra.Command{
		Use:   "check [lang...]",
		Short: "Report keys present in English but missing from other languages",
		Long: `Compare every translation table (or only the named languages) with the
English table and list the keys it lacks. Exits 1 when any are missing.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			bundle, err := i18n.Default()
			if err != nil {
				return &ExitError{Code: ExitCommandError, Message: "failed to load translations", Err: err}
			}
			return runI18nCheck(rootOpts, bundle, args, cmd)
		},
	}
	cmd.AddCommand(check)

	return cmd
}

func runI18nCheck(rootOpts *RootOptions, bundle *i18n.Bundle, langs []string, cmd *cobra.Command) error {
	if len(langs) == 0 {
		for _, l := range bundle.Languages() {
			if l != i18n.DefaultLanguage {
				langs = append(langs, l)
			}
		}
	}

	report := make([]missingKeys, 0, len(langs))
	total := 0
	for _, lang := range langs {
		missing, err := bundle.Missing(lang)
		if err != nil {
			return &ExitError{Code: ExitCommandError, Message: "cannot check language", Err: err}
		}
		if missing == nil {
			missing = []string{}
		}
		total += len(missing)
		report = append(report, missingKeys{Language: lang, Missing: missing})
	}

	status := "ok"
	if total > 0 {
		status = "incomplete"
	}
	if err := rootOpts.emit(cmd, status, report, func(w io.Writer) {
		for _, r := range report {
			if len(r.Missing) == 0 {
				fmt.Fprintf(w, "%s\tcomplete\n", r.Language)
				continue
			}
			fmt.Fprintf(w, "%s\t%d missing\n", r.Language, len(r.Missing))
			for _, k := range r.Missing {
				fmt.Fprintf(w, "\t%s\n", k)
			}
		}
	}); err != nil {
		return err
	}
	if total > 0 {
		return &ExitError{Code: ExitFailure, Message: fmt.Sprintf("%d translation key(s) missing", total)}
	}
	return nil
}
