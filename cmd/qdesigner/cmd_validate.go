package main

// cmd_validate.go — validate: schema check of a questionnaire file.

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"qdesigner/internal/model"
)

var (
	validateProject string
	validatePrint   string
)

// errInvalid is returned after violations have been printed.
var errInvalid = errors.New("questionnaire is invalid")

var validateCmd = &cobra.Command{
	Use:   "validate [file|-]",
	Short: "Check a questionnaire against the schema",
	Long: `Read a questionnaire (JSON, YAML, or a model reply containing JSON) and
report every schema violation: missing fields, unknown question types,
duplicate ids, empty option sets, bad scale ranges and routing targets
that name no section.

--print json|yaml writes the canonical form of a valid questionnaire.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().StringVarP(&validateProject, "project", "p", "", "Validate the project's current questionnaire")
	validateCmd.Flags().StringVar(&validatePrint, "print", "", "Print the canonical form: json or yaml")
}

func runValidate(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	q, err := loadInput(validateProject, args)
	if err != nil {
		var ve *model.ValidationError
		if errors.As(err, &ve) {
			printViolations(out, err)
			return errInvalid
		}
		return err
	}

	switch validatePrint {
	case "":
		fmt.Fprintf(out, "OK: %d sections, %d questions\n", len(q.Sections), q.QuestionCount())
	case "json":
		data, err := model.Marshal(q)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, string(data))
	case "yaml":
		data, err := model.MarshalYAML(q)
		if err != nil {
			return err
		}
		fmt.Fprint(out, string(data))
	default:
		return fmt.Errorf("--print: unknown format %q (want json or yaml)", validatePrint)
	}
	return nil
}
