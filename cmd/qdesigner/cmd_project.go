package main

// cmd_project.go — init and projects: creating, cloning, listing and
// removing project containers.

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"qdesigner/internal/container"
	"qdesigner/internal/frontmatter"
	"qdesigner/internal/generate"
	"qdesigner/internal/settings"
)

var (
	initFrom      string
	initConfigure bool
	initPlatform  string
)

var initCmd = &cobra.Command{
	Use:   "init <name>",
	Short: "Create a new project",
	Long: `Create a new project at ~/.qdesigner/<name>/ with a starter brief in
briefs/brief.md. Edit the brief's frontmatter to set research type,
audience, maximum LOI and platform; write the project context in its body.

--from copies config, briefs and the current questionnaire of an existing
project. --configure prompts for the provider's API key and model; the key
is written to the workspace .env, never to the project.`,
	Args: cobra.ExactArgs(1),
	RunE: runInit,
}

var projectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "List projects",
	Args:  cobra.NoArgs,
	RunE:  runProjects,
}

var projectsRemoveCmd = &cobra.Command{
	Use:   "rm <name>",
	Short: "Remove a project and all its files",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := container.Remove(args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "removed project %q\n", args[0])
		return nil
	},
}

func init() {
	initCmd.Flags().StringVar(&initFrom, "from", "", "Copy an existing project")
	initCmd.Flags().BoolVar(&initConfigure, "configure", false, "Prompt for provider API key and model")
	initCmd.Flags().StringVar(&initPlatform, "platform", "", "Survey platform written to the starter brief")
	projectsCmd.AddCommand(projectsRemoveCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	name := args[0]
	out := cmd.OutOrStdout()

	if initFrom != "" {
		src, err := container.Open(initFrom)
		if err != nil {
			return err
		}
		p, err := src.Clone(name)
		if err != nil {
			return err
		}
		logger.Info("project cloned", zap.String("from", initFrom), zap.String("project", name))
		fmt.Fprintf(out, "created project %q from %q at %s\n", name, initFrom, p.Dir)
		return nil
	}

	pc := container.Config{
		Provider: cfg.Provider,
		Model:    cfg.Model,
		Brief:    generate.Brief{Platform: initPlatform}.WithDefaults(),
	}
	if initConfigure {
		model, err := configureProvider()
		if err != nil {
			return err
		}
		if model != "" {
			pc.Model = model
		}
	}

	p, err := container.Init(name, pc)
	if err != nil {
		return err
	}
	brief, err := frontmatter.StarterBrief(pc.Brief)
	if err != nil {
		return err
	}
	briefPath := p.Path(container.BriefsDir, frontmatter.BriefFile)
	if err := os.WriteFile(briefPath, brief, 0o644); err != nil {
		return fmt.Errorf("write brief: %w", err)
	}
	logger.Info("project created", zap.String("project", name), zap.String("dir", p.Dir))
	fmt.Fprintf(out, "created project %q at %s\n", name, p.Dir)
	fmt.Fprintf(out, "edit %s, then run 'qdesigner generate %s'\n", briefPath, name)
	return nil
}

// configureProvider asks the configured provider's questions. The API key
// answer is merged into the workspace .env; the model answer is returned.
func configureProvider() (string, error) {
	p, err := generate.NewProvider(rootContext(), cfg, "", logger)
	if err != nil {
		return "", err
	}
	questions, err := p.Configure()
	if err != nil {
		return "", fmt.Errorf("configure %s: %w", p.Name(), err)
	}
	answers, err := promptQuestions(questions)
	if err != nil {
		return "", fmt.Errorf("prompt: %w", err)
	}

	keys := map[string]string{}
	for k, v := range answers {
		if k != "model" && strings.TrimSpace(v) != "" {
			keys[k] = strings.TrimSpace(v)
		}
	}
	if len(keys) > 0 {
		root, err := workspaceDir()
		if err != nil {
			return "", err
		}
		if err := mergeEnv(filepath.Join(root, ".env"), keys); err != nil {
			return "", err
		}
	}
	return strings.TrimSpace(answers["model"]), nil
}

// mergeEnv adds or replaces keys in the .env file at path.
func mergeEnv(path string, keys map[string]string) error {
	env := map[string]string{}
	if _, err := os.Stat(path); err == nil {
		env, err = godotenv.Read(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
	}
	for k, v := range keys {
		env[k] = v
	}
	if err := godotenv.Write(env, path); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return os.Chmod(path, 0o600)
}

func runProjects(cmd *cobra.Command, args []string) error {
	names, err := container.List()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(names) == 0 {
		fmt.Fprintln(out, "no projects (run 'qdesigner init <name>')")
		return nil
	}
	for _, name := range names {
		status := "no questionnaire yet"
		p, err := container.Open(name)
		if err == nil {
			if q, err := p.LoadCurrent(); err == nil {
				status = fmt.Sprintf("%d sections, %d questions", len(q.Sections), q.QuestionCount())
			}
		}
		fmt.Fprintf(out, "%-24s %s\n", name, status)
	}
	return nil
}

// providerSettings returns cfg with the project's provider and model
// applied on top.
func providerSettings(pc *container.Config) *settings.Settings {
	st := *cfg
	if pc.Provider != "" {
		st.Provider = pc.Provider
	}
	if pc.Model != "" {
		st.Model = pc.Model
	}
	return &st
}
