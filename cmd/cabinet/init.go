package main

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var initCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Generate a config file interactively",
	Long: `Generate a cabinet config file by answering a few prompts.

You will be asked for the server port, database backend, and object
store connection settings. The result is written as YAML to the given
path (default: ./config.yaml).`,
	Args: cobra.MaximumNArgs(1),
	// The root PersistentPreRunE loads config, which does not exist yet
	// when init runs. Override it with logging setup only.
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		setupLogging("")
		return nil
	},
	RunE: runInit,
}

var initForce bool

func init() {
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "overwrite an existing config file")
	rootCmd.AddCommand(initCmd)
}

// configFileLayout mirrors the config package's mapstructure keys for
// YAML output.
type configFileLayout struct {
	Server struct {
		Port          int   `yaml:"port"`
		MaxUploadSize int64 `yaml:"max_upload_size,omitempty"`
	} `yaml:"server"`
	Database struct {
		Type   string `yaml:"type"`
		DSN    string `yaml:"dsn"`
		Tables struct {
			Folders string `yaml:"folders"`
			Files   string `yaml:"files"`
		} `yaml:"tables"`
	} `yaml:"database"`
	Storage struct {
		Endpoint        string `yaml:"endpoint,omitempty"`
		Region          string `yaml:"region"`
		Bucket          string `yaml:"bucket"`
		AccessKeyID     string `yaml:"access_key_id,omitempty"`
		SecretAccessKey string `yaml:"secret_access_key,omitempty"`
	} `yaml:"storage"`
	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
}

func runInit(_ *cobra.Command, args []string) error {
	path := "config.yaml"
	if len(args) == 1 {
		path = args[0]
	}

	if _, err := os.Stat(path); err == nil && !initForce {
		prompt := promptui.Prompt{
			Label:     fmt.Sprintf("%s already exists. Overwrite it", path),
			IsConfirm: true,
		}
		if _, promptErr := prompt.Run(); promptErr != nil {
			fmt.Println("Cancelled.")
			return nil //nolint:nilerr // User cancelled, not an error
		}
	}

	var cfg configFileLayout

	portPrompt := promptui.Prompt{
		Label:   "Server port",
		Default: "8080",
		Validate: func(input string) error {
			p, err := strconv.Atoi(input)
			if err != nil || p < 1 || p > 65535 {
				return errors.New("port must be a number between 1 and 65535")
			}
			return nil
		},
	}
	portStr, err := portPrompt.Run()
	if err != nil {
		return handlePromptError(err)
	}
	cfg.Server.Port, _ = strconv.Atoi(portStr)

	dbSelect := promptui.Select{
		Label: "Database backend",
		Items: []string{"sqlite", "postgres"},
	}
	_, dbType, err := dbSelect.Run()
	if err != nil {
		return handlePromptError(err)
	}
	cfg.Database.Type = dbType

	dsnDefault := "cabinet.db"
	if dbType == "postgres" {
		dsnDefault = "postgres://localhost:5432/cabinet"
	}
	dsnPrompt := promptui.Prompt{
		Label:   "Database DSN",
		Default: dsnDefault,
		Validate: func(input string) error {
			if input == "" {
				return errors.New("DSN is required")
			}
			return nil
		},
	}
	if cfg.Database.DSN, err = dsnPrompt.Run(); err != nil {
		return handlePromptError(err)
	}
	cfg.Database.Tables.Folders = "cabinet_folders"
	cfg.Database.Tables.Files = "cabinet_files"

	endpointPrompt := promptui.Prompt{
		Label:   "S3 endpoint (empty for Amazon S3)",
		Default: "http://localhost:9000",
		Validate: func(input string) error {
			if input == "" {
				return nil
			}
			parsed, parseErr := url.Parse(input)
			if parseErr != nil {
				return fmt.Errorf("invalid URL: %w", parseErr)
			}
			if parsed.Scheme != "http" && parsed.Scheme != "https" {
				return errors.New("URL must start with http:// or https://")
			}
			return nil
		},
	}
	if cfg.Storage.Endpoint, err = endpointPrompt.Run(); err != nil {
		return handlePromptError(err)
	}

	regionPrompt := promptui.Prompt{
		Label:   "Region",
		Default: "us-east-1",
	}
	if cfg.Storage.Region, err = regionPrompt.Run(); err != nil {
		return handlePromptError(err)
	}

	bucketPrompt := promptui.Prompt{
		Label:   "Bucket",
		Default: "cabinet",
		Validate: func(input string) error {
			if input == "" {
				return errors.New("bucket is required")
			}
			return nil
		},
	}
	if cfg.Storage.Bucket, err = bucketPrompt.Run(); err != nil {
		return handlePromptError(err)
	}

	accessKeyPrompt := promptui.Prompt{
		Label: "Access key (empty for default credential chain)",
	}
	if cfg.Storage.AccessKeyID, err = accessKeyPrompt.Run(); err != nil {
		return handlePromptError(err)
	}

	if cfg.Storage.AccessKeyID != "" {
		secretKeyPrompt := promptui.Prompt{
			Label: "Secret key",
			Mask:  '*',
		}
		if cfg.Storage.SecretAccessKey, err = secretKeyPrompt.Run(); err != nil {
			return handlePromptError(err)
		}
	}

	logSelect := promptui.Select{
		Label: "Log level",
		Items: []string{"debug", "info", "warn", "error"},
	}
	if _, cfg.Log.Level, err = logSelect.Run(); err != nil {
		return handlePromptError(err)
	}

	out, err := yaml.Marshal(&cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, out, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	fmt.Printf("Wrote %s\n", path)
	return nil
}

// handlePromptError turns a Ctrl-C during a prompt into a clean exit.
func handlePromptError(err error) error {
	if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrAbort) {
		fmt.Println("Cancelled.")
		return nil
	}
	return err
}
