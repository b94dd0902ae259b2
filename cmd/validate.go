package cmd

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"firestige.xyz/webhookd/internal/config"
	"firestige.xyz/webhookd/internal/log"

	_ "firestige.xyz/webhookd/plugins"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Type-check a directory of event definitions without starting any pipeline",
	Run: func(cmd *cobra.Command, args []string) {
		runValidate()
	},
}

func runValidate() {
	settings := resolveSettings()
	log.Init(&log.LoggerConfig{Level: "off"})

	ok := true
	err := filepath.WalkDir(settings.EventsDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			fmt.Printf("INVALID  %s: %v\n", path, err)
			ok = false
			return nil
		}
		if d.IsDir() {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			fmt.Printf("INVALID  %s: %v\n", path, err)
			ok = false
			return nil
		}

		if _, err := config.ParseDefinition(data); err != nil {
			fmt.Printf("INVALID  %s: %v\n", path, err)
			ok = false
			return nil
		}

		fmt.Printf("VALID    %s\n", path)
		return nil
	})
	if err != nil {
		exitWithError("walking events directory", err)
	}

	if !ok {
		os.Exit(1)
	}
}
