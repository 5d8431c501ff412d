package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/junsooki/moodballoon/internal/classify"
	"github.com/junsooki/moodballoon/internal/emotion"
)

var checkDataset string

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify the model, the face cascade and (optionally) the training dataset layout",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runCheck(cmd.OutOrStdout(), cfg.Model.Path, cfg.Model.CascadePath, checkDataset)
	},
}

func init() {
	checkCmd.Flags().StringVar(&checkDataset, "dataset", "", "training dataset root, e.g. \"FER dataset/train\"")
	rootCmd.AddCommand(checkCmd)
}

func runCheck(w io.Writer, modelPath, cascadePath, dataset string) error {
	var errs []error

	report := func(name, path string, sentinel error) {
		if _, err := os.Stat(path); err != nil {
			fmt.Fprintf(w, "[missing] %s: %s\n", name, path)
			errs = append(errs, fmt.Errorf("%w: %s", sentinel, path))
			return
		}
		fmt.Fprintf(w, "[ok]      %s: %s\n", name, path)
	}
	report("model", modelPath, classify.ErrModelNotFound)
	report("cascade", cascadePath, classify.ErrCascadeNotFound)

	if dataset != "" {
		missing, err := missingLabelDirs(dataset)
		switch {
		case err != nil:
			fmt.Fprintf(w, "[missing] dataset: %s\n", dataset)
			errs = append(errs, err)
		case len(missing) > 0:
			fmt.Fprintf(w, "[missing] dataset %s lacks: %v\n", dataset, missing)
			errs = append(errs, fmt.Errorf("dataset %s: missing label directories %v", dataset, missing))
		default:
			fmt.Fprintf(w, "[ok]      dataset: %s\n", dataset)
		}
	}

	if len(errs) > 0 {
		fmt.Fprintln(w, "Please fix the missing dependencies before running the game.")
		return errors.Join(errs...)
	}
	fmt.Fprintln(w, "All dependencies found.")
	return nil
}

// missingLabelDirs lists the labels without a subdirectory under root.
func missingLabelDirs(root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("dataset %s is not a directory", root)
	}

	var missing []string
	for _, l := range emotion.Labels() {
		fi, err := os.Stat(filepath.Join(root, l.String()))
		if err != nil || !fi.IsDir() {
			missing = append(missing, l.String())
		}
	}
	return missing, nil
}
