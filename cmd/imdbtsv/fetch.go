package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
)

const (
	// defaultDatasetURL is the public location of the dataset
	defaultDatasetURL = "https://datasets.imdbws.com/title.basics.tsv.gz"
	// defaultDatasetFile is where the dataset is cached locally
	defaultDatasetFile = "title.basics.tsv.gz"
	// fetchTimeout bounds a whole download
	fetchTimeout = 30 * time.Minute
)

type fetchOptions struct {
	url    string
	output string
	force  bool
}

func newFetchCmd(root *rootOptions) *cobra.Command {
	opts := &fetchOptions{}

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Download the dataset unless a local copy exists",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := root.logger(cmd.ErrOrStderr())
			ctx, cancel := context.WithTimeout(cmd.Context(), fetchTimeout)
			defer cancel()

			path, downloaded, err := fetchDataset(ctx, http.DefaultClient, opts.url, opts.output, opts.force)
			if err != nil {
				return err
			}
			if downloaded {
				logger.Info("dataset downloaded", slog.String("path", path))
			} else {
				logger.Info("dataset already present", slog.String("path", path))
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.url, "url", defaultDatasetURL, "dataset URL")
	cmd.Flags().StringVarP(&opts.output, "output", "o", defaultDatasetFile, "local dataset path")
	cmd.Flags().BoolVar(&opts.force, "force", false, "download even if the file exists")
	return cmd
}

// fetchDataset downloads url to path unless path already exists. The body is
// written to a temporary file first so an interrupted download never leaves a
// truncated dataset behind.
func fetchDataset(ctx context.Context, client *http.Client, url, path string, force bool) (string, bool, error) {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return path, false, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %s: %w", path, err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", false, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", false, fmt.Errorf("failed to download %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", false, fmt.Errorf("failed to download %s: unexpected status %s", url, resp.Status)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.part")
	if err != nil {
		return "", false, fmt.Errorf("failed to create temporary file: %w", err)
	}
	defer func() {
		_ = os.Remove(tmp.Name()) // No-op after a successful rename
	}()

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		_ = tmp.Close()
		return "", false, fmt.Errorf("failed to write %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return "", false, fmt.Errorf("failed to close %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", false, fmt.Errorf("failed to move dataset into place: %w", err)
	}
	return path, true, nil
}
