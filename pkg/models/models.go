// Package models downloads the ONNX files used by the local detectors.
package models

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/teslashibe/go-signcapture/internal/httpc"
	"github.com/teslashibe/go-signcapture/internal/log"
)

// YuNetURL is the OpenCV model zoo release of the YuNet face detector.
const YuNetURL = "https://github.com/opencv/opencv_zoo/raw/main/models/face_detection_yunet/face_detection_yunet_2023mar.onnx"

var ErrNoURL = errors.New("models: no download url")

// Model is a file the detectors need and where to get it.
type Model struct {
	Name string
	URL  string
	Path string
}

// Fetcher downloads models that are not present yet.
type Fetcher struct {
	Client *http.Client
}

// NewFetcher returns a fetcher using the shared HTTP client.
func NewFetcher() *Fetcher {
	return &Fetcher{Client: httpc.Client}
}

// Ensure downloads every model whose file is missing. Files already on
// disk are left alone. It returns the models that were downloaded.
func (f *Fetcher) Ensure(ctx context.Context, models ...Model) ([]Model, error) {
	var fetched []Model
	for _, m := range models {
		if _, err := os.Stat(m.Path); err == nil {
			log.Debug("model present", "model", m.Name, "path", m.Path)
			continue
		}
		if m.URL == "" {
			return fetched, fmt.Errorf("%w: %s (place it at %s)", ErrNoURL, m.Name, m.Path)
		}
		if err := f.Download(ctx, m.URL, m.Path); err != nil {
			return fetched, fmt.Errorf("models: %s: %w", m.Name, err)
		}
		fetched = append(fetched, m)
	}
	return fetched, nil
}

// Download writes url to dest. The file appears only once it is complete.
func (f *Fetcher) Download(ctx context.Context, url, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	client := f.Client
	if client == nil {
		client = httpc.Client
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: %s", url, resp.Status)
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(dest), filepath.Base(dest)+".*.part")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	n, err := io.Copy(tmp, resp.Body)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return err
	}

	log.Info("model downloaded", "path", dest, "bytes", n)
	return nil
}
