// Package fixtures bundles small classifier models and label tables for
// integration tests.
package fixtures

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gocv.io/x/gocv"
)

//go:embed models/* labels/*
var fixturesFS embed.FS

// Files are the on-disk locations written by Materialize.
//
// The bundled keypoint model always answers class 2 (Pointer). The point
// history model always answers class 1 (Clockwise) with a softmax score
// above 0.5.
type Files struct {
	Keypoint           string
	KeypointLabels     string
	PointHistory       string
	PointHistoryLabels string
}

// Materialize copies the embedded fixtures into dir.
func Materialize(dir string) (Files, error) {
	err := fs.WalkDir(fixturesFS, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		target := filepath.Join(dir, path)
		if d.IsDir() {
			return os.MkdirAll(target, 0755)
		}
		data, err := fixturesFS.ReadFile(path)
		if err != nil {
			return err
		}
		return os.WriteFile(target, data, 0644)
	})
	if err != nil {
		return Files{}, fmt.Errorf("materialize fixtures: %w", err)
	}

	return Files{
		Keypoint:           filepath.Join(dir, "models", "keypoint_classifier.json"),
		KeypointLabels:     filepath.Join(dir, "labels", "keypoint_classifier_label.csv"),
		PointHistory:       filepath.Join(dir, "models", "point_history_classifier.json"),
		PointHistoryLabels: filepath.Join(dir, "labels", "point_history_classifier_label.csv"),
	}, nil
}

// BlankFrames returns n black BGR frames of the given size. The caller
// closes them.
func BlankFrames(n, width, height int) []*gocv.Mat {
	frames := make([]*gocv.Mat, n)
	for i := range frames {
		m := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), height, width, gocv.MatTypeCV8UC3)
		frames[i] = &m
	}
	return frames
}
