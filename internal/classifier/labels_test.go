package classifier

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadLabels(t *testing.T) {
	tests := []struct {
		path string
		want Labels
	}{
		{"testdata/keypoint_classifier_label.csv", Labels{"Open", "Close", "Pointer", "OK"}},
		{"testdata/point_history_classifier_label.csv", Labels{"Stop", "Clockwise", "Counter Clockwise", "Move"}},
		{"testdata/indexed_label.csv", Labels{"Open", "Close", "Pointer"}},
	}

	for _, tt := range tests {
		t.Run(filepath.Base(tt.path), func(t *testing.T) {
			got, err := LoadLabels(tt.path)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestLoadLabels_Missing(t *testing.T) {
	_, err := LoadLabels(filepath.Join(t.TempDir(), "nope.csv"))
	require.ErrorIs(t, err, ErrLabelTable)
}

func TestParseLabels_Empty(t *testing.T) {
	_, err := ParseLabels(strings.NewReader(""))
	require.Error(t, err)
}

func TestLabels_Covers(t *testing.T) {
	l := Labels{"a", "b"}

	require.NoError(t, l.Covers(2))
	require.NoError(t, l.Covers(1))
	require.ErrorIs(t, l.Covers(3), ErrLabelTable)
}

func TestLabels_Name(t *testing.T) {
	l := Labels{"a", "b"}

	name, err := l.Name(1)
	require.NoError(t, err)
	require.Equal(t, "b", name)

	_, err = l.Name(2)
	require.ErrorIs(t, err, ErrLabelTable)
	_, err = l.Name(-1)
	require.ErrorIs(t, err, ErrLabelTable)
}
