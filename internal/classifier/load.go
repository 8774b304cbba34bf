package classifier

import (
	"path/filepath"
	"strings"
)

// LoadModel picks a backend from the file extension: .json is a dense
// network evaluated with gonum, anything else goes to OpenCV dnn. inputSize
// and numClasses are only consulted for dnn models.
func LoadModel(path string, inputSize, numClasses int) (Model, error) {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return LoadMLP(path)
	}
	return LoadDNN(path, inputSize, numClasses)
}
