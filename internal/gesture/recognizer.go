// Package gesture runs the per-frame recognition cycle: static pose,
// fingertip trajectory and the smoothed motion label.
package gesture

import (
	"fmt"

	"github.com/talkheal/gesturemode/internal/classifier"
)

// Defaults matching the bundled models.
const (
	// DefaultPointerClass is the pose index of the pointing hand.
	DefaultPointerClass = 2
	// NoMotion is the motion index pushed when no trajectory is available.
	NoMotion = 0
)

// Recognizer bundles the two classifiers and their label tables. It is
// built once at startup and shared read-only.
type Recognizer struct {
	pose         classifier.Classifier
	motion       classifier.Classifier
	poseLabels   classifier.Labels
	motionLabels classifier.Labels
}

type classCounter interface {
	NumClasses() int
}

// NewRecognizer checks that each label table names every class its
// classifier can return. Classifiers that do not report a class count are
// checked lazily on every lookup.
func NewRecognizer(pose, motion classifier.Classifier, poseLabels, motionLabels classifier.Labels) (*Recognizer, error) {
	if pose == nil || motion == nil {
		return nil, fmt.Errorf("recognizer needs both a pose and a motion classifier")
	}
	if len(poseLabels) == 0 || len(motionLabels) == 0 {
		return nil, fmt.Errorf("%w: empty label table", classifier.ErrLabelTable)
	}
	if c, ok := pose.(classCounter); ok {
		if err := poseLabels.Covers(c.NumClasses()); err != nil {
			return nil, fmt.Errorf("pose labels: %w", err)
		}
	}
	if c, ok := motion.(classCounter); ok {
		if err := motionLabels.Covers(c.NumClasses()); err != nil {
			return nil, fmt.Errorf("motion labels: %w", err)
		}
	}
	return &Recognizer{
		pose:         pose,
		motion:       motion,
		poseLabels:   poseLabels,
		motionLabels: motionLabels,
	}, nil
}

func (r *Recognizer) classifyPose(features []float64) (int, string, error) {
	id, err := r.pose.Classify(features)
	if err != nil {
		return 0, "", fmt.Errorf("classify pose: %w", err)
	}
	name, err := r.poseLabels.Name(id)
	if err != nil {
		return 0, "", fmt.Errorf("pose: %w", err)
	}
	return id, name, nil
}

func (r *Recognizer) classifyMotion(features []float64) (int, error) {
	id, err := r.motion.Classify(features)
	if err != nil {
		return 0, fmt.Errorf("classify motion: %w", err)
	}
	if _, err := r.motionLabels.Name(id); err != nil {
		return 0, fmt.Errorf("motion: %w", err)
	}
	return id, nil
}

// MotionLabel returns the display name of a motion index.
func (r *Recognizer) MotionLabel(id int) (string, error) {
	return r.motionLabels.Name(id)
}

// PoseLabels returns the pose label table.
func (r *Recognizer) PoseLabels() classifier.Labels {
	return r.poseLabels
}

func (r *Recognizer) MotionLabels() classifier.Labels {
	return r.motionLabels
}

// gestureText combines a pose label with a stable motion label. The
// no-motion index adds nothing.
func gestureText(pose string, motionID int, motion string) string {
	if motionID == NoMotion || motion == "" {
		return pose
	}
	return pose + " + " + motion
}
