package pose

import (
	"context"
	"image"
)

const (
	LeftShoulder = "left_shoulder"
	LeftHip      = "left_hip"
	LeftKnee     = "left_knee"
)

// Keypoint is a single body landmark in frame pixel coordinates. Y grows
// downward.
type Keypoint struct {
	Name  string  `json:"name"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Score float64 `json:"score"`
}

type Pose struct {
	Keypoints []Keypoint `json:"keypoints"`
}

// Y returns the vertical position of the named keypoint, or 0 when the
// estimator did not report it.
func (p Pose) Y(name string) float64 {
	for _, k := range p.Keypoints {
		if k.Name == name {
			return k.Y
		}
	}
	return 0
}

// Estimator detects poses in a video frame. The first pose is the subject.
type Estimator interface {
	EstimatePoses(ctx context.Context, frame image.Image) ([]Pose, error)
}
