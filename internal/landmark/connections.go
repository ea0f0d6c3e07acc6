package landmark

// Connection joins two landmark indices with a line when rendered.
// The pair is unordered.
type Connection struct {
	A int `json:"a"`
	B int `json:"b"`
}

// Connections is a connection table. A nil table means nothing was detected.
type Connections []Connection

// Pairs builds a connection table from flat index pairs.
func Pairs(pairs ...[2]int) Connections {
	out := make(Connections, len(pairs))
	for i, p := range pairs {
		out[i] = Connection{A: p[0], B: p[1]}
	}
	return out
}

// Hand landmark indices following MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist     = 0
	ThumbCMC  = 1
	ThumbMCP  = 2
	ThumbIP   = 3
	ThumbTip  = 4
	IndexMCP  = 5
	IndexPIP  = 6
	IndexDIP  = 7
	IndexTip  = 8
	MiddleMCP = 9
	MiddlePIP = 10
	MiddleDIP = 11
	MiddleTip = 12
	RingMCP   = 13
	RingPIP   = 14
	RingDIP   = 15
	RingTip   = 16
	PinkyMCP  = 17
	PinkyPIP  = 18
	PinkyDIP  = 19
	PinkyTip  = 20

	NumHandLandmarks = 21
)

// NumPoseLandmarks is the size of the full MediaPipe body model.
const NumPoseLandmarks = 33

// NumFaceLandmarks is the size of the face mesh without iris refinement.
const NumFaceLandmarks = 468

// HandConnections is MediaPipe's HAND_CONNECTIONS table.
var HandConnections = Pairs(
	[2]int{Wrist, ThumbCMC}, [2]int{ThumbCMC, ThumbMCP}, [2]int{ThumbMCP, ThumbIP}, [2]int{ThumbIP, ThumbTip},
	[2]int{Wrist, IndexMCP}, [2]int{IndexMCP, IndexPIP}, [2]int{IndexPIP, IndexDIP}, [2]int{IndexDIP, IndexTip},
	[2]int{IndexMCP, MiddleMCP}, [2]int{MiddleMCP, MiddlePIP}, [2]int{MiddlePIP, MiddleDIP}, [2]int{MiddleDIP, MiddleTip},
	[2]int{MiddleMCP, RingMCP}, [2]int{RingMCP, RingPIP}, [2]int{RingPIP, RingDIP}, [2]int{RingDIP, RingTip},
	[2]int{RingMCP, PinkyMCP}, [2]int{Wrist, PinkyMCP},
	[2]int{PinkyMCP, PinkyPIP}, [2]int{PinkyPIP, PinkyDIP}, [2]int{PinkyDIP, PinkyTip},
)

// PoseConnections is MediaPipe's POSE_CONNECTIONS table over all 33 body landmarks.
var PoseConnections = Pairs(
	[2]int{0, 1}, [2]int{1, 2}, [2]int{2, 3}, [2]int{3, 7}, [2]int{0, 4}, [2]int{4, 5},
	[2]int{5, 6}, [2]int{6, 8}, [2]int{9, 10}, [2]int{11, 12}, [2]int{11, 13},
	[2]int{13, 15}, [2]int{15, 17}, [2]int{15, 19}, [2]int{15, 21}, [2]int{17, 19},
	[2]int{12, 14}, [2]int{14, 16}, [2]int{16, 18}, [2]int{16, 20}, [2]int{16, 22},
	[2]int{18, 20}, [2]int{11, 23}, [2]int{12, 24}, [2]int{23, 24}, [2]int{23, 25},
	[2]int{24, 26}, [2]int{25, 27}, [2]int{26, 28}, [2]int{27, 29}, [2]int{28, 30},
	[2]int{29, 31}, [2]int{30, 32}, [2]int{27, 31}, [2]int{28, 32},
)

// PoseHandsAndHead lists the body-model landmarks that duplicate the face
// (0-10) and the hands (17-22). The hand and face mesh detectors cover
// those regions in far more detail.
var PoseHandsAndHead = NewIndexSet(append(IndexRange(0, 11), IndexRange(17, 23)...)...)

// Indices of the body landmarks left after PoseHandsAndHead is removed.
const (
	TorsoLeftShoulder = iota
	TorsoRightShoulder
	TorsoLeftElbow
	TorsoRightElbow
	TorsoLeftWrist
	TorsoRightWrist
	TorsoLeftHip
	TorsoRightHip
	TorsoLeftKnee
	TorsoRightKnee
	TorsoLeftAnkle
	TorsoRightAnkle
	TorsoLeftHeel
	TorsoRightHeel
	TorsoLeftFootIndex
	TorsoRightFootIndex

	NumTorsoLandmarks
)

// ReducedPoseConnections joins shoulders, arms and hips of the filtered body.
// Indices refer to the compacted list, not to the 33-point model.
var ReducedPoseConnections = Pairs(
	[2]int{TorsoLeftShoulder, TorsoRightShoulder},
	[2]int{TorsoRightShoulder, TorsoRightElbow},
	[2]int{TorsoRightElbow, TorsoRightWrist},
	[2]int{TorsoLeftShoulder, TorsoLeftElbow},
	[2]int{TorsoLeftElbow, TorsoLeftWrist},
	[2]int{TorsoLeftShoulder, TorsoLeftHip},
	[2]int{TorsoRightShoulder, TorsoRightHip},
	[2]int{TorsoLeftHip, TorsoRightHip},
)
