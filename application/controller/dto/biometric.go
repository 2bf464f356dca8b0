package dto

// EnrollFaceDTO carries the burst of frames captured during enrollment.
// Each frame is a base64 encoded image, raw or as a data URI.
type EnrollFaceDTO struct {
	Frames []string `json:"frames" validate:"required,min=3,max=10,dive,image_payload"`
}

type FaceLoginDTO struct {
	Frame string `json:"frame" validate:"required,image_payload"`
}

type FaceEnrollmentResponse struct {
	FrameCount int    `json:"frameCount"`
	Strategy   string `json:"strategy"`
}

type FaceLoginResponse struct {
	UserID     string  `json:"userID"`
	Distance   float64 `json:"distance"`
	Confidence float64 `json:"confidence"`
	Strategy   string  `json:"strategy"`
}

type FaceStatsResponse struct {
	EnrolledIdentities int     `json:"enrolledIdentities"`
	IndexVersion       uint64  `json:"indexVersion"`
	IndexReady         bool    `json:"indexReady"`
	TotalRequests      int64   `json:"totalRequests"`
	SuccessfulRequests int64   `json:"successfulRequests"`
	AverageTimeMs      float64 `json:"averageTimeMs"`
	FaceLoginAttempts  int64   `json:"faceLoginAttempts"`
}
