package entities

import (
	"time"

	"veriface.io/application/utils"
)

// FaceTemplate holds the aggregated face embedding for a user along
// with the raw per-frame samples used to build it. The samples are kept
// so the in-memory match index can be rebuilt from storage at boot.
type FaceTemplate struct {
	UserID     string      `bson:"userID" json:"userID"`
	Mean       []float64   `bson:"mean" json:"-"`
	Median     []float64   `bson:"median" json:"-"`
	Samples    [][]float64 `bson:"samples" json:"-"`
	FrameCount int         `bson:"frameCount" json:"frameCount"`
	Strategy   string      `bson:"strategy" json:"strategy"`

	ID            string     `bson:"_id" json:"id"`
	CreatedAt     time.Time  `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time  `bson:"updatedAt" json:"updatedAt"`
	DeletedAt     *time.Time `bson:"deletedAt" json:"deletedAt"`
	DeletedReason *string    `bson:"deletedReason" json:"deletedReason"`
}

func (model FaceTemplate) ParseModel() any {
	now := time.Now()
	if model.CreatedAt.IsZero() {
		model.CreatedAt = now
		if model.ID == "" {
			model.ID = utils.GenerateUULDString()
		}
	}
	model.UpdatedAt = now
	return &model
}
