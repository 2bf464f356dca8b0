package entities

import (
	"time"

	"veriface.io/application/utils"
)

type Device struct {
	LastLogin time.Time `bson:"lastLogin" json:"lastLogin"`
	Name      string    `bson:"name" json:"name"`
	ID        string    `bson:"id" json:"id"`
}

// This represents a user signed up to veriface
type User struct {
	FirstName    string   `bson:"firstName" json:"firstName"`
	LastName     string   `bson:"lastName" json:"lastName"`
	Email        string   `bson:"email" json:"email"`
	Password     string   `bson:"password" json:"-"`
	UserAgent    string   `bson:"userAgent" json:"userAgent"`
	FaceEnrolled bool     `bson:"faceEnrolled" json:"faceEnrolled"`
	Deactivated  bool     `bson:"deactivated" json:"deactivated"`
	Devices      []Device `bson:"devices" json:"devices"`

	ID            string     `bson:"_id" json:"id"`
	CreatedAt     time.Time  `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time  `bson:"updatedAt" json:"updatedAt"`
	DeletedAt     *time.Time `bson:"deletedAt" json:"deletedAt"`
	DeletedReason *string    `bson:"deletedReason" json:"deletedReason"`
}

func (model User) ParseModel() any {
	now := time.Now()
	if model.CreatedAt.IsZero() {
		model.CreatedAt = now
		model.ID = utils.GenerateUULDString()
	}
	model.UpdatedAt = now
	return &model
}
