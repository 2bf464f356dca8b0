package repository

import (
	"sync"

	"veriface.io/entities"
	"veriface.io/infrastructure/database/connection/datastore"
	"veriface.io/infrastructure/database/repository/mongo"
)

var faceTemplateOnce = sync.Once{}

var faceTemplateRepository mongo.MongoRepository[entities.FaceTemplate]

func FaceTemplateRepo() *mongo.MongoRepository[entities.FaceTemplate] {
	faceTemplateOnce.Do(func() {
		faceTemplateRepository = mongo.MongoRepository[entities.FaceTemplate]{Model: datastore.FaceTemplateModel}
	})
	return &faceTemplateRepository
}
