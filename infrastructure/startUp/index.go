package startup

import (
	"veriface.io/infrastructure/biometric"
	"veriface.io/infrastructure/database"
	"veriface.io/infrastructure/logger"
	queue_tasks "veriface.io/infrastructure/message_queue/tasks"
)

// Used to start services such as loggers, databases, queues, etc.
func StartServices() {
	logger.InitializeLogger()
	database.SetUpDatabase()
	biometric.InitialiseBiometricService()

	// load stored templates before the server takes traffic so face
	// login never races an empty index
	if err := queue_tasks.RebuildFaceIndex("startup"); err != nil {
		logger.Warning("initial face index load failed, face login disabled until next rebuild", logger.LoggerOptions{
			Key:  "error",
			Data: err,
		})
	}
}

// Used to clean up after services that have been shutdown.
func CleanUpServices() {
}
