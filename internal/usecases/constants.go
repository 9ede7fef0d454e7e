package usecases

const (
	LogBatchProcessed = "File command batch processed"
)
