package types

const TABLE_PREFIX = "vieagent_"

type TableName string

func (t TableName) Name() string {
	return TABLE_PREFIX + string(t)
}

const (
	TABLE_DOCUMENTS         TableName = "documents"
	TABLE_DOCUMENT_CHUNKS   TableName = "document_chunks"
	TABLE_VECTORS           TableName = "vectors"
	TABLE_MODEL_PERFORMANCE TableName = "model_performance"
)
