package i18n

var ALLOW_LANG = map[string]bool{
	"en":    true,
	"zh-CN": true,
}

const DEFAULT_LANG = "en"

const (
	ERROR_INTERNAL        = "error.internal"
	ERROR_NOT_FOUND       = "error.notfound"
	ERROR_INVALIDARGUMENT = "error.invalidargument"

	ERROR_INVALID_CONFIG     = "error.knowledgebase.invalid.config"
	ERROR_INVALID_QUERY      = "error.query.invalid"
	ERROR_ALREADY_PROCESSING = "error.document.already.processing"
	ERROR_EMPTY_IMPORT       = "error.import.empty"

	ERROR_AI_EMBEDDING_MODEL_NOT_FOUND = "error.ai.embedding.model.not.found"
)
