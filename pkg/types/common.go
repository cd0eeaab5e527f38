package types

const (
	NO_PAGINATION = 0

	// 查询接口允许的最大返回条数
	MAX_QUERY_LIMIT     = 50
	DEFAULT_QUERY_LIMIT = 10
)
