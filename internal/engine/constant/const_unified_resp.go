package constant

/**
 * @author: gagral.x@gmail.com
 * @time: 2024/9/16 16:40
 * @file: const_unified_resp.go
 * @description: unified response locals key
 */

const (
	// DETAIL 统一响应数据 key
	DETAIL = "detail"

	// OPERATION 无数据返回时的操作结果 key
	OPERATION = "operation"
)
