package constant

const (
	// Claims 认证中间件写入的 JWT claims key
	Claims = "claims"

	// UserId 当前登录用户 id
	UserId = "userId"

	// OrgId 当前租户 id
	OrgId = "orgId"

	// ApiKey 凭据中间件写入的 api key 记录
	ApiKey = "apiKey"

	// UserInfoKey redis 会话 key 前缀
	UserInfoKey = "tenantry:user:"
)
