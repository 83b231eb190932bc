// Copyright 2025 Tenantry Team
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package middleware

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/tenantry/tenantry/internal/engine/constant"
	"github.com/tenantry/tenantry/internal/engine/model"
	"github.com/tenantry/tenantry/pkg/http"
	"github.com/tenantry/tenantry/pkg/log"
)

// KeyValidator validates programmatic credentials.
type KeyValidator interface {
	ValidateApiKey(ctx context.Context, keyString string) (*model.ApiKey, error)
	HasScope(key *model.ApiKey, scope string) bool
	TrackApiKeyUsage(ctx context.Context, keyId string) error
}

// ApiKeyMiddleware 凭据认证中间件
// 从 X-API-Key 或 Authorization: Bearer 头提取密钥，校验后写入 locals。
// requiredScope 为空时任意有效密钥均可通过。
// 无论后续业务是否成功，每次校验通过都会记一次密钥使用。
func ApiKeyMiddleware(validator KeyValidator, requiredScope string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		keyString := c.Get("X-API-Key")
		if keyString == "" {
			auth := c.Get("Authorization")
			parts := strings.SplitN(auth, " ", 2)
			if len(parts) == 2 && parts[0] == "Bearer" {
				keyString = parts[1]
			}
		}
		if keyString == "" {
			return http.WithRepErrMsg(c, http.AuthorizationEmpty.Code, http.AuthorizationEmpty.Msg, c.Path())
		}

		apiKey, err := validator.ValidateApiKey(c.UserContext(), keyString)
		if err != nil {
			// 格式错误、查无此键、过期、吊销统一按无效处理，不区分原因
			return http.WithRepErrMsg(c, http.InvalidApiKey.Code, http.InvalidApiKey.Msg, c.Path())
		}

		if requiredScope != "" && !validator.HasScope(apiKey, requiredScope) {
			return http.WithRepErrMsg(c, http.ApiKeyScopeDenied.Code, http.ApiKeyScopeDenied.Msg, c.Path())
		}

		if err := validator.TrackApiKeyUsage(c.UserContext(), apiKey.KeyId); err != nil {
			log.Warnw("failed to track api key usage", "keyId", apiKey.KeyId, "error", err)
		}

		c.Locals(constant.ApiKey, apiKey)
		c.Locals(constant.OrgId, apiKey.OrgId)
		c.Locals(constant.UserId, apiKey.CreatedBy)
		return c.Next()
	}
}

// RequireScope 按路由的授权检查，前置的 ApiKeyMiddleware 已把 key 写入 locals
func RequireScope(validator KeyValidator, scope string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		apiKey, ok := c.Locals(constant.ApiKey).(*model.ApiKey)
		if !ok {
			return http.WithRepErrMsg(c, http.InvalidApiKey.Code, http.InvalidApiKey.Msg, c.Path())
		}
		if !validator.HasScope(apiKey, scope) {
			return http.WithRepErrMsg(c, http.ApiKeyScopeDenied.Code, http.ApiKeyScopeDenied.Msg, c.Path())
		}
		return c.Next()
	}
}
