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

package http

var (
	Failed                        = failed(500, "Request failed")
	RequestParameterParsingFailed = failed(5001, "Request parameter parsing failed")
	OrgIdIsEmpty                  = failed(5002, "Org id is empty")

	// Unauthorized 401
	Unauthorized           = failed(4401, "Unauthorized")
	AuthenticationFailed   = failed(4402, "Authentication failed")
	AuthorizationIncorrect = failed(4403, "The authorization format in the request header is incorrect")
	AuthorizationEmpty     = failed(4404, "Authorization is empty")
	InvalidToken           = failed(4405, "Invalid token")
	TokenBeEmpty           = failed(4406, "Token cannot be empty")
	TokenExpired           = failed(4407, "Token is expired")
	TokenFormatIncorrect   = failed(4408, "Token format is incorrect")
	InvalidApiKey          = failed(4409, "Invalid api key")
	ApiKeyScopeDenied      = failed(4410, "Api key scope denied")

	// BadRequest 400
	BadRequest         = failed(4000, "Bad request")
	NotFound           = failed(4004, "Not found")
	Conflict           = failed(4009, "Conflict")
	InvariantViolation = failed(4022, "Operation violates a resource invariant")

	// Forbidden 403
	Forbidden        = failed(4030, "Forbidden")
	PermissionDenied = failed(4031, "Permission denied")
	QuotaExceeded    = failed(4032, "Plan quota exceeded")
	FeatureDisabled  = failed(4033, "Feature is not available on the current plan")

	// TooManyRequests 429
	RateLimited = failed(4290, "Rate limit exceeded")

	InternalError = failed(5000, "Internal error, please contact the administrator")

	OrgNotExist          = failed(4041, "Organization does not exist")
	OrgAlreadyExist      = failed(4042, "Organization already exists")
	MemberNotExist       = failed(4043, "Member does not exist")
	MemberAlreadyExist   = failed(4044, "Member already exists")
	SubscriptionNotExist = failed(4045, "Subscription does not exist")
	PlanNotExist         = failed(4046, "Subscription plan does not exist")
)

var (
	Success = success(200, "Request Success")
)

// failed 构造函数
func failed(code int, msg string) *Response {
	return &Response{
		Code:   code,
		Msg:    msg,
		Detail: nil,
	}
}

// success 构造函数
func success(code int, msg string) *Response {
	return &Response{
		Code:   code,
		Msg:    msg,
		Detail: nil,
	}
}
