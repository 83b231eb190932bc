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

package service

import "errors"

// 治理引擎的错误分类，路由层据此映射响应码
var (
	ErrNotFound              = errors.New("entity not found")
	ErrConflict              = errors.New("conflict")
	ErrInvariantViolation    = errors.New("operation violates a resource invariant")
	ErrQuotaExceeded         = errors.New("plan quota exceeded")
	ErrRateLimited           = errors.New("rate limit exceeded")
	ErrInvalidCredential     = errors.New("invalid credential")
	ErrInvalidArgument       = errors.New("invalid argument")
	ErrAlreadyMember         = errors.New("user is already a member of the organization")
	ErrLastOwner             = errors.New("organization must keep at least one owner")
	ErrDuplicateSubscription = errors.New("organization already has an active subscription")
	ErrNotCancellable        = errors.New("subscription cannot be reactivated from its current status")
)
