package id

import (
	"strings"
	"sync"

	"github.com/google/uuid"
)

/**
 * @author: gagral.x@gmail.com
 * @time: 2024/5/2 0:34
 * @file: uuid.go
 * @description: id util
 */

var mu = &sync.Mutex{}

// GetUUID generates a new UUID
func GetUUID() string {
	mu.Lock()
	defer mu.Unlock()
	return uuid.NewString()
}

// GetUUIDWithoutDashes generates a new UUID not horizontal line
func GetUUIDWithoutDashes() string {
	mu.Lock()
	defer mu.Unlock()

	return strings.Replace(uuid.NewString(), "-", "", -1)
}
