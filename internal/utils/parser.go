package utils

import (
	"strconv"

	"github.com/google/uuid"
)

func ParseInt(s string, defaultValue int) int {
	if s == "" {
		return defaultValue
	}
	result, err := strconv.Atoi(s)
	if err != nil {
		return defaultValue
	}
	return result
}

func ParseUUID(s string) (uuid.UUID, error) {
	return uuid.Parse(s)
}
