package controllers

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestIsDuplicateKey(t *testing.T) {
	assert.True(t, isDuplicateKey(gorm.ErrDuplicatedKey))
	assert.True(t, isDuplicateKey(fmt.Errorf("create account: %w", gorm.ErrDuplicatedKey)))
	assert.False(t, isDuplicateKey(gorm.ErrRecordNotFound))
	assert.False(t, isDuplicateKey(nil))
}
