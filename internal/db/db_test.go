package db

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConnect_EmptyDSN(t *testing.T) {
	db, err := Connect(context.Background(), "")

	assert.Error(t, err)
	assert.Nil(t, db)
}
