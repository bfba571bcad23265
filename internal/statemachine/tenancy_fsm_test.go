package statemachine

import (
	"context"
	"testing"

	"github.com/rentora/rentora-api/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestTenancyFSMEnd(t *testing.T) {
	tenancy := &models.Tenancy{Status: models.TenancyStatusActive}
	sm := NewTenancyFSM(tenancy)

	assert.True(t, sm.Can("end"))
	assert.NoError(t, sm.End(context.Background()))
	assert.Equal(t, models.TenancyStatusEnded, tenancy.Status)

	// Cannot end twice
	assert.Error(t, sm.End(context.Background()))
}

func TestTenancyFSMReopen(t *testing.T) {
	tenancy := &models.Tenancy{Status: models.TenancyStatusEnded}
	sm := NewTenancyFSM(tenancy)

	assert.NoError(t, sm.Reopen(context.Background()))
	assert.Equal(t, models.TenancyStatusActive, tenancy.Status)
}

func TestTenancyFSMReopenActiveFails(t *testing.T) {
	tenancy := &models.Tenancy{Status: models.TenancyStatusActive}
	sm := NewTenancyFSM(tenancy)

	assert.Error(t, sm.Reopen(context.Background()))
	assert.Equal(t, models.TenancyStatusActive, tenancy.Status)
}
