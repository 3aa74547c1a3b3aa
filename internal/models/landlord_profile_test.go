package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeAcceptanceRate(t *testing.T) {
	// 未发出过邀请时记为100
	assert.Equal(t, 100, ComputeAcceptanceRate(0, 0))
	assert.Equal(t, 0, ComputeAcceptanceRate(0, 5))
	assert.Equal(t, 40, ComputeAcceptanceRate(2, 5))
	assert.Equal(t, 100, ComputeAcceptanceRate(5, 5))
	// 四舍五入
	assert.Equal(t, 33, ComputeAcceptanceRate(1, 3))
	assert.Equal(t, 67, ComputeAcceptanceRate(2, 3))
}

func TestMarkInviteSent(t *testing.T) {
	profile := &LandlordProfile{InviteAcceptanceRate: 100}

	profile.MarkInviteSent()
	assert.Equal(t, 1, profile.TotalInvitesSent)
	assert.Equal(t, 0, profile.InviteAcceptanceRate)
}

func TestAddAcceptanceDedup(t *testing.T) {
	profile := &LandlordProfile{TotalInvitesSent: 3}

	record := TenantAcceptanceRecord{
		TenantID:    7,
		TenantEmail: "tenant@test.com",
		PropertyID:  1,
		AcceptedAt:  time.Now(),
	}
	require.NoError(t, profile.AddAcceptance(record))

	// 同一租客再次接受（另一物业）：uid去重，明细追加
	record.PropertyID = 2
	require.NoError(t, profile.AddAcceptance(record))

	ids, err := profile.TenantIDs()
	require.NoError(t, err)
	assert.Equal(t, []uint{7}, ids)

	details, err := profile.Details()
	require.NoError(t, err)
	assert.Len(t, details, 2)

	assert.Equal(t, 2, profile.TotalInvitesAccepted)
	assert.Equal(t, 67, profile.InviteAcceptanceRate)
}

func TestRemoveTenantKeepsOtherProperties(t *testing.T) {
	profile := &LandlordProfile{TotalInvitesSent: 2}

	record := TenantAcceptanceRecord{TenantID: 7, PropertyID: 1, AcceptedAt: time.Now()}
	require.NoError(t, profile.AddAcceptance(record))
	record.PropertyID = 2
	require.NoError(t, profile.AddAcceptance(record))

	// 仅剔除物业1的记录，租客仍关联物业2，uid保留
	removed, err := profile.RemoveTenant(7, 1)
	require.NoError(t, err)
	assert.True(t, removed)
	assert.True(t, profile.HasTenant(7))

	details, err := profile.Details()
	require.NoError(t, err)
	require.Len(t, details, 1)
	assert.Equal(t, uint(2), details[0].PropertyID)

	// 剔除最后一条后uid移出集合
	removed, err = profile.RemoveTenant(7, 2)
	require.NoError(t, err)
	assert.True(t, removed)
	assert.False(t, profile.HasTenant(7))

	// 无记录可剔除时返回false
	removed, err = profile.RemoveTenant(7, 2)
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestInviteStateTransitions(t *testing.T) {
	invite := &PropertyInvite{
		Status:    InviteStatusSent,
		ExpiresAt: time.Now().Add(time.Hour),
	}

	// sent与pending等价，均为待处理
	assert.True(t, invite.IsOpen())
	assert.True(t, invite.IsValid())

	invite.Status = InviteStatusPending
	assert.True(t, invite.IsOpen())

	invite.Accept()
	assert.Equal(t, InviteStatusAccepted, invite.Status)
	assert.NotNil(t, invite.AcceptedAt)
	assert.False(t, invite.IsOpen())

	declined := &PropertyInvite{Status: InviteStatusPending, ExpiresAt: time.Now().Add(time.Hour)}
	declined.Decline()
	assert.Equal(t, InviteStatusDeclined, declined.Status)
	assert.NotNil(t, declined.RejectedAt)

	// 过期的待处理邀请开放但无效
	stale := &PropertyInvite{Status: InviteStatusPending, ExpiresAt: time.Now().Add(-time.Hour)}
	assert.True(t, stale.IsOpen())
	assert.False(t, stale.IsValid())
}
