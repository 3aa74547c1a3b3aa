package services

import (
	"fmt"
	"strconv"
	"strings"
	"testing"
	"time"

	"propagentic/internal/database"
	"propagentic/internal/models"
	"propagentic/pkg/errors"
	"propagentic/pkg/queue"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Property{},
		&models.PropertyTenant{},
		&models.PropertyInvite{},
		&models.LandlordProfile{},
		&models.MaintenanceRequest{},
		&models.MailLog{},
	))

	database.DB = db
	setupTestQueue(t)
	return db
}

// setupTestQueue 用内存Redis承载邮件队列与事件通道
func setupTestQueue(t *testing.T) {
	mr := miniredis.RunT(t)
	port, err := strconv.Atoi(mr.Port())
	require.NoError(t, err)

	database.SetMailQueue(queue.NewMailQueue(&queue.Config{
		Host: mr.Host(),
		Port: port,
	}))
}

func createLandlord(t *testing.T, db *gorm.DB, username string) *models.User {
	user := &models.User{
		Username: username,
		Email:    username + "@test.com",
		Name:     username,
		Role:     models.RoleLandlord,
		Status:   models.UserStatusActive,
	}
	require.NoError(t, user.SetPassword("Passw0rd!"))
	require.NoError(t, db.Create(user).Error)

	profile := &models.LandlordProfile{
		UserID:               user.ID,
		InviteAcceptanceRate: 100,
	}
	require.NoError(t, db.Create(profile).Error)
	return user
}

func createTenant(t *testing.T, db *gorm.DB, username string) *models.User {
	user := &models.User{
		Username: username,
		Email:    username + "@test.com",
		Name:     username,
		Role:     models.RoleTenant,
		Status:   models.UserStatusActive,
	}
	require.NoError(t, user.SetPassword("Passw0rd!"))
	require.NoError(t, db.Create(user).Error)
	return user
}

func createProperty(t *testing.T, db *gorm.DB, landlordID uint, name string) *models.Property {
	property := &models.Property{
		Name:       name,
		Address:    "测试地址1号",
		LandlordID: landlordID,
		TotalUnits: 4,
	}
	require.NoError(t, db.Create(property).Error)
	return property
}

func loadProfile(t *testing.T, db *gorm.DB, landlordID uint) *models.LandlordProfile {
	var profile models.LandlordProfile
	require.NoError(t, db.Where("user_id = ?", landlordID).First(&profile).Error)
	return &profile
}

func TestSendInvite(t *testing.T) {
	db := setupTestDB(t)
	svc := NewInviteService()

	landlord := createLandlord(t, db, "landlord1")
	property := createProperty(t, db, landlord.ID, "阳光公寓")

	invite, err := svc.SendInvite(landlord.ID, &SendInviteRequest{
		TenantEmail: "tenant1@test.com",
		PropertyID:  property.ID,
	})
	require.NoError(t, err)

	assert.Equal(t, models.InviteStatusSent, invite.Status)
	assert.Equal(t, "阳光公寓", invite.PropertyName)
	assert.Equal(t, landlord.Name, invite.LandlordName)
	assert.Len(t, invite.InviteCode, 8)
	for _, ch := range invite.InviteCode {
		assert.Contains(t, inviteCodeCharset, string(ch))
	}
	assert.WithinDuration(t, time.Now().Add(7*24*time.Hour), invite.ExpiresAt, time.Minute)

	// 邮件已入队：投递ID回写、投递记录落库
	assert.NotEmpty(t, invite.MailDocID)
	var mailLog models.MailLog
	require.NoError(t, db.Where("mail_doc_id = ?", invite.MailDocID).First(&mailLog).Error)
	assert.Equal(t, invite.ID, mailLog.InviteID)
	assert.Equal(t, models.MailStatusQueued, mailLog.Status)

	// 档案计数：已发出1，接受率归零
	profile := loadProfile(t, db, landlord.ID)
	assert.Equal(t, 1, profile.TotalInvitesSent)
	assert.Equal(t, 0, profile.TotalInvitesAccepted)
	assert.Equal(t, 0, profile.InviteAcceptanceRate)
}

func TestSendInviteInvalidEmail(t *testing.T) {
	db := setupTestDB(t)
	svc := NewInviteService()

	landlord := createLandlord(t, db, "landlord1")
	property := createProperty(t, db, landlord.ID, "阳光公寓")

	_, err := svc.SendInvite(landlord.ID, &SendInviteRequest{
		TenantEmail: "not-an-email",
		PropertyID:  property.ID,
	})
	require.Error(t, err)
	assert.Equal(t, errors.CodeInvalidParam, errors.CodeOf(err))
}

func TestSendInviteNotOwnProperty(t *testing.T) {
	db := setupTestDB(t)
	svc := NewInviteService()

	landlord := createLandlord(t, db, "landlord1")
	other := createLandlord(t, db, "landlord2")
	property := createProperty(t, db, landlord.ID, "阳光公寓")

	_, err := svc.SendInvite(other.ID, &SendInviteRequest{
		TenantEmail: "tenant1@test.com",
		PropertyID:  property.ID,
	})
	require.Error(t, err)
	assert.Equal(t, errors.CodeForbidden, errors.CodeOf(err))
}

func TestSendInviteMailEnqueueFailure(t *testing.T) {
	db := setupTestDB(t)

	// 指向不可达的队列地址模拟邮件协作方故障
	database.SetMailQueue(queue.NewMailQueue(&queue.Config{
		Host: "127.0.0.1",
		Port: 1,
	}))
	svc := NewInviteService()

	landlord := createLandlord(t, db, "landlord1")
	property := createProperty(t, db, landlord.ID, "阳光公寓")

	// 入队失败必须上抛，不得报告成功
	_, err := svc.SendInvite(landlord.ID, &SendInviteRequest{
		TenantEmail: "tenant1@test.com",
		PropertyID:  property.ID,
	})
	require.Error(t, err)
	assert.Equal(t, errors.CodeServerError, errors.CodeOf(err))

	// 邀请本身已落库待重发，不随入队失败回滚
	var invite models.PropertyInvite
	require.NoError(t, db.Where("tenant_email = ?", "tenant1@test.com").First(&invite).Error)
	assert.Equal(t, models.InviteStatusSent, invite.Status)
	assert.Empty(t, invite.MailDocID)
}

func TestSendInviteDuplicatePending(t *testing.T) {
	db := setupTestDB(t)
	svc := NewInviteService()

	landlord := createLandlord(t, db, "landlord1")
	property := createProperty(t, db, landlord.ID, "阳光公寓")

	_, err := svc.SendInvite(landlord.ID, &SendInviteRequest{
		TenantEmail: "tenant1@test.com",
		PropertyID:  property.ID,
	})
	require.NoError(t, err)

	_, err = svc.SendInvite(landlord.ID, &SendInviteRequest{
		TenantEmail: "tenant1@test.com",
		PropertyID:  property.ID,
	})
	require.Error(t, err)
	assert.Equal(t, errors.CodeFailedPrecondition, errors.CodeOf(err))
}

func TestAcceptInvite(t *testing.T) {
	db := setupTestDB(t)
	svc := NewInviteService()

	landlord := createLandlord(t, db, "landlord1")
	property := createProperty(t, db, landlord.ID, "阳光公寓")
	tenant := createTenant(t, db, "tenant1")

	unit := "3B"
	invite, err := svc.SendInvite(landlord.ID, &SendInviteRequest{
		TenantEmail: tenant.Email,
		PropertyID:  property.ID,
		UnitNumber:  &unit,
	})
	require.NoError(t, err)

	require.NoError(t, svc.AcceptInvite(invite.ID, tenant.ID))

	// 邀请状态
	var updated models.PropertyInvite
	require.NoError(t, db.First(&updated, invite.ID).Error)
	assert.Equal(t, models.InviteStatusAccepted, updated.Status)
	require.NotNil(t, updated.AcceptedAt)

	// 租客档案
	var linkedTenant models.User
	require.NoError(t, db.First(&linkedTenant, tenant.ID).Error)
	require.NotNil(t, linkedTenant.PropertyID)
	assert.Equal(t, property.ID, *linkedTenant.PropertyID)
	require.NotNil(t, linkedTenant.LandlordID)
	assert.Equal(t, landlord.ID, *linkedTenant.LandlordID)
	assert.True(t, linkedTenant.OnboardingComplete)

	// 物业租客集合与占用
	var link models.PropertyTenant
	require.NoError(t, db.Where("property_id = ? AND tenant_id = ?", property.ID, tenant.ID).First(&link).Error)
	require.NotNil(t, link.UnitNumber)
	assert.Equal(t, "3B", *link.UnitNumber)

	var updatedProperty models.Property
	require.NoError(t, db.First(&updatedProperty, property.ID).Error)
	assert.Equal(t, 1, updatedProperty.OccupiedUnits)
	assert.True(t, updatedProperty.IsOccupied)

	// 房东统计
	profile := loadProfile(t, db, landlord.ID)
	assert.Equal(t, 1, profile.TotalInvitesSent)
	assert.Equal(t, 1, profile.TotalInvitesAccepted)
	assert.Equal(t, 100, profile.InviteAcceptanceRate)
	assert.True(t, profile.HasTenant(tenant.ID))

	details, err := profile.Details()
	require.NoError(t, err)
	require.Len(t, details, 1)
	assert.Equal(t, tenant.Email, details[0].TenantEmail)
	assert.Equal(t, "阳光公寓", details[0].PropertyName)
	assert.Equal(t, "3B", details[0].UnitNumber)
}

func TestAcceptInviteIdempotent(t *testing.T) {
	db := setupTestDB(t)
	svc := NewInviteService()

	landlord := createLandlord(t, db, "landlord1")
	property := createProperty(t, db, landlord.ID, "阳光公寓")
	tenant := createTenant(t, db, "tenant1")

	invite, err := svc.SendInvite(landlord.ID, &SendInviteRequest{
		TenantEmail: tenant.Email,
		PropertyID:  property.ID,
	})
	require.NoError(t, err)

	require.NoError(t, svc.AcceptInvite(invite.ID, tenant.ID))
	// 重复接受直接成功，计数不变
	require.NoError(t, svc.AcceptInvite(invite.ID, tenant.ID))

	profile := loadProfile(t, db, landlord.ID)
	assert.Equal(t, 1, profile.TotalInvitesAccepted)

	var linkCount int64
	require.NoError(t, db.Model(&models.PropertyTenant{}).
		Where("property_id = ? AND tenant_id = ?", property.ID, tenant.ID).Count(&linkCount).Error)
	assert.Equal(t, int64(1), linkCount)
}

func TestAcceptInviteEmailMismatch(t *testing.T) {
	db := setupTestDB(t)
	svc := NewInviteService()

	landlord := createLandlord(t, db, "landlord1")
	property := createProperty(t, db, landlord.ID, "阳光公寓")
	createTenant(t, db, "tenant1")
	stranger := createTenant(t, db, "tenant2")

	invite, err := svc.SendInvite(landlord.ID, &SendInviteRequest{
		TenantEmail: "tenant1@test.com",
		PropertyID:  property.ID,
	})
	require.NoError(t, err)

	err = svc.AcceptInvite(invite.ID, stranger.ID)
	require.Error(t, err)
	assert.Equal(t, errors.CodeForbidden, errors.CodeOf(err))
}

func TestAcceptInviteNotFound(t *testing.T) {
	db := setupTestDB(t)
	svc := NewInviteService()

	tenant := createTenant(t, db, "tenant1")

	err := svc.AcceptInvite(9999, tenant.ID)
	require.Error(t, err)
	assert.Equal(t, errors.CodeNotFound, errors.CodeOf(err))
}

func TestAcceptInviteExpired(t *testing.T) {
	db := setupTestDB(t)
	svc := NewInviteService()

	landlord := createLandlord(t, db, "landlord1")
	property := createProperty(t, db, landlord.ID, "阳光公寓")
	tenant := createTenant(t, db, "tenant1")

	invite := &models.PropertyInvite{
		TenantEmail: tenant.Email,
		PropertyID:  property.ID,
		LandlordID:  landlord.ID,
		Status:      models.InviteStatusPending,
		InviteCode:  "EXPIRED1",
		ExpiresAt:   time.Now().Add(-time.Hour),
	}
	require.NoError(t, db.Create(invite).Error)

	err := svc.AcceptInvite(invite.ID, tenant.ID)
	require.Error(t, err)
	assert.Equal(t, errors.CodeFailedPrecondition, errors.CodeOf(err))
}

func TestAcceptInviteAfterDecline(t *testing.T) {
	db := setupTestDB(t)
	svc := NewInviteService()

	landlord := createLandlord(t, db, "landlord1")
	property := createProperty(t, db, landlord.ID, "阳光公寓")
	tenant := createTenant(t, db, "tenant1")

	invite, err := svc.SendInvite(landlord.ID, &SendInviteRequest{
		TenantEmail: tenant.Email,
		PropertyID:  property.ID,
	})
	require.NoError(t, err)

	require.NoError(t, svc.DeclineInvite(invite.ID, tenant.ID))

	err = svc.AcceptInvite(invite.ID, tenant.ID)
	require.Error(t, err)
	assert.Equal(t, errors.CodeFailedPrecondition, errors.CodeOf(err))
}

func TestAcceptInviteConcurrentSettle(t *testing.T) {
	db := setupTestDB(t)
	svc := NewInviteService()

	landlord := createLandlord(t, db, "landlord1")
	property := createProperty(t, db, landlord.ID, "阳光公寓")
	tenant := createTenant(t, db, "tenant1")

	invite, err := svc.SendInvite(landlord.ID, &SendInviteRequest{
		TenantEmail: tenant.Email,
		PropertyID:  property.ID,
	})
	require.NoError(t, err)

	// 模拟读取快照后邀请被并发处理：库中状态已落为declined，
	// 状态变更以待处理为前置条件，旧快照写入被拦截为前置条件失败
	require.NoError(t, db.Model(&models.PropertyInvite{}).
		Where("id = ?", invite.ID).
		Update("status", models.InviteStatusDeclined).Error)

	now := time.Now()
	err = svc.claimInvite(db, invite.ID, map[string]interface{}{
		"status":      models.InviteStatusAccepted,
		"accepted_at": &now,
	}, "邀请已处理，无法接受")
	require.Error(t, err)
	assert.Equal(t, errors.CodeFailedPrecondition, errors.CodeOf(err))

	// 已落定的状态不被覆盖
	var settled models.PropertyInvite
	require.NoError(t, db.First(&settled, invite.ID).Error)
	assert.Equal(t, models.InviteStatusDeclined, settled.Status)
}

func TestAcceptInviteAlreadyInOtherProperty(t *testing.T) {
	db := setupTestDB(t)
	svc := NewInviteService()

	landlord := createLandlord(t, db, "landlord1")
	propertyA := createProperty(t, db, landlord.ID, "阳光公寓")
	propertyB := createProperty(t, db, landlord.ID, "海景公寓")
	tenant := createTenant(t, db, "tenant1")

	inviteA, err := svc.SendInvite(landlord.ID, &SendInviteRequest{
		TenantEmail: tenant.Email,
		PropertyID:  propertyA.ID,
	})
	require.NoError(t, err)
	inviteB, err := svc.SendInvite(landlord.ID, &SendInviteRequest{
		TenantEmail: tenant.Email,
		PropertyID:  propertyB.ID,
	})
	require.NoError(t, err)

	require.NoError(t, svc.AcceptInvite(inviteA.ID, tenant.ID))

	err = svc.AcceptInvite(inviteB.ID, tenant.ID)
	require.Error(t, err)
	assert.Equal(t, errors.CodeFailedPrecondition, errors.CodeOf(err))
}

func TestAcceptInvitePropertyGone(t *testing.T) {
	db := setupTestDB(t)
	svc := NewInviteService()

	landlord := createLandlord(t, db, "landlord1")
	property := createProperty(t, db, landlord.ID, "阳光公寓")
	tenant := createTenant(t, db, "tenant1")

	invite, err := svc.SendInvite(landlord.ID, &SendInviteRequest{
		TenantEmail: tenant.Email,
		PropertyID:  property.ID,
	})
	require.NoError(t, err)

	require.NoError(t, db.Delete(&models.Property{}, property.ID).Error)

	err = svc.AcceptInvite(invite.ID, tenant.ID)
	require.Error(t, err)
	assert.Equal(t, errors.CodeNotFound, errors.CodeOf(err))
}

func TestAcceptInviteMissingLandlordProfile(t *testing.T) {
	db := setupTestDB(t)
	svc := NewInviteService()

	landlord := createLandlord(t, db, "landlord1")
	property := createProperty(t, db, landlord.ID, "阳光公寓")
	tenant := createTenant(t, db, "tenant1")

	invite, err := svc.SendInvite(landlord.ID, &SendInviteRequest{
		TenantEmail: tenant.Email,
		PropertyID:  property.ID,
	})
	require.NoError(t, err)

	// 档案缺失时接受流程不受影响
	require.NoError(t, db.Where("user_id = ?", landlord.ID).
		Delete(&models.LandlordProfile{}).Error)

	require.NoError(t, svc.AcceptInvite(invite.ID, tenant.ID))

	var linkedTenant models.User
	require.NoError(t, db.First(&linkedTenant, tenant.ID).Error)
	require.NotNil(t, linkedTenant.PropertyID)
	assert.Equal(t, property.ID, *linkedTenant.PropertyID)
}

func TestDeclineInvite(t *testing.T) {
	db := setupTestDB(t)
	svc := NewInviteService()

	landlord := createLandlord(t, db, "landlord1")
	property := createProperty(t, db, landlord.ID, "阳光公寓")
	tenant := createTenant(t, db, "tenant1")

	invite, err := svc.SendInvite(landlord.ID, &SendInviteRequest{
		TenantEmail: tenant.Email,
		PropertyID:  property.ID,
	})
	require.NoError(t, err)

	require.NoError(t, svc.DeclineInvite(invite.ID, tenant.ID))

	var updated models.PropertyInvite
	require.NoError(t, db.First(&updated, invite.ID).Error)
	assert.Equal(t, models.InviteStatusDeclined, updated.Status)
	require.NotNil(t, updated.RejectedAt)

	// 拒绝不触碰租客档案
	var unchanged models.User
	require.NoError(t, db.First(&unchanged, tenant.ID).Error)
	assert.Nil(t, unchanged.PropertyID)

	// 重复拒绝幂等
	require.NoError(t, svc.DeclineInvite(invite.ID, tenant.ID))
}

func TestAcceptanceRate(t *testing.T) {
	db := setupTestDB(t)
	svc := NewInviteService()

	landlord := createLandlord(t, db, "landlord1")
	property := createProperty(t, db, landlord.ID, "阳光公寓")

	// 发5封，接受2封，接受率40%
	var invites []*models.PropertyInvite
	for i := 1; i <= 5; i++ {
		tenant := createTenant(t, db, fmt.Sprintf("tenant%d", i))
		invite, err := svc.SendInvite(landlord.ID, &SendInviteRequest{
			TenantEmail: tenant.Email,
			PropertyID:  property.ID,
		})
		require.NoError(t, err)
		invites = append(invites, invite)
	}

	var tenants []models.User
	require.NoError(t, db.Where("role = ?", models.RoleTenant).Order("id ASC").Find(&tenants).Error)

	require.NoError(t, svc.AcceptInvite(invites[0].ID, tenants[0].ID))
	profile := loadProfile(t, db, landlord.ID)
	assert.Equal(t, 20, profile.InviteAcceptanceRate)

	require.NoError(t, svc.AcceptInvite(invites[1].ID, tenants[1].ID))
	profile = loadProfile(t, db, landlord.ID)
	assert.Equal(t, 5, profile.TotalInvitesSent)
	assert.Equal(t, 2, profile.TotalInvitesAccepted)
	assert.Equal(t, 40, profile.InviteAcceptanceRate)
}

func TestRemoveTenant(t *testing.T) {
	db := setupTestDB(t)
	svc := NewInviteService()

	landlord := createLandlord(t, db, "landlord1")
	property := createProperty(t, db, landlord.ID, "阳光公寓")
	tenant := createTenant(t, db, "tenant1")

	invite, err := svc.SendInvite(landlord.ID, &SendInviteRequest{
		TenantEmail: tenant.Email,
		PropertyID:  property.ID,
	})
	require.NoError(t, err)
	require.NoError(t, svc.AcceptInvite(invite.ID, tenant.ID))

	require.NoError(t, svc.RemoveTenant(landlord.ID, property.ID, tenant.ID))

	// 租客档案清空
	var removed models.User
	require.NoError(t, db.First(&removed, tenant.ID).Error)
	assert.Nil(t, removed.PropertyID)
	assert.Nil(t, removed.LandlordID)

	// 关联与占用回滚
	var linkCount int64
	require.NoError(t, db.Model(&models.PropertyTenant{}).
		Where("property_id = ?", property.ID).Count(&linkCount).Error)
	assert.Equal(t, int64(0), linkCount)

	var updatedProperty models.Property
	require.NoError(t, db.First(&updatedProperty, property.ID).Error)
	assert.Equal(t, 0, updatedProperty.OccupiedUnits)
	assert.False(t, updatedProperty.IsOccupied)

	// 档案反规范化记录剔除
	profile := loadProfile(t, db, landlord.ID)
	assert.False(t, profile.HasTenant(tenant.ID))
	details, err := profile.Details()
	require.NoError(t, err)
	assert.Empty(t, details)
}

func TestRemoveTenantNotLinked(t *testing.T) {
	db := setupTestDB(t)
	svc := NewInviteService()

	landlord := createLandlord(t, db, "landlord1")
	property := createProperty(t, db, landlord.ID, "阳光公寓")
	tenant := createTenant(t, db, "tenant1")

	err := svc.RemoveTenant(landlord.ID, property.ID, tenant.ID)
	require.Error(t, err)
	assert.Equal(t, errors.CodeNotFound, errors.CodeOf(err))
}

func TestValidateInviteCode(t *testing.T) {
	db := setupTestDB(t)
	svc := NewInviteService()

	landlord := createLandlord(t, db, "landlord1")
	property := createProperty(t, db, landlord.ID, "阳光公寓")
	tenant := createTenant(t, db, "tenant1")

	invite, err := svc.SendInvite(landlord.ID, &SendInviteRequest{
		TenantEmail: tenant.Email,
		PropertyID:  property.ID,
	})
	require.NoError(t, err)

	result, err := svc.ValidateInviteCode(invite.InviteCode)
	require.NoError(t, err)
	assert.True(t, result.IsValid)
	require.NotNil(t, result.PropertyID)
	assert.Equal(t, property.ID, *result.PropertyID)

	// 不存在的码是"无效"而非错误
	result, err = svc.ValidateInviteCode("NXSUCHCD")
	require.NoError(t, err)
	assert.False(t, result.IsValid)
	assert.Equal(t, "邀请码不存在", result.Message)

	// 格式不合法本地拒绝，不触库
	result, err = svc.ValidateInviteCode("bad code")
	require.NoError(t, err)
	assert.False(t, result.IsValid)

	// 已接受的码无法再次校验通过
	require.NoError(t, svc.AcceptInvite(invite.ID, tenant.ID))
	result, err = svc.ValidateInviteCode(invite.InviteCode)
	require.NoError(t, err)
	assert.False(t, result.IsValid)
	assert.Equal(t, "邀请码已被使用", result.Message)
}

func TestRedeemInviteCode(t *testing.T) {
	db := setupTestDB(t)
	svc := NewInviteService()

	landlord := createLandlord(t, db, "landlord1")
	property := createProperty(t, db, landlord.ID, "阳光公寓")
	tenant := createTenant(t, db, "tenant1")

	invite, err := svc.SendInvite(landlord.ID, &SendInviteRequest{
		TenantEmail: tenant.Email,
		PropertyID:  property.ID,
	})
	require.NoError(t, err)

	redeemed, err := svc.RedeemInviteCode(invite.InviteCode, tenant.ID)
	require.NoError(t, err)
	assert.Equal(t, models.InviteStatusAccepted, redeemed.Status)

	var linkedTenant models.User
	require.NoError(t, db.First(&linkedTenant, tenant.ID).Error)
	require.NotNil(t, linkedTenant.PropertyID)
	assert.Equal(t, property.ID, *linkedTenant.PropertyID)
}

func TestCancelInvite(t *testing.T) {
	db := setupTestDB(t)
	svc := NewInviteService()

	landlord := createLandlord(t, db, "landlord1")
	other := createLandlord(t, db, "landlord2")
	property := createProperty(t, db, landlord.ID, "阳光公寓")

	invite, err := svc.SendInvite(landlord.ID, &SendInviteRequest{
		TenantEmail: "tenant1@test.com",
		PropertyID:  property.ID,
	})
	require.NoError(t, err)

	err = svc.CancelInvite(invite.ID, other.ID)
	require.Error(t, err)
	assert.Equal(t, errors.CodeForbidden, errors.CodeOf(err))

	require.NoError(t, svc.CancelInvite(invite.ID, landlord.ID))

	var updated models.PropertyInvite
	require.NoError(t, db.First(&updated, invite.ID).Error)
	assert.Equal(t, models.InviteStatusExpired, updated.Status)
}

func TestCleanupExpiredInvites(t *testing.T) {
	db := setupTestDB(t)
	svc := NewInviteService()

	landlord := createLandlord(t, db, "landlord1")
	property := createProperty(t, db, landlord.ID, "阳光公寓")

	stale := &models.PropertyInvite{
		TenantEmail: "stale@test.com",
		PropertyID:  property.ID,
		LandlordID:  landlord.ID,
		Status:      models.InviteStatusPending,
		InviteCode:  "STALE123",
		ExpiresAt:   time.Now().Add(-time.Hour),
	}
	require.NoError(t, db.Create(stale).Error)

	fresh, err := svc.SendInvite(landlord.ID, &SendInviteRequest{
		TenantEmail: "fresh@test.com",
		PropertyID:  property.ID,
	})
	require.NoError(t, err)

	require.NoError(t, svc.CleanupExpiredInvites())

	var staleUpdated, freshUpdated models.PropertyInvite
	require.NoError(t, db.First(&staleUpdated, stale.ID).Error)
	require.NoError(t, db.First(&freshUpdated, fresh.ID).Error)
	assert.Equal(t, models.InviteStatusExpired, staleUpdated.Status)
	assert.Equal(t, models.InviteStatusSent, freshUpdated.Status)
}

func TestGenerateInviteCodeCharset(t *testing.T) {
	code, err := randomCode(8)
	require.NoError(t, err)
	assert.Len(t, code, 8)
	for _, ch := range code {
		assert.True(t, strings.ContainsRune(inviteCodeCharset, ch), "unexpected char %c", ch)
	}
	// 易混淆字符不出现
	assert.NotContains(t, inviteCodeCharset, "0")
	assert.NotContains(t, inviteCodeCharset, "O")
	assert.NotContains(t, inviteCodeCharset, "1")
	assert.NotContains(t, inviteCodeCharset, "I")
}
