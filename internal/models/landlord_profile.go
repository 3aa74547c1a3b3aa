package models

import (
	"encoding/json"
	"math"
	"time"

	"gorm.io/datatypes"
)

// LandlordProfile 房东档案（统计与反规范化记录）
type LandlordProfile struct {
	BaseModel
	UserID uint `gorm:"uniqueIndex;not null" json:"user_id"`

	// 反规范化字段：接受邀请的租客uid集合与明细记录
	AcceptedTenants       datatypes.JSON `json:"accepted_tenants"`
	AcceptedTenantDetails datatypes.JSON `json:"accepted_tenant_details"`

	TotalInvitesSent     int `gorm:"default:0" json:"total_invites_sent"`
	TotalInvitesAccepted int `gorm:"default:0" json:"total_invites_accepted"`
	InviteAcceptanceRate int `gorm:"default:100" json:"invite_acceptance_rate"` // 百分比

	// 关联
	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// TableName 表名
func (LandlordProfile) TableName() string {
	return "landlord_profiles"
}

// TenantAcceptanceRecord 接受邀请的反规范化明细
type TenantAcceptanceRecord struct {
	TenantID     uint      `json:"tenant_id"`
	TenantEmail  string    `json:"tenant_email"`
	PropertyID   uint      `json:"property_id"`
	PropertyName string    `json:"property_name"`
	UnitNumber   string    `json:"unit_number,omitempty"`
	AcceptedAt   time.Time `json:"accepted_at"`
}

// ComputeAcceptanceRate 接受率 = round(accepted/sent*100)，未发出过邀请时记为100
func ComputeAcceptanceRate(accepted, sent int) int {
	if sent == 0 {
		return 100
	}
	return int(math.Round(float64(accepted) / float64(sent) * 100))
}

// TenantIDs 解出已接受租客的uid列表
func (lp *LandlordProfile) TenantIDs() ([]uint, error) {
	if len(lp.AcceptedTenants) == 0 {
		return nil, nil
	}
	var ids []uint
	if err := json.Unmarshal(lp.AcceptedTenants, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

// Details 解出反规范化明细列表
func (lp *LandlordProfile) Details() ([]TenantAcceptanceRecord, error) {
	if len(lp.AcceptedTenantDetails) == 0 {
		return nil, nil
	}
	var details []TenantAcceptanceRecord
	if err := json.Unmarshal(lp.AcceptedTenantDetails, &details); err != nil {
		return nil, err
	}
	return details, nil
}

// HasTenant 检查租客是否在已接受集合中
func (lp *LandlordProfile) HasTenant(tenantID uint) bool {
	ids, err := lp.TenantIDs()
	if err != nil {
		return false
	}
	for _, id := range ids {
		if id == tenantID {
			return true
		}
	}
	return false
}

// MarkInviteSent 发出邀请计数并重算接受率
func (lp *LandlordProfile) MarkInviteSent() {
	lp.TotalInvitesSent++
	lp.InviteAcceptanceRate = ComputeAcceptanceRate(lp.TotalInvitesAccepted, lp.TotalInvitesSent)
}

// AddAcceptance 追加反规范化记录、计数自增并重算接受率
func (lp *LandlordProfile) AddAcceptance(record TenantAcceptanceRecord) error {
	ids, err := lp.TenantIDs()
	if err != nil {
		return err
	}
	// uid去重追加
	found := false
	for _, id := range ids {
		if id == record.TenantID {
			found = true
			break
		}
	}
	if !found {
		ids = append(ids, record.TenantID)
	}

	details, err := lp.Details()
	if err != nil {
		return err
	}
	details = append(details, record)

	if err := lp.setTenants(ids, details); err != nil {
		return err
	}

	lp.TotalInvitesAccepted++
	lp.InviteAcceptanceRate = ComputeAcceptanceRate(lp.TotalInvitesAccepted, lp.TotalInvitesSent)
	return nil
}

// RemoveTenant 按租客ID+物业ID剔除明细；仅当该租客不再关联任何物业时才移出uid集合。
// 返回是否有记录被移除。
func (lp *LandlordProfile) RemoveTenant(tenantID, propertyID uint) (bool, error) {
	details, err := lp.Details()
	if err != nil {
		return false, err
	}

	removed := false
	remaining := make([]TenantAcceptanceRecord, 0, len(details))
	tenantStillPresent := false
	for _, d := range details {
		if d.TenantID == tenantID && d.PropertyID == propertyID {
			removed = true
			continue
		}
		if d.TenantID == tenantID {
			tenantStillPresent = true
		}
		remaining = append(remaining, d)
	}

	if !removed {
		return false, nil
	}

	ids, err := lp.TenantIDs()
	if err != nil {
		return false, err
	}
	if !tenantStillPresent {
		filtered := make([]uint, 0, len(ids))
		for _, id := range ids {
			if id != tenantID {
				filtered = append(filtered, id)
			}
		}
		ids = filtered
	}

	if err := lp.setTenants(ids, remaining); err != nil {
		return false, err
	}
	return true, nil
}

func (lp *LandlordProfile) setTenants(ids []uint, details []TenantAcceptanceRecord) error {
	if ids == nil {
		ids = []uint{}
	}
	if details == nil {
		details = []TenantAcceptanceRecord{}
	}
	idsJSON, err := json.Marshal(ids)
	if err != nil {
		return err
	}
	detailsJSON, err := json.Marshal(details)
	if err != nil {
		return err
	}
	lp.AcceptedTenants = datatypes.JSON(idsJSON)
	lp.AcceptedTenantDetails = datatypes.JSON(detailsJSON)
	return nil
}
