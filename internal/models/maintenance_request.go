package models

// MaintenanceRequest 维修工单
type MaintenanceRequest struct {
	BaseModel
	TenantID    uint   `gorm:"not null;index" json:"tenant_id"`
	PropertyID  uint   `gorm:"not null;index" json:"property_id"`
	Title       string `gorm:"not null;size:200" json:"title"`
	Description string `gorm:"size:2000" json:"description"`
	Status      string `gorm:"size:20;not null;default:'new'" json:"status"` // new/triaged/dispatched/completed

	// 评估输入（分诊规则的依据）
	PartsNeeded      *bool  `json:"parts_needed,omitempty"`
	Complexity       string `gorm:"size:20" json:"complexity,omitempty"` // low/medium/high
	FurtherInquiry   *bool  `json:"further_inquiry,omitempty"`
	FurtherQuestions string `gorm:"size:2000" json:"further_questions,omitempty"`
	Instructions     string `gorm:"size:2000" json:"instructions,omitempty"`

	// 分诊结果
	TriageDecision string `gorm:"size:30" json:"triage_decision,omitempty"` // dispatch_contractor/ask/instruct/undetermined
	TriageMessage  string `gorm:"size:2000" json:"triage_message,omitempty"`

	ContractorID *uint `json:"contractor_id,omitempty"` // 派遣的承包商

	// 关联
	Tenant   User     `gorm:"foreignKey:TenantID" json:"tenant,omitempty"`
	Property Property `gorm:"foreignKey:PropertyID;constraint:OnDelete:CASCADE" json:"property,omitempty"`
}

// TableName 表名
func (MaintenanceRequest) TableName() string {
	return "maintenance_requests"
}

// 工单状态常量
const (
	MaintenanceStatusNew        = "new"
	MaintenanceStatusTriaged    = "triaged"
	MaintenanceStatusDispatched = "dispatched"
	MaintenanceStatusCompleted  = "completed"
)

// 复杂度常量
const (
	ComplexityLow    = "low"
	ComplexityMedium = "medium"
	ComplexityHigh   = "high"
)

// 分诊决策常量
const (
	TriageDispatchContractor = "dispatch_contractor"
	TriageAsk                = "ask"
	TriageInstruct           = "instruct"
	TriageUndetermined       = "undetermined"
)
