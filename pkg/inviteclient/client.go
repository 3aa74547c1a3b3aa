package inviteclient

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client 邀请码客户端：供租客端应用校验和兑换邀请码
type Client struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewClient 创建邀请码客户端
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// SetToken 设置登录令牌（兑换接口需要）
func (c *Client) SetToken(token string) {
	c.token = token
}

// InviteInfo 邀请详情
type InviteInfo struct {
	ID           uint   `json:"id"`
	TenantEmail  string `json:"tenant_email"`
	PropertyID   uint   `json:"property_id"`
	PropertyName string `json:"property_name"`
	LandlordName string `json:"landlord_name"`
	UnitNumber   string `json:"unit_number,omitempty"`
	Status       string `json:"status"`
	InviteCode   string `json:"invite_code"`
	ExpiresAt    string `json:"expires_at"`
}

// APIError 服务端返回的业务错误，消息原样保留
type APIError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return e.Message
}

// envelope 标准响应格式
type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// 邀请码字符集与服务端签发规则一致
const codeCharset = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// ValidateFormat 本地格式校验，不发起网络请求
// 用于兑换页输入框的即时反馈
func ValidateFormat(code string) error {
	code = strings.TrimSpace(code)
	if code == "" {
		return fmt.Errorf("邀请码不能为空")
	}
	if len(code) < 6 || len(code) > 16 {
		return fmt.Errorf("邀请码长度不正确")
	}
	for _, ch := range code {
		if !strings.ContainsRune(codeCharset, ch) {
			return fmt.Errorf("邀请码包含无效字符: %c", ch)
		}
	}
	return nil
}

// ValidationResult 邀请码校验结果。
// 校验接口未登录即可调用，服务端只回物业ID，不含邀请详情
type ValidationResult struct {
	IsValid    bool   `json:"is_valid"`
	Message    string `json:"message"`
	PropertyID *uint  `json:"property_id,omitempty"`
}

// Validate 校验邀请码
// 先做本地格式校验，不合法时直接返回无效结果，不发起网络请求
func (c *Client) Validate(code string) (*ValidationResult, error) {
	if err := ValidateFormat(code); err != nil {
		return &ValidationResult{IsValid: false, Message: err.Error()}, nil
	}

	resp, err := c.do("GET", "/api/v1/invite-codes/"+strings.TrimSpace(code), nil)
	if err != nil {
		return nil, err
	}

	var result ValidationResult
	if err := json.Unmarshal(resp, &result); err != nil {
		return nil, fmt.Errorf("解析校验结果失败: %v", err)
	}
	return &result, nil
}

// Redeem 兑换邀请码，需要先SetToken
func (c *Client) Redeem(code string) (*InviteInfo, error) {
	if err := ValidateFormat(code); err != nil {
		return nil, err
	}
	if c.token == "" {
		return nil, fmt.Errorf("请先登录后兑换邀请码")
	}

	resp, err := c.do("POST", "/api/v1/invite-codes/"+strings.TrimSpace(code)+"/redeem", nil)
	if err != nil {
		return nil, err
	}

	var invite InviteInfo
	if err := json.Unmarshal(resp, &invite); err != nil {
		return nil, fmt.Errorf("解析邀请详情失败: %v", err)
	}
	return &invite, nil
}

// do 发送请求并解开标准响应格式
func (c *Client) do(method, endpoint string, body []byte) (json.RawMessage, error) {
	req, err := http.NewRequest(method, c.baseURL+endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("创建请求失败: %v", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("请求失败: %v", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("读取响应失败: %v", err)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("解析响应失败: %v, 原始响应: %s", err, string(raw))
	}

	// 业务码非200时透传服务端消息
	if env.Code != 200 {
		return nil, &APIError{Code: env.Code, Message: env.Message}
	}

	return env.Data, nil
}
