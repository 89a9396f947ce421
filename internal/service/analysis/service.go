// Package analysis 调用托管大模型为文件生成结构化分析结果
package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/kaptinlin/jsonrepair"

	"github.com/hanzhiyue/gemini-lens/internal/apperr"
	"github.com/hanzhiyue/gemini-lens/internal/model"
)

const promptTemplate = `Analyze this %s. Determine if it's high quality or important. Suggest a beautiful title.
Respond with a single JSON object containing exactly these fields:
"summary" (string), "tags" (array of strings), "suggestedName" (string, a creative and relevant title),
"detectedObjects" (array of strings), "visualDescription" (string),
"shouldBookmark" (boolean, whether this photo is high quality, visually striking, or personally significant enough to be automatically bookmarked).`

// Service 分析客户端
type Service struct {
	chatModel einomodel.BaseChatModel
	modelName string
	now       func() time.Time
}

// NewService 创建分析客户端
func NewService(chatModel einomodel.BaseChatModel, modelName string) *Service {
	return &Service{
		chatModel: chatModel,
		modelName: modelName,
		now:       time.Now,
	}
}

// analysisPayload 模型响应的严格解码形态，指针字段用于检测缺失
type analysisPayload struct {
	Summary           *string   `json:"summary"`
	Tags              *[]string `json:"tags"`
	SuggestedName     *string   `json:"suggestedName"`
	DetectedObjects   *[]string `json:"detectedObjects"`
	VisualDescription *string   `json:"visualDescription"`
	ShouldBookmark    *bool     `json:"shouldBookmark"`
}

// Analyze 发送文件内容与指令给模型，返回完整的分析结果
// 要么返回全部字段齐备的结果，要么返回错误，不产生部分填充的记录
func (s *Service) Analyze(ctx context.Context, file *model.File, encoded string) (*model.FileAnalysis, error) {
	message := &schema.Message{
		Role: schema.User,
		MultiContent: []schema.ChatMessagePart{
			{
				Type: schema.ChatMessagePartTypeImageURL,
				ImageURL: &schema.ChatMessageImageURL{
					URL:      fmt.Sprintf("data:%s;base64,%s", file.MIMEType, encoded),
					MIMEType: file.MIMEType,
				},
			},
			{
				Type: schema.ChatMessagePartTypeText,
				Text: fmt.Sprintf(promptTemplate, file.Type),
			},
		},
	}

	resp, err := s.chatModel.Generate(ctx, []*schema.Message{message})
	if err != nil {
		return nil, apperr.Network("failed to reach analysis model", err)
	}

	payload, err := decodeStrict(resp.Content)
	if err != nil {
		return nil, err
	}

	return &model.FileAnalysis{
		Summary:           *payload.Summary,
		Tags:              *payload.Tags,
		SuggestedName:     *payload.SuggestedName,
		DetectedObjects:   *payload.DetectedObjects,
		VisualDescription: *payload.VisualDescription,
		ShouldBookmark:    *payload.ShouldBookmark,
		AIModelUsed:       s.modelName,
		Timestamp:         s.now().UnixMilli(),
	}, nil
}

// decodeStrict 修复并严格解码模型输出，任何字段缺失都视为硬失败
func decodeStrict(content string) (*analysisPayload, error) {
	repaired := repairJSON(content)

	var payload analysisPayload
	if err := json.Unmarshal([]byte(repaired), &payload); err != nil {
		return nil, apperr.GeminiAPI("malformed analysis response", 0, err)
	}

	missing := missingFields(&payload)
	if len(missing) > 0 {
		return nil, apperr.GeminiAPI(
			fmt.Sprintf("analysis response missing fields: %s", strings.Join(missing, ", ")), 0, nil)
	}
	return &payload, nil
}

func missingFields(p *analysisPayload) []string {
	var missing []string
	if p.Summary == nil {
		missing = append(missing, "summary")
	}
	if p.Tags == nil {
		missing = append(missing, "tags")
	}
	if p.SuggestedName == nil {
		missing = append(missing, "suggestedName")
	}
	if p.DetectedObjects == nil {
		missing = append(missing, "detectedObjects")
	}
	if p.VisualDescription == nil {
		missing = append(missing, "visualDescription")
	}
	if p.ShouldBookmark == nil {
		missing = append(missing, "shouldBookmark")
	}
	return missing
}

// repairJSON 修复 JSON 字符串
// 策略：先尝试快速路径（有效 JSON 直接返回），再尝试修复
func repairJSON(input string) string {
	s := strings.TrimSpace(input)

	// 快速路径：已经是有效的 JSON 对象
	if strings.HasPrefix(s, "{") && strings.HasSuffix(s, "}") && json.Valid([]byte(s)) {
		return s
	}

	// 尝试提取 JSON 对象区域
	i := strings.IndexByte(s, '{')
	j := strings.LastIndexByte(s, '}')
	if i >= 0 && j >= i {
		sub := s[i : j+1]
		if json.Valid([]byte(sub)) {
			return sub
		}
		s = sub
	}

	// 移除常见的 LLM 生成伪影
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")

	if json.Valid([]byte(s)) {
		return s
	}

	// 使用 jsonrepair 进行强力修复
	out, err := jsonrepair.JSONRepair(s)
	if err != nil {
		return s // 修复失败，返回原值
	}
	return out
}
