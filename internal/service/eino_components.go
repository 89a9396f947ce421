package service

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/openai"
	ecomodel "github.com/cloudwego/eino/components/model"

	"github.com/hanzhiyue/gemini-lens/internal/config"
)

// newChatModel 创建 ChatModel，返回模型实例与模型标识
// Gemini 走其 OpenAI 兼容端点，与纯 OpenAI 共用同一客户端
func newChatModel(ctx context.Context, cfg *config.Config) (ecomodel.BaseChatModel, string, error) {
	aiCfg := cfg.AI

	var apiKey, baseURL, modelName string

	switch aiCfg.Provider {
	case "gemini":
		apiKey = aiCfg.Gemini.APIKey
		baseURL = aiCfg.Gemini.BaseURL
		modelName = aiCfg.Gemini.Model
	case "openai":
		apiKey = aiCfg.OpenAI.APIKey
		baseURL = aiCfg.OpenAI.BaseURL
		modelName = aiCfg.OpenAI.Model
	default:
		return nil, "", fmt.Errorf("unsupported ai provider: %s", aiCfg.Provider)
	}

	if apiKey == "" {
		return nil, "", fmt.Errorf("api_key is required for provider: %s", aiCfg.Provider)
	}

	if modelName == "" {
		modelName = "gemini-3-flash-preview"
	}

	chatModel, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		APIKey:  apiKey,
		BaseURL: baseURL,
		Model:   modelName,
	})
	if err != nil {
		return nil, "", err
	}
	return chatModel, modelName, nil
}
