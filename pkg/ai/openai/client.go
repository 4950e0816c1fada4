package openai

import (
	"context"

	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"

	"lyric-relay/pkg/ai"
)

var _ ai.AiInterface = (*openAi)(nil)

type openAi struct {
	model  string
	client *openai.Client
	ctx    context.Context
}

func NewOpenAi(apiKey, modelName, baseURL string) *openAi {
	ctx := context.Background()
	if modelName == "" {
		modelName = openai.GPT4oMini
	}
	openai_config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		openai_config.BaseURL = baseURL
	}
	client := openai.NewClientWithConfig(openai_config)

	return &openAi{modelName, client, ctx}
}

func (o *openAi) Name() string {
	return "openai"
}

func (o *openAi) HandleText(msg string) (string, error) {
	resp, err := o.client.CreateChatCompletion(o.ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: msg,
			},
		},
		MaxTokens: 200,
	})
	if err != nil {
		log.Error().Err(err).Msg("could not get response from openai")
		return "", err
	}
	result := resp.Choices[0].Message.Content
	return result, nil
}
