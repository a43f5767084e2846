package session

import (
	"fmt"

	"github.com/zhouzirui/faq-assistant/internal/model/chat"
)

const (
	SessionStartedText = "Session started! You can now ask continuous questions, and I will remember our conversation. When you finish all your questions, please click \"End Chat\" for overall evaluation."
	FallbackText       = "Sorry, the AI service is temporarily unavailable. Please try again later or contact support."
	ClosingText        = "Thank you for your feedback! Session ended. You can start a new conversation."
)

// GreetingText is the first transcript line for username.
func GreetingText(username string) string {
	if username == "" {
		return "Hello! I am your AI assistant. How can I help you today?"
	}
	return fmt.Sprintf("Hello %s! I am your AI assistant. How can I help you today?", username)
}

func botMessage(text, sessionID string) chat.Message {
	return chat.Message{Role: chat.RoleBot, Text: text, SessionID: sessionID}
}

func replyMessage(resp *chat.ChatResponse, sessionID string, exchange uint64) chat.Message {
	return chat.Message{
		Role:            chat.RoleBot,
		Text:            resp.Answer,
		Confidence:      resp.Confidence,
		Source:          resp.Source,
		Similarity:      resp.Similarity,
		RequiresHuman:   resp.RequiresHuman,
		EmotionAnalysis: resp.EmotionAnalysis,
		SessionID:       sessionID,
		Exchange:        exchange,
	}
}

func fallbackMessage(sessionID string, exchange uint64) chat.Message {
	return chat.Message{
		Role:      chat.RoleBot,
		Text:      FallbackText,
		Source:    chat.SourceError,
		SessionID: sessionID,
		Exchange:  exchange,
	}
}
