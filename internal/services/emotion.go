package services

import (
	"context"

	"github.com/desertthunder/anima/internal/models"
)

// EmotionService wraps the emotion-analysis endpoint: upload a photo, get
// back detected emotions and playlist recommendations.
type EmotionService struct {
	client *Client
}

// NewEmotionService creates an emotion service over the given client.
func NewEmotionService(client *Client) *EmotionService {
	return &EmotionService{client: client}
}

// Analyze uploads the image at imagePath for emotion detection.
func (s *EmotionService) Analyze(ctx context.Context, imagePath string) Result[models.AnalysisResult] {
	var result models.AnalysisResult
	if err := s.client.PostFile(ctx, "/api/emotions/analyze", "file", imagePath, &result); err != nil {
		return failFrom[models.AnalysisResult](err, "could not analyze the image, please try again")
	}
	return Ok(result)
}

var emotionLabels = map[string]string{
	"HAPPY":     "Happy",
	"SAD":       "Sad",
	"ANGRY":     "Angry",
	"CALM":      "Calm",
	"SURPRISED": "Surprised",
	"CONFUSED":  "Confused",
	"DISGUSTED": "Disgusted",
	"FEAR":      "Afraid",
}

var emotionEmoji = map[string]string{
	"HAPPY":     "😊",
	"SAD":       "😢",
	"ANGRY":     "😠",
	"CALM":      "😌",
	"SURPRISED": "😮",
	"CONFUSED":  "😕",
	"DISGUSTED": "🤢",
	"FEAR":      "😨",
}

// Label returns a human-readable name for a detected emotion, or the raw
// value when unknown.
func Label(emotion string) string {
	if label, ok := emotionLabels[emotion]; ok {
		return label
	}
	return emotion
}

// Emoji returns an emoji for a detected emotion, with a neutral default.
func Emoji(emotion string) string {
	if emoji, ok := emotionEmoji[emotion]; ok {
		return emoji
	}
	return "😐"
}
