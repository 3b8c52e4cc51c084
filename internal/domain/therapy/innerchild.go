package therapy

import (
	"encoding/json"
	"time"
)

type InnerChildProfile struct {
	ID                 string          `json:"id"`
	UserID             string          `json:"userId"`
	Age                int             `json:"age"`
	Memories           []string        `json:"memories"`
	Characteristics    json.RawMessage `json:"characteristics"`
	AIGeneratedProfile string          `json:"aiGeneratedProfile"`
	CreatedAt          time.Time       `json:"createdAt"`
}
