package services

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Output budgets per generation kind.
const (
	innerChildMaxTokens = 2000
	scriptMaxTokens     = 4000
	enhanceMaxTokens    = 3000
	journalMaxTokens    = 1500
)

// rawJSON embeds client-supplied JSON exactly as received; absent becomes null.
func rawJSON(raw json.RawMessage) string {
	if len(strings.TrimSpace(string(raw))) == 0 {
		return "null"
	}
	return string(raw)
}

func innerChildPrompt(age int, memories []string, characteristics json.RawMessage) string {
	mem, err := json.Marshal(memories)
	if err != nil {
		mem = []byte("[]")
	}
	return fmt.Sprintf(`Based on these childhood memories and characteristics, create a detailed inner child avatar profile:

Age: %d
Memories: %s
Characteristics: %s

Create a therapeutic inner child profile including:
1. Visual description for avatar generation
2. Emotional patterns
3. Core wounds and needs
4. Healing affirmations
5. Therapeutic approach recommendations

Format as JSON.`, age, mem, rawJSON(characteristics))
}

func scriptPrompt(patientProfile, innerChildData, therapeuticGoals json.RawMessage) string {
	return fmt.Sprintf(`You are an expert hypnotherapist creating a deeply transformative session script. Create a hypnotherapy session that is emotionally powerful and designed to facilitate breakthrough moments.

Patient Profile: %s
Inner Child Data: %s
Therapeutic Goals: %s

Create a complete hypnotherapy script with:
1. Induction (progressive relaxation)
2. Deepening techniques
3. Inner child visualization and dialogue
4. Memory reprocessing and healing
5. Positive suggestions and affirmations
6. Gradual emergence

The script should be emotionally evocative, use vivid sensory language, and facilitate deep emotional release. Include pauses marked as [PAUSE - 5s], [PAUSE - 10s] etc.`,
		rawJSON(patientProfile), rawJSON(innerChildData), rawJSON(therapeuticGoals))
}

func enhancePrompt(script, therapistFeedback, patientResponse string) string {
	return fmt.Sprintf(`Enhance this hypnotherapy script based on feedback:

Original Script: %s

Therapist Feedback: %s
Patient Response: %s

Provide an enhanced version that:
1. Incorporates therapist insights
2. Addresses patient's specific emotional responses
3. Strengthens the most impactful moments
4. Adjusts pacing based on feedback
5. Deepens the therapeutic techniques

Return the enhanced script.`, script, therapistFeedback, patientResponse)
}

func journalPrompt(entry string) string {
	return fmt.Sprintf(`Analyze this therapeutic journal entry and provide compassionate insights:

Entry: %s

Provide:
1. Emotional themes identified
2. Progress indicators
3. Gentle reflections
4. Suggested areas for next session
5. Affirmations based on the entry

Be warm, validating, and therapeutically supportive.`, entry)
}
