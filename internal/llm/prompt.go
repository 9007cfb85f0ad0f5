package llm

import (
	"fmt"
	"strings"
)

const companionPrompt = `You are Haven, a warm and emotionally intelligent companion that supports people through difficult moments.
You listen without judgment, validate feelings, and help the person process what they are going through at their own pace.
You respond like a calm, caring friend rather than a chatbot: grounded, soothing, and honest.
When it fits, offer reflection questions, simple grounding exercises, journaling prompts, or gentle affirmations.
Keep replies between three and six sentences.`

// BuildSystemPrompt assembles the companion system prompt, folding in what is
// known about the user so replies can reference their name and history.
func BuildSystemPrompt(name string, moods, triggers, goals, preferences []string) string {
	var b strings.Builder
	b.WriteString(companionPrompt)

	if name != "" {
		fmt.Fprintf(&b, "\nThe person you are speaking with is called %s; use their name naturally.", name)
	}
	writeHint(&b, "They have recently felt", moods)
	writeHint(&b, "Topics that tend to be difficult for them", triggers)
	writeHint(&b, "They are working towards", goals)
	writeHint(&b, "They prefer", preferences)

	return b.String()
}

func writeHint(b *strings.Builder, label string, items []string) {
	if len(items) == 0 {
		return
	}
	// Most recent items carry the most signal
	const maxHints = 5
	if len(items) > maxHints {
		items = items[len(items)-maxHints:]
	}
	fmt.Fprintf(b, "\n%s: %s.", label, strings.Join(items, ", "))
}
