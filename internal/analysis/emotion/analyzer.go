package emotion

import (
	"sort"
	"strings"
	"unicode"
)

// Label 表示问题中识别出的情绪标签。
type Label string

const (
	Neutral    Label = "neutral"
	Frustrated Label = "frustrated"
	Angry      Label = "angry"
	Confused   Label = "confused"
	Anxious    Label = "anxious"
	Urgent     Label = "urgent"
	Grateful   Label = "grateful"
	Happy      Label = "happy"
)

// Result 给出情绪识别结果。Emotions 按得分从高到低排列。
type Result struct {
	Emotions []Label
	Primary  Label
	Score    int
}

// Strings returns the labels as plain strings for the wire format.
func (r Result) Strings() []string {
	out := make([]string, 0, len(r.Emotions))
	for _, label := range r.Emotions {
		out = append(out, string(label))
	}
	return out
}

// Negative reports whether the dominant tone calls for a human follow-up.
func (r Result) Negative() bool {
	switch r.Primary {
	case Angry, Frustrated:
		return r.Score >= escalationScore
	default:
		return false
	}
}

const (
	keywordScore    = 3
	minLabelScore   = 3
	escalationScore = 6
)

var keywordBuckets = map[Label][]string{
	Frustrated: {
		"again", "still not", "still doesn't", "doesn't work", "does not work", "not working", "broken",
		"keeps", "every time", "useless", "annoying", "fed up", "tired of", "waste", "ridiculous", "stuck",
	},
	Angry: {
		"angry", "furious", "mad", "outrage", "unacceptable", "terrible", "worst", "hate", "pissed",
		"disgusting", "complain", "complaint",
	},
	Confused: {
		"confused", "don't understand", "do not understand", "not sure", "unclear", "what does", "how come",
		"why does", "why is", "lost", "which one", "no idea",
	},
	Anxious: {
		"worried", "afraid", "scared", "nervous", "panic", "lost my", "locked out", "hacked", "deadline",
		"will i lose", "concerned",
	},
	Urgent: {
		"urgent", "asap", "immediately", "right now", "emergency", "critical", "blocked", "is down", "outage",
		"as soon as possible",
	},
	Grateful: {
		"thanks", "thank you", "appreciate", "grateful", "helpful", "cheers",
	},
	Happy: {
		"great", "awesome", "perfect", "love", "amazing", "works now", "solved", "excellent", "nice",
	},
}

var punctuationBoost = map[Label]int{
	Urgent:   2,
	Confused: 2,
}

// Analyze 根据用户问题推断情绪标签。
func Analyze(text string) Result {
	scores := scoreText(text)

	labels := make([]Label, 0, len(scores))
	for label, s := range scores {
		if s >= minLabelScore {
			labels = append(labels, label)
		}
	}
	if len(labels) == 0 {
		return Result{Primary: Neutral}
	}

	sort.Slice(labels, func(i, j int) bool {
		if scores[labels[i]] != scores[labels[j]] {
			return scores[labels[i]] > scores[labels[j]]
		}
		return labels[i] < labels[j]
	})

	return Result{Emotions: labels, Primary: labels[0], Score: scores[labels[0]]}
}

func scoreText(text string) map[Label]int {
	normalized := normalize(text)
	scores := make(map[Label]int)
	if strings.TrimSpace(normalized) == "" {
		return scores
	}

	for label, keywords := range keywordBuckets {
		for _, word := range keywords {
			if strings.Contains(normalized, " "+word+" ") {
				scores[label] += keywordScore
			}
		}
	}

	// 连续感叹号视为急迫，多个问号视为困惑。
	if exclamations := strings.Count(text, "!"); exclamations > 1 {
		scores[Urgent] += exclamations * punctuationBoost[Urgent]
		if scores[Angry] > 0 || scores[Frustrated] > 0 {
			scores[Frustrated] += keywordScore
		}
	}
	if questions := strings.Count(text, "?"); questions > 1 {
		scores[Confused] += questions * punctuationBoost[Confused]
	}

	if upper := shoutedWords(text); upper >= 2 {
		scores[Angry] += upper * 2
	}

	return scores
}

// shoutedWords counts all-caps words of three letters or more.
func shoutedWords(text string) int {
	count := 0
	for _, word := range strings.Fields(text) {
		letters := 0
		upper := true
		for _, r := range word {
			if r >= 'a' && r <= 'z' {
				upper = false
				break
			}
			if r >= 'A' && r <= 'Z' {
				letters++
			}
		}
		if upper && letters >= 3 {
			count++
		}
	}
	return count
}

// normalize lowercases text and keeps only word characters, padded with
// spaces so keywords match on word boundaries.
func normalize(text string) string {
	var b strings.Builder
	b.WriteByte(' ')
	space := true
	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '\'' {
			b.WriteRune(r)
			space = false
			continue
		}
		if !space {
			b.WriteByte(' ')
			space = true
		}
	}
	if !space {
		b.WriteByte(' ')
	}
	return b.String()
}
