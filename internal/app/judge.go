package app

import "strings"

// answerKeyPrefixLen is how much of the normalized answer key must appear in a submission.
const answerKeyPrefixLen = 20

// Verdict is the outcome of judging one answer.
type Verdict struct {
	Correct bool
	Points  int
}

// Judge decides whether answer matches answerKey. Both sides are lower-cased and the
// answer is correct when it contains the first 20 characters of the key (the whole key
// when shorter). The match is lenient on purpose: extra surrounding text is accepted,
// and so is a submission that is only the prefix itself.
func Judge(answerKey, answer string, points int) Verdict {
	target := []rune(strings.ToLower(answerKey))
	if len(target) > answerKeyPrefixLen {
		target = target[:answerKeyPrefixLen]
	}
	if !strings.Contains(strings.ToLower(answer), string(target)) {
		return Verdict{}
	}
	return Verdict{Correct: true, Points: points}
}
