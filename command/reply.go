package command

import "strings"

// Words that could plausibly answer a free-text field ("right", "good",
// "save") stay out of the affirmative set.
var affirmative = setOf(
	"yes", "y", "yeah", "yep", "yup", "ok", "okay", "sure",
	"confirm", "confirmed", "correct", "that's right", "thats right",
	"sounds good", "looks good", "looks right", "yes please",
)

var negative = setOf(
	"no", "n", "nope", "nah", "reject", "wrong", "incorrect",
	"not right", "that's wrong", "thats wrong", "no thanks", "discard", "cancel",
)

func setOf(words ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}

// ClassifyReply matches the whole utterance against fixed affirmative and
// negative sets. Anything else, including "yes but ...", is ReplyOther.
func ClassifyReply(input string) Reply {
	s := strings.ToLower(normalizeSpace(input))
	s = strings.TrimRight(s, ".!")
	if _, ok := affirmative[s]; ok {
		return ReplyAffirmative
	}
	if _, ok := negative[s]; ok {
		return ReplyNegative
	}
	return ReplyOther
}
