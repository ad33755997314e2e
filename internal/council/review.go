package council

import "strings"

// ParsePeerReview extracts the strict SCORE/REASONING/STRENGTHS/WEAKNESSES
// format from a reviewer's raw response text. Unparseable fields default to
// score=5, empty reasoning, empty lists. Score is clamped to [1,10].
func ParsePeerReview(text string) PeerReview {
	review := PeerReview{Score: 5}

	lines := strings.Split(text, "\n")
	section := ""
	for _, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		switch {
		case strings.HasPrefix(strings.ToUpper(line), "SCORE:"):
			section = ""
			val := strings.TrimSpace(line[len("SCORE:"):])
			if n, ok := parseClampedScore(val); ok {
				review.Score = n
			}
		case strings.HasPrefix(strings.ToUpper(line), "REASONING:"):
			section = ""
			review.Reasoning = strings.TrimSpace(line[len("REASONING:"):])
		case strings.EqualFold(line, "STRENGTHS:"):
			section = "strengths"
		case strings.EqualFold(line, "WEAKNESSES:"):
			section = "weaknesses"
		case strings.HasPrefix(line, "-"):
			item := strings.TrimSpace(strings.TrimPrefix(line, "-"))
			if item == "" {
				continue
			}
			switch section {
			case "strengths":
				review.Strengths = append(review.Strengths, item)
			case "weaknesses":
				review.Weaknesses = append(review.Weaknesses, item)
			}
		}
	}

	return review
}

func parseClampedScore(s string) (int, bool) {
	n := 0
	found := false
	for _, c := range s {
		if c >= '0' && c <= '9' {
			n = n*10 + int(c-'0')
			found = true
			continue
		}
		if found {
			break
		}
	}
	if !found {
		return 0, false
	}
	if n < 1 {
		n = 1
	}
	if n > 10 {
		n = 10
	}
	return n, true
}
