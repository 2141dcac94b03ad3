package index

type Result struct {
	Position int
	Text     string
	Score    float32
}

func Texts(results []Result) []string {
	texts := make([]string, 0, len(results))
	for _, r := range results {
		texts = append(texts, r.Text)
	}
	return texts
}
