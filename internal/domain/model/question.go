package model

type QuestionLevel string

const (
	LevelEasy   QuestionLevel = "easy"
	LevelMedium QuestionLevel = "medium"
	LevelHard   QuestionLevel = "hard"
)

type Question struct {
	ID              string        `json:"_id"`
	Title           string        `json:"title"`
	TitleSlug       string        `json:"title_slug"`
	Level           QuestionLevel `json:"level"`
	Content         string        `json:"content"` // HTML
	CodeSnippets    []CodeSnippet `json:"code_snippets"`
	TestCases       []TestCase    `json:"test_cases"`
	Topics          []string      `json:"topics"`
	Companies       []string      `json:"companies"`
	Likes           int           `json:"likes"`
	Dislikes        int           `json:"dislikes"`
	Hints           []string      `json:"hints"`
	AcceptanceRate  float64       `json:"acceptance_rate"`
	TimeComplexity  string        `json:"time_complexity"`
	SpaceComplexity string        `json:"space_complexity"`
}

type CodeSnippet struct {
	Lang     string `json:"lang"`
	LangSlug string `json:"langSlug"`
	Code     string `json:"code"`
}

// TestCase is a public example shown with the question.
type TestCase struct {
	Input          string `json:"input"`
	ExpectedOutput string `json:"expectedOutput"`
}

// Snippet returns the starter code for a language slug, if the question has one.
func (q *Question) Snippet(langSlug string) (CodeSnippet, bool) {
	for _, s := range q.CodeSnippets {
		if s.LangSlug == langSlug {
			return s, true
		}
	}
	return CodeSnippet{}, false
}
