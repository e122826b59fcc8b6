package domain

// Quiz is a multiple choice questionnaire served on the QUIZ tag.
type Quiz struct {
	ID        string     `json:"id" validate:"required"`
	Title     string     `json:"title" validate:"required"`
	Questions []Question `json:"questions" validate:"required,min=1,dive"`
}

type Question struct {
	Text          string   `json:"question" validate:"required"`
	Options       []string `json:"options" validate:"required,min=2"`
	CorrectAnswer int      `json:"correctAnswer" validate:"gte=0"`
}

// Score counts the answers matching the correct option, position by position.
// Extra answers, or missing ones, are ignored.
func (q Quiz) Score(answers []int32) int {
	score := 0
	for i := 0; i < len(answers) && i < len(q.Questions); i++ {
		if int(answers[i]) == q.Questions[i].CorrectAnswer {
			score++
		}
	}
	return score
}

// DefaultQuizzes is the catalogue seeded on a fresh store.
func DefaultQuizzes() []Quiz {
	return []Quiz{
		{
			ID:    "QUIZ001",
			Title: "General Knowledge Quiz",
			Questions: []Question{
				{Text: "What is the capital of France?", Options: []string{"London", "Paris", "Berlin", "Madrid"}, CorrectAnswer: 1},
				{Text: "Which programming language runs on the JVM?", Options: []string{"Python", "Java", "C++", "JavaScript"}, CorrectAnswer: 1},
				{Text: "What does TCP stand for?", Options: []string{"Transfer Control Protocol", "Transmission Control Protocol", "Transport Communication Protocol", "Technical Control Protocol"}, CorrectAnswer: 1},
			},
		},
		{
			ID:    "QUIZ002",
			Title: "Basic Quiz",
			Questions: []Question{
				{Text: "What is 2 + 2?", Options: []string{"3", "4", "5", "6"}, CorrectAnswer: 1},
				{Text: "What is the largest planet in our solar system?", Options: []string{"Mars", "Jupiter", "Saturn", "Neptune"}, CorrectAnswer: 1},
				{Text: "Who wrote Romeo and Juliet?", Options: []string{"Charles Dickens", "William Shakespeare", "Jane Austen", "Mark Twain"}, CorrectAnswer: 1},
			},
		},
	}
}
