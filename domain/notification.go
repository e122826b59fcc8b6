package domain

import "fmt"

// Notification is one line relayed over the UDP announcement feed.
type Notification string

func SystemNotice(text string) Notification {
	return Notification("SYSTEM:" + text)
}

func JoinedNotice(username string) Notification {
	return SystemNotice(username + " joined the chat")
}

func LeftNotice(username string) Notification {
	return SystemNotice(username + " left the chat")
}

func NewFileNotice(name, uploader string) Notification {
	return Notification(fmt.Sprintf("NEW_FILE:%s uploaded by %s", name, uploader))
}

func ScoreNotice(username, quizTitle string, score, total int) Notification {
	return Notification(fmt.Sprintf("QUIZ:%s scored %d/%d on %s", username, score, total, quizTitle))
}

func (n Notification) String() string {
	return string(n)
}
