package protocol

// Leading tags selecting the feature handler of a new connection.
const (
	TagQuiz = "QUIZ"
	TagFile = "FILE"
	TagChat = "CHAT"
	TagUser = "USER"
)

// Chat and user commands.
const (
	CmdLogin    = "LOGIN"
	CmdGetUsers = "GET_USERS"
	CmdLogout   = "LOGOUT"
)

// Quiz commands.
const (
	CmdListQuizzes   = "LIST_QUIZZES"
	CmdGetQuiz       = "GET_QUIZ"
	CmdSubmitAnswers = "SUBMIT_ANSWERS"
)

// File commands.
const (
	CmdUpload   = "UPLOAD"
	CmdDownload = "DOWNLOAD"
	CmdList     = "LIST"
)

// Server frames on a logged in connection, and one-shot replies.
const (
	FrameUserList = "USER_LIST"
	FrameChat     = "CHAT_MSG"
	FrameSystem   = "SYSTEM_MSG"
	FramePrivate  = "PRIVATE_MSG"
	FrameHelp     = "HELP"
	FrameError    = "ERROR"

	ReplySuccess = "SUCCESS"
	ReplyError   = "ERROR"
)
