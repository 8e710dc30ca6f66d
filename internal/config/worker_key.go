package config

type WorkerKeyStruct struct {
	JournalAnswersQueue string
}

var WorkerKey = &WorkerKeyStruct{
	JournalAnswersQueue: "journal_answers_queue",
}
