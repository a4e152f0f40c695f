package transcriptprovider

// Segment — один фрагмент субтитров в исходном порядке.
type Segment struct {
	Text    string // Текст фрагмента
	StartMs int64  // Смещение от начала видео в миллисекундах
}

// captionTrack — описание дорожки субтитров со страницы просмотра.
type captionTrack struct {
	BaseURL      string `json:"baseUrl"`
	LanguageCode string `json:"languageCode"`
	Kind         string `json:"kind"` // "asr" для автоматически сгенерированных
}

// json3Response — ответ эндпоинта субтитров в формате fmt=json3.
type json3Response struct {
	Events []json3Event `json:"events"`
}

type json3Event struct {
	TStartMs int64      `json:"tStartMs"`
	Segs     []json3Seg `json:"segs"`
}

type json3Seg struct {
	UTF8 string `json:"utf8"`
}
