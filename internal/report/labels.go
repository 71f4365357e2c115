package report

// Labels holds every fixed phrase the report prints. Values are inserted
// verbatim, so they may carry markup but must not carry user input.
type Labels struct {
	Title       string
	Student     string
	Teacher     string
	Unit        string
	Topics      string
	CompletedAt string

	SummaryHeading string
	Score          string
	Correct        string
	Duration       string
	Hints          string
	Combo          string
	TimeBonus      string
	Rating         string

	IncorrectHeading  string
	AllCorrectHeading string
	Question          string
	StatusCorrect     string
	StatusIncorrect   string
	UserAnswer        string
	CorrectAnswer     string
	NoAnswer          string
	Omitted           string
	NotProvided       string

	Footer string

	PointUnit  string
	TimesUnit  string
	MinuteUnit string
	SecondUnit string
}

// DefaultLabels returns the Vietnamese labels used by the quiz pages.
func DefaultLabels() Labels {
	return Labels{
		Title:       "📊 BÁO CÁO KẾT QUẢ HỌC TẬP",
		Student:     "👨‍🎓 Học sinh:",
		Teacher:     "👩‍🏫 Giáo viên:",
		Unit:        "📚 Bài học:",
		Topics:      "📖 Chủ đề:",
		CompletedAt: "🕐 Thời gian hoàn thành:",

		SummaryHeading: "⭐ BẢNG ĐIỂM TỔNG KẾT",
		Score:          "🎯 Tổng điểm:",
		Correct:        "✅ Số câu đúng:",
		Duration:       "⏱️ Thời gian:",
		Hints:          "💡 Gợi ý sử dụng:",
		Combo:          "🔥 Điểm combo:",
		TimeBonus:      "⚡ Điểm thời gian:",
		Rating:         "⭐ Xếp hạng:",

		IncorrectHeading:  "❌ CÁC CÂU TRẢ LỜI SAI",
		AllCorrectHeading: "🎉 TẤT CẢ CÂU TRẢ LỜI ĐỀU ĐÚNG",
		Question:          "Câu",
		StatusCorrect:     "ĐÚNG",
		StatusIncorrect:   "SAI",
		UserAnswer:        "📤 Câu trả lời:",
		CorrectAnswer:     "✓ Đáp án đúng:",
		NoAnswer:          "(không trả lời)",
		Omitted:           "Số câu không hiển thị:",
		NotProvided:       "(không có)",

		Footer: "🤖 Báo cáo tự động từ hệ thống English Grammar Games",

		PointUnit:  "điểm",
		TimesUnit:  "lần",
		MinuteUnit: "phút",
		SecondUnit: "giây",
	}
}
