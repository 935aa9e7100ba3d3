package chart

// PluralizeVotes возвращает правильное склонение слова "голос"
func PluralizeVotes(count int) string {
	if count%10 == 1 && count%100 != 11 {
		return "голос"
	}
	if count%10 >= 2 && count%10 <= 4 && (count%100 < 10 || count%100 >= 20) {
		return "голоса"
	}
	return "голосов"
}
