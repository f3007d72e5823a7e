package nav

// messages holds the per-locale string catalog. Keys missing from a locale
// fall back to English, so partial translations degrade gracefully instead
// of breaking the flow.
var messages = map[string]map[string]string{
	"en": {
		"choose_language":     "👋 Hi %s! Welcome to CineSeek.\n\nPick your language:",
		"language_set":        "Language set. What are you in the mood for?",
		"main_menu":           "🎬 Type a movie or series name to search, or browse below.",
		"trending":            "🔥 Trending",
		"results_header":      "Here's what I found for <b>%s</b>:",
		"no_results":          "😕 Nothing matched <b>%s</b>. Try another spelling, or describe the plot with /ai.",
		"ai_suggestion":       "🤖 Did you mean <b>%s</b>?",
		"ai_no_match":         "🤖 My best guess is <b>%s</b>, but the catalogs have nothing under that name.",
		"ai_usage":            "Describe the movie or show after the command, e.g.\n<code>/ai the one where a fish looks for his son</code>",
		"quota_exhausted":     "🚦 You've used all %d AI lookups for today. Plain title search still works!",
		"pick_season":         "📺 <b>%s</b> — pick a season:",
		"pick_episode":        "Season %d — pick an episode:",
		"preparing":           "⏳ Preparing your links, about %d seconds...",
		"still_preparing":     "⏳ Almost there, hang on...",
		"content_unavailable": "🚫 That title is no longer available.",
		"bad_token":           "That button has expired. Send the title again to start over.",
		"watch":               "▶️ Watch",
		"download":            "⬇️ Download",
		"other_servers":       "🔁 Other servers",
		"servers_header":      "Pick a server for <b>%s</b>:",
		"episode_tag":         "S%02dE%02d",
		"unlock":              "🔓 Get links",
	},
	"si": {
		"choose_language":     "👋 ආයුබෝවන් %s! CineSeek වෙත සාදරයෙන් පිළිගනිමු.\n\nඔබේ භාෂාව තෝරන්න:",
		"language_set":        "භාෂාව සකසා ඇත. මොනවද බලන්න ඕන?",
		"main_menu":           "🎬 චිත්‍රපටයක හෝ කතා මාලාවක නමක් ටයිප් කරන්න, නැතිනම් පහතින් තෝරන්න.",
		"trending":            "🔥 ජනප්‍රිය",
		"results_header":      "<b>%s</b> සඳහා හමු වූ ප්‍රතිඵල:",
		"no_results":          "😕 <b>%s</b> සඳහා කිසිවක් හමු නොවීය. වෙනත් අකුරු වින්‍යාසයක් උත්සාහ කරන්න, නැතිනම් /ai සමඟ කතාව විස්තර කරන්න.",
		"ai_suggestion":       "🤖 ඔබ අදහස් කළේ <b>%s</b> ද?",
		"quota_exhausted":     "🚦 අද දිනට AI සෙවුම් %dම භාවිතා කර ඇත. සාමාන්‍ය නම් සෙවුම තවමත් ක්‍රියාත්මකයි!",
		"pick_season":         "📺 <b>%s</b> — කන්නයක් තෝරන්න:",
		"pick_episode":        "කන්නය %d — කථාංගයක් තෝරන්න:",
		"preparing":           "⏳ ඔබේ සබැඳි සූදානම් වෙමින්, තත්පර %dක් පමණ...",
		"still_preparing":     "⏳ තව ටිකයි, රැඳී සිටින්න...",
		"content_unavailable": "🚫 එම නිර්මාණය තවදුරටත් නොමැත.",
		"bad_token":           "එම බොත්තම කල් ඉකුත් වී ඇත. නැවත නම යවන්න.",
		"watch":               "▶️ නරඹන්න",
		"download":            "⬇️ බාගන්න",
		"other_servers":       "🔁 වෙනත් සේවාදායක",
		"servers_header":      "<b>%s</b> සඳහා සේවාදායකයක් තෝරන්න:",
		"unlock":              "🔓 සබැඳි ලබාගන්න",
	},
	"ta": {
		"choose_language":     "👋 வணக்கம் %s! CineSeek-க்கு வரவேற்கிறோம்.\n\nஉங்கள் மொழியைத் தேர்ந்தெடுக்கவும்:",
		"language_set":        "மொழி அமைக்கப்பட்டது. என்ன பார்க்க விரும்புகிறீர்கள்?",
		"main_menu":           "🎬 திரைப்படம் அல்லது தொடரின் பெயரை உள்ளிடவும், அல்லது கீழே உலாவவும்.",
		"trending":            "🔥 பிரபலமானவை",
		"results_header":      "<b>%s</b> க்கான முடிவுகள்:",
		"no_results":          "😕 <b>%s</b> க்கு எதுவும் கிடைக்கவில்லை. வேறு எழுத்துப்பிழையை முயற்சிக்கவும், அல்லது /ai மூலம் கதையை விவரிக்கவும்.",
		"ai_suggestion":       "🤖 நீங்கள் குறிப்பிட்டது <b>%s</b> தானா?",
		"quota_exhausted":     "🚦 இன்றைய %d AI தேடல்களும் முடிந்துவிட்டன. சாதாரண பெயர் தேடல் இன்னும் வேலை செய்கிறது!",
		"pick_season":         "📺 <b>%s</b> — ஒரு சீசனைத் தேர்ந்தெடுக்கவும்:",
		"pick_episode":        "சீசன் %d — ஒரு எபிசோடைத் தேர்ந்தெடுக்கவும்:",
		"preparing":           "⏳ உங்கள் இணைப்புகள் தயாராகின்றன, சுமார் %d விநாடிகள்...",
		"still_preparing":     "⏳ கிட்டத்தட்ட முடிந்தது, காத்திருக்கவும்...",
		"content_unavailable": "🚫 அந்த தலைப்பு இனி கிடைக்காது.",
		"bad_token":           "அந்த பொத்தான் காலாவதியாகிவிட்டது. பெயரை மீண்டும் அனுப்பவும்.",
		"watch":               "▶️ பார்க்க",
		"download":            "⬇️ பதிவிறக்க",
		"other_servers":       "🔁 மற்ற சேவையகங்கள்",
		"servers_header":      "<b>%s</b> க்கான சேவையகத்தைத் தேர்ந்தெடுக்கவும்:",
		"unlock":              "🔓 இணைப்புகளைப் பெற",
	},
	"hi": {
		"choose_language":     "👋 नमस्ते %s! CineSeek में आपका स्वागत है।\n\nअपनी भाषा चुनें:",
		"language_set":        "भाषा सेट हो गई। क्या देखना चाहेंगे?",
		"main_menu":           "🎬 किसी फ़िल्म या सीरीज़ का नाम लिखें, या नीचे ब्राउज़ करें।",
		"trending":            "🔥 ट्रेंडिंग",
		"results_header":      "<b>%s</b> के लिए ये मिला:",
		"no_results":          "😕 <b>%s</b> के लिए कुछ नहीं मिला। दूसरी स्पेलिंग आज़माएँ, या /ai से कहानी बताएँ।",
		"ai_suggestion":       "🤖 क्या आपका मतलब <b>%s</b> था?",
		"quota_exhausted":     "🚦 आज की सभी %d AI खोजें इस्तेमाल हो चुकी हैं। नाम से खोज अभी भी काम करती है!",
		"pick_season":         "📺 <b>%s</b> — सीज़न चुनें:",
		"pick_episode":        "सीज़न %d — एपिसोड चुनें:",
		"preparing":           "⏳ आपके लिंक तैयार हो रहे हैं, लगभग %d सेकंड...",
		"still_preparing":     "⏳ बस थोड़ा और, रुकिए...",
		"content_unavailable": "🚫 वह टाइटल अब उपलब्ध नहीं है।",
		"bad_token":           "वह बटन एक्सपायर हो गया है। नाम दोबारा भेजें।",
		"watch":               "▶️ देखें",
		"download":            "⬇️ डाउनलोड",
		"other_servers":       "🔁 अन्य सर्वर",
		"servers_header":      "<b>%s</b> के लिए सर्वर चुनें:",
		"unlock":              "🔓 लिंक पाएँ",
	},
}

// languageNames are the labels on the language picker, always shown in the
// language itself.
var languageNames = map[string]string{
	"en": "🇬🇧 English",
	"si": "🇱🇰 සිංහල",
	"ta": "🇮🇳 தமிழ்",
	"hi": "🇮🇳 हिन्दी",
}

// genres is the fixed browse menu. Values double as search queries.
var genres = []string{"Action", "Comedy", "Horror", "Sci-Fi", "Drama", "Animation", "Romance"}

func msg(locale, key string) string {
	if m, ok := messages[locale]; ok {
		if s, ok := m[key]; ok {
			return s
		}
	}
	return messages["en"][key]
}
