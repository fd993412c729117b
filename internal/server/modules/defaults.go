package modules

// Default content documents of the built-in kinds.

func heroDefaults() map[string]any {
	return map[string]any{
		"badge":           "2025 年度評比",
		"title":           "找到最適合你的產品",
		"subtitle":        "我們測試了 50+ 款產品，為你精選 TOP 10",
		"highlight":       "🔬 專業實測 | ⭐ 真實評分 | 💰 最佳價格",
		"ctaText":         "查看完整評比 →",
		"ctaLink":         "#products",
		"backgroundImage": "",
	}
}

func painPointsDefaults() map[string]any {
	return map[string]any{
		"title": "你是否也有這些困擾？",
		"image": "",
		"points": []any{
			map[string]any{"icon": "😫", "text": "市面上選擇太多，不知道怎麼挑？"},
			map[string]any{"icon": "💸", "text": "擔心花了錢卻買到不適合的產品？"},
			map[string]any{"icon": "🤔", "text": "網路評價真真假假，不知道該相信誰？"},
		},
	}
}

func storyDefaults() map[string]any {
	return map[string]any{
		"title": "我們的故事",
		"image": "",
		"paragraphs": []any{
			"我們也曾經和你一樣迷惘...",
			"經過無數次的研究和測試，我們建立了這個評比網站。",
			"希望能幫助更多人找到真正適合自己的產品。",
		},
	}
}

func methodDefaults() map[string]any {
	return map[string]any{
		"title":    "我們的評測方法",
		"subtitle": "嚴謹、專業、客觀",
		"features": []any{
			map[string]any{"icon": "🔬", "title": "實際測試", "description": "每款產品都經過實際使用測試"},
			map[string]any{"icon": "📊", "title": "數據分析", "description": "結合用戶評價和專業數據"},
			map[string]any{"icon": "💯", "title": "客觀評分", "description": "不收廠商費用，保持中立"},
		},
	}
}

func comparisonDefaults() map[string]any {
	return map[string]any{
		"title":    "哪款產品適合你？",
		"subtitle": "根據你的需求快速找到答案",
		"rows":     []any{},
	}
}

func productsDefaults() map[string]any {
	return map[string]any{
		"title":     "TOP 10 產品評比",
		"subtitle":  "我們精選的最佳產品",
		"showCount": DefaultShowCount,
	}
}

func testimonialsDefaults() map[string]any {
	return map[string]any{
		"title":    "用戶真實評價",
		"subtitle": "看看其他人怎麼說",
		"items":    []any{},
	}
}

func faqDefaults() map[string]any {
	return map[string]any{
		"title":    "常見問題",
		"subtitle": "解答你的疑惑",
		"items":    []any{},
	}
}
