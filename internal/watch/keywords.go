package watch

// DefaultKeywords is the built-in watch list. Declaration order is the
// order matched keywords are reported in, so new keywords go at the end
// to keep existing notification text stable.
var DefaultKeywords = []string{
	"SEO", "広告運用", "SNS運用", "ブランディング", "新規事業", "企画",
	"リブランディング", "HPリニューアル", "コンセプトメイキング", "MVV開発",
	"ロゴデザイン", "VI開発", "ブランド戦略", "ブランド開発", "商品開発",
	"イベント", "展示会", "ポップアップ", "PR", "オペレーション",
	"デザイン業務", "経営課題", "ヒアリング", "言語化",
}
